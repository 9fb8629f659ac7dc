package api

import (
	"fmt"
	"net/http"

	"evstation/utility"

	"github.com/julienschmidt/httprouter"
)

// handleReadLog returns the feature log stored in the database.
func (s *Server) handleReadLog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.logger.Debug(fmt.Sprintf("api call ReadLog from remote %s", r.RemoteAddr))
	if s.database == nil {
		s.writeError(w, r, http.StatusNotFound, utility.Err("log database is not configured"))
		return
	}
	data, err := s.database.ReadLog()
	if err != nil {
		s.logger.Error("read log error", err)
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}
