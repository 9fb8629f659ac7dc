package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"evstation/dispatch"
	"evstation/evse"
	"evstation/internal"
	"evstation/internal/config"
	"evstation/power"
	"evstation/types"
	"evstation/utility"

	"github.com/julienschmidt/httprouter"
)

const (
	apiPrefix       = "/api"
	defaultDuration = 3600
)

// Station is the part of the charging station the local API drives.
type Station interface {
	Booted() bool
	StartLocalTransaction(ctx context.Context, evseId int, idToken types.IdToken) (evse.Transaction, error)
	StopLocalTransaction(transactionId string) error
	SendMeterValues(evseId int, values []types.MeterValue) error
}

type Components struct {
	StationId  string
	Station    Station
	Profiles   *power.ProfileManager
	Calculator *power.CompositeCalculator
	Limits     *power.LimitPublisher
	Dispatcher *dispatch.Dispatcher
	Evses      *evse.Manager
}

// Server is the local HTTP API used by the energy manager and by operators
// on site.
type Server struct {
	conf       *config.Config
	httpServer *http.Server
	components Components
	database   internal.Database
	logger     internal.LogHandler
}

type statusResponse struct {
	StationId    string             `json:"stationId"`
	Booted       bool               `json:"booted"`
	Dispatcher   dispatch.Status    `json:"dispatcher"`
	Transactions []evse.Transaction `json:"transactions"`
}

type profileRequest struct {
	EvseId      int                           `json:"evseId"`
	LimitSource types.ChargingLimitSourceType `json:"chargingLimitSource"`
	Profile     *types.ChargingProfile        `json:"chargingProfile"`
}

type transactionRequest struct {
	EvseId  int           `json:"evseId"`
	IdToken types.IdToken `json:"idToken"`
}

type meterValuesRequest struct {
	EvseId     int                `json:"evseId"`
	MeterValue []types.MeterValue `json:"meterValue"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(conf *config.Config, components Components, logger internal.LogHandler) *Server {
	if logger == nil {
		logger = internal.NopLogger{}
	}
	server := &Server{
		conf:       conf,
		components: components,
		logger:     logger,
	}
	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", conf.Api.BindIP, conf.Api.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

func (s *Server) SetDatabase(database internal.Database) {
	s.database = database
}

func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	s.Register(router)
	return router
}

func (s *Server) Register(router *httprouter.Router) {
	router.GET(apiPrefix+"/status", s.handleStatus)
	router.GET(apiPrefix+"/profiles", s.handleListProfiles)
	router.POST(apiPrefix+"/profiles", s.handleAddProfile)
	router.DELETE(apiPrefix+"/profiles/:id", s.handleClearProfile)
	router.GET(apiPrefix+"/composite/:evse", s.handleComposite)
	router.GET(apiPrefix+"/limits", s.handleLimits)
	router.POST(apiPrefix+"/transactions", s.handleStartTransaction)
	router.DELETE(apiPrefix+"/transactions/:id", s.handleStopTransaction)
	router.POST(apiPrefix+"/meter-values", s.handleMeterValues)
	router.GET(apiPrefix+"/log", s.handleReadLog)
}

func (s *Server) Start() error {
	if !s.conf.Api.Enabled {
		return nil
	}
	s.logger.Debug(fmt.Sprintf("starting api server on %s", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	c := s.components
	s.writeJSON(w, http.StatusOK, statusResponse{
		StationId:    c.StationId,
		Booted:       c.Station.Booted(),
		Dispatcher:   c.Dispatcher.Status(),
		Transactions: c.Evses.Transactions(),
	})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria := &types.ProfileCriteria{}
	if value := r.URL.Query().Get("evse"); value != "" {
		evseId, err := strconv.Atoi(value)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid evse: %w", err))
			return
		}
		criteria.EvseId = &evseId
	}
	criteria.Purpose = types.ChargingProfilePurposeType(r.URL.Query().Get("purpose"))
	records := s.components.Profiles.GetReportedProfiles(criteria)
	if records == nil {
		records = []*types.ProfileRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleAddProfile is how the energy manager installs external constraints;
// the CSMS goes through SetChargingProfile instead.
func (s *Server) handleAddProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request profileRequest
	if !s.decode(w, r, &request) {
		return
	}
	if request.Profile == nil {
		s.writeError(w, r, http.StatusBadRequest, utility.Err("chargingProfile is required"))
		return
	}
	source := request.LimitSource
	if source == "" {
		source = types.ChargingLimitSourceEMS
	}
	response := s.components.Profiles.AddProfile(request.Profile, request.EvseId, source, types.ProfileSourceInstallation)
	status := http.StatusOK
	if response.Status != types.ChargingProfileStatusAccepted {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, response)
}

func (s *Server) handleClearProfile(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	profileId, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid profile id: %w", err))
		return
	}
	status := s.components.Profiles.ClearProfiles(power.ClearCriteria{ProfileId: &profileId})
	if status != types.ClearChargingProfileStatusAccepted {
		s.writeJSON(w, http.StatusNotFound, map[string]types.ClearChargingProfileStatus{"status": status})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]types.ClearChargingProfileStatus{"status": status})
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	evseId, err := strconv.Atoi(params.ByName("evse"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid evse: %w", err))
		return
	}
	if evseId != 0 && !s.components.Evses.EvseExists(evseId) {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("unknown evse %d", evseId))
		return
	}
	duration := defaultDuration
	if value := r.URL.Query().Get("duration"); value != "" {
		if duration, err = strconv.Atoi(value); err != nil || duration <= 0 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid duration %q", value))
			return
		}
	}
	unit := types.ChargingRateUnitType(r.URL.Query().Get("unit"))
	switch unit {
	case "", types.ChargingRateUnitAmperes, types.ChargingRateUnitWatts:
	default:
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid unit %q", unit))
		return
	}
	start := time.Now().Truncate(time.Second)
	schedule := s.components.Calculator.Calculate(power.CompositeRequest{
		Start:              start,
		End:                start.Add(time.Duration(duration) * time.Second),
		EvseId:             evseId,
		RateUnit:           unit,
		IncludeStationWide: true,
	})
	s.writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleLimits(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	limits := s.components.Limits.Limits()
	if limits == nil {
		limits = []power.EffectiveLimit{}
	}
	s.writeJSON(w, http.StatusOK, limits)
}

func (s *Server) handleStartTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request transactionRequest
	if !s.decode(w, r, &request) {
		return
	}
	if request.IdToken.Type == "" {
		request.IdToken.Type = types.IdTokenTypeLocal
	}
	tx, err := s.components.Station.StartLocalTransaction(r.Context(), request.EvseId, request.IdToken)
	if err != nil {
		s.writeError(w, r, http.StatusConflict, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleStopTransaction(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if err := s.components.Station.StopLocalTransaction(params.ByName("id")); err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMeterValues(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request meterValuesRequest
	if !s.decode(w, r, &request) {
		return
	}
	if err := s.components.Station.SendMeterValues(request.EvseId, request.MeterValue); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding api response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn(fmt.Sprintf("api: %s %s from %s: %s", r.Method, r.URL.Path, r.RemoteAddr, err))
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
