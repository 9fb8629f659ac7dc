package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"evstation/internal"
	"evstation/internal/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Listen serves /metrics until ctx is done. Disabled metrics return at once.
func Listen(ctx context.Context, conf *config.Config, logger internal.LogHandler) error {
	if !conf.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              conf.Metrics.BindIP + ":" + conf.Metrics.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()
	logger.Debug(fmt.Sprintf("starting metrics server on %s", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
