package httpinterface

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	"github.com/tdex-network/oracle-dispatcher/internal/interfaces"
	"github.com/tdex-network/oracle-dispatcher/pkg/heartbeat"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Address string
	Health  ports.HealthReporter
	// Gatherer serves /metrics. Defaults to stats.Registry.
	Gatherer prometheus.Gatherer
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if opts.Address == "" {
		return nil, ErrMissingAddress
	}
	if opts.Health == nil {
		return nil, ErrMissingHealthReporter
	}
	if opts.Gatherer == nil {
		opts.Gatherer = stats.Registry
	}
	return &service{opts: opts}, nil
}

// Start returns once the server is listening.
func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           NewRouter(s.opts.Health, s.opts.Gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http interface stopped unexpectedly")
		}
	}()

	log.WithField("address", lis.Addr().String()).Info("http interface listening")
	return nil
}

func (s *service) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
	}
	log.Debug("disabled http interface")
}

// NewRouter returns the handler serving /health and /metrics.
func NewRouter(health ports.HealthReporter, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequest)
	router.HandleFunc("/health", healthHandler(health)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	return router
}

type healthResponse struct {
	Alive      bool                        `json:"alive"`
	Heartbeats map[string]heartbeat.Status `json:"heartbeats"`
}

func healthHandler(health ports.HealthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		// alive is folded from the same summary written in the body.
		summary := health.Summary()
		alive := true

		for name, status := range summary {
			value := 0.0
			if status.Alive {
				value = 1
			} else {
				alive = false
			}
			stats.HeartbeatAlive.WithLabelValues(name).Set(value)
		}

		status := http.StatusOK
		if !alive {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, healthResponse{alive, summary})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"module":  "http",
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start).String(),
		}).Trace("request served")
	})
}
