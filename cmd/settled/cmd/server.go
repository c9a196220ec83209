package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/app/health"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	// pool reads take the engine lock, so they share one budget
	poolReadsPerSecond = 50
	poolReadBurst      = 100
)

// operatorServer serves Prometheus metrics and the health and pool read
// endpoints of a running engine.
type operatorServer struct {
	logger  log.Logger
	engine  *app.SettlementApp
	limiter *rate.Limiter
	servers []*http.Server
	wg      sync.WaitGroup
}

func newOperatorServer(cfg app.Config, engine *app.SettlementApp, logger log.Logger, enableCORS bool) (*operatorServer, error) {
	s := &operatorServer{
		logger:  logger,
		engine:  engine,
		limiter: rate.NewLimiter(rate.Limit(poolReadsPerSecond), poolReadBurst),
	}

	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		s.servers = append(s.servers, newHTTPServer(cfg.MetricsAddr, metricsMux))
	}

	if cfg.HealthAddr != "" {
		checker, err := health.NewChecker(logger, health.DefaultConfig(), engine)
		if err != nil {
			return nil, err
		}
		router := s.Router(checker)

		var handler http.Handler = handlers.RecoveryHandler()(router)
		if enableCORS {
			handler = handlers.CORS(
				handlers.AllowedOrigins([]string{"*"}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"Content-Type"}),
			)(handler)
		}
		s.servers = append(s.servers, newHTTPServer(cfg.HealthAddr, handler))
	}
	return s, nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Router returns the health and pool routes.
func (s *operatorServer) Router(checker *health.Checker) *mux.Router {
	router := mux.NewRouter()
	checker.RegisterRoutes(router)

	pools := router.PathPrefix("/pools").Subrouter()
	pools.Use(s.rateLimit)
	pools.HandleFunc("", s.handlePools).Methods(http.MethodGet)
	// pool identities contain slashes
	pools.HandleFunc("/{identity:.+}", s.handlePool).Methods(http.MethodGet)
	return router
}

func (s *operatorServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":  "too many pool reads",
				"reason": "rate_limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start serves every configured listener in the background.
func (s *operatorServer) Start() {
	for _, srv := range s.servers {
		srv := srv
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.logger.Info("operator server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("operator server error", "addr", srv.Addr, "error", err)
			}
		}()
	}
}

// Stop shuts the listeners down and waits for them to exit.
func (s *operatorServer) Stop(ctx context.Context) error {
	var errs []error
	for _, srv := range s.servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.wg.Wait()
	return errors.Join(errs...)
}

func (s *operatorServer) handlePools(w http.ResponseWriter, _ *http.Request) {
	pools, err := s.engine.SettlementKeeper.GetAllPools(s.engine.QueryContext())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if pools == nil {
		pools = []types.PoolSnapshot{}
	}
	writeJSON(w, http.StatusOK, pools)
}

func (s *operatorServer) handlePool(w http.ResponseWriter, r *http.Request) {
	identity := mux.Vars(r)["identity"]
	snap, err := s.engine.SettlementKeeper.GetPool(s.engine.QueryContext(), identity)
	switch {
	case errors.Is(err, types.ErrPoolNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error":  err.Error(),
		"reason": types.RejectionTag(err),
	})
}
