// Package server exposes the coordinator, its consumers and the committed
// event log over HTTP and websocket.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/GPTx-global/oraclelink/app"
	coordinatorkeeper "github.com/GPTx-global/oraclelink/x/coordinator/keeper"
)

// Server serves the HTTP API of an App.
type Server struct {
	app       *app.App
	cfg       Config
	logger    log.Logger
	msgServer coordinatorkeeper.MsgServer
	faucet    sdkmath.Int

	handler    http.Handler
	httpServer *http.Server
}

// New builds the API server for a.
func New(a *app.App, cfg Config, logger log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		app:       a,
		cfg:       cfg,
		logger:    logger.With("module", "api"),
		msgServer: coordinatorkeeper.NewMsgServerImpl(a.CoordinatorKeeper),
	}
	if cfg.EnableFaucet {
		s.faucet, _ = cfg.faucetAmount()
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	var handler http.Handler = router
	handler = newRateLimiter(cfg.RateLimit, cfg.RateBurst).middleware(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(handler)
	s.handler = s.logRequests(handler)

	return s, nil
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/agreements", s.handleRegisterAgreement).Methods(http.MethodPost)
	v1.HandleFunc("/agreements/{id}", s.handleGetAgreement).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{id}", s.handleGetRequest).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{id}/fulfill", s.handleFulfill).Methods(http.MethodPost)
	v1.HandleFunc("/consumers", s.handleListConsumers).Methods(http.MethodGet)
	v1.HandleFunc("/consumers/{name}", s.handleGetConsumer).Methods(http.MethodGet)
	v1.HandleFunc("/consumers/{name}/requests", s.handleConsumerRequest).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{address}", s.handleGetAccount).Methods(http.MethodGet)
	v1.HandleFunc("/oracles/{address}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/events/ws", s.handleEventStream).Methods(http.MethodGet)
	if s.cfg.EnableFaucet {
		v1.HandleFunc("/faucet", s.handleFaucet).Methods(http.MethodPost)
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "address", s.cfg.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to serve API: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("stopping API server")
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
