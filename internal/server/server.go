package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/machin/internal/config"
	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/service"
)

// Server serves the calculation API over HTTP. Every route goes through
// the security, rate-limit, logging and metrics middleware.
type Server struct {
	factory        machin.CalculatorFactory
	service        service.Service
	cfg            config.AppConfig
	defaultAlgo    string
	httpServer     *http.Server
	logger         logging.Logger
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer builds a Server on factory. cfg supplies the port, the block
// geometry of every calculation and the default algorithm; "all" falls back
// to the block-wise kernel since a request runs one calculator.
func NewServer(factory machin.CalculatorFactory, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		factory:        factory,
		cfg:            cfg,
		defaultAlgo:    cfg.Algo,
		logger:         logging.FromGlobal("server"),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	if s.defaultAlgo == "" || s.defaultAlgo == config.AllAlgos {
		s.defaultAlgo = config.DefaultAlgo
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		s.service = service.NewCalculatorService(s.factory, s.cfg, s.securityConfig.MaxPrecision, s.securityConfig.CacheSize)
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	mux := http.NewServeMux()

	// Security -> RateLimit -> Logging -> Metrics -> Handler
	mux.HandleFunc("/calculate", s.wrapWithMiddleware(s.handleCalculate))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/algorithms", s.wrapWithMiddleware(s.handleAlgorithms))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// Handler returns the routed middleware stack, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start binds the configured port and serves until ctx is done or the
// process receives SIGINT or SIGTERM, then drains in-flight requests for at
// most Timeouts.ShutdownTimeout.
//
// Returns:
//   - error: A ServerError if the port cannot be bound or the shutdown
//     does not complete.
func (s *Server) Start(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("starting server",
		logging.String("addr", ln.Addr().String()),
		logging.String("algo", s.defaultAlgo),
		logging.Int("block_width", s.cfg.BlockWidth),
		logging.Int("block_height", s.cfg.BlockHeight),
		logging.Int("max_precision", s.securityConfig.MaxPrecision))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return apperrors.NewServerError("server stopped unexpectedly", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down", logging.Err(context.Cause(ctx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("server stopped")
	return nil
}
