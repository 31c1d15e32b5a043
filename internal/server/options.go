package server

import (
	"log"
	"time"

	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/service"
)

// Option customizes a Server built by NewServer.
type Option func(*Server)

// WithLogger replaces the component logger derived from the global zerolog
// logger. A nil logger is ignored.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger logs through a standard library logger instead.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithService replaces the cached calculator service. MaxPrecision and
// CacheSize of the security config no longer apply.
func WithService(svc service.Service) Option {
	return func(s *Server) {
		if svc != nil {
			s.service = svc
		}
	}
}

// WithTimeouts replaces DefaultServerTimeouts.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) { s.timeouts = timeouts }
}

// WithRateLimiter replaces the default 60 requests per minute limiter.
// Start stops it on return.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = rl }
}

// WithSecurityConfig replaces DefaultSecurityConfig.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) { s.securityConfig = config }
}

// WithMaxPrecision caps the precision, in limbs, of /calculate requests.
func WithMaxPrecision(limbs int) Option {
	return func(s *Server) { s.securityConfig.MaxPrecision = limbs }
}

// Timeouts bounds each phase of a request and the final shutdown.
type Timeouts struct {
	// RequestTimeout bounds one calculation. It is shorter than
	// WriteTimeout so a slow formula is answered with 504 rather than a
	// dropped connection.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// DefaultServerTimeouts returns the production timeouts.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}
