// Package service runs single formula evaluations on behalf of the HTTP
// server, enforcing the precision limit and caching rendered results.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/agbru/machin/internal/config"
	"github.com/agbru/machin/internal/machin"
)

// DefaultCacheSize is the number of results kept by NewCalculatorService
// when no explicit size is given.
const DefaultCacheSize = 128

var (
	// ErrMaxPrecisionExceeded is returned when the requested precision is
	// above the configured limit.
	ErrMaxPrecisionExceeded = errors.New("maximum precision exceeded")
)

// Result is the outcome of one service call.
type Result struct {
	Digits    machin.Digits
	Algorithm string
	Duration  time.Duration
	// Cached is true when the digits were served from the result cache.
	Cached bool
}

// Service defines the interface for formula evaluation services.
type Service interface {
	// Calculate evaluates p with the named algorithm.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - algoName: The name of the algorithm to use.
	//   - p: The formula and precision.
	//
	// Returns:
	//   - Result: The digits and timing.
	//   - error: An error if validation or calculation fails.
	Calculate(ctx context.Context, algoName string, p machin.Params) (Result, error)
}

// CalculatorService implements Service on top of a calculator factory.
type CalculatorService struct {
	factory      machin.CalculatorFactory
	opts         machin.Options
	maxPrecision int
	cache        *resultCache
}

var _ Service = (*CalculatorService)(nil)

// NewCalculatorService creates a new instance of CalculatorService.
//
// Parameters:
//   - factory: The factory to retrieve calculators from.
//   - cfg: The application configuration, for the block geometry.
//   - maxPrecision: The maximum allowed precision in limbs (0 for no limit).
//   - cacheSize: The number of results to keep (0 disables the cache).
func NewCalculatorService(factory machin.CalculatorFactory, cfg config.AppConfig, maxPrecision, cacheSize int) *CalculatorService {
	return &CalculatorService{
		factory:      factory,
		opts:         cfg.ToOptions(),
		maxPrecision: maxPrecision,
		cache:        newResultCache(cacheSize),
	}
}

// Calculate checks the precision limit, consults the cache and otherwise
// runs the requested calculator synchronously. Failed calculations are not
// cached.
func (s *CalculatorService) Calculate(ctx context.Context, algoName string, p machin.Params) (Result, error) {
	if s.maxPrecision > 0 && p.Precision > s.maxPrecision {
		return Result{}, ErrMaxPrecisionExceeded
	}

	calc, err := s.factory.Get(algoName)
	if err != nil {
		return Result{}, err
	}

	key := cacheKey(algoName, p, s.opts)
	if digits, ok := s.cache.get(key); ok {
		return Result{Digits: digits, Algorithm: calc.Name(), Cached: true}, nil
	}

	start := time.Now()
	digits, err := calc.Calculate(ctx, nil, 0, p, s.opts)
	res := Result{Digits: digits, Algorithm: calc.Name(), Duration: time.Since(start)}
	if err != nil {
		return res, err
	}
	s.cache.put(key, digits)
	return res, nil
}
