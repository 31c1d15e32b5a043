package machin

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "machin_calculations_total",
			Help: "The total number of formula evaluations processed",
		},
		[]string{"algorithm", "status"},
	)
	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "machin_calculation_duration_seconds",
			Help: "The duration of formula evaluations in seconds",
		},
		[]string{"algorithm"},
	)
)

// Calculator evaluates a Machin-type formula to decimal digits. It is the
// abstraction used by the orchestration layer and the HTTP server.
type Calculator interface {
	// Calculate evaluates the formula described by p. Progress updates are
	// sent to progressChan without blocking; the context cancels the
	// calculation between blocks.
	//
	// Parameters:
	//   - ctx: The context for managing cancellation and deadlines.
	//   - progressChan: The channel for sending progress updates (may be nil).
	//   - calcIndex: A unique index for the calculator instance.
	//   - p: The formula and precision.
	//   - opts: The block geometry.
	//
	// Returns:
	//   - Digits: The decimal rendering of the result.
	//   - error: A validation error, a context error, or an internal error.
	Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, p Params, opts Options) (Digits, error)

	// Name returns the display name of the algorithm.
	Name() string
}

// coreCalculator is a pure evaluation algorithm producing a filled
// accumulator. Parameters are validated before it is called.
type coreCalculator interface {
	CalculateCore(ctx context.Context, reporter ProgressReporter, p Params, opts Options) (*Accumulator, error)
	Name() string
}

// FormulaCalculator decorates a coreCalculator with validation, progress
// adaptation, rendering, tracing, metrics and logging.
type FormulaCalculator struct {
	core coreCalculator
}

// NewCalculator wraps a core calculator. It panics if core is nil.
func NewCalculator(core coreCalculator) Calculator {
	if core == nil {
		panic("machin: the coreCalculator implementation cannot be nil")
	}
	return &FormulaCalculator{core: core}
}

// Name delegates to the core calculator.
func (c *FormulaCalculator) Name() string {
	return c.core.Name()
}

// Calculate implements Calculator using a channel observer.
func (c *FormulaCalculator) Calculate(ctx context.Context, progressChan chan<- ProgressUpdate, calcIndex int, p Params, opts Options) (Digits, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return c.CalculateWithObservers(ctx, subject, calcIndex, p, opts)
}

// CalculateWithObservers evaluates the formula and notifies every observer
// registered on subject.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - subject: The progress subject. If nil, progress is ignored.
//   - calcIndex: A unique index for the calculator instance.
//   - p: The formula and precision.
//   - opts: The block geometry.
//
// Returns:
//   - Digits: The decimal rendering of the result.
//   - error: An error if one occurred.
func (c *FormulaCalculator) CalculateWithObservers(ctx context.Context, subject *ProgressSubject, calcIndex int, p Params, opts Options) (result Digits, err error) {
	ctx, span := otel.Tracer("machin").Start(ctx, "Calculate")
	defer span.End()
	span.SetAttributes(
		attribute.String("algorithm", c.core.Name()),
		attribute.Int("precision", p.Precision),
		attribute.Int("terms", len(p.Terms)),
	)

	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		algo := c.core.Name()
		calculationsTotal.WithLabelValues(algo, status).Inc()
		calculationDuration.WithLabelValues(algo).Observe(duration)

		log.Debug().
			Str("algo", algo).
			Str("formula", p.String()).
			Int("precision", p.Precision).
			Float64("duration", duration).
			Str("status", status).
			Msg("calculation completed")
	}()

	opts = opts.normalize()
	if err = p.Validate(); err != nil {
		return Digits{}, err
	}
	if err = opts.Validate(); err != nil {
		return Digits{}, err
	}

	reporter := func(float64) {}
	if subject != nil {
		reporter = subject.AsProgressReporter(calcIndex)
	}

	acc, err := c.core.CalculateCore(ctx, reporter, p, opts)
	if err != nil {
		return Digits{}, err
	}
	reporter(1.0)
	return acc.Render(), nil
}
