package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agbru/machin/internal/config"
	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/service"
	"github.com/agbru/machin/pkg/models"
)

var piDigits = machin.Digits{Integer: "3", Fraction: "14159265358979323846"}

// captureCalculator records the formula and options it was asked for.
type captureCalculator struct {
	result machin.Digits
	err    error
	params machin.Params
	opts   machin.Options
}

func (c *captureCalculator) Name() string { return "Capture" }

func (c *captureCalculator) Calculate(_ context.Context, _ chan<- machin.ProgressUpdate, _ int, p machin.Params, opts machin.Options) (machin.Digits, error) {
	c.params, c.opts = p, opts
	return c.result, c.err
}

// newTestServer builds a quiet server over a test factory and releases its
// rate limiter when the test ends.
func newTestServer(t *testing.T, registry map[string]machin.Calculator, opts ...Option) *Server {
	t.Helper()
	cfg := config.AppConfig{Port: "0", Algo: "capture", BlockWidth: 16, BlockHeight: 8}
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s := NewServer(machin.NewTestFactory(registry), cfg, opts...)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func TestHandleCalculate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		query      string
		calcErr    error
		wantStatus int
		wantText   string
	}{
		{name: "default formula", query: "", wantStatus: http.StatusOK, wantText: piDigits.String()},
		{name: "explicit formula", query: "?precision=4&scale=4&terms=4:5,1:239", wantStatus: http.StatusOK, wantText: piDigits.String()},
		{name: "invalid precision", query: "?precision=abc", wantStatus: http.StatusBadRequest, wantText: "Invalid 'precision'"},
		{name: "zero precision", query: "?precision=0", wantStatus: http.StatusBadRequest, wantText: "precision"},
		{name: "invalid scale", query: "?scale=-4", wantStatus: http.StatusBadRequest, wantText: "Invalid 'scale'"},
		{name: "malformed terms", query: "?terms=5-7", wantStatus: http.StatusBadRequest, wantText: "Invalid 'terms'"},
		{name: "empty terms", query: "?terms=", wantStatus: http.StatusBadRequest, wantText: "Invalid 'terms'"},
		{name: "argument one", query: "?terms=1:1", wantStatus: http.StatusBadRequest, wantText: "terms[0].argument"},
		{name: "unknown algorithm", query: "?algo=unknown", wantStatus: http.StatusBadRequest, wantText: "unknown calculator"},
		{name: "calculation error", query: "", calcErr: errors.New("calc error"), wantStatus: http.StatusInternalServerError, wantText: "calc error"},
		{name: "timeout", query: "", calcErr: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantText: "deadline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calc := &captureCalculator{result: piDigits, err: tt.calcErr}
			s := newTestServer(t, map[string]machin.Calculator{"capture": calc})

			w := httptest.NewRecorder()
			s.handleCalculate(w, httptest.NewRequest(http.MethodGet, "/calculate"+tt.query, http.NoBody))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantText) {
				t.Errorf("body %s does not contain %q", w.Body.String(), tt.wantText)
			}
		})
	}
}

func TestHandleCalculateResponse(t *testing.T) {
	t.Parallel()
	calc := &captureCalculator{result: piDigits}
	s := newTestServer(t, map[string]machin.Calculator{"capture": calc})

	w := httptest.NewRecorder()
	s.handleCalculate(w, httptest.NewRequest(http.MethodGet, "/calculate?precision=4&scale=4&terms=4:5,1:239", http.NoBody))

	var resp models.CalculationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Formula != "4 * (4*arccot(5) + 1*arccot(239))" || resp.Precision != 4 || resp.Scale != 4 {
		t.Errorf("unexpected formula echo %+v", resp)
	}
	if len(resp.Terms) != 2 || resp.Terms[1] != (models.TermDTO{Multiplier: 1, Argument: 239}) {
		t.Errorf("terms = %+v", resp.Terms)
	}
	if resp.Algorithm != "Capture" || resp.Digits != piDigits.Len() || resp.Cached {
		t.Errorf("unexpected response %+v", resp)
	}
	if calc.opts.BlockWidth != 16 || calc.opts.BlockHeight != 8 {
		t.Errorf("block geometry not passed to the calculator: %+v", calc.opts)
	}
	if calc.params.Precision != 4 || len(calc.params.Terms) != 2 {
		t.Errorf("calculator received %+v", calc.params)
	}

	w = httptest.NewRecorder()
	s.handleCalculate(w, httptest.NewRequest(http.MethodGet, "/calculate?precision=4&scale=4&terms=4:5,1:239", http.NoBody))
	resp = models.CalculationResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Cached {
		t.Error("second identical request should be served from the cache")
	}
}

func TestHandleCalculateRealKernel(t *testing.T) {
	t.Parallel()
	s := NewServer(machin.NewDefaultFactory(), config.AppConfig{Port: "0"},
		WithLogger(quietLogger()))
	t.Cleanup(s.rateLimiter.Stop)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calculate?algo=reference", http.NoBody))
	var resp models.CalculationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || !strings.HasPrefix(resp.Result, "3.14159265358979323846") {
		t.Errorf("status %d, result %q", w.Code, resp.Result)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	var resp models.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || resp.Status != "healthy" || resp.Timestamp == 0 {
		t.Errorf("unexpected health response %d %+v", w.Code, resp)
	}
}

func TestHandleAlgorithms(t *testing.T) {
	t.Parallel()
	calc := &captureCalculator{}
	s := newTestServer(t, map[string]machin.Calculator{"reference": calc, "blockwise": calc})
	w := httptest.NewRecorder()
	s.handleAlgorithms(w, httptest.NewRequest(http.MethodGet, "/algorithms", http.NoBody))

	var resp models.AlgorithmsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Algorithms) != 2 || resp.Algorithms[0] != "blockwise" {
		t.Errorf("algorithms = %v", resp.Algorithms)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	for _, endpoint := range []string{"/calculate", "/health", "/algorithms", "/metrics"} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, endpoint, http.NoBody))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s = %d, want 405", endpoint, w.Code)
		}
	}
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := newTestServer(t, nil, WithStdLogger(log.New(&buf, "", 0)))

	called := false
	wrapped := s.loggingMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})
	wrapped(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	if !called {
		t.Error("handler was not called")
	}
	if !strings.Contains(buf.String(), "path=/test") || !strings.Contains(buf.String(), "status=418") {
		t.Errorf("unexpected log line %q", buf.String())
	}
}

// fakeService returns a fixed result or error.
type fakeService struct {
	res service.Result
	err error
}

func (f *fakeService) Calculate(context.Context, string, machin.Params) (service.Result, error) {
	return f.res, f.err
}

func TestWithService(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil, WithService(&fakeService{err: service.ErrMaxPrecisionExceeded}), WithMaxPrecision(10))
	w := httptest.NewRecorder()
	s.handleCalculate(w, httptest.NewRequest(http.MethodGet, "/calculate", http.NoBody))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "maximum allowed (10 limbs)") {
		t.Errorf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestWithTimeouts(t *testing.T) {
	t.Parallel()
	custom := Timeouts{
		RequestTimeout:  time.Second,
		ShutdownTimeout: 2 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    4 * time.Second,
		IdleTimeout:     5 * time.Second,
	}
	s := newTestServer(t, nil, WithTimeouts(custom))
	if s.timeouts != custom {
		t.Errorf("timeouts = %+v", s.timeouts)
	}
	if s.httpServer.ReadTimeout != 3*time.Second || s.httpServer.IdleTimeout != 5*time.Second {
		t.Error("http.Server timeouts were not applied")
	}
}

func TestDefaultAlgorithm(t *testing.T) {
	t.Parallel()
	s := NewServer(machin.NewTestFactory(nil), config.AppConfig{Algo: config.AllAlgos},
		WithLogger(quietLogger()))
	t.Cleanup(s.rateLimiter.Stop)
	if s.defaultAlgo != config.DefaultAlgo {
		t.Errorf("defaultAlgo = %q, want %q", s.defaultAlgo, config.DefaultAlgo)
	}
}

func TestStatusForError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{machin.Params{}.Validate(), http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStartStopsOnContext(t *testing.T) {
	t.Parallel()
	s := NewServer(machin.NewTestFactory(nil), config.AppConfig{Port: "0"},
		WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func quietLogger() logging.Logger {
	return logging.NewLogger(io.Discard, "server")
}

func configForBench() config.AppConfig {
	return config.AppConfig{Port: "0", Algo: config.DefaultAlgo}
}

func TestStartBindError(t *testing.T) {
	t.Parallel()
	s := NewServer(machin.NewTestFactory(nil), config.AppConfig{Port: "not-a-port"}, WithLogger(quietLogger()))
	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("Start() on an invalid port should fail")
	}
	if !strings.Contains(err.Error(), "server failed to start") {
		t.Errorf("Start() = %v", err)
	}
}
