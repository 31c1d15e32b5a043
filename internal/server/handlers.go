package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agbru/machin/internal/config"
	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/service"
	"github.com/agbru/machin/pkg/models"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	})
}

// handleAlgorithms returns the registered calculator names.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, models.AlgorithmsResponse{Algorithms: s.factory.List()})
}

// handleCalculate evaluates the formula given by the query parameters
// 'precision', 'scale', 'terms' (m:a,m:a) and 'algo'. Missing parameters
// take the value of the default formula.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	p, algo, err := parseCalculateParams(r, s.defaultAlgo)
	if err != nil {
		var parseErr CalculateParseError
		if errors.As(err, &parseErr) {
			s.writeErrorResponse(w, parseErr.StatusCode, parseErr.Message)
		} else {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	res, err := s.service.Calculate(ctx, algo, p)
	if errors.Is(err, service.ErrMaxPrecisionExceeded) {
		s.writeErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Value of 'precision' exceeds maximum allowed (%d limbs).", s.securityConfig.MaxPrecision))
		return
	}
	var unknown *machin.UnknownCalculatorError
	if errors.As(err, &unknown) {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("calculation failed", err, logging.String("algo", algo), logging.String("formula", p.String()))
	}

	s.writeJSONResponse(w, statusForError(err), buildCalculateResponse(p, algo, res, err))
}

// parseCalculateParams extracts the formula and algorithm from the request
// and validates the formula.
//
// Returns:
//   - machin.Params: The validated formula.
//   - string: The algorithm name (defaultAlgo if not specified).
//   - error: A CalculateParseError if parsing or validation fails.
func parseCalculateParams(r *http.Request, defaultAlgo string) (machin.Params, string, error) {
	q := r.URL.Query()
	p := machin.DefaultParams()

	if v := q.Get("precision"); v != "" {
		precision, err := strconv.Atoi(v)
		if err != nil {
			return machin.Params{}, "", badRequest("Invalid 'precision' parameter: must be an integer number of limbs")
		}
		p.Precision = precision
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return machin.Params{}, "", badRequest("Invalid 'scale' parameter: must be a positive integer")
		}
		p.Scale = scale
	}
	if q.Has("terms") {
		terms, err := config.ParseTermList(q.Get("terms"))
		if err != nil {
			return machin.Params{}, "", badRequest(fmt.Sprintf("Invalid 'terms' parameter: %v", err))
		}
		p.Terms = terms
	}
	if err := p.Validate(); err != nil {
		return machin.Params{}, "", badRequest(err.Error())
	}

	algo := q.Get("algo")
	if algo == "" {
		algo = defaultAlgo
	}
	return p, algo, nil
}

// CalculateParseError is a /calculate query that could not be turned into
// a valid formula. It is always answered with StatusCode.
type CalculateParseError struct {
	Message    string
	StatusCode int
}

func (e CalculateParseError) Error() string { return e.Message }

func badRequest(msg string) CalculateParseError {
	return CalculateParseError{Message: msg, StatusCode: http.StatusBadRequest}
}

// statusForError maps a calculation error to an HTTP status.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case apperrors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// buildCalculateResponse constructs the response document for a calculation.
func buildCalculateResponse(p machin.Params, algo string, res service.Result, err error) models.CalculationResponse {
	terms := make([]models.TermDTO, len(p.Terms))
	for i, t := range p.Terms {
		terms[i] = models.TermDTO{Multiplier: uint32(t.Multiplier), Argument: uint32(t.Argument)}
	}
	if res.Algorithm != "" {
		algo = res.Algorithm
	}
	resp := models.CalculationResponse{
		Formula:   p.String(),
		Precision: p.Precision,
		Scale:     p.Scale,
		Terms:     terms,
		Algorithm: algo,
		Duration:  res.Duration.String(),
		Cached:    res.Cached,
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = res.Digits.String()
	resp.Digits = res.Digits.Len()
	return resp
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
