// Package models defines the JSON documents exchanged by the command-line
// tool (-json) and the HTTP server.
package models

// TermDTO is one multiplier*arccot(argument) summand.
type TermDTO struct {
	Multiplier uint32 `json:"multiplier"`
	Argument   uint32 `json:"argument"`
}

// CalculationResponse is the result of one formula evaluation.
type CalculationResponse struct {
	Formula   string    `json:"formula"`
	Precision int       `json:"precision"`
	Scale     uint64    `json:"scale"`
	Terms     []TermDTO `json:"terms"`
	Algorithm string    `json:"algorithm"`
	Result    string    `json:"result,omitempty"`
	Digits    int       `json:"digits"`
	Duration  string    `json:"duration"`
	Cached    bool      `json:"cached,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ErrorResponse is returned by the server for any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// AlgorithmsResponse is returned by /algorithms.
type AlgorithmsResponse struct {
	Algorithms []string `json:"algorithms"`
}
