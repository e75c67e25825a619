// Package dto holds the JSON bodies exchanged by the HTTP adapters.
package dto

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestResponse reports how the events of one delivery were handled.
type IngestResponse struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

// HealthResponse is the body of the liveness endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
