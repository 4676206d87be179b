package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrResponse is the JSON error body returned by every endpoint.
type ErrResponse struct {
	HTTPStatusCode int    `json:"status"`
	ErrorText      string `json:"error"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errResponse(status int, msg string) *ErrResponse {
	return &ErrResponse{HTTPStatusCode: status, ErrorText: msg}
}

var (
	errNotFound         = errResponse(http.StatusNotFound, "not found")
	errMethodNotAllowed = errResponse(http.StatusMethodNotAllowed, "method not allowed")
	errTooManyRequests  = errResponse(http.StatusTooManyRequests, "rate limit exceeded")
	errInternal         = errResponse(http.StatusInternalServerError, "internal server error")
	errNoFile           = errResponse(http.StatusBadRequest, "no file uploaded")
	errTooLarge         = errResponse(http.StatusRequestEntityTooLarge, "file too large")
)
