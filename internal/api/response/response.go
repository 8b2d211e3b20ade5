// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/signalpro/internal/core"
)

// statusByCode maps core error codes to HTTP statuses. Codes not listed,
// and errors that are not *core.Error, are 500s.
var statusByCode = map[string]int{
	core.ErrInvalidSignal.Code:  http.StatusBadRequest,
	core.ErrInvalidFilter.Code:  http.StatusBadRequest,
	core.ErrUnauthorized.Code:   http.StatusUnauthorized,
	core.ErrSignalNotFound.Code: http.StatusNotFound,
	core.ErrJobNotFound.Code:    http.StatusNotFound,
	core.ErrReportNotFound.Code: http.StatusNotFound,
	core.ErrJobNotFinished.Code: http.StatusConflict,
	core.ErrSessionClosed.Code:  http.StatusServiceUnavailable,
}

// Meta carries per-response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// SuccessResponse wraps handler data as {data, meta}.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse wraps an ErrorDetail as {error}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
	Meta  Meta        `json:"meta"`
}

// JSON writes data with status inside the success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, SuccessResponse{Data: data, Meta: meta(w)})
}

// Error writes err in the error envelope. The status follows the error's
// code, see StatusFor.
func Error(w http.ResponseWriter, err error) {
	write(w, StatusFor(err), ErrorResponse{Error: detail(err), Meta: meta(w)})
}

// StatusFor maps err to an HTTP status by its core error code.
func StatusFor(err error) int {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if status, ok := statusByCode[coreErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

func detail(err error) ErrorDetail {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		// Unstructured errors may carry internals; keep them out of the body.
		return ErrorDetail{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
	d := ErrorDetail{Code: coreErr.Code, Message: coreErr.Message}
	if coreErr.Cause != nil {
		d.Cause = coreErr.Cause.Error()
	}
	return d
}

// meta picks up the request ID set by the logging middleware.
func meta(w http.ResponseWriter) Meta {
	return Meta{
		Timestamp: time.Now().UTC(),
		RequestID: w.Header().Get("X-Request-ID"),
	}
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
