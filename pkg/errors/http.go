package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// Response is the JSON body written for a failed request.
type Response struct {
	Error   string                 `json:"error"`
	Code    ErrorCode              `json:"code"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToResponse converts any error into the payload and status to send to the client.
func ToResponse(err error) Response {
	var e *Error
	if !errors.As(err, &e) {
		return Response{
			Error:  "internal server error",
			Code:   ErrCodeInternal,
			Status: http.StatusInternalServerError,
		}
	}

	resp := Response{
		Error:  e.Message,
		Code:   e.Code,
		Status: e.HTTPStatusCode(),
	}
	if e.Code != ErrCodeInternal && e.Code != ErrCodePasswordHash {
		resp.Details = e.Details
	}
	return resp
}

// WriteHTTP renders err as a JSON error response.
func WriteHTTP(w http.ResponseWriter, r *http.Request, err error) {
	resp := ToResponse(err)
	if resp.Status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	}
	render.Status(r, resp.Status)
	render.JSON(w, r, resp)
}
