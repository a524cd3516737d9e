// Package shared holds the response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed;
// the status line has already gone out.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck
	}
}

// WriteError maps a coded domain error onto an HTTP status and JSON body.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)
	body := errorBody{Error: string(code)}
	if status < http.StatusInternalServerError {
		body.Message = err.Error()
	}
	WriteJSON(w, status, body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a request body into dst, mapping failures to a
// bad-request domain error.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
