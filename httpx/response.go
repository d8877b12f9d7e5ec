package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/go-taxprep/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Msg     string `json:"msg,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, kind, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: kind, Msg: msg, Details: details})
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindValidation:    http.StatusBadRequest,
	apperr.KindConfiguration: http.StatusUnprocessableEntity,
	apperr.KindStorage:       http.StatusInternalServerError,
	apperr.KindUnauthorized:  http.StatusUnauthorized,
	apperr.KindForbidden:     http.StatusForbidden,
}

// Error writes err as a JSON error body. Storage failures are logged with their
// cause and answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || kind == apperr.KindStorage {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSONError(w, status, string(apperr.KindStorage), "internal error", nil)
		return
	}
	if kind == apperr.KindConfiguration {
		slog.ErrorContext(r.Context(), "missing configuration", "path", r.URL.Path, "error", err)
	}
	var details any
	if len(ae.Details) > 0 {
		details = ae.Details
	}
	JSONError(w, status, string(kind), ae.Msg, details)
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body", map[string]string{"body": err.Error()})
	}
	return nil
}

// PathID parses a positive numeric path value such as {id}.
func PathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid path parameter", map[string]string{name: "must_be_positive_integer"})
	}
	return uint(id), nil
}
