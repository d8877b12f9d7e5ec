package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-taxprep/internal/apperr"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		kind     string
		msg      string
		hasCause bool
	}{
		{"not found", apperr.NotFound("quote %d not found", 3), http.StatusNotFound, "not_found", "quote 3 not found", false},
		{"validation", apperr.Validation("invalid input", map[string]string{"price": "gte"}), http.StatusBadRequest, "validation_failed", "invalid input", false},
		{"configuration", apperr.Configuration("no fee"), http.StatusUnprocessableEntity, "configuration_error", "no fee", false},
		{"storage", apperr.Storage("insert", errors.New("pq: deadlock detected")), http.StatusInternalServerError, "storage_error", "internal error", true},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "storage_error", "internal error", true},
		{"forbidden", apperr.Forbidden("not your quote"), http.StatusForbidden, "forbidden", "not your quote", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Error(rr, httptest.NewRequest(http.MethodGet, "/api/quotes/3", nil), tt.err)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.kind || body.Msg != tt.msg {
				t.Fatalf("body = %+v", body)
			}
			if strings.Contains(rr.Body.String(), "deadlock") {
				t.Fatal("storage cause leaked to client")
			}
		})
	}
}

func TestValidationDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, httptest.NewRequest(http.MethodPost, "/api/quotes", nil), apperr.Validation("invalid input", map[string]string{"lineItems": "required"}))
	if !strings.Contains(rr.Body.String(), `"details":{"lineItems":"required"}`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	if err := DecodeJSON(r, &dst); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.Name != "x" {
		t.Fatalf("DecodeJSON() = %v, %+v", err, dst)
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var got uint
	var gotErr error
	mux.HandleFunc("GET /q/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "id")
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/q/42", nil))
	if gotErr != nil || got != 42 {
		t.Fatalf("PathID = %d, %v", got, gotErr)
	}
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/q/0", nil))
	if !errors.Is(gotErr, apperr.ErrValidation) {
		t.Fatalf("expected validation error for 0, got %v", gotErr)
	}
}
