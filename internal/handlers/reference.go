package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-taxprep/httpx"
	"github.com/diewo77/go-taxprep/internal/policy"
	"github.com/diewo77/go-taxprep/internal/reference"
)

// ReferenceHandler serves the cached reference tables.
type ReferenceHandler struct {
	ref  *reference.Store
	gate *policy.Gate
	log  *slog.Logger
}

func NewReferenceHandler(ref *reference.Store, gate *policy.Gate, log *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{ref: ref, gate: gate, log: log}
}

func (h *ReferenceHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.ref.Products(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ReferenceHandler) Questions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	questions, err := h.ref.QuestionsByCategory(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, questions)
}

func (h *ReferenceHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.ref.Categories(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *ReferenceHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.ref.Statuses(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, statuses)
}

// InvalidateCache drops cached reference data after staff edit it.
func (h *ReferenceHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Authorize(r.Context(), policy.ActionUpdate, "reference", nil); err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.ref.Invalidate()
	h.log.InfoContext(r.Context(), "reference cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}
