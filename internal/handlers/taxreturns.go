package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-taxprep/auth"
	"github.com/diewo77/go-taxprep/httpx"
	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/policy"
	"github.com/diewo77/go-taxprep/internal/services"
)

type TaxReturnHandler struct {
	taxReturns *services.TaxReturnService
	answers    *services.AnswerService
	gate       *policy.Gate
}

func NewTaxReturnHandler(taxReturns *services.TaxReturnService, answers *services.AnswerService, gate *policy.Gate) *TaxReturnHandler {
	return &TaxReturnHandler{taxReturns: taxReturns, answers: answers, gate: gate}
}

// Create adds a filer to the caller's account.
func (h *TaxReturnHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var in services.TaxReturnInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	tr, err := h.taxReturns.Create(r.Context(), userID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tr)
}

// List returns the caller's filers, filtered by ?product_id= when given.
func (h *TaxReturnHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var productID uint
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httpx.Error(w, r, apperr.Validation("invalid query", map[string]string{"product_id": "must_be_positive_integer"}))
			return
		}
		productID = uint(id)
	}
	list, err := h.taxReturns.List(r.Context(), userID, productID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a return through the workflow. Staff only.
func (h *TaxReturnHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in statusRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	tr, err := h.taxReturns.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tr)
}

type answerRequest struct {
	Text string `json:"text"`
}

func (h *TaxReturnHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	tr, err := h.authorized(r, policy.ActionUpdate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	questionID, err := httpx.PathID(r, "questionId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in answerRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	answer, err := h.answers.SaveAnswer(r.Context(), tr.ID, questionID, in.Text)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, answer)
}

func (h *TaxReturnHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	tr, err := h.authorized(r, policy.ActionView)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	answers, err := h.answers.ListAnswers(r.Context(), tr.ID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, answers)
}

// authorized loads the tax return named by {id} and checks the caller may act on it.
func (h *TaxReturnHandler) authorized(r *http.Request, action policy.Action) (*models.TaxReturn, error) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return nil, err
	}
	tr, err := h.taxReturns.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := h.gate.Authorize(r.Context(), action, "tax_return", tr); err != nil {
		return nil, err
	}
	return tr, nil
}
