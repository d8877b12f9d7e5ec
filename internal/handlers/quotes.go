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

type QuoteHandler struct {
	quotes    *services.QuoteService
	checklist *services.ChecklistService
	documents *services.DocumentService
	messages  *services.MessageService
	gate      *policy.Gate
}

func NewQuoteHandler(quotes *services.QuoteService, checklist *services.ChecklistService, documents *services.DocumentService, messages *services.MessageService, gate *policy.Gate) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, checklist: checklist, documents: documents, messages: messages, gate: gate}
}

type buildQuoteResponse struct {
	QuoteID uint `json:"quoteId"`
}

// Build creates or rebuilds the quote for an account and product.
func (h *QuoteHandler) Build(w http.ResponseWriter, r *http.Request) {
	var in services.BuildQuoteInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.gate.Authorize(r.Context(), policy.ActionCreate, "quote", &models.Quote{AccountID: in.AccountID}); err != nil {
		httpx.Error(w, r, err)
		return
	}
	id, err := h.quotes.BuildQuote(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, buildQuoteResponse{QuoteID: id})
}

// Totals returns the quote with its amounts. ?include_disabled=true also lists
// line items the customer has not opted into.
func (h *QuoteHandler) Totals(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionView)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	includeDisabled := false
	if raw := r.URL.Query().Get("include_disabled"); raw != "" {
		includeDisabled, err = strconv.ParseBool(raw)
		if err != nil {
			httpx.Error(w, r, apperr.Validation("invalid query", map[string]string{"include_disabled": "must_be_boolean"}))
			return
		}
	}
	totals, err := h.quotes.GetQuoteTotals(r.Context(), q.ID, includeDisabled)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

type lineItemRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *QuoteHandler) SetLineItem(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionUpdate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in lineItemRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if in.Enabled == nil {
		httpx.Error(w, r, apperr.Validation("invalid line item update", map[string]string{"enabled": "required"}))
		return
	}
	item, err := h.quotes.SetLineItemEnabled(r.Context(), q.ID, itemID, *in.Enabled)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// AddAdminItem is mounted behind auth.RequireAdmin.
func (h *QuoteHandler) AddAdminItem(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionCreate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in services.AdminLineItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	item, err := h.quotes.AddAdminLineItem(r.Context(), q.ID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *QuoteHandler) DeleteAdminItem(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionDelete)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.quotes.DeleteAdminLineItem(r.Context(), q.ID, itemID); err != nil {
		httpx.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuoteHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionView)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	checklist, err := h.checklist.GetChecklistForQuote(r.Context(), q.ID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, checklist)
}

func (h *QuoteHandler) RegisterDocument(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionUpdate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in services.DocumentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	doc, err := h.documents.Register(r.Context(), q.ID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *QuoteHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionView)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	msgs, err := h.messages.List(r.Context(), q.ID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, msgs)
}

type messageRequest struct {
	Body string `json:"body"`
}

func (h *QuoteHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	q, err := h.authorized(r, policy.ActionUpdate)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in messageRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	msg, err := h.messages.Post(r.Context(), q.ID, userID, auth.IsAdmin(r.Context()), in.Body)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

// authorized loads the quote named by {id} and checks the caller may act on it.
func (h *QuoteHandler) authorized(r *http.Request, action policy.Action) (*models.Quote, error) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		return nil, err
	}
	q, err := h.quotes.Quote(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := h.gate.Authorize(r.Context(), action, "quote", q); err != nil {
		return nil, err
	}
	return q, nil
}
