package handlers

import (
	"net/http"

	"github.com/diewo77/go-taxprep/auth"
	"github.com/diewo77/go-taxprep/httpx"
	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/policy"
	"github.com/diewo77/go-taxprep/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
	tokens   *auth.Tokens
	gate     *policy.Gate
}

func NewAuthHandler(accounts *services.AccountService, tokens *auth.Tokens, gate *policy.Gate) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, gate: gate}
}

type tokenResponse struct {
	ID    uint   `json:"id,omitempty"`
	Token string `json:"token"`
}

// Register creates a customer account and returns a token for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	account, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	token, err := h.tokens.Issue(account.ID, account.Role)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tokenResponse{ID: account.ID, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if in.Email == "" || in.Password == "" {
		httpx.Error(w, r, apperr.Validation("email and password are required", nil))
		return
	}
	account, err := h.accounts.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	token, err := h.tokens.Issue(account.ID, account.Role)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{ID: account.ID, Token: token})
}

// Account returns the account named by {id} to its owner or to staff.
func (h *AuthHandler) Account(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.gate.Authorize(r.Context(), policy.ActionView, "account", account); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}
