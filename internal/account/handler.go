package account

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/kiranvarmap/qms/internal"
	"github.com/kiranvarmap/qms/internal/auth"
	"github.com/kiranvarmap/qms/internal/transport"
	"github.com/kiranvarmap/qms/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Signup(dto SignupDTO) (*Account, error)
	Decide(accountID, action, decidedBy string) (*Account, error)
	Update(accountID string, dto UpdateAccountDTO) (*Account, error)
	GetByID(accountID string) (*Account, error)
	List(limit, offset int) ([]*Account, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// Signup is the public registration endpoint. The new account cannot log in
// until an admin approves it.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Signup: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	acct, err := h.Service.Signup(dto)
	if err != nil {
		h.Logger.Error("Signup: service error", "error", err, "username", dto.Username)

		switch err {
		case ErrUsernameTaken:
			h.HandleError(w, errors.NewConflictError("username already exists", errors.ErrCodeUsernameTaken))
		case ErrEmailTaken:
			h.HandleError(w, errors.NewConflictError("email already exists", errors.ErrCodeEmailTaken))
		default:
			h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, acct)
}

// Decide records an admin's approve/reject decision for an account.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	accountID := chi.URLParam(r, "id")

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Decide: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	acct, err := h.Service.Decide(accountID, dto.Action, claims.Sub)
	if err != nil {
		h.Logger.Error("Decide: service error", "error", err, "account_id", accountID)

		switch err {
		case ErrAccountNotFound:
			h.HandleError(w, errors.NewNotFoundError("account not found", errors.ErrCodeAccountNotFound))
		default:
			h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeInvalidAction))
		}
		return
	}

	h.Logger.Info("Decide: decision stored",
		"account_id", accountID,
		"action", dto.Action,
		"decided_by", claims.Sub)

	h.WriteJSON(w, http.StatusOK, acct)
}

// Update edits role, full name, or the active flag.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var dto UpdateAccountDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Update: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	acct, err := h.Service.Update(accountID, dto)
	if err != nil {
		h.Logger.Error("Update: service error", "error", err, "account_id", accountID)

		switch err {
		case ErrAccountNotFound:
			h.HandleError(w, errors.NewNotFoundError("account not found", errors.ErrCodeAccountNotFound))
		default:
			h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, acct)
}

// List returns accounts for the admin view.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	accounts, err := h.Service.List(limit, offset)
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get returns one account.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	acct, err := h.Service.GetByID(accountID)
	if err != nil {
		h.HandleError(w, errors.NewNotFoundError("account not found", errors.ErrCodeAccountNotFound))
		return
	}

	h.WriteJSON(w, http.StatusOK, acct)
}
