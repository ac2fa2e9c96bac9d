package inspection

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
	Create(dto CreateInspectionDTO) (*Inspection, error)
	GetByID(id string) (*Inspection, error)
	List(limit, offset int) ([]*Inspection, error)
	Sign(inspectionID string, dto SignDTO, sourceIP string) (*Signature, error)
	Signatures(inspectionID string) ([]*Signature, error)
	Revoke(inspectionID string, signatureID int64, revokedBy string) (*Signature, error)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateInspectionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Create: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	insp, err := h.Service.Create(dto)
	if err != nil {
		h.Logger.Error("Create: service error", "error", err)
		h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
		return
	}

	h.WriteJSON(w, http.StatusCreated, insp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inspectionID := chi.URLParam(r, "id")

	insp, err := h.Service.GetByID(inspectionID)
	if err != nil {
		h.HandleError(w, errors.NewNotFoundError("inspection not found", errors.ErrCodeInspectionNotFound))
		return
	}

	h.WriteJSON(w, http.StatusOK, insp)
}

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

	inspections, err := h.Service.List(limit, offset)
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"inspections": inspections,
		"limit":       limit,
		"offset":      offset,
	})
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	inspectionID := chi.URLParam(r, "id")

	var dto SignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Sign: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	sig, err := h.Service.Sign(inspectionID, dto, h.ClientIP(r))
	if err != nil {
		h.Logger.Error("Sign: service error", "error", err, "inspection_id", inspectionID)

		switch err {
		case ErrInspectionNotFound:
			h.HandleError(w, errors.NewNotFoundError("inspection not found", errors.ErrCodeInspectionNotFound))
		case ErrRoleAlreadySigned:
			h.HandleError(w, errors.NewConflictError("already signed by a "+dto.SignerRole, errors.ErrCodeRoleAlreadySigned))
		default:
			h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, sig)
}

func (h *Handler) ListSignatures(w http.ResponseWriter, r *http.Request) {
	inspectionID := chi.URLParam(r, "id")

	sigs, err := h.Service.Signatures(inspectionID)
	if err != nil {
		h.Logger.Error("ListSignatures: service error", "error", err, "inspection_id", inspectionID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sigs)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	inspectionID := chi.URLParam(r, "id")
	sigIDStr := chi.URLParam(r, "sigID")
	sigID, err := strconv.ParseInt(sigIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("Revoke: invalid signature ID", "id", sigIDStr)
		h.HandleError(w, errors.NewValidationError("invalid signature ID", errors.ErrCodeValidationFailed))
		return
	}

	sig, err := h.Service.Revoke(inspectionID, sigID, claims.Username)
	if err != nil {
		h.Logger.Error("Revoke: service error", "error", err, "inspection_id", inspectionID, "signature_id", sigID)

		switch err {
		case ErrSignatureNotFound:
			h.HandleError(w, errors.NewNotFoundError("signature not found", errors.ErrCodeSignatureNotFound))
		case ErrSignatureRevoked:
			h.HandleError(w, errors.NewConflictError("signature already revoked", errors.ErrCodeSignatureRevoked))
		default:
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, sig)
}
