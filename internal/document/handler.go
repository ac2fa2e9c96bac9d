package document

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/kiranvarmap/qms/internal"
	"github.com/kiranvarmap/qms/internal/auth"
	"github.com/kiranvarmap/qms/internal/core/identity"
	"github.com/kiranvarmap/qms/internal/transport"
	"github.com/kiranvarmap/qms/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(dto CreateDocumentDTO, createdBy string) (*Detail, error)
	GetByID(id string) (*Detail, error)
	List(status, batchID string, limit int) ([]*Summary, error)
	AddSigner(documentID string, spec SignerSpecDTO) (*SignRequest, error)
	Sign(documentID string, requestID int64, dto SignActionDTO, signedByIP string) (*SignRequest, Status, error)
	Reject(documentID string, requestID int64, dto RejectActionDTO) (*SignRequest, Status, error)
	UpdatePlacement(documentID string, requestID int64, dto PlacementDTO) (*SignRequest, error)
	MyTasks(ident identity.Identity) ([]*SignRequest, error)
	Delete(documentID string) error
}

// IdentityResolver loads the full identity facets for a token subject. The
// token only carries id, username and role; task matching also needs the
// full name and email.
type IdentityResolver interface {
	Identity(userID string) (identity.Identity, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Resolver IdentityResolver
}

func NewHandler(service ServiceAPI, resolver IdentityResolver) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Resolver:    resolver,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	var dto CreateDocumentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Create: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	detail, err := h.Service.Create(dto, claims.Sub)
	if err != nil {
		h.Logger.Error("Create: service error", "error", err)
		h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
		return
	}

	h.WriteJSON(w, http.StatusCreated, detail)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	detail, err := h.Service.GetByID(documentID)
	if err != nil {
		h.HandleError(w, errors.NewNotFoundError("document not found", errors.ErrCodeDocumentNotFound))
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	batchID := r.URL.Query().Get("batch_id")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	docs, err := h.Service.List(status, batchID, limit)
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"limit":     limit,
	})
}

func (h *Handler) AddSigner(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	var spec SignerSpecDTO
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		h.Logger.Error("AddSigner: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	req, err := h.Service.AddSigner(documentID, spec)
	if err != nil {
		h.Logger.Error("AddSigner: service error", "error", err, "document_id", documentID)

		switch err {
		case ErrDocumentNotFound:
			h.HandleError(w, errors.NewNotFoundError("document not found", errors.ErrCodeDocumentNotFound))
		default:
			h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var dto SignActionDTO
	if r.Body != nil {
		// Notes are optional; an empty body is a valid sign action.
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	req, status, err := h.Service.Sign(documentID, requestID, dto, h.ClientIP(r))
	if err != nil {
		h.Logger.Error("Sign: service error", "error", err, "document_id", documentID, "request_id", requestID)
		h.writeActionError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sign_request":    req,
		"document_status": status,
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var dto RejectActionDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	req, status, err := h.Service.Reject(documentID, requestID, dto)
	if err != nil {
		h.Logger.Error("Reject: service error", "error", err, "document_id", documentID, "request_id", requestID)
		h.writeActionError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sign_request":    req,
		"document_status": status,
	})
}

func (h *Handler) UpdatePlacement(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var dto PlacementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdatePlacement: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	req, err := h.Service.UpdatePlacement(documentID, requestID, dto)
	if err != nil {
		h.Logger.Error("UpdatePlacement: service error", "error", err, "document_id", documentID, "request_id", requestID)
		h.writeActionError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) MyTasks(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	ident, err := h.Resolver.Identity(claims.Sub)
	if err != nil {
		// Token subject may predate the accounts table; match on the token
		// facets alone.
		ident = identity.Identity{ID: claims.Sub, Username: claims.Username}
	}

	tasks, err := h.Service.MyTasks(ident)
	if err != nil {
		h.Logger.Error("MyTasks: service error", "error", err, "user_id", claims.Sub)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	if err := h.Service.Delete(documentID); err != nil {
		h.Logger.Error("Delete: service error", "error", err, "document_id", documentID)

		switch err {
		case ErrDocumentNotFound:
			h.HandleError(w, errors.NewNotFoundError("document not found", errors.ErrCodeDocumentNotFound))
		default:
			h.HandleServiceError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ridStr := chi.URLParam(r, "rid")
	rid, err := strconv.ParseInt(ridStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid sign request ID", "id", ridStr)
		h.HandleError(w, errors.NewValidationError("invalid sign request ID", errors.ErrCodeValidationFailed))
		return 0, false
	}
	return rid, true
}

func (h *Handler) writeActionError(w http.ResponseWriter, err error) {
	switch err {
	case ErrDocumentNotFound:
		h.HandleError(w, errors.NewNotFoundError("document not found", errors.ErrCodeDocumentNotFound))
	case ErrRequestNotFound:
		h.HandleError(w, errors.NewNotFoundError("sign request not found", errors.ErrCodeRequestNotFound))
	case ErrRequestDecided:
		h.HandleError(w, errors.NewConflictError("sign request already decided", errors.ErrCodeRequestDecided))
	default:
		h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
	}
}
