package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/kiranvarmap/qms/internal"
	"github.com/kiranvarmap/qms/internal/core/identity"
	"github.com/kiranvarmap/qms/internal/transport"
	"github.com/kiranvarmap/qms/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (*Session, error)
	VerifySession(token string) (*Claims, error)
	Identity(userID string) (identity.Identity, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	session, err := h.Service.Authenticate(dto)
	if err != nil {
		h.Logger.Error("authentication failed", "error", err, "username", dto.Username)

		switch err {
		case ErrInvalidCredentials:
			h.HandleError(w, errors.NewUnauthorizedError("invalid credentials", errors.ErrCodeInvalidCredentials))
		case ErrAccountDeactivated:
			h.HandleError(w, errors.NewForbiddenError("account is deactivated", errors.ErrCodeAccountDeactivated))
		case ErrPendingApproval:
			h.HandleError(w, errors.NewForbiddenError("account is pending approval", errors.ErrCodePendingApproval))
		case ErrAccountRejected:
			h.HandleError(w, errors.NewForbiddenError("account registration was rejected", errors.ErrCodeAccountRejected))
		default:
			if _, ok := err.(ValidationError); ok {
				h.HandleError(w, errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed))
			} else {
				h.HandleServiceError(w, err)
			}
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, session)
}

// Me returns the decoded claims of the presented token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("not authenticated", errors.ErrCodeInvalidToken))
		return
	}
	h.WriteJSON(w, http.StatusOK, claims)
}

// Logout validates the token and returns 204. Tokens are stateless, so
// logout is a client-side discard; nothing is invalidated server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.HandleError(w, errors.NewUnauthorizedError("missing authorization token", errors.ErrCodeInvalidToken))
		return
	}

	if _, err := h.Service.VerifySession(token); err != nil {
		h.HandleError(w, errors.NewUnauthorizedError("invalid token", errors.ErrCodeInvalidToken))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware verifies the bearer token and stores the claims in the
// request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleError(w, errors.NewUnauthorizedError("missing authorization token", errors.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.VerifySession(token)
		if err != nil {
			h.Logger.Error("token validation failed", "error", err)
			switch err {
			case ErrTokenExpired:
				h.HandleError(w, errors.NewUnauthorizedError("token expired", errors.ErrCodeTokenExpired))
			default:
				h.HandleError(w, errors.NewUnauthorizedError("invalid token", errors.ErrCodeInvalidToken))
			}
			return
		}

		ctx := ContextWithClaims(r.Context(), claims)
		ctx = logger.With(ctx, "user_id", claims.Sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to subjects holding one of the given roles.
func (h *Handler) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				h.HandleError(w, errors.NewUnauthorizedError("not authenticated", errors.ErrCodeInvalidToken))
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.Logger.Warn("access denied: insufficient role",
				"user_id", claims.Sub,
				"role", claims.Role,
				"required", roles)
			h.HandleError(w, errors.NewForbiddenError("insufficient role", errors.ErrCodeInsufficientRole))
		})
	}
}
