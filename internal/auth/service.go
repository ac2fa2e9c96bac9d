package auth

import (
	"log/slog"

	"github.com/kiranvarmap/qms/internal/core/identity"
)

// Service authenticates credentials and issues/verifies session tokens.
// The admission gate is consulted through the account's approval state
// before any token is issued.
type Service struct {
	accounts AccountStore
	codec    *TokenCodec
	logger   *slog.Logger
}

func NewService(accounts AccountStore, codec *TokenCodec, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		codec:    codec,
		logger:   logger,
	}
}

// Authenticate verifies the credential hash, then checks the account's
// active flag and approval status in that order so the client can render
// the correct message for each blocking state.
func (s *Service) Authenticate(dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByUsername(dto.Username)
	if err != nil {
		s.logger.Warn("login failed: unknown username", "username", dto.Username)
		return nil, ErrInvalidCredentials
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login failed: password mismatch", "username", dto.Username)
		return nil, ErrInvalidCredentials
	}

	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	switch account.ApprovalStatus {
	case ApprovalApproved:
	case ApprovalPending:
		return nil, ErrPendingApproval
	case ApprovalRejected:
		return nil, ErrAccountRejected
	default:
		s.logger.Error("account has unknown approval status",
			"username", dto.Username,
			"approval_status", account.ApprovalStatus)
		return nil, ErrPendingApproval
	}

	token, err := s.codec.Issue(account.ID, account.Username, account.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", "user_id", account.ID, "role", account.Role)

	return &Session{
		Token:    token,
		UserID:   account.ID,
		Username: account.Username,
		Role:     account.Role,
		FullName: account.FullName,
	}, nil
}

// VerifySession decodes and validates a bearer token.
func (s *Service) VerifySession(token string) (*Claims, error) {
	return s.codec.Verify(token)
}

// Identity resolves the full identity facets for a subject. Signers can be
// assigned by name or email before they register, so task matching needs
// more than what the token carries.
func (s *Service) Identity(userID string) (identity.Identity, error) {
	account, err := s.accounts.GetByID(userID)
	if err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{
		ID:       account.ID,
		Username: account.Username,
		FullName: account.FullName,
		Email:    account.Email,
	}, nil
}
