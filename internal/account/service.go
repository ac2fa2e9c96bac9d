package account

import (
	"log/slog"
	"time"

	"github.com/kiranvarmap/qms/internal/auth"
	"github.com/kiranvarmap/qms/internal/core/ids"
)

// Repository interface defines the data access methods for accounts
type Repository interface {
	// Create must fail with ErrUsernameTaken / ErrEmailTaken when the
	// uniqueness checks collide; the check and insert run in one transaction.
	Create(account *Account) error
	GetByID(id string) (*Account, error)
	List(limit, offset int) ([]*Account, error)
	Update(account *Account) error
}

// Service owns the account lifecycle: signup lands in pending, an admin
// decision moves it to approved or rejected, and privileged updates edit
// role, name, or the active flag.
type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Signup registers a new account in pending state.
func (s *Service) Signup(dto SignupDTO) (*Account, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("signup validation failed", "error", err, "username", dto.Username)
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		ID:             ids.New("usr"),
		Username:       dto.Username,
		Email:          dto.Email,
		PasswordHash:   hash,
		FullName:       dto.FullName,
		Role:           NormalizeSignupRole(dto.Role),
		ApprovalStatus: ApprovalPending,
		Active:         true,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(acct); err != nil {
		s.logger.Error("failed to create account", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("account created, awaiting approval",
		"account_id", acct.ID,
		"username", acct.Username,
		"role", acct.Role)

	return acct, nil
}

// Decide applies an admin's admission decision. Re-asserting an already
// decided state is accepted; the stamps are refreshed.
func (s *Service) Decide(accountID, action, decidedBy string) (*Account, error) {
	dto := DecisionDTO{Action: action}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	acct, err := s.repo.GetByID(accountID)
	if err != nil {
		s.logger.Error("account not found for decision", "error", err, "account_id", accountID)
		return nil, ErrAccountNotFound
	}

	switch action {
	case DecisionApprove:
		acct.Approve(decidedBy)
	case DecisionReject:
		acct.Reject(decidedBy)
	}

	if err := s.repo.Update(acct); err != nil {
		s.logger.Error("failed to store decision", "error", err, "account_id", accountID)
		return nil, err
	}

	s.logger.Info("admission decision stored",
		"account_id", accountID,
		"action", action,
		"decided_by", decidedBy)

	return acct, nil
}

// Update edits privileged attributes. Approval status is out of reach here;
// only Decide touches it.
func (s *Service) Update(accountID string, dto UpdateAccountDTO) (*Account, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	acct, err := s.repo.GetByID(accountID)
	if err != nil {
		s.logger.Error("account not found for update", "error", err, "account_id", accountID)
		return nil, ErrAccountNotFound
	}

	if dto.Role != nil {
		acct.Role = *dto.Role
	}
	if dto.FullName != nil {
		acct.FullName = *dto.FullName
	}
	if dto.Active != nil {
		acct.Active = *dto.Active
	}

	if err := s.repo.Update(acct); err != nil {
		s.logger.Error("failed to update account", "error", err, "account_id", accountID)
		return nil, err
	}

	s.logger.Info("account updated", "account_id", accountID)
	return acct, nil
}

// GetByID returns one account.
func (s *Service) GetByID(accountID string) (*Account, error) {
	acct, err := s.repo.GetByID(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// List returns accounts for the admin view.
func (s *Service) List(limit, offset int) ([]*Account, error) {
	return s.repo.List(limit, offset)
}
