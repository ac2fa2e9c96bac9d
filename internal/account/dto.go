package account

import "errors"

// SignupDTO is the payload for self-service registration.
type SignupDTO struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
	FullName string  `json:"full_name,omitempty"`
	Role     string  `json:"role,omitempty"`
}

// Validate validates the SignupDTO
func (dto SignupDTO) Validate() error {
	if dto.Username == "" {
		return errors.New("username is required")
	}
	if len(dto.Username) > 128 {
		return errors.New("username must be less than 128 characters")
	}
	if dto.Password == "" {
		return errors.New("password is required")
	}
	if len(dto.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// Admission decisions accepted by the decide endpoint.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// DecisionDTO carries an admin's admission decision.
type DecisionDTO struct {
	Action string `json:"action"`
}

// Validate validates the DecisionDTO
func (dto DecisionDTO) Validate() error {
	if dto.Action != DecisionApprove && dto.Action != DecisionReject {
		return errors.New("action must be either 'approve' or 'reject'")
	}
	return nil
}

// UpdateAccountDTO is the privileged attribute edit. Nil fields are left
// untouched; approval_status is never editable through this path.
type UpdateAccountDTO struct {
	Role     *string `json:"role,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// Validate validates the UpdateAccountDTO
func (dto UpdateAccountDTO) Validate() error {
	if dto.Role != nil {
		switch *dto.Role {
		case RoleOperator, RoleReviewer, RoleManager, RoleAdmin:
		default:
			return errors.New("role must be one of operator, reviewer, manager, admin")
		}
	}
	if dto.Role == nil && dto.FullName == nil && dto.Active == nil {
		return errors.New("no fields to update")
	}
	return nil
}

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
)
