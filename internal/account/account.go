package account

import "time"

// ApprovalStatus is the admission state of an account. Closed set: an
// account is pending until an admin decides, then approved or rejected.
// There is no path back from rejected.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Roles an account can hold. Signup may only request the first three;
// admin is granted through the privileged update path or seeding.
const (
	RoleOperator = "operator"
	RoleReviewer = "reviewer"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// NormalizeSignupRole restricts self-service signup to the allow-list.
// Anything else, including "admin", silently downgrades to operator so a
// signup can never self-escalate.
func NormalizeSignupRole(role string) string {
	switch role {
	case RoleOperator, RoleReviewer, RoleManager:
		return role
	}
	return RoleOperator
}

// Account is the subject of admission control. Accounts are never hard
// deleted; deactivation flips Active instead.
type Account struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	Username       string         `json:"username" gorm:"not null"`
	Email          *string        `json:"email,omitempty"`
	PasswordHash   string         `json:"-" gorm:"column:hashed_password;not null"`
	FullName       string         `json:"full_name" gorm:"column:full_name"`
	Role           string         `json:"role" gorm:"not null;default:operator"`
	ApprovalStatus ApprovalStatus `json:"approval_status" gorm:"column:approval_status;not null;default:pending"`
	ApprovedBy     *string        `json:"approved_by,omitempty" gorm:"column:approved_by"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty" gorm:"column:approved_at"`
	Active         bool           `json:"active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "users"
}

// CanLogin reports whether the admission gate lets this account through.
func (a *Account) CanLogin() bool {
	return a.Active && a.ApprovalStatus == ApprovalApproved
}

// Approve stamps the decision. Re-asserting an existing approval is allowed.
func (a *Account) Approve(decidedBy string) {
	a.ApprovalStatus = ApprovalApproved
	now := time.Now()
	a.ApprovedBy = &decidedBy
	a.ApprovedAt = &now
}

// Reject stamps the decision.
func (a *Account) Reject(decidedBy string) {
	a.ApprovalStatus = ApprovalRejected
	now := time.Now()
	a.ApprovedBy = &decidedBy
	a.ApprovedAt = &now
}
