package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Claims is the decoded payload of a session token.
type Claims struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Exp      int64  `json:"exp"`
}

// Session is returned to a client after a successful login.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

// AccountRecord is the slice of an account the session provider needs.
// The account package owns the full lifecycle; auth only reads.
type AccountRecord struct {
	ID             string
	Username       string
	PasswordHash   string
	FullName       string
	Email          string
	Role           string
	Active         bool
	ApprovalStatus string
}

// Admission states as persisted on the users table.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// AccountStore is the read-side the session provider depends on.
type AccountStore interface {
	GetByUsername(username string) (*AccountRecord, error)
	GetByID(userID string) (*AccountRecord, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrPendingApproval    = errors.New("account is pending approval")
	ErrAccountRejected    = errors.New("account registration was rejected")

	ErrMalformedToken    = errors.New("malformed token")
	ErrSignatureMismatch = errors.New("token signature mismatch")
	ErrTokenExpired      = errors.New("token expired")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
