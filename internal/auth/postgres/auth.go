package postgres

import (
	"database/sql"
	"fmt"

	"github.com/kiranvarmap/qms/internal/auth"
	"gorm.io/gorm"
)

// Repository is the read-side account store backing the session provider.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const accountColumns = `id, username, hashed_password, COALESCE(full_name, ''), COALESCE(email, ''), role, active, approval_status`

func (r *Repository) GetByUsername(username string) (*auth.AccountRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = ?`, accountColumns)
	return r.scanAccount(r.db.Raw(query, username).Row())
}

func (r *Repository) GetByID(userID string) (*auth.AccountRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ?`, accountColumns)
	return r.scanAccount(r.db.Raw(query, userID).Row())
}

func (r *Repository) scanAccount(row *sql.Row) (*auth.AccountRecord, error) {
	var rec auth.AccountRecord
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.PasswordHash,
		&rec.FullName,
		&rec.Email,
		&rec.Role,
		&rec.Active,
		&rec.ApprovalStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account not found")
		}
		return nil, err
	}
	return &rec, nil
}
