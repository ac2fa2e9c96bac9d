package postgres

import (
	"github.com/kiranvarmap/qms/internal/account"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository implements the account.Repository interface using GORM
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) account.Repository {
	return &AccountRepository{db: db}
}

// Create inserts the account after checking username/email uniqueness. The
// check and insert share one transaction; the unique indexes on the table
// back the same invariant against concurrent signups.
func (r *AccountRepository) Create(acct *account.Account) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&account.Account{}).
			Where("username = ?", acct.Username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return account.ErrUsernameTaken
		}

		if acct.Email != nil {
			if err := tx.Model(&account.Account{}).
				Where("email = ?", *acct.Email).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return account.ErrEmailTaken
			}
		}

		return tx.Create(acct).Error
	})
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(id string) (*account.Account, error) {
	var acct account.Account
	err := r.db.Where("id = ?", id).First(&acct).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}
	return &acct, nil
}

// List retrieves accounts ordered by creation time, newest first
func (r *AccountRepository) List(limit, offset int) ([]*account.Account, error) {
	var accounts []*account.Account
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error
	return accounts, err
}

// Update saves the full account row under a row lock so a concurrent
// decision and attribute edit cannot interleave.
func (r *AccountRepository) Update(acct *account.Account) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var current account.Account
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", acct.ID).
			First(&current).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return account.ErrAccountNotFound
			}
			return err
		}
		return tx.Save(acct).Error
	})
}
