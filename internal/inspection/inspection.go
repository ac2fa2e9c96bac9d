package inspection

import "time"

// Inspection statuses recorded by operators.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Inspection is a quality-control check on a batch. It is the parent of the
// signature ledger: signatures cannot exist without it.
type Inspection struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	BatchID     string    `json:"batch_id" gorm:"column:batch_id"`
	OperatorID  string    `json:"operator_id" gorm:"column:operator_id"`
	Status      string    `json:"status" gorm:"not null;default:pending"`
	DefectCount int       `json:"defect_count" gorm:"column:defect_count;default:0"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (Inspection) TableName() string {
	return "inspections"
}

// SignerRole is the capacity in which an inspection is signed. At most one
// active signature may exist per (inspection, role).
type SignerRole string

const (
	RoleInspector SignerRole = "inspector"
	RoleReviewer  SignerRole = "reviewer"
	RoleApprover  SignerRole = "approver"
)

func (r SignerRole) IsValid() bool {
	switch r {
	case RoleInspector, RoleReviewer, RoleApprover:
		return true
	}
	return false
}

// Signature is one ledger entry: an attestation by an identified
// role-holder. Revocation flips the flags and stamps who and when; the row
// itself is never deleted, so history only grows.
type Signature struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	InspectionID string     `json:"inspection_id" gorm:"column:inspection_id;not null"`
	SignerID     *string    `json:"signer_id,omitempty" gorm:"column:signer_id"`
	SignerName   string     `json:"signer_name" gorm:"column:signer_name;not null"`
	SignerRole   SignerRole `json:"signer_role" gorm:"column:signer_role;not null"`
	IPAddress    string     `json:"ip_address,omitempty" gorm:"column:ip_address"`
	SignedAt     time.Time  `json:"signed_at" gorm:"column:signed_at"`
	Revoked      bool       `json:"revoked" gorm:"default:false"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty" gorm:"column:revoked_at"`
	RevokedBy    *string    `json:"revoked_by,omitempty" gorm:"column:revoked_by"`
}

// TableName returns the table name for GORM
func (Signature) TableName() string {
	return "signatures"
}

// IsActive reports whether this signature still counts toward the
// one-per-role invariant.
func (s *Signature) IsActive() bool {
	return !s.Revoked
}

// Revoke stamps the revocation. The entry stays in the ledger.
func (s *Signature) Revoke(revokedBy string) {
	s.Revoked = true
	now := time.Now()
	s.RevokedAt = &now
	s.RevokedBy = &revokedBy
}
