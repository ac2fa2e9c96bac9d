package postgres

import (
	"github.com/kiranvarmap/qms/internal/inspection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InspectionRepository implements the inspection.Repository interface using GORM
type InspectionRepository struct {
	db *gorm.DB
}

// NewInspectionRepository creates a new inspection repository
func NewInspectionRepository(db *gorm.DB) inspection.Repository {
	return &InspectionRepository{db: db}
}

// CreateInspection saves a new inspection to the database
func (r *InspectionRepository) CreateInspection(insp *inspection.Inspection) error {
	return r.db.Create(insp).Error
}

// GetInspection retrieves an inspection by its ID
func (r *InspectionRepository) GetInspection(id string) (*inspection.Inspection, error) {
	var insp inspection.Inspection
	err := r.db.Where("id = ?", id).First(&insp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, inspection.ErrInspectionNotFound
		}
		return nil, err
	}
	return &insp, nil
}

// ListInspections retrieves inspections with pagination, newest first
func (r *InspectionRepository) ListInspections(limit, offset int) ([]*inspection.Inspection, error) {
	var inspections []*inspection.Inspection
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&inspections).Error
	return inspections, err
}

// CreateSignature inserts a ledger entry while holding a row lock on the
// parent inspection, so two concurrent signers for the same role cannot both
// pass the active-signature check. The partial unique index on
// (inspection_id, signer_role) WHERE NOT revoked backs the same invariant.
func (r *InspectionRepository) CreateSignature(sig *inspection.Signature) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var insp inspection.Inspection
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sig.InspectionID).
			First(&insp).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return inspection.ErrInspectionNotFound
			}
			return err
		}

		var count int64
		err = tx.Model(&inspection.Signature{}).
			Where("inspection_id = ? AND signer_role = ? AND revoked = ?",
				sig.InspectionID, sig.SignerRole, false).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return inspection.ErrRoleAlreadySigned
		}

		return tx.Create(sig).Error
	})
}

// ListSignatures returns the full ledger for an inspection ordered by
// signing time ascending. Revoked entries are included; history never shrinks.
func (r *InspectionRepository) ListSignatures(inspectionID string) ([]*inspection.Signature, error) {
	var sigs []*inspection.Signature
	err := r.db.Where("inspection_id = ?", inspectionID).
		Order("signed_at ASC").
		Find(&sigs).Error
	return sigs, err
}

// RevokeSignature stamps the revocation fields under a row lock. The row is
// updated, never deleted.
func (r *InspectionRepository) RevokeSignature(inspectionID string, signatureID int64, revokedBy string) (*inspection.Signature, error) {
	var sig inspection.Signature
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND inspection_id = ?", signatureID, inspectionID).
			First(&sig).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return inspection.ErrSignatureNotFound
			}
			return err
		}

		if sig.Revoked {
			return inspection.ErrSignatureRevoked
		}

		sig.Revoke(revokedBy)
		return tx.Save(&sig).Error
	})
	if err != nil {
		return nil, err
	}
	return &sig, nil
}
