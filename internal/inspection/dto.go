package inspection

import "errors"

// CreateInspectionDTO represents the request payload for recording an inspection
type CreateInspectionDTO struct {
	BatchID     string `json:"batch_id"`
	OperatorID  string `json:"operator_id"`
	Status      string `json:"status"`
	DefectCount int    `json:"defect_count"`
	Notes       string `json:"notes,omitempty"`
}

// Validate validates the CreateInspectionDTO
func (dto CreateInspectionDTO) Validate() error {
	if dto.BatchID == "" {
		return errors.New("batch_id is required")
	}
	if dto.OperatorID == "" {
		return errors.New("operator_id is required")
	}
	if dto.Status != StatusPass && dto.Status != StatusFail {
		return errors.New("status must be either 'pass' or 'fail'")
	}
	if dto.DefectCount < 0 {
		return errors.New("defect_count cannot be negative")
	}
	return nil
}

// SignDTO represents the request payload for signing an inspection
type SignDTO struct {
	SignerName string  `json:"signer_name"`
	SignerRole string  `json:"signer_role"`
	SignerID   *string `json:"signer_id,omitempty"`
}

// Validate validates the SignDTO
func (dto SignDTO) Validate() error {
	if dto.SignerName == "" {
		return errors.New("signer_name is required")
	}
	if !SignerRole(dto.SignerRole).IsValid() {
		return errors.New("signer_role must be one of inspector, reviewer, approver")
	}
	return nil
}

var (
	ErrInspectionNotFound = errors.New("inspection not found")
	ErrSignatureNotFound  = errors.New("signature not found")
	ErrRoleAlreadySigned  = errors.New("inspection already signed for this role")
	ErrSignatureRevoked   = errors.New("signature already revoked")
)
