package document

import "errors"

// PlacementDTO carries the anchor metadata for a signer's mark
type PlacementDTO struct {
	Page   *int     `json:"page,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"w,omitempty"`
	Height *float64 `json:"h,omitempty"`
}

func (dto *PlacementDTO) toPlacement() Placement {
	if dto == nil {
		return Placement{}
	}
	return Placement{
		Page:   dto.Page,
		X:      dto.X,
		Y:      dto.Y,
		Width:  dto.Width,
		Height: dto.Height,
	}
}

// SignerSpecDTO describes one requested signer on a document
type SignerSpecDTO struct {
	Name      string        `json:"name"`
	ID        string        `json:"id,omitempty"`
	Role      string        `json:"role,omitempty"`
	Email     string        `json:"email,omitempty"`
	SignOrder int           `json:"sign_order,omitempty"`
	Placement *PlacementDTO `json:"placement,omitempty"`
}

// Validate validates the SignerSpecDTO
func (dto SignerSpecDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("signer name is required")
	}
	if dto.SignOrder < 0 {
		return errors.New("sign_order cannot be negative")
	}
	return nil
}

// CreateDocumentDTO represents the request payload for creating a sign-off document
type CreateDocumentDTO struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	BatchID     string          `json:"batch_id,omitempty"`
	FileRef     string          `json:"file_ref,omitempty"`
	Signers     []SignerSpecDTO `json:"signers,omitempty"`
}

// Validate validates the CreateDocumentDTO
func (dto CreateDocumentDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	for _, signer := range dto.Signers {
		if err := signer.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SignActionDTO represents the request payload for signing a sign request
type SignActionDTO struct {
	Notes string `json:"notes,omitempty"`
}

// RejectActionDTO represents the request payload for rejecting a sign request
type RejectActionDTO struct {
	Reason string `json:"reason,omitempty"`
}

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrRequestNotFound  = errors.New("sign request not found")
	ErrRequestDecided   = errors.New("sign request already decided")
)
