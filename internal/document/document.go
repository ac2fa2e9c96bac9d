package document

import "time"

// Status is the aggregate state of a sign-off document. It is always derived
// from the owned sign requests, never set directly by a client action.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusRejected   Status = "rejected"
)

// RequestStatus is the state of an individual sign request. pending is the
// only non-terminal state; once decided a request never transitions again.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestSigned   RequestStatus = "signed"
	RequestRejected RequestStatus = "rejected"
	RequestSkipped  RequestStatus = "skipped"
)

// IsTerminal reports whether the request can still be decided.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestSigned || s == RequestRejected || s == RequestSkipped
}

// SignoffDocument owns an ordered collection of sign requests. Deleting the
// document deletes its requests.
type SignoffDocument struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description,omitempty"`
	BatchID     string    `json:"batch_id,omitempty" gorm:"column:batch_id"`
	FileRef     string    `json:"file_ref,omitempty" gorm:"column:file_ref"`
	CreatedBy   string    `json:"created_by" gorm:"column:created_by"`
	Status      Status    `json:"status" gorm:"not null;default:draft"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (SignoffDocument) TableName() string {
	return "signoff_documents"
}

// Placement anchors a signer's mark on the attached file. Coordinates are
// normalized to the page (0..1).
type Placement struct {
	Page   *int     `json:"page,omitempty" gorm:"column:page"`
	X      *float64 `json:"x,omitempty" gorm:"column:pos_x"`
	Y      *float64 `json:"y,omitempty" gorm:"column:pos_y"`
	Width  *float64 `json:"w,omitempty" gorm:"column:width"`
	Height *float64 `json:"h,omitempty" gorm:"column:height"`
}

// SignRequest is one signer's slot on a document. The assignee may not have a
// registered account yet, so only the name is mandatory; id, role and email
// are lookup hints. sign_order is advisory and not enforced as a gate.
type SignRequest struct {
	ID              int64         `json:"id" gorm:"primaryKey"`
	DocumentID      string        `json:"document_id" gorm:"column:document_id;not null"`
	AssigneeID      string        `json:"assignee_id,omitempty" gorm:"column:assignee_id"`
	AssigneeName    string        `json:"assignee_name" gorm:"column:assignee_name;not null"`
	AssigneeRole    string        `json:"assignee_role,omitempty" gorm:"column:assignee_role"`
	AssigneeEmail   string        `json:"assignee_email,omitempty" gorm:"column:assignee_email"`
	SignOrder       int           `json:"sign_order" gorm:"column:sign_order;default:0"`
	Status          RequestStatus `json:"status" gorm:"not null;default:pending"`
	SignedAt        *time.Time    `json:"signed_at,omitempty" gorm:"column:signed_at"`
	SignedByIP      string        `json:"signed_by_ip,omitempty" gorm:"column:signed_by_ip"`
	Notes           string        `json:"notes,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	Placement       Placement     `json:"placement" gorm:"embedded"`
	CreatedAt       time.Time     `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (SignRequest) TableName() string {
	return "sign_requests"
}

// Summary is a document with its signer progress counts, used by list views.
type Summary struct {
	SignoffDocument
	TotalSigners int `json:"total_signers"`
	SignedCount  int `json:"signed_count"`
}
