package document

import (
	"log/slog"
	"time"

	"github.com/kiranvarmap/qms/internal/core/identity"
	"github.com/kiranvarmap/qms/internal/core/ids"
)

// Repository interface defines the data access methods for sign-off documents
// and their requests. SignRequestAction, RejectRequest and AddRequest are
// check-then-act sequences and must lock the parent document row for the
// duration of their transaction.
type Repository interface {
	CreateDocument(doc *SignoffDocument, requests []*SignRequest) error
	GetDocument(id string) (*SignoffDocument, []*SignRequest, error)
	ListDocuments(status, batchID string, limit int) ([]*Summary, error)
	// DeleteDocument removes the document and every owned sign request.
	DeleteDocument(id string) error

	// AddRequest appends a pending request, promoting a draft document to
	// in_progress in the same transaction.
	AddRequest(documentID string, req *SignRequest) error
	// SignRequestAction fails with ErrRequestDecided unless the request is
	// pending, then recomputes the document status via DeriveStatus.
	SignRequestAction(documentID string, requestID int64, notes, signedByIP string) (*SignRequest, Status, error)
	// RejectRequest drives the document to rejected regardless of the other
	// requests' states.
	RejectRequest(documentID string, requestID int64, reason string) (*SignRequest, Status, error)
	UpdatePlacement(documentID string, requestID int64, placement Placement) (*SignRequest, error)
	PendingRequests() ([]*SignRequest, error)
}

// Detail is a document together with its requests ordered by sign_order.
type Detail struct {
	SignoffDocument
	Requests []*SignRequest `json:"sign_requests"`
}

// Service handles the document sign-off workflow.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new document service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create records a document with its initial signers. With no signers the
// document starts as a draft; otherwise it goes straight to in_progress with
// one pending request per signer.
func (s *Service) Create(dto CreateDocumentDTO, createdBy string) (*Detail, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("document validation failed", "error", err)
		return nil, err
	}

	now := time.Now()
	doc := &SignoffDocument{
		ID:          ids.New("doc"),
		Title:       dto.Title,
		Description: dto.Description,
		BatchID:     dto.BatchID,
		FileRef:     dto.FileRef,
		CreatedBy:   createdBy,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(dto.Signers) > 0 {
		doc.Status = StatusInProgress
	}

	requests := make([]*SignRequest, 0, len(dto.Signers))
	for _, spec := range dto.Signers {
		requests = append(requests, newRequest(doc.ID, spec, now))
	}

	if err := s.repo.CreateDocument(doc, requests); err != nil {
		s.logger.Error("failed to create document", "error", err)
		return nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"title", doc.Title,
		"status", doc.Status,
		"signers", len(requests))

	return &Detail{SignoffDocument: *doc, Requests: requests}, nil
}

// GetByID retrieves a document with its sign requests.
func (s *Service) GetByID(id string) (*Detail, error) {
	doc, requests, err := s.repo.GetDocument(id)
	if err != nil {
		return nil, err
	}
	return &Detail{SignoffDocument: *doc, Requests: requests}, nil
}

// List retrieves documents newest first, optionally filtered by status and
// batch, each with its signer progress counts.
func (s *Service) List(status, batchID string, limit int) ([]*Summary, error) {
	return s.repo.ListDocuments(status, batchID, limit)
}

// AddSigner appends a pending sign request to a document.
func (s *Service) AddSigner(documentID string, spec SignerSpecDTO) (*SignRequest, error) {
	if err := spec.Validate(); err != nil {
		s.logger.Error("signer validation failed", "error", err, "document_id", documentID)
		return nil, err
	}

	req := newRequest(documentID, spec, time.Now())
	if err := s.repo.AddRequest(documentID, req); err != nil {
		s.logger.Error("failed to add signer", "error", err, "document_id", documentID)
		return nil, err
	}

	s.logger.Info("signer added",
		"document_id", documentID,
		"request_id", req.ID,
		"assignee_name", req.AssigneeName)

	return req, nil
}

// Sign settles a pending request as signed and returns it with the freshly
// derived document status.
func (s *Service) Sign(documentID string, requestID int64, dto SignActionDTO, signedByIP string) (*SignRequest, Status, error) {
	req, status, err := s.repo.SignRequestAction(documentID, requestID, dto.Notes, signedByIP)
	if err != nil {
		s.logger.Error("failed to sign request",
			"error", err,
			"document_id", documentID,
			"request_id", requestID)
		return nil, "", err
	}

	s.logger.Info("sign request signed",
		"document_id", documentID,
		"request_id", requestID,
		"document_status", status)

	return req, status, nil
}

// Reject settles a pending request as rejected. One rejection vetoes the
// whole document.
func (s *Service) Reject(documentID string, requestID int64, dto RejectActionDTO) (*SignRequest, Status, error) {
	req, status, err := s.repo.RejectRequest(documentID, requestID, dto.Reason)
	if err != nil {
		s.logger.Error("failed to reject request",
			"error", err,
			"document_id", documentID,
			"request_id", requestID)
		return nil, "", err
	}

	s.logger.Info("sign request rejected",
		"document_id", documentID,
		"request_id", requestID,
		"reason", dto.Reason)

	return req, status, nil
}

// UpdatePlacement mutates a request's anchor metadata. Allowed in any request
// state, signed included.
func (s *Service) UpdatePlacement(documentID string, requestID int64, dto PlacementDTO) (*SignRequest, error) {
	req, err := s.repo.UpdatePlacement(documentID, requestID, dto.toPlacement())
	if err != nil {
		s.logger.Error("failed to update placement",
			"error", err,
			"document_id", documentID,
			"request_id", requestID)
		return nil, err
	}
	return req, nil
}

// MyTasks returns the pending requests assigned to the given identity. A
// request matches when any facet does: subject id, username, full name, or
// email.
func (s *Service) MyTasks(ident identity.Identity) ([]*SignRequest, error) {
	pending, err := s.repo.PendingRequests()
	if err != nil {
		return nil, err
	}

	tasks := make([]*SignRequest, 0)
	for _, req := range pending {
		if ident.Matches(req.AssigneeID, req.AssigneeName, req.AssigneeEmail) {
			tasks = append(tasks, req)
		}
	}
	return tasks, nil
}

// Delete removes a document and all of its sign requests.
func (s *Service) Delete(documentID string) error {
	if err := s.repo.DeleteDocument(documentID); err != nil {
		s.logger.Error("failed to delete document", "error", err, "document_id", documentID)
		return err
	}

	s.logger.Info("document deleted", "document_id", documentID)
	return nil
}

func newRequest(documentID string, spec SignerSpecDTO, now time.Time) *SignRequest {
	return &SignRequest{
		DocumentID:    documentID,
		AssigneeID:    spec.ID,
		AssigneeName:  spec.Name,
		AssigneeRole:  spec.Role,
		AssigneeEmail: spec.Email,
		SignOrder:     spec.SignOrder,
		Status:        RequestPending,
		Placement:     spec.Placement.toPlacement(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
