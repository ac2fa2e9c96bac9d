package inspection

import (
	"context"
	"log/slog"
	"time"

	"github.com/kiranvarmap/qms/internal/core/ids"
	"github.com/kiranvarmap/qms/internal/queue"
)

// Repository interface defines the data access methods for inspections and
// their signature ledger. CreateSignature and RevokeSignature are
// check-then-act sequences and must run inside a single transaction.
type Repository interface {
	CreateInspection(insp *Inspection) error
	GetInspection(id string) (*Inspection, error)
	ListInspections(limit, offset int) ([]*Inspection, error)

	// CreateSignature fails with ErrInspectionNotFound when the parent is
	// missing and ErrRoleAlreadySigned when an active signature for the
	// same (inspection, role) already exists.
	CreateSignature(sig *Signature) error
	ListSignatures(inspectionID string) ([]*Signature, error)
	// RevokeSignature fails with ErrSignatureNotFound / ErrSignatureRevoked.
	RevokeSignature(inspectionID string, signatureID int64, revokedBy string) (*Signature, error)
}

// Service handles inspection records and the per-role signing ledger.
type Service struct {
	repo      Repository
	workQueue queue.WorkQueue
	logger    *slog.Logger
}

// NewService creates a new inspection service. The work queue receives the
// id of every created inspection for asynchronous post-processing.
func NewService(repo Repository, workQueue queue.WorkQueue, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		workQueue: workQueue,
		logger:    logger,
	}
}

// Create records an inspection and publishes its id to the work queue.
func (s *Service) Create(dto CreateInspectionDTO) (*Inspection, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("inspection validation failed", "error", err)
		return nil, err
	}

	now := time.Now()
	insp := &Inspection{
		ID:          ids.New("ins"),
		BatchID:     dto.BatchID,
		OperatorID:  dto.OperatorID,
		Status:      dto.Status,
		DefectCount: dto.DefectCount,
		Notes:       dto.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateInspection(insp); err != nil {
		s.logger.Error("failed to create inspection", "error", err)
		return nil, err
	}

	// Queue delivery is best effort; the inspection record is already durable.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.workQueue.Enqueue(ctx, insp.ID); err != nil {
		s.logger.Error("failed to enqueue inspection for post-processing",
			"error", err,
			"inspection_id", insp.ID)
	}

	s.logger.Info("inspection created",
		"inspection_id", insp.ID,
		"batch_id", insp.BatchID,
		"status", insp.Status)

	return insp, nil
}

// GetByID retrieves an inspection by ID.
func (s *Service) GetByID(id string) (*Inspection, error) {
	insp, err := s.repo.GetInspection(id)
	if err != nil {
		return nil, ErrInspectionNotFound
	}
	return insp, nil
}

// List retrieves inspections with pagination.
func (s *Service) List(limit, offset int) ([]*Inspection, error) {
	return s.repo.ListInspections(limit, offset)
}

// Sign adds a signature to the ledger. The repository enforces the
// one-active-signature-per-role invariant inside its transaction.
func (s *Service) Sign(inspectionID string, dto SignDTO, sourceIP string) (*Signature, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("signature validation failed", "error", err, "inspection_id", inspectionID)
		return nil, err
	}

	sig := &Signature{
		InspectionID: inspectionID,
		SignerID:     dto.SignerID,
		SignerName:   dto.SignerName,
		SignerRole:   SignerRole(dto.SignerRole),
		IPAddress:    sourceIP,
		SignedAt:     time.Now(),
	}

	if err := s.repo.CreateSignature(sig); err != nil {
		s.logger.Error("failed to create signature",
			"error", err,
			"inspection_id", inspectionID,
			"signer_role", dto.SignerRole)
		return nil, err
	}

	s.logger.Info("inspection signed",
		"inspection_id", inspectionID,
		"signature_id", sig.ID,
		"signer_role", sig.SignerRole,
		"signer_name", sig.SignerName)

	return sig, nil
}

// Signatures lists the full ledger for an inspection, revoked entries
// included, ordered by signing time.
func (s *Service) Signatures(inspectionID string) ([]*Signature, error) {
	return s.repo.ListSignatures(inspectionID)
}

// Revoke marks a signature revoked. The entry is kept; a later Sign call for
// the same role will succeed because only active signatures block it.
func (s *Service) Revoke(inspectionID string, signatureID int64, revokedBy string) (*Signature, error) {
	sig, err := s.repo.RevokeSignature(inspectionID, signatureID, revokedBy)
	if err != nil {
		s.logger.Error("failed to revoke signature",
			"error", err,
			"inspection_id", inspectionID,
			"signature_id", signatureID)
		return nil, err
	}

	s.logger.Info("signature revoked",
		"inspection_id", inspectionID,
		"signature_id", signatureID,
		"revoked_by", revokedBy)

	return sig, nil
}
