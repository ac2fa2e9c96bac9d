package postgres

import (
	"time"

	"github.com/kiranvarmap/qms/internal/document"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository implements the document.Repository interface using GORM
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) document.Repository {
	return &DocumentRepository{db: db}
}

// CreateDocument saves a document and its initial sign requests in one
// transaction.
func (r *DocumentRepository) CreateDocument(doc *document.SignoffDocument, requests []*document.SignRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		for _, req := range requests {
			if err := tx.Create(req).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDocument retrieves a document with its sign requests ordered by
// sign_order.
func (r *DocumentRepository) GetDocument(id string) (*document.SignoffDocument, []*document.SignRequest, error) {
	var doc document.SignoffDocument
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, document.ErrDocumentNotFound
		}
		return nil, nil, err
	}

	var requests []*document.SignRequest
	err = r.db.Where("document_id = ?", id).
		Order("sign_order ASC, id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, nil, err
	}

	return &doc, requests, nil
}

// ListDocuments retrieves documents newest first with signer progress counts,
// optionally filtered by status and batch.
func (r *DocumentRepository) ListDocuments(status, batchID string, limit int) ([]*document.Summary, error) {
	query := r.db.Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if batchID != "" {
		query = query.Where("batch_id = ?", batchID)
	}

	var docs []*document.SignoffDocument
	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}

	summaries := make([]*document.Summary, 0, len(docs))
	if len(docs) == 0 {
		return summaries, nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	type progress struct {
		DocumentID  string
		Total       int
		SignedCount int
	}
	var rows []progress
	err := r.db.Model(&document.SignRequest{}).
		Select("document_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS signed_count", document.RequestSigned).
		Where("document_id IN ?", ids).
		Group("document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]progress, len(rows))
	for _, row := range rows {
		counts[row.DocumentID] = row
	}

	for _, doc := range docs {
		row := counts[doc.ID]
		summaries = append(summaries, &document.Summary{
			SignoffDocument: *doc,
			TotalSigners:    row.Total,
			SignedCount:     row.SignedCount,
		})
	}
	return summaries, nil
}

// AddRequest appends a pending request while holding a row lock on the
// document, promoting a draft document to in_progress.
func (r *DocumentRepository) AddRequest(documentID string, req *document.SignRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		doc, err := lockDocument(tx, documentID)
		if err != nil {
			return err
		}

		if err := tx.Create(req).Error; err != nil {
			return err
		}

		if doc.Status == document.StatusDraft {
			return tx.Model(doc).Updates(map[string]interface{}{
				"status":     document.StatusInProgress,
				"updated_at": time.Now(),
			}).Error
		}
		return nil
	})
}

// SignRequestAction settles a pending request as signed and recomputes the
// document's aggregate status in the same transaction. The document row lock
// serializes concurrent signers so the derivation never runs against a stale
// snapshot.
func (r *DocumentRepository) SignRequestAction(documentID string, requestID int64, notes, signedByIP string) (*document.SignRequest, document.Status, error) {
	return r.settle(documentID, requestID, func(req *document.SignRequest, now time.Time) {
		req.Status = document.RequestSigned
		req.SignedAt = &now
		req.Notes = notes
		req.SignedByIP = signedByIP
	})
}

// RejectRequest settles a pending request as rejected. The derived document
// status becomes rejected regardless of the other requests' states.
func (r *DocumentRepository) RejectRequest(documentID string, requestID int64, reason string) (*document.SignRequest, document.Status, error) {
	return r.settle(documentID, requestID, func(req *document.SignRequest, now time.Time) {
		req.Status = document.RequestRejected
		req.RejectionReason = reason
	})
}

func (r *DocumentRepository) settle(documentID string, requestID int64, mutate func(*document.SignRequest, time.Time)) (*document.SignRequest, document.Status, error) {
	var req document.SignRequest
	var status document.Status

	err := r.db.Transaction(func(tx *gorm.DB) error {
		doc, err := lockDocument(tx, documentID)
		if err != nil {
			return err
		}

		err = tx.Where("id = ? AND document_id = ?", requestID, documentID).
			First(&req).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return document.ErrRequestNotFound
			}
			return err
		}

		if req.Status.IsTerminal() {
			return document.ErrRequestDecided
		}

		now := time.Now()
		mutate(&req, now)
		req.UpdatedAt = now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}

		var all []*document.SignRequest
		if err := tx.Where("document_id = ?", documentID).Find(&all).Error; err != nil {
			return err
		}

		status = document.DeriveStatus(all)
		return tx.Model(doc).Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, "", err
	}
	return &req, status, nil
}

// UpdatePlacement mutates a request's anchor metadata in any state.
func (r *DocumentRepository) UpdatePlacement(documentID string, requestID int64, placement document.Placement) (*document.SignRequest, error) {
	var req document.SignRequest
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND document_id = ?", requestID, documentID).
			First(&req).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return document.ErrRequestNotFound
			}
			return err
		}

		req.Placement = placement
		req.UpdatedAt = time.Now()
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingRequests returns every pending sign request, oldest first.
func (r *DocumentRepository) PendingRequests() ([]*document.SignRequest, error) {
	var requests []*document.SignRequest
	err := r.db.Where("status = ?", document.RequestPending).
		Order("created_at ASC, id ASC").
		Find(&requests).Error
	return requests, err
}

// DeleteDocument removes the document and every owned sign request in one
// transaction.
func (r *DocumentRepository) DeleteDocument(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockDocument(tx, id); err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&document.SignRequest{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&document.SignoffDocument{}).Error
	})
}

func lockDocument(tx *gorm.DB, id string) (*document.SignoffDocument, error) {
	var doc document.SignoffDocument
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, document.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}
