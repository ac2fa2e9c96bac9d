package document_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kiranvarmap/qms/internal/core/identity"
	"github.com/kiranvarmap/qms/internal/document"
)

// Mock repository for testing
type mockDocumentRepository struct {
	documents map[string]*document.SignoffDocument
	requests  map[string][]*document.SignRequest
	nextReqID int64
}

func newMockDocumentRepository() *mockDocumentRepository {
	return &mockDocumentRepository{
		documents: make(map[string]*document.SignoffDocument),
		requests:  make(map[string][]*document.SignRequest),
		nextReqID: 1,
	}
}

func (m *mockDocumentRepository) CreateDocument(doc *document.SignoffDocument, requests []*document.SignRequest) error {
	m.documents[doc.ID] = doc
	for _, req := range requests {
		req.ID = m.nextReqID
		m.nextReqID++
		m.requests[doc.ID] = append(m.requests[doc.ID], req)
	}
	return nil
}

func (m *mockDocumentRepository) GetDocument(id string) (*document.SignoffDocument, []*document.SignRequest, error) {
	doc, ok := m.documents[id]
	if !ok {
		return nil, nil, document.ErrDocumentNotFound
	}
	return doc, m.requests[id], nil
}

func (m *mockDocumentRepository) ListDocuments(status, batchID string, limit int) ([]*document.Summary, error) {
	summaries := make([]*document.Summary, 0)
	for _, doc := range m.documents {
		if status != "" && string(doc.Status) != status {
			continue
		}
		if batchID != "" && doc.BatchID != batchID {
			continue
		}
		summary := &document.Summary{SignoffDocument: *doc}
		for _, req := range m.requests[doc.ID] {
			summary.TotalSigners++
			if req.Status == document.RequestSigned {
				summary.SignedCount++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (m *mockDocumentRepository) DeleteDocument(id string) error {
	if _, ok := m.documents[id]; !ok {
		return document.ErrDocumentNotFound
	}
	delete(m.documents, id)
	delete(m.requests, id)
	return nil
}

func (m *mockDocumentRepository) AddRequest(documentID string, req *document.SignRequest) error {
	doc, ok := m.documents[documentID]
	if !ok {
		return document.ErrDocumentNotFound
	}
	req.ID = m.nextReqID
	m.nextReqID++
	m.requests[documentID] = append(m.requests[documentID], req)
	if doc.Status == document.StatusDraft {
		doc.Status = document.StatusInProgress
	}
	return nil
}

func (m *mockDocumentRepository) find(documentID string, requestID int64) (*document.SignRequest, error) {
	if _, ok := m.documents[documentID]; !ok {
		return nil, document.ErrDocumentNotFound
	}
	for _, req := range m.requests[documentID] {
		if req.ID == requestID {
			return req, nil
		}
	}
	return nil, document.ErrRequestNotFound
}

func (m *mockDocumentRepository) settle(documentID string, requestID int64, mutate func(*document.SignRequest)) (*document.SignRequest, document.Status, error) {
	req, err := m.find(documentID, requestID)
	if err != nil {
		return nil, "", err
	}
	if req.Status.IsTerminal() {
		return nil, "", document.ErrRequestDecided
	}
	mutate(req)
	status := document.DeriveStatus(m.requests[documentID])
	m.documents[documentID].Status = status
	return req, status, nil
}

func (m *mockDocumentRepository) SignRequestAction(documentID string, requestID int64, notes, signedByIP string) (*document.SignRequest, document.Status, error) {
	return m.settle(documentID, requestID, func(req *document.SignRequest) {
		now := time.Now()
		req.Status = document.RequestSigned
		req.SignedAt = &now
		req.Notes = notes
		req.SignedByIP = signedByIP
	})
}

func (m *mockDocumentRepository) RejectRequest(documentID string, requestID int64, reason string) (*document.SignRequest, document.Status, error) {
	return m.settle(documentID, requestID, func(req *document.SignRequest) {
		req.Status = document.RequestRejected
		req.RejectionReason = reason
	})
}

func (m *mockDocumentRepository) UpdatePlacement(documentID string, requestID int64, placement document.Placement) (*document.SignRequest, error) {
	req, err := m.find(documentID, requestID)
	if err != nil {
		return nil, err
	}
	req.Placement = placement
	return req, nil
}

func (m *mockDocumentRepository) PendingRequests() ([]*document.SignRequest, error) {
	pending := make([]*document.SignRequest, 0)
	for _, reqs := range m.requests {
		for _, req := range reqs {
			if req.Status == document.RequestPending {
				pending = append(pending, req)
			}
		}
	}
	return pending, nil
}

var _ = Describe("DocumentService", func() {
	var (
		repo    *mockDocumentRepository
		service *document.Service
	)

	BeforeEach(func() {
		repo = newMockDocumentRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		service = document.NewService(repo, logger)
	})

	batch42 := func() *document.Detail {
		detail, err := service.Create(document.CreateDocumentDTO{
			Title:   "Batch 42 Release",
			BatchID: "batch-42",
			Signers: []document.SignerSpecDTO{
				{Name: "Alice", Role: "reviewer", SignOrder: 1},
				{Name: "Bob", Role: "approver", SignOrder: 2},
			},
		}, "usr-1")
		Expect(err).NotTo(HaveOccurred())
		return detail
	}

	Describe("Create", func() {
		It("should start as draft without signers", func() {
			detail, err := service.Create(document.CreateDocumentDTO{Title: "Empty"}, "usr-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Status).To(Equal(document.StatusDraft))
			Expect(detail.Requests).To(BeEmpty())
		})

		It("should start in progress with pending requests for each signer", func() {
			detail := batch42()
			Expect(detail.Status).To(Equal(document.StatusInProgress))
			Expect(detail.Requests).To(HaveLen(2))
			for _, req := range detail.Requests {
				Expect(req.Status).To(Equal(document.RequestPending))
			}
		})

		It("should require a title", func() {
			_, err := service.Create(document.CreateDocumentDTO{}, "usr-1")
			Expect(err).To(HaveOccurred())
		})

		It("should require signer names", func() {
			_, err := service.Create(document.CreateDocumentDTO{
				Title:   "Bad",
				Signers: []document.SignerSpecDTO{{Role: "reviewer"}},
			}, "usr-1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Sign", func() {
		It("should stay in progress until every signer settles", func() {
			detail := batch42()
			alice, bob := detail.Requests[0], detail.Requests[1]

			_, status, err := service.Sign(detail.ID, alice.ID, document.SignActionDTO{}, "10.0.0.5")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(document.StatusInProgress))

			_, status, err = service.Sign(detail.ID, bob.ID, document.SignActionDTO{}, "10.0.0.6")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(document.StatusComplete))
		})

		It("should stamp signed_at and the source IP", func() {
			detail := batch42()

			req, _, err := service.Sign(detail.ID, detail.Requests[0].ID, document.SignActionDTO{Notes: "looks good"}, "10.0.0.5")
			Expect(err).NotTo(HaveOccurred())
			Expect(req.SignedAt).NotTo(BeNil())
			Expect(req.SignedByIP).To(Equal("10.0.0.5"))
			Expect(req.Notes).To(Equal("looks good"))
		})

		It("should refuse signing a settled request again", func() {
			detail := batch42()
			alice := detail.Requests[0]

			_, _, err := service.Sign(detail.ID, alice.ID, document.SignActionDTO{}, "")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.Sign(detail.ID, alice.ID, document.SignActionDTO{}, "")
			Expect(err).To(Equal(document.ErrRequestDecided))
		})

		It("should fail for an unknown request", func() {
			detail := batch42()
			_, _, err := service.Sign(detail.ID, 999, document.SignActionDTO{}, "")
			Expect(err).To(Equal(document.ErrRequestNotFound))
		})
	})

	Describe("Reject", func() {
		It("should veto the document regardless of prior signatures", func() {
			detail := batch42()
			alice, bob := detail.Requests[0], detail.Requests[1]

			_, status, err := service.Sign(detail.ID, alice.ID, document.SignActionDTO{}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(document.StatusInProgress))

			req, status, err := service.Reject(detail.ID, bob.ID, document.RejectActionDTO{Reason: "missing COA"})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.RejectionReason).To(Equal("missing COA"))
			Expect(status).To(Equal(document.StatusRejected))
		})

		It("should refuse rejecting a settled request", func() {
			detail := batch42()
			bob := detail.Requests[1]

			_, _, err := service.Reject(detail.ID, bob.ID, document.RejectActionDTO{})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.Reject(detail.ID, bob.ID, document.RejectActionDTO{})
			Expect(err).To(Equal(document.ErrRequestDecided))
		})
	})

	Describe("AddSigner", func() {
		It("should promote a draft document to in progress", func() {
			detail, err := service.Create(document.CreateDocumentDTO{Title: "Empty"}, "usr-1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddSigner(detail.ID, document.SignerSpecDTO{Name: "Alice"})
			Expect(err).NotTo(HaveOccurred())

			got, err := service.GetByID(detail.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(document.StatusInProgress))
			Expect(got.Requests).To(HaveLen(1))
		})

		It("should fail for an unknown document", func() {
			_, err := service.AddSigner("doc-404", document.SignerSpecDTO{Name: "Alice"})
			Expect(err).To(Equal(document.ErrDocumentNotFound))
		})
	})

	Describe("UpdatePlacement", func() {
		It("should update the anchor even after signing", func() {
			detail := batch42()
			alice := detail.Requests[0]

			_, _, err := service.Sign(detail.ID, alice.ID, document.SignActionDTO{}, "")
			Expect(err).NotTo(HaveOccurred())

			page := 2
			x, y := 0.25, 0.75
			req, err := service.UpdatePlacement(detail.ID, alice.ID, document.PlacementDTO{Page: &page, X: &x, Y: &y})
			Expect(err).NotTo(HaveOccurred())
			Expect(*req.Placement.Page).To(Equal(2))
			Expect(*req.Placement.X).To(Equal(0.25))
		})
	})

	Describe("MyTasks", func() {
		It("should match pending requests on any identity facet", func() {
			_, err := service.Create(document.CreateDocumentDTO{
				Title: "Facets",
				Signers: []document.SignerSpecDTO{
					{Name: "carol"},
					{Name: "Carol Jones"},
					{Name: "Someone Else", Email: "carol@example.com"},
					{Name: "Unrelated"},
				},
			}, "usr-1")
			Expect(err).NotTo(HaveOccurred())

			tasks, err := service.MyTasks(identity.Identity{
				ID:       "usr-7",
				Username: "carol",
				FullName: "Carol Jones",
				Email:    "carol@example.com",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(HaveLen(3))
		})

		It("should drop settled requests from the task list", func() {
			detail, err := service.Create(document.CreateDocumentDTO{
				Title:   "Tasks",
				Signers: []document.SignerSpecDTO{{Name: "carol"}},
			}, "usr-1")
			Expect(err).NotTo(HaveOccurred())

			ident := identity.Identity{Username: "carol"}
			tasks, err := service.MyTasks(ident)
			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(HaveLen(1))

			_, _, err = service.Sign(detail.ID, detail.Requests[0].ID, document.SignActionDTO{}, "")
			Expect(err).NotTo(HaveOccurred())

			tasks, err = service.MyTasks(ident)
			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("should remove the document and its requests", func() {
			detail := batch42()

			Expect(service.Delete(detail.ID)).To(Succeed())

			_, err := service.GetByID(detail.ID)
			Expect(err).To(Equal(document.ErrDocumentNotFound))
		})

		It("should fail for an unknown document", func() {
			Expect(service.Delete("doc-404")).To(Equal(document.ErrDocumentNotFound))
		})
	})
})
