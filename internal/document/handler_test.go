package document_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kiranvarmap/qms/internal/core/identity"
	"github.com/kiranvarmap/qms/internal/document"
	"github.com/go-chi/chi"
)

type mockDocumentService struct {
	signError   error
	rejectError error
	deleteError error
	request     *document.SignRequest
	status      document.Status
}

func (m *mockDocumentService) Create(dto document.CreateDocumentDTO, createdBy string) (*document.Detail, error) {
	return nil, nil
}

func (m *mockDocumentService) GetByID(id string) (*document.Detail, error) {
	return nil, nil
}

func (m *mockDocumentService) List(status, batchID string, limit int) ([]*document.Summary, error) {
	return nil, nil
}

func (m *mockDocumentService) AddSigner(documentID string, spec document.SignerSpecDTO) (*document.SignRequest, error) {
	return nil, nil
}

func (m *mockDocumentService) Sign(documentID string, requestID int64, dto document.SignActionDTO, signedByIP string) (*document.SignRequest, document.Status, error) {
	if m.signError != nil {
		return nil, "", m.signError
	}
	return m.request, m.status, nil
}

func (m *mockDocumentService) Reject(documentID string, requestID int64, dto document.RejectActionDTO) (*document.SignRequest, document.Status, error) {
	if m.rejectError != nil {
		return nil, "", m.rejectError
	}
	return m.request, m.status, nil
}

func (m *mockDocumentService) UpdatePlacement(documentID string, requestID int64, dto document.PlacementDTO) (*document.SignRequest, error) {
	return nil, nil
}

func (m *mockDocumentService) MyTasks(ident identity.Identity) ([]*document.SignRequest, error) {
	return nil, nil
}

func (m *mockDocumentService) Delete(documentID string) error {
	return m.deleteError
}

type stubResolver struct{}

func (stubResolver) Identity(userID string) (identity.Identity, error) {
	return identity.Identity{ID: userID}, nil
}

type actionErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func signActionRequest(target string, params map[string]string) *http.Request {
	req := httptest.NewRequest("POST", target, bytes.NewBuffer(nil))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

var _ = Describe("DocumentHandler", func() {
	var (
		service  *mockDocumentService
		handler  *document.Handler
		recorder *httptest.ResponseRecorder
	)

	decodeError := func() actionErrorBody {
		var body actionErrorBody
		Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		service = &mockDocumentService{}
		handler = document.NewHandler(service, stubResolver{})
		recorder = httptest.NewRecorder()
	})

	Describe("Sign", func() {
		It("should answer 409 when the request was already decided", func() {
			service.signError = document.ErrRequestDecided

			req := signActionRequest("/api/v1/documents/doc-1/sign-requests/3/sign",
				map[string]string{"id": "doc-1", "rid": "3"})
			handler.Sign(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusConflict))
			body := decodeError()
			Expect(body.Error.Type).To(Equal("CONFLICT"))
			Expect(body.Error.Code).To(Equal("SIGN_REQUEST_DECIDED"))
		})

		It("should answer 404 with a typed error for an unknown document", func() {
			service.signError = document.ErrDocumentNotFound

			req := signActionRequest("/api/v1/documents/doc-404/sign-requests/3/sign",
				map[string]string{"id": "doc-404", "rid": "3"})
			handler.Sign(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError().Error.Code).To(Equal("DOCUMENT_NOT_FOUND"))
		})

		It("should answer 400 for a non-numeric sign request id", func() {
			req := signActionRequest("/api/v1/documents/doc-1/sign-requests/abc/sign",
				map[string]string{"id": "doc-1", "rid": "abc"})
			handler.Sign(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError().Error.Code).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("Reject", func() {
		It("should answer 409 when the request was already decided", func() {
			service.rejectError = document.ErrRequestDecided

			req := signActionRequest("/api/v1/documents/doc-1/sign-requests/3/reject",
				map[string]string{"id": "doc-1", "rid": "3"})
			handler.Reject(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusConflict))
			Expect(decodeError().Error.Code).To(Equal("SIGN_REQUEST_DECIDED"))
		})

		It("should answer 404 when the request belongs to another document", func() {
			service.rejectError = document.ErrRequestNotFound

			req := signActionRequest("/api/v1/documents/doc-1/sign-requests/3/reject",
				map[string]string{"id": "doc-1", "rid": "3"})
			handler.Reject(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError().Error.Code).To(Equal("SIGN_REQUEST_NOT_FOUND"))
		})
	})
})
