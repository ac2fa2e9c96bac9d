package inspection_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kiranvarmap/qms/internal/auth"
	"github.com/kiranvarmap/qms/internal/inspection"
	"github.com/go-chi/chi"
)

type mockInspectionService struct {
	createError error
	getError    error
	signError   error
	revokeError error
	inspection  *inspection.Inspection
	signature   *inspection.Signature
}

func (m *mockInspectionService) Create(dto inspection.CreateInspectionDTO) (*inspection.Inspection, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	return m.inspection, nil
}

func (m *mockInspectionService) GetByID(id string) (*inspection.Inspection, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.inspection, nil
}

func (m *mockInspectionService) List(limit, offset int) ([]*inspection.Inspection, error) {
	return nil, nil
}

func (m *mockInspectionService) Sign(inspectionID string, dto inspection.SignDTO, sourceIP string) (*inspection.Signature, error) {
	if m.signError != nil {
		return nil, m.signError
	}
	return m.signature, nil
}

func (m *mockInspectionService) Signatures(inspectionID string) ([]*inspection.Signature, error) {
	return nil, nil
}

func (m *mockInspectionService) Revoke(inspectionID string, signatureID int64, revokedBy string) (*inspection.Signature, error) {
	if m.revokeError != nil {
		return nil, m.revokeError
	}
	return m.signature, nil
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func routedRequest(method, target string, body []byte, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

var _ = Describe("InspectionHandler", func() {
	var (
		service  *mockInspectionService
		handler  *inspection.Handler
		recorder *httptest.ResponseRecorder
	)

	decodeError := func() errorBody {
		var body errorBody
		Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		service = &mockInspectionService{}
		handler = inspection.NewHandler(service)
		recorder = httptest.NewRecorder()
	})

	Describe("Get", func() {
		It("should answer 404 with a typed error for an unknown inspection", func() {
			service.getError = inspection.ErrInspectionNotFound

			req := routedRequest("GET", "/api/v1/inspections/ins-404", nil, map[string]string{"id": "ins-404"})
			handler.Get(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			body := decodeError()
			Expect(body.Error.Type).To(Equal("NOT_FOUND"))
			Expect(body.Error.Code).To(Equal("INSPECTION_NOT_FOUND"))
		})
	})

	Describe("Sign", func() {
		It("should answer 409 when the role already holds an active signature", func() {
			service.signError = inspection.ErrRoleAlreadySigned

			payload, _ := json.Marshal(map[string]string{"signer_name": "Dave", "signer_role": "reviewer"})
			req := routedRequest("POST", "/api/v1/inspections/ins-1/signatures", payload, map[string]string{"id": "ins-1"})
			handler.Sign(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusConflict))
			body := decodeError()
			Expect(body.Error.Type).To(Equal("CONFLICT"))
			Expect(body.Error.Code).To(Equal("ROLE_ALREADY_SIGNED"))
		})

		It("should answer 400 with a validation error for a bad role", func() {
			service.signError = inspection.SignDTO{SignerName: "Dave", SignerRole: "janitor"}.Validate()

			payload, _ := json.Marshal(map[string]string{"signer_name": "Dave", "signer_role": "janitor"})
			req := routedRequest("POST", "/api/v1/inspections/ins-1/signatures", payload, map[string]string{"id": "ins-1"})
			handler.Sign(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError().Error.Code).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("Revoke", func() {
		newRevokeRequest := func() *http.Request {
			req := routedRequest("DELETE", "/api/v1/inspections/ins-1/signatures/7", nil,
				map[string]string{"id": "ins-1", "sigID": "7"})
			claims := &auth.Claims{Sub: "usr-1", Username: "manager1", Role: "manager"}
			return req.WithContext(auth.ContextWithClaims(req.Context(), claims))
		}

		It("should answer 409 when the signature was already revoked", func() {
			service.revokeError = inspection.ErrSignatureRevoked

			handler.Revoke(recorder, newRevokeRequest())

			Expect(recorder.Code).To(Equal(http.StatusConflict))
			body := decodeError()
			Expect(body.Error.Type).To(Equal("CONFLICT"))
			Expect(body.Error.Code).To(Equal("SIGNATURE_REVOKED"))
		})

		It("should answer 404 when the signature does not exist", func() {
			service.revokeError = inspection.ErrSignatureNotFound

			handler.Revoke(recorder, newRevokeRequest())

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
			Expect(decodeError().Error.Code).To(Equal("SIGNATURE_NOT_FOUND"))
		})

		It("should answer 401 without claims in context", func() {
			req := routedRequest("DELETE", "/api/v1/inspections/ins-1/signatures/7", nil,
				map[string]string{"id": "ins-1", "sigID": "7"})

			handler.Revoke(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeError().Error.Code).To(Equal("INVALID_TOKEN"))
		})
	})
})
