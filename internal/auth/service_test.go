package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kiranvarmap/qms/internal/auth"
)

// Mock account store for testing
type mockAccountStore struct {
	accounts map[string]*auth.AccountRecord
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string]*auth.AccountRecord)}
}

func (m *mockAccountStore) GetByUsername(username string) (*auth.AccountRecord, error) {
	for _, acct := range m.accounts {
		if acct.Username == username {
			return acct, nil
		}
	}
	return nil, errors.New("account not found")
}

func (m *mockAccountStore) GetByID(userID string) (*auth.AccountRecord, error) {
	acct, ok := m.accounts[userID]
	if !ok {
		return nil, errors.New("account not found")
	}
	return acct, nil
}

var _ = Describe("AuthService", func() {
	var (
		store   *mockAccountStore
		service *auth.Service
	)

	addAccount := func(id, username, password string, active bool, approval string) {
		hash, err := auth.HashPassword(password, 4)
		Expect(err).NotTo(HaveOccurred())
		store.accounts[id] = &auth.AccountRecord{
			ID:             id,
			Username:       username,
			PasswordHash:   hash,
			FullName:       "Test User",
			Email:          username + "@example.com",
			Role:           "operator",
			Active:         active,
			ApprovalStatus: approval,
		}
	}

	BeforeEach(func() {
		store = newMockAccountStore()
		codec := auth.NewTokenCodec("test-secret-key-at-least-32-chars-long", time.Hour)
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		service = auth.NewService(store, codec, logger)
	})

	Describe("Authenticate", func() {
		It("should reject an unknown username", func() {
			_, err := service.Authenticate(auth.LoginDTO{Username: "ghost", Password: "pw"})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject a wrong password", func() {
			addAccount("usr-1", "carol", "pw1", true, auth.ApprovalApproved)

			_, err := service.Authenticate(auth.LoginDTO{Username: "carol", Password: "wrong"})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("should reject a deactivated account with a distinct error", func() {
			addAccount("usr-1", "carol", "pw1", false, auth.ApprovalApproved)

			_, err := service.Authenticate(auth.LoginDTO{Username: "carol", Password: "pw1"})
			Expect(err).To(Equal(auth.ErrAccountDeactivated))
		})

		It("should reject a pending account with a distinct error", func() {
			addAccount("usr-1", "carol", "pw1", true, auth.ApprovalPending)

			_, err := service.Authenticate(auth.LoginDTO{Username: "carol", Password: "pw1"})
			Expect(err).To(Equal(auth.ErrPendingApproval))
		})

		It("should reject a rejected account with a distinct error", func() {
			addAccount("usr-1", "carol", "pw1", true, auth.ApprovalRejected)

			_, err := service.Authenticate(auth.LoginDTO{Username: "carol", Password: "pw1"})
			Expect(err).To(Equal(auth.ErrAccountRejected))
		})

		It("should issue a session for an active approved account", func() {
			addAccount("usr-1", "carol", "pw1", true, auth.ApprovalApproved)

			session, err := service.Authenticate(auth.LoginDTO{Username: "carol", Password: "pw1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Token).NotTo(BeEmpty())
			Expect(session.UserID).To(Equal("usr-1"))
			Expect(session.Username).To(Equal("carol"))
		})

		It("should issue a token whose decoded claims match the account", func() {
			addAccount("usr-1", "carol", "pw1", true, auth.ApprovalApproved)

			session, err := service.Authenticate(auth.LoginDTO{Username: "carol", Password: "pw1"})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.VerifySession(session.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Sub).To(Equal("usr-1"))
			Expect(claims.Username).To(Equal("carol"))
			Expect(claims.Role).To(Equal("operator"))
		})
	})

	Describe("Identity", func() {
		It("should resolve all four identity facets", func() {
			addAccount("usr-1", "carol", "pw1", true, auth.ApprovalApproved)

			ident, err := service.Identity("usr-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ident.ID).To(Equal("usr-1"))
			Expect(ident.Username).To(Equal("carol"))
			Expect(ident.FullName).To(Equal("Test User"))
			Expect(ident.Email).To(Equal("carol@example.com"))
		})

		It("should fail for an unknown subject", func() {
			_, err := service.Identity("usr-404")
			Expect(err).To(HaveOccurred())
		})
	})
})
