package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resolver", func() {
	var (
		now      time.Time
		codec    *auth.TokenCodec
		users    *fakeUsers
		store    *fakeTokenStore
		resolver *auth.Resolver
		alice    *auth.User
	)

	BeforeEach(func() {
		now = time.Now().Truncate(time.Second)
		var err error
		codec, err = auth.NewTokenCodec(testSecret, auth.WithClock(func() time.Time { return now }))
		Expect(err).NotTo(HaveOccurred())

		users = newFakeUsers()
		store = newFakeTokenStore()
		alice = users.Add(&auth.User{Email: "alice@example.com", Role: auth.RoleOperator})

		resolver = auth.NewResolver(codec, users, logger.Discard(), auth.WithBlacklist(store))
	})

	requestWith := func(token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	expectUnauthenticated := func(err error, reason string) {
		Expect(err).To(MatchError(auth.ErrUnauthenticated))
		var uerr *auth.UnauthenticatedError
		Expect(errors.As(err, &uerr)).To(BeTrue())
		Expect(uerr.Reason).To(Equal(reason))
		Expect(uerr.AppError().Message).To(Equal("Could not validate credentials"))
	}

	It("resolves a valid access token to its user", func() {
		token, _ := codec.IssueAccess(alice.Email)

		user, claims, err := resolver.ResolveWithClaims(requestWith(token))
		Expect(err).NotTo(HaveOccurred())
		Expect(user.ID).To(Equal(alice.ID))
		Expect(claims.Subject).To(Equal(alice.Email))
	})

	It("reads the access cookie", func() {
		token, _ := codec.IssueAccess(alice.Email)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "Bearer " + token})

		user, err := resolver.Resolve(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(user.Email).To(Equal(alice.Email))
	})

	It("rejects a request without credentials", func() {
		_, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		expectUnauthenticated(err, "missing_credentials")
	})

	It("rejects an expired token with the same client-facing error as a forged one", func() {
		token, _ := codec.IssueAccess(alice.Email)
		now = now.Add(31 * time.Minute)
		_, expiredErr := resolver.Resolve(requestWith(token))
		expectUnauthenticated(expiredErr, "expired")

		forger, _ := auth.NewTokenCodec("forged-secret-that-is-long-enough-000000000", auth.WithClock(func() time.Time { return now }))
		forged, _ := forger.IssueAccess(alice.Email)
		_, forgedErr := resolver.Resolve(requestWith(forged))
		expectUnauthenticated(forgedErr, "bad_signature")

		var a, b *auth.UnauthenticatedError
		errors.As(expiredErr, &a)
		errors.As(forgedErr, &b)
		Expect(a.AppError()).To(Equal(b.AppError()))
	})

	It("rejects a refresh token presented as an access token", func() {
		token, _ := codec.IssueRefresh(alice.Email)
		_, err := resolver.Resolve(requestWith(token))
		expectUnauthenticated(err, "wrong_kind")
	})

	It("rejects a token whose user no longer exists", func() {
		token, _ := codec.IssueAccess("gone@example.com")
		_, err := resolver.Resolve(requestWith(token))
		expectUnauthenticated(err, "unknown_user")
	})

	It("rejects a blacklisted token", func() {
		token, _ := codec.IssueAccess(alice.Email)
		claims, _ := codec.VerifyAccess(token)
		Expect(store.Blacklist(ctx(), auth.BlacklistEntry{JTI: claims.ID, TokenType: auth.TokenKindAccess, ExpiresAt: claims.ExpiresAt.Time})).To(Succeed())

		_, err := resolver.Resolve(requestWith(token))
		expectUnauthenticated(err, "revoked")
	})

	It("fails closed when a lookup errors", func() {
		token, _ := codec.IssueAccess(alice.Email)

		store.err = errors.New("connection refused")
		_, err := resolver.Resolve(requestWith(token))
		expectUnauthenticated(err, "blacklist_unavailable")

		store.err = nil
		users.err = errors.New("connection refused")
		_, err = resolver.Resolve(requestWith(token))
		expectUnauthenticated(err, "user_lookup_failed")
	})
})
