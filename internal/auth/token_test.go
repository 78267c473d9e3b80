package auth_test

import (
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TokenCodec", func() {
	var (
		now   time.Time
		clock func() time.Time
		codec *auth.TokenCodec
	)

	BeforeEach(func() {
		now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		clock = func() time.Time { return now }

		var err error
		codec, err = auth.NewTokenCodec(testSecret, auth.WithClock(clock), auth.WithLifetimes(30*time.Minute, 7*24*time.Hour))
		Expect(err).NotTo(HaveOccurred())
	})

	It("round-trips the subject", func() {
		token, err := codec.IssueAccess("a@b.com")
		Expect(err).NotTo(HaveOccurred())

		claims, err := codec.Verify(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Subject).To(Equal("a@b.com"))
		Expect(claims.Kind).To(Equal(auth.TokenKindAccess))
		Expect(claims.ID).NotTo(BeEmpty())
		Expect(claims.IssuedAt.Time).To(BeTemporally("==", now))
		Expect(claims.ExpiresAt.Time).To(BeTemporally("==", now.Add(30*time.Minute)))
	})

	It("is valid strictly before expiry", func() {
		token, err := codec.IssueAccess("a@b.com")
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(30*time.Minute - time.Second)
		_, err = codec.VerifyAccess(token)
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(time.Second)
		_, err = codec.VerifyAccess(token)
		Expect(err).To(MatchError(auth.ErrTokenExpired))
		Expect(err).To(MatchError(auth.ErrInvalidToken))
		Expect(auth.TokenFailureReason(err)).To(Equal("expired"))
	})

	It("measures the lifetime from the recorded issue instant with a sub-second clock", func() {
		now = time.Date(2025, 3, 1, 12, 0, 0, 700_000_000, time.UTC)
		pair, err := codec.IssuePair("a@b.com")
		Expect(err).NotTo(HaveOccurred())

		claims, err := codec.VerifyAccess(pair.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		issuedAt := claims.IssuedAt.Time
		Expect(issuedAt).To(BeTemporally("==", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
		Expect(pair.AccessExpiresAt).To(BeTemporally("==", claims.ExpiresAt.Time))
		Expect(pair.AccessExpiresAt).To(BeTemporally("==", issuedAt.Add(30*time.Minute)))

		for _, epsilon := range []time.Duration{time.Nanosecond, time.Millisecond, 500 * time.Millisecond} {
			now = issuedAt.Add(30*time.Minute - epsilon)
			_, err = codec.VerifyAccess(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred(), "epsilon %s", epsilon)
		}

		now = issuedAt.Add(30 * time.Minute)
		_, err = codec.VerifyAccess(pair.AccessToken)
		Expect(err).To(MatchError(auth.ErrTokenExpired))
	})

	It("gives refresh tokens the longer lifetime", func() {
		pair, err := codec.IssuePair("a@b.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(pair.TokenType).To(Equal("bearer"))
		Expect(pair.AccessExpiresAt).To(Equal(now.Add(30 * time.Minute)))
		Expect(pair.RefreshExpiresAt).To(Equal(now.Add(7 * 24 * time.Hour)))

		now = now.Add(24 * time.Hour)
		_, err = codec.VerifyAccess(pair.AccessToken)
		Expect(err).To(MatchError(auth.ErrTokenExpired))
		claims, err := codec.VerifyRefresh(pair.RefreshToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Subject).To(Equal("a@b.com"))
	})

	It("issues distinct tokens for the same subject", func() {
		a, _ := codec.IssueAccess("a@b.com")
		b, _ := codec.IssueAccess("a@b.com")
		Expect(a).NotTo(Equal(b))
	})

	It("does not accept one kind in place of the other", func() {
		pair, err := codec.IssuePair("a@b.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = codec.VerifyAccess(pair.RefreshToken)
		Expect(err).To(MatchError(auth.ErrTokenKind))
		_, err = codec.VerifyRefresh(pair.AccessToken)
		Expect(err).To(MatchError(auth.ErrTokenKind))
		Expect(auth.TokenFailureReason(err)).To(Equal("wrong_kind"))
	})

	It("rejects tokens signed with another secret", func() {
		other, err := auth.NewTokenCodec("another-secret-key-that-is-long-enough-987", auth.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())
		token, _ := other.IssueAccess("a@b.com")

		_, err = codec.Verify(token)
		Expect(err).To(MatchError(auth.ErrTokenSignature))
		Expect(auth.TokenFailureReason(err)).To(Equal("bad_signature"))
	})

	It("rejects tokens signed with another algorithm", func() {
		other, err := auth.NewTokenCodec(testSecret, auth.WithClock(clock), auth.WithAlgorithm("HS512"))
		Expect(err).NotTo(HaveOccurred())
		token, _ := other.IssueAccess("a@b.com")

		_, err = codec.Verify(token)
		Expect(err).To(MatchError(auth.ErrInvalidToken))
	})

	It("rejects malformed input", func() {
		for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
			_, err := codec.Verify(raw)
			Expect(err).To(MatchError(auth.ErrInvalidToken), raw)
		}
		_, err := codec.Verify("not-a-jwt")
		Expect(auth.TokenFailureReason(err)).To(Equal("malformed"))
	})

	It("refuses an empty subject", func() {
		_, err := codec.IssueAccess("")
		Expect(err).To(MatchError(auth.ErrEmptySubject))
	})

	It("refuses an empty secret or a non-HMAC algorithm", func() {
		_, err := auth.NewTokenCodec("")
		Expect(err).To(HaveOccurred())
		_, err = auth.NewTokenCodec(testSecret, auth.WithAlgorithm("RS256"))
		Expect(err).To(HaveOccurred())
	})

	It("builds from config with the default lifetimes", func() {
		c, err := auth.NewTokenCodecFromConfig(internal.SecurityConfig{JWTSecret: testSecret})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Algorithm()).To(Equal("HS256"))
		Expect(c.AccessTTL()).To(Equal(30 * time.Minute))
		Expect(c.RefreshTTL()).To(Equal(7 * 24 * time.Hour))
	})
})
