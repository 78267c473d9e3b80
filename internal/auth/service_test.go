package auth_test

import (
	"errors"
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/core/events"
	"github.com/travelcrm/travel-crm/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Service", func() {
	var (
		now       time.Time
		clock     func() time.Time
		codec     *auth.TokenCodec
		users     *fakeUsers
		store     *fakeTokenStore
		publisher *recordingPublisher
		hasher    *auth.Argon2Hasher
		service   *auth.Service
		alice     *auth.User
	)

	BeforeEach(func() {
		now = time.Now().Truncate(time.Second)
		clock = func() time.Time { return now }

		var err error
		codec, err = auth.NewTokenCodec(testSecret, auth.WithClock(clock))
		Expect(err).NotTo(HaveOccurred())

		users = newFakeUsers()
		store = newFakeTokenStore()
		publisher = &recordingPublisher{}
		hasher = fastHasher()

		digest, err := hasher.Hash("correct horse")
		Expect(err).NotTo(HaveOccurred())
		alice = users.Add(&auth.User{Email: "alice@example.com", PasswordHash: digest, Role: auth.RoleAccountant})

		service = auth.NewService(users, hasher, codec, store, logger.Discard(),
			auth.WithEventPublisher(publisher), auth.WithServiceClock(clock))
	})

	login := func(email, password string) (auth.TokenPair, *auth.User, error) {
		return service.Login(ctx(), auth.LoginDTO{Email: email, Password: password, IPAddress: "198.51.100.4"})
	}

	Describe("Login", func() {
		It("issues a pair and stores only the refresh token hash", func() {
			pair, user, err := login("alice@example.com", "correct horse")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(alice.ID))
			Expect(pair.TokenType).To(Equal("bearer"))

			claims, err := codec.VerifyAccess(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("alice@example.com"))

			record, err := store.FindRefreshToken(ctx(), auth.HashRefreshToken(pair.RefreshToken))
			Expect(err).NotTo(HaveOccurred())
			Expect(record.UserID).To(Equal(alice.ID))
			Expect(record.TokenHash).NotTo(Equal(pair.RefreshToken))
			Expect(record.IPAddress).To(Equal("198.51.100.4"))
			Expect(publisher.Types()).To(ConsistOf(events.EventTypeLoginSucceeded))
		})

		It("returns the same error for an unknown email and a wrong password", func() {
			_, _, unknownErr := login("nobody@example.com", "correct horse")
			_, _, wrongErr := login("alice@example.com", "wrong horse")

			Expect(unknownErr).To(MatchError(auth.ErrInvalidCredentials))
			Expect(wrongErr).To(MatchError(auth.ErrInvalidCredentials))
			Expect(unknownErr.Error()).To(Equal(wrongErr.Error()))
			Expect(publisher.Types()).To(ConsistOf(events.EventTypeLoginFailed, events.EventTypeLoginFailed))
			Expect(store.activeRefreshTokens(alice.ID)).To(Equal(0))
		})

		It("treats email as case-sensitive", func() {
			_, _, err := login("Alice@example.com", "correct horse")
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("validates required fields", func() {
			_, _, err := login("", "")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("surfaces repository failures as errors, not as bad credentials", func() {
			users.err = errors.New("connection refused")
			_, _, err := login("alice@example.com", "correct horse")
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(auth.ErrInvalidCredentials))
		})

		It("upgrades a legacy bcrypt digest on successful login", func() {
			legacy, _ := bcrypt.GenerateFromPassword([]byte("old-school"), bcrypt.MinCost)
			users.Add(&auth.User{Email: "bob@example.com", PasswordHash: string(legacy), Role: auth.RoleOperator})

			_, _, err := login("bob@example.com", "old-school")
			Expect(err).NotTo(HaveOccurred())
			Expect(users.saves).To(Equal(1))

			bob, _ := users.FindByEmail(ctx(), "bob@example.com")
			Expect(bob.PasswordHash).To(HavePrefix("$argon2id$"))
			Expect(hasher.Verify("old-school", bob.PasswordHash)).To(BeTrue())
		})
	})

	Describe("Refresh", func() {
		It("rotates the refresh token", func() {
			pair, _, err := login("alice@example.com", "correct horse")
			Expect(err).NotTo(HaveOccurred())

			next, err := service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).NotTo(HaveOccurred())
			Expect(next.RefreshToken).NotTo(Equal(pair.RefreshToken))
			Expect(store.activeRefreshTokens(alice.ID)).To(Equal(1))

			_, err = service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).To(MatchError(auth.ErrUnauthenticated))
		})

		It("lets only one of two concurrent refreshes rotate the token", func() {
			pair, _, err := login("alice@example.com", "correct horse")
			Expect(err).NotTo(HaveOccurred())

			racing := auth.NewService(users, hasher, codec, newLockstepStore(store, 2), logger.Discard(),
				auth.WithServiceClock(clock))

			results := make(chan error, 2)
			for i := 0; i < 2; i++ {
				go func() {
					defer GinkgoRecover()
					_, err := racing.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
					results <- err
				}()
			}

			errs := []error{<-results, <-results}
			Expect(errs).To(ContainElement(BeNil()))
			Expect(errs).To(ContainElement(MatchError(auth.ErrUnauthenticated)))
			Expect(store.activeRefreshTokens(alice.ID)).To(Equal(1))
		})

		It("rejects an access token", func() {
			pair, _, _ := login("alice@example.com", "correct horse")
			_, err := service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.AccessToken})
			Expect(err).To(MatchError(auth.ErrUnauthenticated))
		})

		It("rejects a validly signed token that was never stored", func() {
			token, _ := codec.IssueRefresh("alice@example.com")
			_, err := service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: token})
			Expect(err).To(MatchError(auth.ErrUnauthenticated))
		})

		It("rejects an expired refresh token", func() {
			pair, _, _ := login("alice@example.com", "correct horse")
			now = now.Add(8 * 24 * time.Hour)
			_, err := service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).To(MatchError(auth.ErrUnauthenticated))
		})

		It("rejects tokens after all sessions are revoked", func() {
			pair, _, _ := login("alice@example.com", "correct horse")
			n, err := service.RevokeAllSessions(ctx(), "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))

			_, err = service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).To(MatchError(auth.ErrUnauthenticated))
		})

		It("requires a token", func() {
			_, err := service.Refresh(ctx(), auth.RefreshTokenDTO{})
			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
		})
	})

	Describe("Logout", func() {
		It("revokes the refresh token and blacklists the access token", func() {
			pair, user, _ := login("alice@example.com", "correct horse")
			claims, _ := codec.VerifyAccess(pair.AccessToken)

			Expect(service.Logout(ctx(), user, claims, pair.RefreshToken)).To(Succeed())

			Expect(store.activeRefreshTokens(alice.ID)).To(Equal(0))
			revoked, _ := store.IsBlacklisted(ctx(), claims.ID)
			Expect(revoked).To(BeTrue())
			Expect(publisher.Types()).To(ContainElement(events.EventTypeLogout))
		})

		It("leaves another user's refresh token alone", func() {
			pair, _, _ := login("alice@example.com", "correct horse")
			mallory := &auth.User{ID: 99, Email: "mallory@example.com", Role: auth.RoleOperator}

			Expect(service.Logout(ctx(), mallory, nil, pair.RefreshToken)).To(Succeed())
			Expect(store.activeRefreshTokens(alice.ID)).To(Equal(1))
		})

		It("logs out cleanly when the refresh token was already rotated", func() {
			pair, user, _ := login("alice@example.com", "correct horse")
			_, err := service.Refresh(ctx(), auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Logout(ctx(), user, nil, pair.RefreshToken)).To(Succeed())
		})

		It("ignores unknown refresh tokens", func() {
			Expect(service.Logout(ctx(), alice, nil, "not-a-token")).To(Succeed())
		})
	})
})
