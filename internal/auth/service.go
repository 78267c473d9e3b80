package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/travelcrm/travel-crm/internal/core/common/validation"
	"github.com/travelcrm/travel-crm/internal/core/events"
)

// ServiceAPI is what the HTTP handlers need from the auth service.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (TokenPair, *User, error)
	Refresh(ctx context.Context, dto RefreshTokenDTO) (TokenPair, error)
	Logout(ctx context.Context, principal *User, claims *Claims, refreshToken string) error
}

// Service handles credential checks and the token lifecycle.
type Service struct {
	users     UserRepository
	hasher    Hasher
	codec     *TokenCodec
	tokens    TokenStore
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	// dummyDigest is verified against when the email is unknown so both
	// failure paths cost one hash computation.
	dummyDigest string
}

type ServiceOption func(*Service)

func WithEventPublisher(p EventPublisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(users UserRepository, hasher Hasher, codec *TokenCodec, tokens TokenStore, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		hasher: hasher,
		codec:  codec,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if digest, err := hasher.Hash("travelcrm-timing-equaliser"); err == nil {
		s.dummyDigest = digest
	}
	return s
}

// Login checks the password and issues a token pair. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (TokenPair, *User, error) {
	if err := validation.Struct(dto); err != nil {
		return TokenPair{}, nil, err
	}

	user, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			loginAttempts.WithLabelValues("error").Inc()
			return TokenPair{}, nil, fmt.Errorf("find user: %w", err)
		}
		s.hasher.Verify(dto.Password, s.dummyDigest)
		s.loginFailed(ctx, dto, "unknown email")
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(dto.Password, user.PasswordHash) {
		s.loginFailed(ctx, dto, "wrong password")
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, dto.Password)
	}

	pair, err := s.issue(ctx, user, dto.DeviceInfo, dto.IPAddress)
	if err != nil {
		loginAttempts.WithLabelValues("error").Inc()
		return TokenPair{}, nil, err
	}

	loginAttempts.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	s.publish(ctx, events.EventTypeLoginSucceeded, user, user.Email, dto.IPAddress, "")

	return pair, user, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new pair. The
// presented token is revoked so it cannot be replayed.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (TokenPair, error) {
	if err := validation.Struct(dto); err != nil {
		return TokenPair{}, err
	}

	claims, err := s.codec.VerifyRefresh(dto.RefreshToken)
	if err != nil {
		return TokenPair{}, s.refreshRejected(ctx, TokenFailureReason(err), err)
	}

	hash := HashRefreshToken(dto.RefreshToken)
	record, err := s.tokens.FindRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return TokenPair{}, s.refreshRejected(ctx, "unknown_refresh_token", err)
		}
		tokenRefreshes.WithLabelValues("error").Inc()
		return TokenPair{}, fmt.Errorf("find refresh token: %w", err)
	}
	if record.IsRevoked {
		return TokenPair{}, s.refreshRejected(ctx, "revoked", nil)
	}
	if !s.now().Before(record.ExpiresAt) {
		return TokenPair{}, s.refreshRejected(ctx, "expired", nil)
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, s.refreshRejected(ctx, "unknown_user", err)
		}
		tokenRefreshes.WithLabelValues("error").Inc()
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if user.ID != record.UserID {
		return TokenPair{}, s.refreshRejected(ctx, "owner_mismatch", nil)
	}

	if err := s.tokens.RevokeRefreshToken(ctx, hash, s.now()); err != nil {
		if errors.Is(err, ErrRefreshTokenRevoked) {
			return TokenPair{}, s.refreshRejected(ctx, "revoked", err)
		}
		tokenRefreshes.WithLabelValues("error").Inc()
		return TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}

	pair, err := s.issue(ctx, user, dto.DeviceInfo, dto.IPAddress)
	if err != nil {
		tokenRefreshes.WithLabelValues("error").Inc()
		return TokenPair{}, err
	}

	tokenRefreshes.WithLabelValues("success").Inc()
	return pair, nil
}

// Logout revokes the given refresh token when it belongs to the principal and
// blacklists the access token the request was made with.
func (s *Service) Logout(ctx context.Context, principal *User, claims *Claims, refreshToken string) error {
	if refreshToken != "" {
		hash := HashRefreshToken(refreshToken)
		record, err := s.tokens.FindRefreshToken(ctx, hash)
		switch {
		case err == nil && record.UserID == principal.ID:
			if err := s.tokens.RevokeRefreshToken(ctx, hash, s.now()); err != nil && !errors.Is(err, ErrRefreshTokenRevoked) {
				return fmt.Errorf("revoke refresh token: %w", err)
			}
		case err != nil && !errors.Is(err, ErrRefreshTokenNotFound):
			return fmt.Errorf("find refresh token: %w", err)
		}
	}

	if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.tokens.Blacklist(ctx, BlacklistEntry{
			JTI:       claims.ID,
			TokenType: TokenKindAccess,
			ExpiresAt: claims.ExpiresAt.Time,
			Reason:    "logout",
		}); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "user logged out", "user_id", principal.ID)
	s.publish(ctx, events.EventTypeLogout, principal, principal.Email, "", "")
	return nil
}

// RevokeAllSessions revokes every refresh token of the user with the given email.
func (s *Service) RevokeAllSessions(ctx context.Context, email string) (int64, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	n, err := s.tokens.RevokeAllForUser(ctx, user.ID, s.now())
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	s.logger.InfoContext(ctx, "revoked refresh tokens", "user_id", user.ID, "count", n)
	return n, nil
}

func (s *Service) issue(ctx context.Context, user *User, device, ip string) (TokenPair, error) {
	pair, err := s.codec.IssuePair(user.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.tokens.CreateRefreshToken(ctx, &RefreshToken{
		UserID:     user.ID,
		TokenHash:  HashRefreshToken(pair.RefreshToken),
		ExpiresAt:  pair.RefreshExpiresAt,
		DeviceInfo: device,
		IPAddress:  ip,
		CreatedAt:  s.now(),
	}); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return pair, nil
}

func (s *Service) rehash(ctx context.Context, user *User, password string) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = digest
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "saving rehashed password failed", "user_id", user.ID, "error", err)
	}
}

func (s *Service) loginFailed(ctx context.Context, dto LoginDTO, reason string) {
	loginAttempts.WithLabelValues("failure").Inc()
	s.logger.WarnContext(ctx, "login failed", "reason", reason, "ip_address", dto.IPAddress)
	s.publish(ctx, events.EventTypeLoginFailed, nil, dto.Email, dto.IPAddress, reason)
}

func (s *Service) refreshRejected(ctx context.Context, reason string, cause error) error {
	tokenRefreshes.WithLabelValues("rejected").Inc()
	s.logger.WarnContext(ctx, "refresh token rejected", "reason", reason)
	return &UnauthenticatedError{Reason: reason, Cause: cause}
}

func (s *Service) publish(ctx context.Context, eventType string, actor *User, target, ip, detail string) {
	if s.publisher == nil {
		return
	}
	fields := events.AuditFields{Target: target, IPAddress: ip, Detail: detail}
	if actor != nil {
		id := actor.ID
		fields.ActorID = &id
		fields.ActorEmail = actor.Email
	}
	if err := s.publisher.Publish(ctx, events.NewAuditEvent(eventType, fields)); err != nil {
		s.logger.WarnContext(ctx, "publish audit event failed", "event_type", eventType, "error", err)
	}
}
