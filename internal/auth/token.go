package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/travelcrm/travel-crm/internal"
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"

	TokenTypeBearer = "bearer"
)

// Every verification failure wraps ErrInvalidToken. The narrower errors exist
// so callers can log why a token was rejected.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenKind      = fmt.Errorf("%w: wrong token kind", ErrInvalidToken)

	ErrEmptySubject = errors.New("token subject must not be empty")
)

// Claims represents JWT token claims. Subject carries the user's email.
type Claims struct {
	Kind TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// TokenCodec issues and verifies signed access and refresh tokens.
// It holds no state beyond its immutable settings and is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	algorithm  string
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

func WithLifetimes(access, refresh time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if access > 0 {
			c.accessTTL = access
		}
		if refresh > 0 {
			c.refreshTTL = refresh
		}
	}
}

func WithAlgorithm(alg string) CodecOption {
	return func(c *TokenCodec) {
		if alg != "" {
			c.algorithm = alg
		}
	}
}

func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token codec: empty signing secret")
	}

	c := &TokenCodec{
		secret:     []byte(secret),
		algorithm:  internal.DefaultJWTAlgorithm,
		accessTTL:  internal.DefaultAccessTokenExpireMinutes * time.Minute,
		refreshTTL: internal.DefaultRefreshTokenExpireDays * 24 * time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	method, ok := jwt.GetSigningMethod(c.algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token codec: unsupported algorithm %q", c.algorithm)
	}
	c.method = method

	return c, nil
}

func NewTokenCodecFromConfig(cfg internal.SecurityConfig, opts ...CodecOption) (*TokenCodec, error) {
	base := []CodecOption{
		WithAlgorithm(cfg.Algorithm()),
		WithLifetimes(cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()),
	}
	return NewTokenCodec(cfg.JWTSecret, append(base, opts...)...)
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }
func (c *TokenCodec) Algorithm() string         { return c.algorithm }

func (c *TokenCodec) IssueAccess(subject string) (string, error) {
	token, _, err := c.issue(subject, TokenKindAccess, c.accessTTL)
	return token, err
}

func (c *TokenCodec) IssueRefresh(subject string) (string, error) {
	token, _, err := c.issue(subject, TokenKindRefresh, c.refreshTTL)
	return token, err
}

// IssuePair issues an access and a refresh token for the same subject.
func (c *TokenCodec) IssuePair(subject string) (TokenPair, error) {
	access, accessExp, err := c.issue(subject, TokenKindAccess, c.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := c.issue(subject, TokenKindRefresh, c.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        TokenTypeBearer,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (c *TokenCodec) issue(subject string, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	// iat and exp are whole seconds. The issue instant is truncated to match so
	// the lifetime runs from the iat the token carries.
	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Verify checks structure, algorithm, signature and expiry. A token is valid
// strictly before its expiry instant.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}); err != nil {
		return nil, classifyTokenError(err)
	}
	return claims, nil
}

func (c *TokenCodec) VerifyAccess(token string) (*Claims, error) {
	return c.verifyKind(token, TokenKindAccess)
}

func (c *TokenCodec) VerifyRefresh(token string) (*Claims, error) {
	return c.verifyKind(token, TokenKindRefresh)
}

func (c *TokenCodec) verifyKind(token string, kind TokenKind) (*Claims, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// TokenFailureReason maps a verification error onto a short label for logs and metrics.
func TokenFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrTokenKind):
		return "wrong_kind"
	default:
		return "invalid"
	}
}
