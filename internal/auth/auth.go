package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/core/events"
)

// User is the identity a credential resolves to.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	Role           Role
	OrganizationID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) Actor() internal.Actor {
	return internal.Actor{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

// SameOrganization reports whether the record belongs to the user's organization.
// Admins and users without an organization are not scoped.
func (u *User) SameOrganization(orgID *int64) bool {
	if u.Role == RoleAdmin || u.OrganizationID == nil {
		return true
	}
	return orgID != nil && *orgID == *u.OrganizationID
}

// UserRepository is the persistence collaborator for user identities.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	Save(ctx context.Context, user *User) error
}

// RefreshToken is the persisted record of an issued refresh token. Only the
// SHA-256 of the token is stored.
type RefreshToken struct {
	ID         int64
	UserID     int64
	TokenHash  string
	ExpiresAt  time.Time
	IsRevoked  bool
	RevokedAt  *time.Time
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}

// BlacklistEntry revokes a single token by its jti until it would have expired anyway.
type BlacklistEntry struct {
	JTI       string
	TokenType TokenKind
	ExpiresAt time.Time
	Reason    string
}

type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// RevokeRefreshToken revokes an unrevoked record and returns ErrRefreshTokenRevoked
	// when there was none, so only one caller can win a rotation.
	RevokeRefreshToken(ctx context.Context, tokenHash string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error)
}

type Blacklist interface {
	Blacklist(ctx context.Context, entry BlacklistEntry) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// TokenStore is implemented by the SQL token store.
type TokenStore interface {
	RefreshTokenStore
	Blacklist
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrRefreshTokenRevoked is returned when no unrevoked record matched a revoke.
	ErrRefreshTokenRevoked = errors.New("refresh token already revoked")

	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrPermissionDenied   = errors.New("permission denied")
)

// UnauthenticatedError carries the internal reason a credential was rejected.
// Clients only ever see the generic 401 produced by AppError.
type UnauthenticatedError struct {
	Reason string
	Cause  error
}

func (e *UnauthenticatedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unauthenticated (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("unauthenticated (%s)", e.Reason)
}

func (e *UnauthenticatedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnauthenticated}
	}
	return []error{ErrUnauthenticated, e.Cause}
}

func (e *UnauthenticatedError) AppError() *internal.AppError {
	return internal.NewUnauthorizedError("Could not validate credentials", internal.ErrCodeUnauthenticated)
}

// PermissionDeniedError names the capability the principal was missing.
type PermissionDeniedError struct {
	Detail string
}

func (e *PermissionDeniedError) Error() string {
	return "permission denied: " + e.Detail
}

func (e *PermissionDeniedError) Unwrap() error {
	return ErrPermissionDenied
}

func (e *PermissionDeniedError) AppError() *internal.AppError {
	return internal.NewForbiddenError(e.Detail, internal.ErrCodePermissionDenied)
}

func Denied(format string, args ...any) *PermissionDeniedError {
	return &PermissionDeniedError{Detail: fmt.Sprintf(format, args...)}
}

// HashRefreshToken returns the hex SHA-256 used to look refresh tokens up.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
