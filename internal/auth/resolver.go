package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// AccessVerifier is the part of TokenCodec the resolver depends on.
type AccessVerifier interface {
	VerifyAccess(token string) (*Claims, error)
}

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Resolver derives the principal of a request from its credential.
type Resolver struct {
	source    CredentialSource
	verifier  AccessVerifier
	users     UserFinder
	blacklist Blacklist
	logger    *slog.Logger
}

type ResolverOption func(*Resolver)

func WithCredentialSource(src CredentialSource) ResolverOption {
	return func(r *Resolver) {
		r.source = src
	}
}

// WithBlacklist makes the resolver reject access tokens revoked at logout.
func WithBlacklist(b Blacklist) ResolverOption {
	return func(r *Resolver) {
		r.blacklist = b
	}
}

func NewResolver(verifier AccessVerifier, users UserFinder, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:   DefaultCredentialSource(),
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(req *http.Request) (*User, error) {
	user, _, err := r.ResolveWithClaims(req)
	return user, err
}

// ResolveWithClaims returns the principal and the verified access claims.
// Every failure is an *UnauthenticatedError; the cause is only logged.
func (r *Resolver) ResolveWithClaims(req *http.Request) (*User, *Claims, error) {
	ctx := req.Context()

	token, ok := r.source.Extract(req)
	if !ok {
		return nil, nil, r.reject(ctx, "missing_credentials", nil)
	}

	claims, err := r.verifier.VerifyAccess(token)
	if err != nil {
		return nil, nil, r.reject(ctx, TokenFailureReason(err), err)
	}

	if claims.Subject == "" {
		return nil, nil, r.reject(ctx, "missing_subject", nil)
	}

	if r.blacklist != nil && claims.ID != "" {
		revoked, err := r.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			r.logger.ErrorContext(ctx, "blacklist lookup failed", "error", err)
			return nil, nil, r.reject(ctx, "blacklist_unavailable", err)
		}
		if revoked {
			return nil, nil, r.reject(ctx, "revoked", nil)
		}
	}

	user, err := r.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, r.reject(ctx, "unknown_user", err)
		}
		r.logger.ErrorContext(ctx, "user lookup failed during authentication", "error", err)
		return nil, nil, r.reject(ctx, "user_lookup_failed", err)
	}

	return user, claims, nil
}

func (r *Resolver) reject(ctx context.Context, reason string, cause error) error {
	attrs := []any{"reason", reason}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	r.logger.WarnContext(ctx, "authentication failed", attrs...)
	authFailures.WithLabelValues(reason).Inc()
	return &UnauthenticatedError{Reason: reason, Cause: cause}
}
