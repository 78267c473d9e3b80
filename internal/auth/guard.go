package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/core/events"
	"github.com/travelcrm/travel-crm/internal/transport"
	"github.com/travelcrm/travel-crm/pkg/logger"
)

// GuardedHandler receives the resolved principal explicitly.
type GuardedHandler func(w http.ResponseWriter, r *http.Request, principal *User)

// Requirement is a single authorization check against a principal.
type Requirement interface {
	Check(principal *User) error
	String() string
}

type permissionRequirement struct {
	permission Permission
}

func RequirePermission(p Permission) Requirement {
	return permissionRequirement{permission: p}
}

func (req permissionRequirement) Check(principal *User) error {
	if !HasPermission(principal, req.permission) {
		return Denied("Permission denied. Required: %s", req.permission)
	}
	return nil
}

func (req permissionRequirement) String() string {
	return string(req.permission)
}

type roleRequirement struct {
	roles []Role
}

// RequireRole passes when the principal's role is one of roles.
func RequireRole(roles ...Role) Requirement {
	return roleRequirement{roles: roles}
}

func (req roleRequirement) Check(principal *User) error {
	if principal != nil {
		for _, r := range req.roles {
			if principal.Role == r {
				return nil
			}
		}
	}
	return Denied("Access denied. Required roles: %s", req)
}

func (req roleRequirement) String() string {
	names := make([]string, len(req.roles))
	for i, r := range req.roles {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}

type minimumRoleRequirement struct {
	role Role
}

// RequireMinimumRole passes when the principal meets or exceeds role in the hierarchy.
func RequireMinimumRole(role Role) Requirement {
	return minimumRoleRequirement{role: role}
}

func (req minimumRoleRequirement) Check(principal *User) error {
	if principal == nil || !MeetsOrExceeds(principal.Role, req.role) {
		return Denied("Access denied. Required role: %s or higher", req.role)
	}
	return nil
}

func (req minimumRoleRequirement) String() string {
	return string(req.role) + "+"
}

// PrincipalResolver is satisfied by *Resolver.
type PrincipalResolver interface {
	ResolveWithClaims(r *http.Request) (*User, *Claims, error)
}

type claimsCtxKey struct{}

// ClaimsFromContext returns the verified access claims stored by the guard.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Guard authenticates a request, then authorizes it, then calls the handler
// with the principal. Authentication failures are always reported before
// authorization failures.
type Guard struct {
	resolver          PrincipalResolver
	publisher         EventPublisher
	logger            *slog.Logger
	base              *transport.BaseHandler
	onUnauthenticated func(w http.ResponseWriter, r *http.Request, err error)
	onDenied          func(w http.ResponseWriter, r *http.Request, err error)
}

type GuardOption func(*Guard)

func WithGuardPublisher(p EventPublisher) GuardOption {
	return func(g *Guard) {
		g.publisher = p
	}
}

// WithUnauthenticatedHandler overrides the default JSON 401 response.
func WithUnauthenticatedHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) GuardOption {
	return func(g *Guard) {
		g.onUnauthenticated = fn
	}
}

// WithDeniedHandler overrides the default JSON 403 response.
func WithDeniedHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) GuardOption {
	return func(g *Guard) {
		g.onDenied = fn
	}
}

func NewGuard(resolver PrincipalResolver, lg *slog.Logger, opts ...GuardOption) *Guard {
	g := &Guard{
		resolver: resolver,
		logger:   lg,
		base:     transport.NewBaseHandler(lg),
	}
	g.onUnauthenticated = func(w http.ResponseWriter, _ *http.Request, err error) {
		g.base.HandleServiceError(w, err)
	}
	g.onDenied = func(w http.ResponseWriter, _ *http.Request, err error) {
		g.base.HandleServiceError(w, err)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// With returns a copy of the guard with extra options applied.
func (g *Guard) With(opts ...GuardOption) *Guard {
	clone := *g
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

func (g *Guard) Authenticated(h GuardedHandler) http.HandlerFunc {
	return g.Require(nil, h)
}

func (g *Guard) Permission(p Permission, h GuardedHandler) http.HandlerFunc {
	return g.Require(RequirePermission(p), h)
}

func (g *Guard) Role(roles []Role, h GuardedHandler) http.HandlerFunc {
	return g.Require(RequireRole(roles...), h)
}

// Require wraps h with authentication and, when req is non-nil, authorization.
func (g *Guard) Require(req Requirement, h GuardedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, claims, err := g.resolver.ResolveWithClaims(r)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				err = &UnauthenticatedError{Reason: "resolver", Cause: err}
			}
			g.onUnauthenticated(w, r, err)
			return
		}

		ctx := internal.ContextWithActor(r.Context(), principal.Actor())
		ctx = context.WithValue(ctx, claimsCtxKey{}, claims)
		ctx = logger.With(ctx, "principal", principal.Email)
		r = r.WithContext(ctx)

		if req != nil {
			if err := req.Check(principal); err != nil {
				g.deny(r, principal, req, err)
				g.onDenied(w, r, err)
				return
			}
			authzDecisions.WithLabelValues("allow", req.String()).Inc()
		}

		h(w, r, principal)
	}
}

// Authorize runs a requirement outside of HTTP routing, logging a denial the same way.
func (g *Guard) Authorize(r *http.Request, principal *User, req Requirement) error {
	if err := req.Check(principal); err != nil {
		g.deny(r, principal, req, err)
		return err
	}
	return nil
}

func (g *Guard) deny(r *http.Request, principal *User, req Requirement, err error) {
	ctx := r.Context()
	g.logger.WarnContext(ctx, "access denied",
		"user_id", principal.ID,
		"email", principal.Email,
		"role", principal.Role,
		"required", req.String(),
		"path", r.URL.Path)
	authzDecisions.WithLabelValues("deny", req.String()).Inc()

	if g.publisher != nil {
		id := principal.ID
		_ = g.publisher.Publish(ctx, events.NewAuditEvent(events.EventTypeAccessDenied, events.AuditFields{
			ActorID:    &id,
			ActorEmail: principal.Email,
			Target:     fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			IPAddress:  ClientIP(r),
			Detail:     err.Error(),
		}))
	}
}
