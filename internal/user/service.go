package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/core/common/validation"
	"github.com/travelcrm/travel-crm/internal/core/events"
)

// RepositoryAPI is the user store. It extends the lookup the authenticator needs.
type RepositoryAPI interface {
	auth.UserRepository
	FindByID(ctx context.Context, id int64) (*auth.User, error)
	List(ctx context.Context, filter ListFilter) ([]*auth.User, error)
	Delete(ctx context.Context, id int64) error
}

type ServiceAPI interface {
	Register(ctx context.Context, actor *auth.User, dto RegisterDTO) (*auth.User, error)
	PublicRegister(ctx context.Context, dto PublicRegisterDTO) (*auth.User, error)
	List(ctx context.Context, actor *auth.User, limit, offset int) ([]*auth.User, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*auth.User, error)
	Delete(ctx context.Context, actor *auth.User, id int64) error
	ChangeRole(ctx context.Context, actor *auth.User, id int64, dto ChangeRoleDTO) (*auth.User, error)
}

// SessionRevoker revokes every refresh token a user holds.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	hasher    auth.Hasher
	publisher auth.EventPublisher
	sessions  SessionRevoker
	logger    *slog.Logger
}

type ServiceOption func(*Service)

// WithSessionRevoker revokes a deleted user's refresh tokens.
func WithSessionRevoker(r SessionRevoker) ServiceOption {
	return func(s *Service) {
		s.sessions = r
	}
}

func NewService(repo RepositoryAPI, hasher auth.Hasher, publisher auth.EventPublisher, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account on behalf of actor. The requested role defaults
// to operator and must be assignable by actor. Non-admins can only create
// users inside their own organization.
func (s *Service) Register(ctx context.Context, actor *auth.User, dto RegisterDTO) (*auth.User, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	role := auth.RoleOperator
	if dto.Role != "" {
		parsed, err := auth.ParseRole(dto.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	if !auth.CanAssign(actor.Role, role) {
		s.logger.WarnContext(ctx, "role assignment denied", "actor_id", actor.ID, "actor_role", actor.Role, "target_role", role)
		return nil, auth.Denied("You cannot assign the role: %s", role)
	}

	orgID := dto.OrganizationID
	if actor.Role != auth.RoleAdmin && actor.OrganizationID != nil {
		orgID = actor.OrganizationID
	}

	u, err := s.create(ctx, dto.Email, dto.Password, role, orgID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role, "created_by", actor.ID)
	s.publish(ctx, events.EventTypeUserCreated, actor, u.Email, fmt.Sprintf("role=%s", u.Role))
	return u, nil
}

// PublicRegister is the self-service sign-up. The account is always an operator.
func (s *Service) PublicRegister(ctx context.Context, dto PublicRegisterDTO) (*auth.User, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	u, err := s.create(ctx, dto.Email, dto.Password, auth.RoleOperator, nil)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user self-registered", "user_id", u.ID)
	s.publish(ctx, events.EventTypeUserCreated, nil, u.Email, "role=operator self-registration")
	return u, nil
}

func (s *Service) List(ctx context.Context, actor *auth.User, limit, offset int) ([]*auth.User, error) {
	filter := ListFilter{Limit: limit, Offset: offset}
	if actor.Role != auth.RoleAdmin {
		filter.OrganizationID = actor.OrganizationID
	}

	users, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*auth.User, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameOrganization(u.OrganizationID) {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Delete removes a user strictly below actor in the hierarchy. Nobody deletes themselves.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if actor.ID == id {
		return ErrCannotTargetSelf
	}

	target, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	if !auth.StrictlyExceeds(actor.Role, target.Role) {
		s.logger.WarnContext(ctx, "user delete denied", "actor_id", actor.ID, "target_id", target.ID, "target_role", target.Role)
		return auth.Denied("You cannot delete a user with role: %s", target.Role)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "failed to delete user", "error", err, "user_id", id)
		return err
	}

	if s.sessions != nil {
		if n, err := s.sessions.RevokeAllForUser(ctx, id, time.Now()); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke sessions of deleted user", "error", err, "user_id", id)
		} else {
			s.logger.InfoContext(ctx, "revoked sessions of deleted user", "user_id", id, "count", n)
		}
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id, "deleted_by", actor.ID)
	s.publish(ctx, events.EventTypeUserDeleted, actor, target.Email, "")
	return nil
}

// ChangeRole moves target to a new role. Both the target's current role and
// the new role must be assignable by actor.
func (s *Service) ChangeRole(ctx context.Context, actor *auth.User, id int64, dto ChangeRoleDTO) (*auth.User, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	role, err := auth.ParseRole(dto.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	if actor.ID == id {
		return nil, ErrCannotTargetSelf
	}

	target, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanAssign(actor.Role, target.Role) || !auth.CanAssign(actor.Role, role) {
		s.logger.WarnContext(ctx, "role change denied", "actor_id", actor.ID, "target_id", target.ID, "from", target.Role, "to", role)
		return nil, auth.Denied("You cannot assign the role: %s", role)
	}

	previous := target.Role
	target.Role = role
	if err := s.repo.Save(ctx, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to save role change", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "user role changed", "user_id", id, "from", previous, "to", role, "changed_by", actor.ID)
	s.publish(ctx, events.EventTypeUserRoleChanged, actor, target.Email, fmt.Sprintf("%s -> %s", previous, role))
	return target, nil
}

func (s *Service) create(ctx context.Context, email, password string, role auth.Role, orgID *int64) (*auth.User, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &auth.User{
		Email:          strings.TrimSpace(email),
		PasswordHash:   digest,
		Role:           role,
		OrganizationID: orgID,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return nil, internal.ErrEmailTaken
		}
		s.logger.ErrorContext(ctx, "failed to create user", "error", err)
		return nil, err
	}
	return u, nil
}

func (s *Service) find(ctx context.Context, id int64) (*auth.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get user", "error", err, "user_id", id)
		return nil, err
	}
	return u, nil
}

func (s *Service) publish(ctx context.Context, eventType string, actor *auth.User, target, detail string) {
	if s.publisher == nil {
		return
	}
	fields := events.AuditFields{Target: target, Detail: detail}
	if actor != nil {
		id := actor.ID
		fields.ActorID = &id
		fields.ActorEmail = actor.Email
	}
	if err := s.publisher.Publish(ctx, events.NewAuditEvent(eventType, fields)); err != nil {
		s.logger.WarnContext(ctx, "publish audit event failed", "event_type", eventType, "error", err)
	}
}
