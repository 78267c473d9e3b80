package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/core/common/validation"
)

var ErrNotFound = errors.New("client not found")

type RepositoryAPI interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, filter ListFilter) ([]*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id int64) error
}

// OrganizationChecker confirms an organization exists before clients are filed under it.
type OrganizationChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.User, dto CreateClientDTO) (*Client, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Client, error)
	List(ctx context.Context, actor *auth.User, filter ListFilter) ([]*Client, error)
	Update(ctx context.Context, actor *auth.User, id int64, dto UpdateClientDTO) (*Client, error)
	Delete(ctx context.Context, actor *auth.User, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	orgs   OrganizationChecker
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, orgs OrganizationChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, orgs: orgs, logger: logger}
}

// Create files the client under the actor's organization. Only admins, or
// users without an organization, choose it explicitly.
func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateClientDTO) (*Client, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	orgID, err := s.resolveOrganization(ctx, actor, dto.OrganizationID)
	if err != nil {
		return nil, err
	}

	status := dto.Status
	if status == "" {
		status = StatusActive
	}

	c := &Client{
		OrganizationID:      orgID,
		FirstName:           dto.FirstName,
		LastName:            dto.LastName,
		MiddleName:          dto.MiddleName,
		Email:               dto.Email,
		Phone:               dto.Phone,
		DateOfBirth:         dto.DateOfBirth,
		PassportNumber:      dto.PassportNumber,
		PassportIssuedDate:  dto.PassportIssuedDate,
		PassportExpiresDate: dto.PassportExpiresDate,
		Status:              status,
		Notes:               dto.Notes,
		Preferences:         dto.Preferences,
		CreatedBy:           actor.ID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to create client", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "client created", "client_id", c.ID, "organization_id", c.OrganizationID, "user_id", actor.ID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get client", "error", err, "client_id", id)
		return nil, err
	}

	orgID := c.OrganizationID
	if !actor.SameOrganization(&orgID) {
		return nil, ErrClientNotFound
	}
	if !c.VisibleTo(actor) {
		s.logger.WarnContext(ctx, "unauthorized access to client", "client_id", id, "user_id", actor.ID, "created_by", c.CreatedBy)
		return nil, auth.Denied("You can only access clients you created")
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, actor *auth.User, filter ListFilter) ([]*Client, error) {
	if actor.Role != auth.RoleAdmin {
		filter.OrganizationID = actor.OrganizationID
	}
	if !auth.HasPermission(actor, auth.PermViewAllClients) {
		id := actor.ID
		filter.CreatedBy = &id
	}

	clients, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list clients", "error", err, "user_id", actor.ID)
		return nil, err
	}
	return clients, nil
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateClientDTO) (*Client, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	dto.ApplyTo(c)
	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to update client", "error", err, "client_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "client updated", "client_id", id, "user_id", actor.ID)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrClientNotFound
		}
		s.logger.ErrorContext(ctx, "failed to delete client", "error", err, "client_id", id)
		return err
	}

	s.logger.InfoContext(ctx, "client deleted", "client_id", id, "user_id", actor.ID)
	return nil
}

func (s *Service) resolveOrganization(ctx context.Context, actor *auth.User, requested *int64) (int64, error) {
	if actor.Role != auth.RoleAdmin && actor.OrganizationID != nil {
		return *actor.OrganizationID, nil
	}

	if requested == nil {
		if actor.OrganizationID != nil {
			return *actor.OrganizationID, nil
		}
		return 0, ErrOrganizationRequired
	}

	if s.orgs != nil {
		ok, err := s.orgs.Exists(ctx, *requested)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrOrganizationNotFound
		}
	}
	return *requested, nil
}
