package organization

import (
	"context"
	"errors"
	"log/slog"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/core/common/validation"
)

var ErrNotFound = errors.New("organization not found")

type RepositoryAPI interface {
	List(ctx context.Context) ([]*Organization, error)
	GetByID(ctx context.Context, id int64) (*Organization, error)
	Create(ctx context.Context, o *Organization) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type ServiceAPI interface {
	List(ctx context.Context, actor *auth.User) ([]*Organization, error)
	Create(ctx context.Context, actor *auth.User, dto CreateOrganizationDTO) (*Organization, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns every organization to an admin and only the caller's own to anyone else.
func (s *Service) List(ctx context.Context, actor *auth.User) ([]*Organization, error) {
	if actor.Role == auth.RoleAdmin {
		orgs, err := s.repo.List(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to list organizations", "error", err)
			return nil, err
		}
		return orgs, nil
	}

	if actor.OrganizationID == nil {
		return []*Organization{}, nil
	}

	org, err := s.repo.GetByID(ctx, *actor.OrganizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []*Organization{}, nil
		}
		s.logger.ErrorContext(ctx, "failed to get organization", "error", err, "organization_id", *actor.OrganizationID)
		return nil, err
	}
	return []*Organization{org}, nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateOrganizationDTO) (*Organization, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	org := &Organization{
		Name:               dto.Name,
		Type:               dto.Type,
		RegistrationNumber: dto.RegistrationNumber,
		TaxNumber:          dto.TaxNumber,
		Phone:              dto.Phone,
		Email:              dto.Email,
		Address:            dto.Address,
		Website:            dto.Website,
		IsActive:           true,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		s.logger.ErrorContext(ctx, "failed to create organization", "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "organization created", "organization_id", org.ID, "created_by", actor.ID)
	return org, nil
}
