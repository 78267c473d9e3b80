package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/client"
	"github.com/travelcrm/travel-crm/internal/core/common/validation"
)

var ErrNotFound = errors.New("application not found")

type RepositoryAPI interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id int64) (*Application, error)
	List(ctx context.Context, filter ListFilter) ([]*Application, error)
	Update(ctx context.Context, a *Application) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, organizationID *int64) ([]StatusCount, error)
}

// ClientFinder resolves the client an application is booked for, applying the caller's access rules.
type ClientFinder interface {
	Get(ctx context.Context, actor *auth.User, id int64) (*client.Client, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.User, dto CreateApplicationDTO) (*Application, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Application, error)
	List(ctx context.Context, actor *auth.User, filter ListFilter) ([]*Application, error)
	Update(ctx context.Context, actor *auth.User, id int64, dto UpdateApplicationDTO) (*Application, error)
	UpdateStatus(ctx context.Context, actor *auth.User, id int64, dto UpdateStatusDTO) (*Application, error)
	Assign(ctx context.Context, actor *auth.User, id int64, dto AssignDTO) (*Application, error)
	Delete(ctx context.Context, actor *auth.User, id int64) error
	Report(ctx context.Context, actor *auth.User) (*Report, error)
}

type Service struct {
	repo    RepositoryAPI
	clients ClientFinder
	users   UserFinder
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryAPI, clients ClientFinder, users UserFinder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		clients: clients,
		users:   users,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateApplicationDTO) (*Application, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if dto.EstimatedCostCents != nil && !auth.HasPermission(actor, auth.PermEditFinancialData) {
		s.logger.WarnContext(ctx, "financial edit denied", "client_id", dto.ClientID, "user_id", actor.ID, "role", actor.Role)
		return nil, auth.Denied("Permission denied. Required: %s", auth.PermEditFinancialData)
	}
	if err := checkDates(dto.DepartureDate, dto.ReturnDate); err != nil {
		return nil, err
	}

	c, err := s.clients.Get(ctx, actor, dto.ClientID)
	if err != nil {
		return nil, err
	}

	adults := dto.AdultsCount
	if adults == 0 {
		adults = 1
	}
	currency := dto.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	now := s.now()
	a := &Application{
		OrganizationID:      c.OrganizationID,
		ClientID:            c.ID,
		ApplicationNumber:   NewApplicationNumber(now),
		Type:                dto.Type,
		Status:              StatusDraft,
		Title:               dto.Title,
		Description:         dto.Description,
		Destination:         dto.Destination,
		DepartureDate:       dto.DepartureDate,
		ReturnDate:          dto.ReturnDate,
		AdultsCount:         adults,
		ChildrenCount:       dto.ChildrenCount,
		EstimatedCostCents:  dto.EstimatedCostCents,
		Currency:            currency,
		SpecialRequirements: dto.SpecialRequirements,
		InternalNotes:       dto.InternalNotes,
		CreatedBy:           actor.ID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to create application", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "application created",
		"application_id", a.ID,
		"application_number", a.ApplicationNumber,
		"client_id", a.ClientID,
		"user_id", actor.ID)
	return a, nil
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Application, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get application", "error", err, "application_id", id)
		return nil, err
	}

	orgID := a.OrganizationID
	if !actor.SameOrganization(&orgID) {
		return nil, ErrApplicationNotFound
	}
	if !a.VisibleTo(actor) {
		s.logger.WarnContext(ctx, "unauthorized access to application", "application_id", id, "user_id", actor.ID)
		return nil, auth.Denied("You can only access applications you created or are assigned to")
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, actor *auth.User, filter ListFilter) ([]*Application, error) {
	if actor.Role != auth.RoleAdmin {
		filter.OrganizationID = actor.OrganizationID
	}
	if !auth.HasPermission(actor, auth.PermViewAllApplications) {
		id := actor.ID
		filter.VisibleTo = &id
	}

	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list applications", "error", err, "user_id", actor.ID)
		return nil, err
	}
	return apps, nil
}

// Update applies a partial edit. Touching cost or currency fields needs edit_financial_data.
func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateApplicationDTO) (*Application, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if dto.TouchesFinancialData() && !auth.HasPermission(actor, auth.PermEditFinancialData) {
		s.logger.WarnContext(ctx, "financial edit denied", "application_id", id, "user_id", actor.ID, "role", actor.Role)
		return nil, auth.Denied("Permission denied. Required: %s", auth.PermEditFinancialData)
	}

	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	dto.ApplyTo(a)
	if err := checkDates(a.DepartureDate, a.ReturnDate); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to update application", "error", err, "application_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "application updated", "application_id", id, "user_id", actor.ID)
	return a, nil
}

func (s *Service) UpdateStatus(ctx context.Context, actor *auth.User, id int64, dto UpdateStatusDTO) (*Application, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if a.Status == dto.Status {
		return a, nil
	}
	if !a.CanTransitionTo(dto.Status) {
		return nil, internal.NewValidationFieldError("status",
			fmt.Sprintf("cannot move application from %s to %s", a.Status, dto.Status), internal.ErrCodeInvalidStatus)
	}

	previous := a.Status
	a.Status = dto.Status
	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to update application status", "error", err, "application_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "application status changed", "application_id", id, "from", previous, "to", a.Status, "user_id", actor.ID)
	return a, nil
}

// Assign hands the application to a user of the same organization.
func (s *Service) Assign(ctx context.Context, actor *auth.User, id int64, dto AssignDTO) (*Application, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	assignee, err := s.users.FindByID(ctx, dto.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, err
	}
	orgID := a.OrganizationID
	if !assignee.SameOrganization(&orgID) {
		return nil, ErrAssigneeNotFound
	}

	a.AssignedTo = &assignee.ID
	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.ErrorContext(ctx, "failed to assign application", "error", err, "application_id", id)
		return nil, err
	}

	s.logger.InfoContext(ctx, "application assigned", "application_id", id, "assigned_to", assignee.ID, "user_id", actor.ID)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrApplicationNotFound
		}
		s.logger.ErrorContext(ctx, "failed to delete application", "error", err, "application_id", id)
		return err
	}

	s.logger.InfoContext(ctx, "application deleted", "application_id", id, "user_id", actor.ID)
	return nil
}

// Report counts applications per status. Cost totals are included only for
// callers who may see financial data.
func (s *Service) Report(ctx context.Context, actor *auth.User) (*Report, error) {
	var orgID *int64
	if actor.Role != auth.RoleAdmin {
		orgID = actor.OrganizationID
	}

	counts, err := s.repo.CountByStatus(ctx, orgID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build application report", "error", err)
		return nil, err
	}

	showCosts := auth.HasPermission(actor, auth.PermViewFinancialData)
	report := &Report{OrganizationID: orgID, ByStatus: make([]StatusCount, 0, len(counts)), GeneratedAt: s.now()}
	for _, c := range counts {
		report.Total += c.Count
		if !showCosts {
			c.EstimatedCostCents = nil
			c.FinalCostCents = nil
		}
		report.ByStatus = append(report.ByStatus, c)
	}
	return report, nil
}

func checkDates(departure, ret *time.Time) error {
	if departure != nil && ret != nil && ret.Before(*departure) {
		return internal.NewValidationFieldError("return_date", "return_date must not be before departure_date", internal.ErrCodeValidationFailed)
	}
	return nil
}
