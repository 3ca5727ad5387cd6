package visit

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/visitdesk/visitdesk/internal/platform/auth"
	"github.com/visitdesk/visitdesk/internal/platform/response"
	"github.com/visitdesk/visitdesk/pkg/pagination"
)

type Service struct {
	repo            Repository
	filters         *FilterBuilder
	logger          zerolog.Logger
	defaultPageSize int
}

func NewService(repo Repository, filters *FilterBuilder, logger zerolog.Logger, defaultPageSize int) *Service {
	if defaultPageSize < 1 {
		defaultPageSize = pagination.DefaultPageSize
	}
	return &Service{
		repo:            repo,
		filters:         filters,
		logger:          logger.With().Str("component", "visit").Logger(),
		defaultPageSize: defaultPageSize,
	}
}

// List returns one page of the caller's visits. Clinicians see the visits
// they own; patients see the visits booked for them.
func (s *Service) List(ctx context.Context, caller auth.Identity, req ListRequest) (*pagination.Response, error) {
	var scope Scope
	switch caller.Role {
	case auth.RoleClinician:
		scope = ClinicianScope(caller.ID)
	case auth.RolePatient:
		scope = PatientScope(caller.ID)
	default:
		return nil, auth.ErrInvalidToken
	}

	page := pagination.New(req.Page.Value, req.PageSize.Value, s.defaultPageSize)
	items, total, err := s.repo.Search(ctx, s.filters.Build(scope, req.Filters()), page)
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		d.Time = Format12h(d.AppointmentTime)
	}
	return pagination.NewResponse(items, total, page), nil
}

// Create stores a new visit owned by the caller, whatever the payload says.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in Input) (*Visit, error) {
	v := &Visit{ClinicianID: caller.ID}
	if err := in.Apply(v); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("visit_id", v.ID).Int64("clinician_id", v.ClinicianID).Msg("visit created")
	return v, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Identity, id int64) (*Visit, error) {
	return s.repo.GetOwned(ctx, id, caller.ID)
}

// Update replaces every mutable field of one of the caller's visits.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id int64, in Input) (*Visit, error) {
	v, err := s.repo.GetOwned(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(v.Status, in.Status) {
		return nil, ErrTransitionNotAllowed
	}
	if err := in.Apply(v); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("visit_id", v.ID).Int64("clinician_id", v.ClinicianID).Msg("visit updated")
	return v, nil
}

// ChangeStatus sets only the status of one of the caller's visits. An unknown
// status is a validation error. A visit
// that exists but sits in a status that cannot reach to reports
// ErrTransitionNotAllowed; anything else that matched no row is ErrNotOwned.
func (s *Service) ChangeStatus(ctx context.Context, caller auth.Identity, id int64, to VisitStatus) error {
	if !to.Valid() {
		return response.NewValidationError(response.FieldError{Field: "status", Message: msgBadStatus})
	}
	ok, err := s.repo.UpdateStatus(ctx, id, caller.ID, to, sourcesFor(to))
	if err != nil {
		return err
	}
	if ok {
		s.logger.Info().Int64("visit_id", id).Int64("clinician_id", caller.ID).
			Str("status", string(to)).Msg("visit status changed")
		return nil
	}

	if _, err := s.repo.GetOwned(ctx, id, caller.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotOwned
		}
		return err
	}
	return ErrTransitionNotAllowed
}
