package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vozagenda/vozagenda/pkg/logging"
)

// Repository is the persistence surface the service depends on.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter) ([]Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service schedules appointments: validation, conflict detection and
// persistence in one place.
type Service struct {
	repo      Repository
	validator Validator
	conflicts ConflictDetector
	logger    *logging.Logger
	now       func() time.Time
}

// NewService wires the scheduling service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SetNow overrides the service's time source.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Create validates the request, rejects it on same-room overlaps (with
// free same-day slots attached) and persists the appointment.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	now := s.now()
	if errs := s.validator.Validate(req, now); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	sameDay, err := s.sameDayAppointments(ctx, req.StartTime)
	if err != nil {
		return nil, err
	}
	if conflicts := s.conflicts.Detect(req.StartTime, req.DurationMinutes, req.Room, sameDay); len(conflicts) > 0 {
		return nil, &ConflictError{
			Conflicts:    conflicts,
			Alternatives: s.conflicts.SuggestAlternatives(req.StartTime, req.DurationMinutes, req.Room, sameDay),
		}
	}

	appt := &Appointment{
		ID:              uuid.New(),
		PatientName:     req.PatientName,
		StartTime:       req.StartTime,
		EndTime:         req.StartTime.Add(time.Duration(req.DurationMinutes) * time.Minute),
		DurationMinutes: req.DurationMinutes,
		Status:          StatusScheduled,
		Room:            req.Room,
		Service:         req.Service,
		Reason:          req.Reason,
		Doctor:          req.Doctor,
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment scheduled",
		"appointment_id", appt.ID.String(),
		"patient", appt.PatientName,
		"start", appt.StartTime.Format(time.RFC3339))
	return appt, nil
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns appointments matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	return s.repo.List(ctx, f)
}

// ListByDay returns the appointments of one calendar day.
func (s *Service) ListByDay(ctx context.Context, day time.Time) ([]Appointment, error) {
	from := dayOf(day)
	return s.repo.List(ctx, Filter{From: from, To: from.AddDate(0, 0, 1)})
}

// Update applies a partial change, re-running validation and conflict
// checks when the schedule moved.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateUpdate(req, s.now()); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	rescheduled := req.StartTime != nil || req.DurationMinutes != nil
	applyUpdate(appt, req)
	appt.EndTime = appt.StartTime.Add(time.Duration(appt.DurationMinutes) * time.Minute)

	if rescheduled {
		sameDay, err := s.sameDayAppointments(ctx, appt.StartTime)
		if err != nil {
			return nil, err
		}
		others := sameDay[:0]
		for _, other := range sameDay {
			if other.ID != appt.ID {
				others = append(others, other)
			}
		}
		if conflicts := s.conflicts.Detect(appt.StartTime, appt.DurationMinutes, appt.Room, others); len(conflicts) > 0 {
			return nil, &ConflictError{
				Conflicts:    conflicts,
				Alternatives: s.conflicts.SuggestAlternatives(appt.StartTime, appt.DurationMinutes, appt.Room, others),
			}
		}
	}

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) sameDayAppointments(ctx context.Context, start time.Time) ([]Appointment, error) {
	from := dayOf(start)
	return s.repo.List(ctx, Filter{From: from, To: from.AddDate(0, 0, 1)})
}

func applyUpdate(appt *Appointment, req UpdateRequest) {
	if req.PatientName != nil {
		appt.PatientName = *req.PatientName
	}
	if req.StartTime != nil {
		appt.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		appt.DurationMinutes = *req.DurationMinutes
	}
	if req.Room != nil {
		appt.Room = *req.Room
	}
	if req.Service != nil {
		appt.Service = *req.Service
	}
	if req.Reason != nil {
		appt.Reason = *req.Reason
	}
	if req.Doctor != nil {
		appt.Doctor = *req.Doctor
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	if req.Status != nil {
		appt.Status = *req.Status
	}
}
