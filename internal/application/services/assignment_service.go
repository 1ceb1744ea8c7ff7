package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/domain/repositories"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

// Reservation is a volunteer held exclusively for one escalation until the
// caller confirms or releases it.
type Reservation struct {
	Volunteer *entities.Volunteer
}

// AssignmentService selects a volunteer for an escalated appointment.
// Language is a hard requirement; location is a preference used to order
// otherwise-equal candidates.
type AssignmentService struct {
	volunteerRepo  repositories.VolunteerRepository
	reservations   providers.ReservationStore
	clock          providers.Clock
	reservationTTL time.Duration
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	volunteerRepo repositories.VolunteerRepository,
	reservations providers.ReservationStore,
	clock providers.Clock,
	reservationTTL time.Duration,
) *AssignmentService {
	return &AssignmentService{
		volunteerRepo:  volunteerRepo,
		reservations:   reservations,
		clock:          clock,
		reservationTTL: reservationTTL,
	}
}

// Resolve finds and reserves a volunteer of the given tier who speaks the
// appointment's preferred language. Candidates from the patient's location
// are preferred; within each group the least recently assigned volunteer
// goes first. Returns an unavailable error when every candidate is taken.
func (s *AssignmentService) Resolve(ctx context.Context, role entities.VolunteerRole, appointment *entities.Appointment) (*Reservation, error) {
	candidates, err := s.volunteerRepo.FindEligible(ctx, role, appointment.PreferredLanguage)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, apperrors.NewUnavailableError(fmt.Sprintf(
			"no active %s volunteer speaks %s", role, appointment.PreferredLanguage))
	}

	// Stable sort keeps the repository's least-recently-assigned ordering
	// within each location group.
	location := strings.TrimSpace(appointment.Location)
	sort.SliceStable(candidates, func(i, j int) bool {
		iMatch := strings.EqualFold(strings.TrimSpace(candidates[i].Location), location)
		jMatch := strings.EqualFold(strings.TrimSpace(candidates[j].Location), location)
		return iMatch && !jMatch
	})

	for _, candidate := range candidates {
		reserved, err := s.reservations.Reserve(ctx, candidate.ID, s.reservationTTL)
		if err != nil {
			return nil, err
		}
		if reserved {
			return &Reservation{Volunteer: candidate}, nil
		}
	}

	return nil, apperrors.NewUnavailableError(fmt.Sprintf(
		"all eligible %s volunteers for %s are reserved", role, appointment.PreferredLanguage))
}

// Confirm finalizes a reservation: the volunteer's rotation clock is
// stamped and the short hold released. The persisted assignment row keeps
// the volunteer out of the candidate pool until their escalation resolves;
// the hold only covers the window before that row lands.
func (s *AssignmentService) Confirm(ctx context.Context, reservation *Reservation) error {
	if err := s.volunteerRepo.MarkAssigned(ctx, reservation.Volunteer.ID, s.clock.Now()); err != nil {
		return err
	}
	return s.reservations.Release(ctx, reservation.Volunteer.ID)
}

// Release drops a reservation without assigning the volunteer.
func (s *AssignmentService) Release(ctx context.Context, reservation *Reservation) error {
	return s.reservations.Release(ctx, reservation.Volunteer.ID)
}
