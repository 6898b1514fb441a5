// Package reservation implements the apartment booking and buying workflow.
//
// Booking is a read-modify-write against the backend: the booking is
// created first and, only once the backend has accepted it, the apartment's
// status is changed by replacing the whole building. A per-building lock
// serialises these steps within one process. Writers in other processes
// still race, and the later PUT wins.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/client"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_api.go -package=mocks

var (
	ErrApartmentNotFound = errors.New("apartment not found in building")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOverlap           = errors.New("apartment already booked for these dates")
	ErrInvalidRequest    = errors.New("invalid request")
)

// API is the subset of the backend client the workflow needs.
type API interface {
	GetBuilding(ctx context.Context, id int64) (*building.Building, error)
	UpdateBuilding(ctx context.Context, b *building.Building) (*building.Building, error)
	ListBookings(ctx context.Context, opts client.ListOptions) ([]*booking.Booking, error)
	CreateBooking(ctx context.Context, b *booking.Booking) (*booking.Booking, error)
}

// Options tunes the workflow.
type Options struct {
	// AllowOverlap lets a booking share nights with an existing booking
	// of the same apartment.
	AllowOverlap bool
	// Now is the clock used for default start dates.
	Now func() time.Time
}

// Service runs book/buy workflows against the backend.
type Service struct {
	api  API
	opts Options

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService creates a reservation service.
func NewService(api API, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		api:   api,
		opts:  opts,
		locks: make(map[int64]*sync.Mutex),
	}
}

// Outcome is the result of a successful workflow step.
type Outcome struct {
	Building  *building.Building `json:"building"`
	Apartment building.Apartment `json:"apartment"`
	Booking   *booking.Booking   `json:"booking,omitempty"` // nil for purchases
}

// BookRequest describes a booking to make.
type BookRequest struct {
	BuildingID  int64
	ApartmentID int64
	Start       time.Time // zero = today
	Nights      int       // <= 0 = booking.DefaultNights
}

// lockBuilding returns the unlock func for the building's mutex.
func (s *Service) lockBuilding(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Book reserves an apartment and marks it booked.
// If the booking is stored but the status update fails, the returned
// Outcome carries the booking alongside the error.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Outcome, error) {
	if req.BuildingID <= 0 || req.ApartmentID <= 0 {
		return nil, fmt.Errorf("%w: building and apartment IDs are required", ErrInvalidRequest)
	}
	start := req.Start
	if start.IsZero() {
		start = s.opts.Now()
	}

	unlock := s.lockBuilding(req.BuildingID)
	defer unlock()

	b, err := s.api.GetBuilding(ctx, req.BuildingID)
	if err != nil {
		return nil, fmt.Errorf("loading building %d: %w", req.BuildingID, err)
	}
	idx, ok := b.FindApartment(req.ApartmentID)
	if !ok {
		return nil, fmt.Errorf("%w: apartment %d, building %d", ErrApartmentNotFound, req.ApartmentID, req.BuildingID)
	}
	if current := b.Apartments[idx].Status; !current.CanTransitionTo(building.StatusBooked) {
		return nil, fmt.Errorf("%w: apartment %d is %s", ErrInvalidTransition, req.ApartmentID, current)
	}

	existing, err := s.api.ListBookings(ctx, client.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("loading bookings: %w", err)
	}

	nb := booking.New(booking.NextID(existing), req.BuildingID, req.ApartmentID, start, req.Nights)
	if err := nb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !s.opts.AllowOverlap {
		for _, other := range existing {
			if other != nil && nb.Overlaps(other) {
				return nil, fmt.Errorf("%w: booking %d holds %s to %s", ErrOverlap, other.ID, other.StartDate, other.EndDate)
			}
		}
	}

	created, err := s.api.CreateBooking(ctx, nb)
	if err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}
	slog.Info("booking created",
		"booking_id", created.ID,
		"building_id", req.BuildingID,
		"apartment_id", req.ApartmentID,
		"start", created.StartDate,
		"end", created.EndDate,
	)

	out, err := s.updateStatus(ctx, req.BuildingID, req.ApartmentID, building.StatusBooked)
	if err != nil {
		return &Outcome{Booking: created}, fmt.Errorf("booking %d created but status update failed: %w", created.ID, err)
	}
	out.Booking = created
	return out, nil
}

// Buy marks an apartment sold. No booking is created.
func (s *Service) Buy(ctx context.Context, buildingID, apartmentID int64) (*Outcome, error) {
	return s.UpdateStatus(ctx, buildingID, apartmentID, building.StatusSold)
}

// UpdateStatus loads the building, changes one apartment's status and
// writes the whole building back.
func (s *Service) UpdateStatus(ctx context.Context, buildingID, apartmentID int64, status building.Status) (*Outcome, error) {
	if buildingID <= 0 || apartmentID <= 0 {
		return nil, fmt.Errorf("%w: building and apartment IDs are required", ErrInvalidRequest)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}

	unlock := s.lockBuilding(buildingID)
	defer unlock()

	return s.updateStatus(ctx, buildingID, apartmentID, status)
}

// updateStatus does the read-modify-write. Callers hold the building lock.
func (s *Service) updateStatus(ctx context.Context, buildingID, apartmentID int64, status building.Status) (*Outcome, error) {
	b, err := s.api.GetBuilding(ctx, buildingID)
	if err != nil {
		return nil, fmt.Errorf("loading building %d: %w", buildingID, err)
	}

	idx, ok := b.FindApartment(apartmentID)
	if !ok {
		return nil, fmt.Errorf("%w: apartment %d, building %d", ErrApartmentNotFound, apartmentID, buildingID)
	}
	current := b.Apartments[idx].Status
	if !current.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: apartment %d is %s, cannot become %s", ErrInvalidTransition, apartmentID, current, status)
	}

	b.Apartments[idx].Status = status
	updated, err := s.api.UpdateBuilding(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("updating apartment %d status to %s: %w", apartmentID, status, err)
	}

	slog.Info("apartment status updated",
		"building_id", buildingID,
		"apartment_id", apartmentID,
		"from", current,
		"to", status,
	)

	// The backend echoes the stored building; fall back to what we sent.
	if updated == nil || updated.ID == 0 {
		updated = b
	}
	apt := b.Apartments[idx]
	if i, ok := updated.FindApartment(apartmentID); ok {
		apt = updated.Apartments[i]
	}
	return &Outcome{Building: updated, Apartment: apt}, nil
}
