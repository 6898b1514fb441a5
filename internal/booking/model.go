// Package booking provides the booking domain model.
package booking

import (
	"fmt"
	"time"

	"github.com/evcraddock/estate-browser/internal/building"
)

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// DefaultNights is the length of a booking when none is given.
const DefaultNights = 3

// Booking is a date-range reservation of an apartment.
type Booking struct {
	ID          int64  `json:"id"`
	BuildingID  int64  `json:"buildingId"`
	ApartmentID int64  `json:"apartmentId"`
	StartDate   string `json:"startDate"` // YYYY-MM-DD
	EndDate     string `json:"endDate"`   // YYYY-MM-DD
}

// New builds a booking starting on start and lasting nights days.
func New(id, buildingID, apartmentID int64, start time.Time, nights int) *Booking {
	if nights <= 0 {
		nights = DefaultNights
	}
	return &Booking{
		ID:          id,
		BuildingID:  buildingID,
		ApartmentID: apartmentID,
		StartDate:   start.Format(DateLayout),
		EndDate:     start.AddDate(0, 0, nights).Format(DateLayout),
	}
}

// NextID returns one more than the highest existing booking ID.
// IDs of zero or below are ignored, so an empty list yields 1.
func NextID(existing []*Booking) int64 {
	var maxID int64
	for _, b := range existing {
		if b != nil && b.ID > maxID {
			maxID = b.ID
		}
	}
	return maxID + 1
}

// Range parses the start and end dates.
func (b *Booking) Range() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, b.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date (use YYYY-MM-DD): %w", err)
	}
	end, err = time.Parse(DateLayout, b.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date (use YYYY-MM-DD): %w", err)
	}
	return start, end, nil
}

// Validate checks the date range is well formed.
func (b *Booking) Validate() error {
	if b.ApartmentID <= 0 {
		return fmt.Errorf("apartment ID is required")
	}
	start, end, err := b.Range()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("end date %s must be after start date %s", b.EndDate, b.StartDate)
	}
	return nil
}

// Nights returns the number of nights covered, or 0 if the dates are invalid.
func (b *Booking) Nights() int {
	start, end, err := b.Range()
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// Overlaps reports whether two bookings hold the same apartment of the same
// building on a common night. Ranges are half-open: a booking ending on the 4th does not clash
// with one starting on the 4th.
func (b *Booking) Overlaps(other *Booking) bool {
	if b.BuildingID != other.BuildingID || b.ApartmentID != other.ApartmentID {
		return false
	}
	aStart, aEnd, err := b.Range()
	if err != nil {
		return false
	}
	bStart, bEnd, err := other.Range()
	if err != nil {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Covers reports whether the booking holds its apartment on day.
func (b *Booking) Covers(day time.Time) bool {
	start, end, err := b.Range()
	if err != nil {
		return false
	}
	d := day.Format(DateLayout)
	return d >= start.Format(DateLayout) && d < end.Format(DateLayout)
}

// ForBuilding keeps the bookings that belong to b: same building ID and an
// apartment that is part of the building.
func ForBuilding(bookings []*Booking, b *building.Building) []*Booking {
	ids := make(map[int64]struct{}, len(b.Apartments))
	for _, id := range b.ApartmentIDs() {
		ids[id] = struct{}{}
	}

	filtered := make([]*Booking, 0, len(bookings))
	for _, bk := range bookings {
		if bk == nil || bk.BuildingID != b.ID {
			continue
		}
		if _, ok := ids[bk.ApartmentID]; !ok {
			continue
		}
		filtered = append(filtered, bk)
	}
	return filtered
}
