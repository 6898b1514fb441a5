// Package building provides the building and apartment domain model.
package building

import "fmt"

// Status represents where an apartment is in the sales workflow.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
	StatusSold      Status = "sold"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusAvailable, StatusBooked, StatusSold}

// Valid returns true if s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusSold:
		return true
	}
	return false
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid apartment status: %q", s)
	}
	return st, nil
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusBooked:
		return "Booked"
	case StatusSold:
		return "Sold"
	default:
		return string(s)
	}
}

// CanTransitionTo reports whether an apartment in status s may move to next.
// Sold is terminal. A booked apartment may take further bookings or be sold.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusAvailable:
		return next == StatusBooked || next == StatusSold
	case StatusBooked:
		return next == StatusBooked || next == StatusSold
	}
	return false
}

// Apartment is a unit within a building.
type Apartment struct {
	ID         int64   `json:"id"`
	BuildingID int64   `json:"buildingId"`
	Status     Status  `json:"status"`
	BookPrice  float64 `json:"bookPrice"`
	BuyPrice   float64 `json:"buyPrice"`
}

// Building is a property containing apartments. Apartments are embedded
// by value and replaced as a whole on update.
type Building struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Apartments []Apartment `json:"apartments"`
}

// FindApartment returns the index of the apartment with the given ID.
func (b *Building) FindApartment(id int64) (int, bool) {
	for i := range b.Apartments {
		if b.Apartments[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// ApartmentIDs returns the IDs of all apartments in the building.
func (b *Building) ApartmentIDs() []int64 {
	ids := make([]int64, len(b.Apartments))
	for i, a := range b.Apartments {
		ids[i] = a.ID
	}
	return ids
}

// Counts tallies apartments per status.
func (b *Building) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, a := range b.Apartments {
		counts[a.Status]++
	}
	return counts
}
