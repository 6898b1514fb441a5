package booking

import (
	"testing"
	"time"

	"github.com/evcraddock/estate-browser/internal/building"
)

func TestNextID(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want int64
	}{
		{"empty", nil, 1},
		{"gaps", []int64{1, 3, 5}, 6},
		{"unordered", []int64{7, 2, 4}, 8},
		{"ignores zero ids", []int64{0, 0}, 1},
		{"single", []int64{41}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var existing []*Booking
			for _, id := range tt.ids {
				existing = append(existing, &Booking{ID: id})
			}
			if got := NextID(existing); got != tt.want {
				t.Errorf("NextID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New(6, 1, 10, start, 3)

	if b.StartDate != "2024-01-01" {
		t.Errorf("start = %q", b.StartDate)
	}
	if b.EndDate != "2024-01-04" {
		t.Errorf("end = %q", b.EndDate)
	}
	if b.ID != 6 || b.BuildingID != 1 || b.ApartmentID != 10 {
		t.Errorf("unexpected booking: %+v", b)
	}
	if b.Nights() != 3 {
		t.Errorf("nights = %d", b.Nights())
	}
}

func TestNewDefaultsNights(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	b := New(1, 1, 10, start, 0)
	if b.EndDate != "2024-03-01" {
		t.Errorf("end = %q, want 2024-03-01", b.EndDate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		b       Booking
		wantErr bool
	}{
		{"valid", Booking{ApartmentID: 1, StartDate: "2024-01-01", EndDate: "2024-01-04"}, false},
		{"missing apartment", Booking{StartDate: "2024-01-01", EndDate: "2024-01-04"}, true},
		{"bad start", Booking{ApartmentID: 1, StartDate: "01/01/2024", EndDate: "2024-01-04"}, true},
		{"bad end", Booking{ApartmentID: 1, StartDate: "2024-01-01", EndDate: "tomorrow"}, true},
		{"end before start", Booking{ApartmentID: 1, StartDate: "2024-01-04", EndDate: "2024-01-01"}, true},
		{"zero length", Booking{ApartmentID: 1, StartDate: "2024-01-04", EndDate: "2024-01-04"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "2024-01-01", EndDate: "2024-01-04"}

	tests := []struct {
		name  string
		other *Booking
		want  bool
	}{
		{"same range", &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "2024-01-01", EndDate: "2024-01-04"}, true},
		{"inside", &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "2024-01-02", EndDate: "2024-01-03"}, true},
		{"straddles start", &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "2023-12-30", EndDate: "2024-01-02"}, true},
		{"back to back", &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "2024-01-04", EndDate: "2024-01-06"}, false},
		{"before", &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "2023-12-01", EndDate: "2024-01-01"}, false},
		{"other apartment", &Booking{BuildingID: 1, ApartmentID: 11, StartDate: "2024-01-01", EndDate: "2024-01-04"}, false},
		{"same apartment id in other building", &Booking{BuildingID: 2, ApartmentID: 10, StartDate: "2024-01-02", EndDate: "2024-01-03"}, false},
		{"invalid dates", &Booking{BuildingID: 1, ApartmentID: 10, StartDate: "x", EndDate: "y"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCovers(t *testing.T) {
	b := &Booking{ApartmentID: 10, StartDate: "2024-01-01", EndDate: "2024-01-04"}

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	if !b.Covers(day(1)) {
		t.Error("expected first day covered")
	}
	if !b.Covers(day(3)) {
		t.Error("expected last night covered")
	}
	if b.Covers(day(4)) {
		t.Error("checkout day should not be covered")
	}
}

func TestForBuilding(t *testing.T) {
	b := &building.Building{ID: 1, Apartments: []building.Apartment{{ID: 10}, {ID: 11}}}

	bookings := []*Booking{
		{ID: 1, BuildingID: 1, ApartmentID: 10},
		{ID: 2, BuildingID: 1, ApartmentID: 99}, // apartment not in building
		{ID: 3, BuildingID: 2, ApartmentID: 11}, // other building
		{ID: 4, BuildingID: 1, ApartmentID: 11},
		nil,
	}

	got := ForBuilding(bookings, b)
	if len(got) != 2 {
		t.Fatalf("got %d bookings, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 4 {
		t.Errorf("ids = %d, %d; want 1, 4", got[0].ID, got[1].ID)
	}
}
