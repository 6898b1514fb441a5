// Package calendar turns bookings into calendar events and month grids.
package calendar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
)

// Event is a booking as shown on the calendar. End is exclusive.
type Event struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	ApartmentID int64  `json:"apartmentId"`
}

// covers reports whether the event spans day (YYYY-MM-DD).
func (e Event) covers(day string) bool {
	return day >= e.Start && day < e.End
}

// Events returns the events for the bookings of b's apartments.
// Bookings for other buildings or unknown apartments are dropped.
func Events(bookings []*booking.Booking, b *building.Building) []Event {
	filtered := booking.ForBuilding(bookings, b)

	events := make([]Event, 0, len(filtered))
	for _, bk := range filtered {
		events = append(events, Event{
			Title:       fmt.Sprintf("Apartment %d booked", bk.ApartmentID),
			Start:       bk.StartDate,
			End:         bk.EndDate,
			ApartmentID: bk.ApartmentID,
		})
	}
	return events
}

// Day is one cell of a month grid.
type Day struct {
	Date    time.Time
	InMonth bool
	Today   bool
	Events  []Event
}

// MonthView is a Monday-first grid of the weeks touching a month.
type MonthView struct {
	Year  int
	Month time.Month
	Weeks [][]Day
}

// Title returns e.g. "January 2024".
func (m MonthView) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Prev returns the previous month as YYYY-MM.
func (m MonthView) Prev() string {
	return time.Date(m.Year, m.Month-1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Next returns the following month as YYYY-MM.
func (m MonthView) Next() string {
	return time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Month lays out the given month and attaches events to the days they cover.
// now marks the current day.
func Month(year int, month time.Month, events []Event, now time.Time) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Monday = 0
	offset := (int(first.Weekday()) + 6) % 7
	cursor := first.AddDate(0, 0, -offset)
	today := now.Format(booking.DateLayout)

	view := MonthView{Year: year, Month: month}
	for {
		week := make([]Day, 7)
		for i := range week {
			key := cursor.Format(booking.DateLayout)
			d := Day{
				Date:    cursor,
				InMonth: cursor.Month() == month,
				Today:   key == today,
			}
			for _, e := range events {
				if e.covers(key) {
					d.Events = append(d.Events, e)
				}
			}
			week[i] = d
			cursor = cursor.AddDate(0, 0, 1)
		}
		view.Weeks = append(view.Weeks, week)
		if cursor.Month() != month {
			break
		}
	}
	return view
}

// ParseMonth parses YYYY-MM, falling back to the month of now.
func ParseMonth(s string, now time.Time) (int, time.Month) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Year(), t.Month()
	}
	return now.Year(), now.Month()
}

// SelectDate records a date picked on the calendar. Selection is read-only.
func SelectDate(buildingID int64, date string) (time.Time, error) {
	t, err := time.Parse(booking.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
	}
	slog.Debug("date selected", "building_id", buildingID, "date", date)
	return t, nil
}
