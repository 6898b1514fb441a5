package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/calendar"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows under a header and an underline.
func table(out io.Writer, header []string, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	underline := make([]string, len(header))
	for i, h := range header {
		underline[i] = strings.Repeat("-", len(h))
	}

	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, strings.Join(underline, "\t")); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printBuildingTable prints buildings with per-status apartment counts.
func printBuildingTable(out io.Writer, buildings []*building.Building) error {
	if len(buildings) == 0 {
		fmt.Fprintln(out, "No buildings found.")
		return nil
	}

	rows := make([][]string, 0, len(buildings))
	for _, b := range buildings {
		counts := b.Counts()
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			truncate(b.Name, 40),
			strconv.Itoa(len(b.Apartments)),
			strconv.Itoa(counts[building.StatusAvailable]),
			strconv.Itoa(counts[building.StatusBooked]),
			strconv.Itoa(counts[building.StatusSold]),
		})
	}
	if err := table(out, []string{"ID", "NAME", "APTS", "AVAILABLE", "BOOKED", "SOLD"}, rows); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal: %d buildings\n", len(buildings))
	return nil
}

// printApartmentTable prints the apartments of b.
func printApartmentTable(out io.Writer, b *building.Building) error {
	fmt.Fprintf(out, "%s (building #%d)\n\n", b.Name, b.ID)
	if len(b.Apartments) == 0 {
		fmt.Fprintln(out, "No apartments.")
		return nil
	}

	rows := make([][]string, 0, len(b.Apartments))
	for _, a := range b.Apartments {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.Status.Label(),
			building.FormatPrice(a.BookPrice),
			building.FormatPrice(a.BuyPrice),
		})
	}
	return table(out, []string{"ID", "STATUS", "BOOK/NIGHT", "BUY"}, rows)
}

// printBookingTable prints bookings with their length in nights.
func printBookingTable(out io.Writer, bookings []*booking.Booking) error {
	if len(bookings) == 0 {
		fmt.Fprintln(out, "No bookings found.")
		return nil
	}

	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			strconv.FormatInt(b.ApartmentID, 10),
			b.StartDate,
			b.EndDate,
			strconv.Itoa(b.Nights()),
		})
	}
	return table(out, []string{"ID", "APARTMENT", "START", "END", "NIGHTS"}, rows)
}

// printEventList prints calendar events one per line.
func printEventList(out io.Writer, events []calendar.Event) error {
	if len(events) == 0 {
		fmt.Fprintln(out, "No events.")
		return nil
	}
	for _, e := range events {
		if _, err := fmt.Fprintf(out, "%s  %s..%s\n", e.Title, e.Start, e.End); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
	}
	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
