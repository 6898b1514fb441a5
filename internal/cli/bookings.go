package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/calendar"
	"github.com/evcraddock/estate-browser/internal/client"
)

func newBookingsCmd() *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "bookings <building-id>",
		Short: "List a building's bookings",
		Long:  "List the bookings of a building's apartments, or the calendar events built from them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookings(cmd, args[0], events)
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "print calendar events instead of bookings")

	return cmd
}

func runBookings(cmd *cobra.Command, rawID string, events bool) error {
	id, err := parseID("building", rawID)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c := newAPIClient(cfg)

	var (
		b        *building.Building
		bookings []*booking.Booking
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		b, err = c.GetBuilding(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = c.ListBookings(ctx, client.ListOptions{})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if events {
		evs := calendar.Events(bookings, b)
		if isJSON() {
			return printJSON(out, evs)
		}
		return printEventList(out, evs)
	}

	filtered := booking.ForBuilding(bookings, b)
	if isJSON() {
		return printJSON(out, filtered)
	}
	return printBookingTable(out, filtered)
}
