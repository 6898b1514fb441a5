package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/config"
	"github.com/evcraddock/estate-browser/internal/reservation"
)

func newBookCmd() *cobra.Command {
	var (
		start  string
		nights int
	)

	cmd := &cobra.Command{
		Use:   "book <building-id> <apartment-id>",
		Short: "Book an apartment",
		Long:  "Create a booking for an apartment and mark it booked. The booking starts today and lasts the configured number of nights unless --start or --nights say otherwise.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBook(cmd, args, start, nights)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first night (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&nights, "nights", 0, "number of nights (default from config, 3)")

	return cmd
}

func runBook(cmd *cobra.Command, args []string, start string, nights int) error {
	buildingID, err := parseID("building", args[0])
	if err != nil {
		return err
	}
	apartmentID, err := parseID("apartment", args[1])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("nights") && nights < 1 {
		return fmt.Errorf("--nights must be at least 1, got %d", nights)
	}

	req := reservation.BookRequest{BuildingID: buildingID, ApartmentID: apartmentID, Nights: nights}
	if start != "" {
		t, err := time.Parse(booking.DateLayout, start)
		if err != nil {
			return fmt.Errorf("invalid --start %q (use YYYY-MM-DD)", start)
		}
		req.Start = t
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if req.Nights == 0 {
		req.Nights = cfg.Nights
	}

	out, err := newService(cfg).Book(cmd.Context(), req)
	if err != nil {
		if out != nil && out.Booking != nil {
			return fmt.Errorf("booking %d was saved but the apartment status was not updated: %w", out.Booking.ID, err)
		}
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Booked apartment %d in %s: booking #%d, %s to %s (%d nights).\n",
		apartmentID, out.Building.Name, out.Booking.ID, out.Booking.StartDate, out.Booking.EndDate, out.Booking.Nights())
	return nil
}

func newBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <building-id> <apartment-id>",
		Short: "Buy an apartment",
		Long:  "Mark an apartment as sold.",
		Args:  cobra.ExactArgs(2),
		RunE:  runBuy,
	}
}

func runBuy(cmd *cobra.Command, args []string) error {
	buildingID, err := parseID("building", args[0])
	if err != nil {
		return err
	}
	apartmentID, err := parseID("apartment", args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out, err := newService(cfg).Buy(cmd.Context(), buildingID, apartmentID)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Bought apartment %d in %s for %s.\n",
		apartmentID, out.Building.Name, building.FormatPrice(out.Apartment.BuyPrice))
	return nil
}

// newService builds the reservation workflow over the configured backend.
func newService(cfg config.Config) *reservation.Service {
	return reservation.NewService(newAPIClient(cfg), reservation.Options{AllowOverlap: cfg.AllowOverlap})
}
