package cli

import (
	"github.com/spf13/cobra"
)

func newBuildingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buildings",
		Short: "List all buildings",
		Long:  "List all buildings with apartment counts per status.",
		Args:  cobra.NoArgs,
		RunE:  runBuildings,
	}
}

func runBuildings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	buildings, err := newAPIClient(cfg).ListBuildings(cmd.Context())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), buildings)
	}
	return printBuildingTable(cmd.OutOrStdout(), buildings)
}

func newApartmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apartments <building-id>",
		Short: "List a building's apartments",
		Long:  "List the apartments of a building with their status and prices.",
		Args:  cobra.ExactArgs(1),
		RunE:  runApartments,
	}
}

func runApartments(cmd *cobra.Command, args []string) error {
	id, err := parseID("building", args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	b, err := newAPIClient(cfg).GetBuilding(cmd.Context(), id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), b.Apartments)
	}
	return printApartmentTable(cmd.OutOrStdout(), b)
}
