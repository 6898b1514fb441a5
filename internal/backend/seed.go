package backend

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedData is the on-disk shape of a seed file.
type SeedData struct {
	Buildings []SeedBuilding `yaml:"buildings"`
	Bookings  []SeedBooking  `yaml:"bookings"`
}

// SeedBuilding is a building in a seed file.
type SeedBuilding struct {
	ID         int64           `yaml:"id"`
	Name       string          `yaml:"name"`
	Apartments []SeedApartment `yaml:"apartments"`
}

// SeedApartment is an apartment in a seed file.
type SeedApartment struct {
	ID        int64   `yaml:"id"`
	Status    string  `yaml:"status"`
	BookPrice float64 `yaml:"bookPrice"`
	BuyPrice  float64 `yaml:"buyPrice"`
}

// SeedBooking is a booking in a seed file.
type SeedBooking struct {
	ID          int64  `yaml:"id"`
	BuildingID  int64  `yaml:"buildingId"`
	ApartmentID int64  `yaml:"apartmentId"`
	StartDate   string `yaml:"startDate"`
	EndDate     string `yaml:"endDate"`
}

// ParseSeed decodes seed YAML.
func ParseSeed(data []byte) (*SeedData, error) {
	var sd SeedData
	if err := yaml.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	for _, b := range sd.Buildings {
		for _, a := range b.Apartments {
			if a.Status == "" {
				continue
			}
			if _, err := building.ParseStatus(a.Status); err != nil {
				return nil, fmt.Errorf("building %d apartment %d: %w", b.ID, a.ID, err)
			}
		}
	}
	return &sd, nil
}

// LoadSeed reads a seed file, or the built-in seed when path is empty.
func LoadSeed(path string) (*SeedData, error) {
	if path == "" {
		return ParseSeed(defaultSeed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	return ParseSeed(data)
}

// DomainBuildings converts the seed buildings into domain records.
func (sd *SeedData) DomainBuildings() []*building.Building {
	out := make([]*building.Building, 0, len(sd.Buildings))
	for _, sb := range sd.Buildings {
		b := &building.Building{ID: sb.ID, Name: sb.Name}
		for _, sa := range sb.Apartments {
			b.Apartments = append(b.Apartments, building.Apartment{
				ID:         sa.ID,
				BuildingID: sb.ID,
				Status:     building.Status(sa.Status),
				BookPrice:  sa.BookPrice,
				BuyPrice:   sa.BuyPrice,
			})
		}
		out = append(out, b)
	}
	return out
}

// DomainBookings converts the seed bookings into domain records.
func (sd *SeedData) DomainBookings() []*booking.Booking {
	out := make([]*booking.Booking, 0, len(sd.Bookings))
	for _, sb := range sd.Bookings {
		out = append(out, &booking.Booking{
			ID:          sb.ID,
			BuildingID:  sb.BuildingID,
			ApartmentID: sb.ApartmentID,
			StartDate:   sb.StartDate,
			EndDate:     sb.EndDate,
		})
	}
	return out
}

// Seed loads sd into an empty store. A store that already holds buildings
// is left alone.
func (s *Store) Seed(ctx context.Context, sd *SeedData) error {
	empty, err := s.Empty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		slog.Debug("store already seeded")
		return nil
	}

	for _, b := range sd.DomainBuildings() {
		if _, err := s.CreateBuilding(ctx, b); err != nil {
			return fmt.Errorf("seeding building %d: %w", b.ID, err)
		}
	}
	for _, b := range sd.DomainBookings() {
		if _, err := s.CreateBooking(ctx, b); err != nil {
			return fmt.Errorf("seeding booking %d: %w", b.ID, err)
		}
	}

	slog.Info("store seeded", "buildings", len(sd.Buildings), "bookings", len(sd.Bookings))
	return nil
}
