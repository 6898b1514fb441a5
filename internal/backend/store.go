// Package backend is a development stand-in for the buildings/bookings REST
// collaborator. It stores records in SQLite and, like the JSON mock servers
// the front-end was written against, validates nothing: updates are
// last-write-wins and overlapping bookings are accepted.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id")
)

// Store provides data access for buildings and bookings.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// closeRows closes rows and keeps the first error.
func closeRows(rows *sql.Rows, err *error) {
	if cerr := rows.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing rows: %w", cerr)
	}
}

// ListBuildings returns every building with its apartments, ordered by ID.
func (s *Store) ListBuildings(ctx context.Context) ([]*building.Building, error) {
	buildings, err := s.buildingRows(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*building.Building, len(buildings))
	for _, b := range buildings {
		byID[b.ID] = b
	}

	apts, err := s.apartments(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, a := range apts {
		if b, ok := byID[a.BuildingID]; ok {
			b.Apartments = append(b.Apartments, a)
		}
	}

	return buildings, nil
}

// buildingRows loads the building rows without apartments.
func (s *Store) buildingRows(ctx context.Context) (_ []*building.Building, err error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM buildings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing buildings: %w", err)
	}
	defer closeRows(rows, &err)

	buildings := make([]*building.Building, 0)
	for rows.Next() {
		b := &building.Building{Apartments: []building.Apartment{}}
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scanning building: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating buildings: %w", err)
	}
	return buildings, nil
}

// GetBuilding returns a building by its ID.
func (s *Store) GetBuilding(ctx context.Context, id int64) (*building.Building, error) {
	b := &building.Building{Apartments: []building.Apartment{}}
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM buildings WHERE id = ?", id).Scan(&b.ID, &b.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("building %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying building %d: %w", id, err)
	}

	apts, err := s.apartments(ctx, "WHERE building_id = ?", id)
	if err != nil {
		return nil, err
	}
	b.Apartments = append(b.Apartments, apts...)
	return b, nil
}

// apartments loads apartments matching an optional WHERE clause.
func (s *Store) apartments(ctx context.Context, where string, args ...interface{}) (_ []building.Apartment, err error) {
	query := "SELECT id, building_id, status, book_price, buy_price FROM apartments " + where + " ORDER BY building_id, position"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing apartments: %w", err)
	}
	defer closeRows(rows, &err)

	var apts []building.Apartment
	for rows.Next() {
		var a building.Apartment
		var status string
		if err := rows.Scan(&a.ID, &a.BuildingID, &status, &a.BookPrice, &a.BuyPrice); err != nil {
			return nil, fmt.Errorf("scanning apartment: %w", err)
		}
		a.Status = building.Status(status)
		apts = append(apts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating apartments: %w", err)
	}
	return apts, nil
}

// CreateBuilding inserts a building and its apartments.
func (s *Store) CreateBuilding(ctx context.Context, b *building.Building) (*building.Building, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO buildings (id, name) VALUES (?, ?)", b.ID, b.Name)
		if err != nil {
			if isPrimaryKeyViolation(err) {
				return fmt.Errorf("building %d: %w", b.ID, ErrDuplicateID)
			}
			return fmt.Errorf("inserting building: %w", err)
		}
		return insertApartments(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return s.GetBuilding(ctx, b.ID)
}

// ReplaceBuilding overwrites a building and its whole apartment list.
func (s *Store) ReplaceBuilding(ctx context.Context, b *building.Building) (*building.Building, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE buildings SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			b.Name, b.ID,
		)
		if err != nil {
			return fmt.Errorf("updating building: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("building %d: %w", b.ID, ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM apartments WHERE building_id = ?", b.ID); err != nil {
			return fmt.Errorf("clearing apartments: %w", err)
		}
		return insertApartments(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return s.GetBuilding(ctx, b.ID)
}

// insertApartments writes b's apartments in order. Apartments without a
// building ID inherit b's.
func insertApartments(ctx context.Context, tx *sql.Tx, b *building.Building) error {
	for i, a := range b.Apartments {
		status := a.Status
		if status == "" {
			status = building.StatusAvailable
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO apartments (id, building_id, position, status, book_price, buy_price)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, b.ID, i, string(status), a.BookPrice, a.BuyPrice,
		)
		if err != nil {
			if isPrimaryKeyViolation(err) {
				return fmt.Errorf("apartment %d: %w", a.ID, ErrDuplicateID)
			}
			return fmt.Errorf("inserting apartment %d: %w", a.ID, err)
		}
	}
	return nil
}

// BookingFilter narrows ListBookings. Zero values match everything.
type BookingFilter struct {
	BuildingID   int64
	ApartmentIDs []int64
}

const bookingColumns = "id, building_id, apartment_id, start_date, end_date"

// ListBookings returns bookings ordered by ID.
func (s *Store) ListBookings(ctx context.Context, f BookingFilter) (_ []*booking.Booking, err error) {
	query := "SELECT " + bookingColumns + " FROM bookings"
	var conditions []string
	var args []interface{}

	if f.BuildingID != 0 {
		conditions = append(conditions, "building_id = ?")
		args = append(args, f.BuildingID)
	}
	if len(f.ApartmentIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.ApartmentIDs)), ",")
		conditions = append(conditions, "apartment_id IN ("+placeholders+")")
		for _, id := range f.ApartmentIDs {
			args = append(args, id)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer closeRows(rows, &err)

	bookings := make([]*booking.Booking, 0)
	for rows.Next() {
		var b booking.Booking
		if err := rows.Scan(&b.ID, &b.BuildingID, &b.ApartmentID, &b.StartDate, &b.EndDate); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}
	return bookings, nil
}

// GetBooking returns a booking by its ID.
func (s *Store) GetBooking(ctx context.Context, id int64) (*booking.Booking, error) {
	var b booking.Booking
	err := s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id).
		Scan(&b.ID, &b.BuildingID, &b.ApartmentID, &b.StartDate, &b.EndDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking %d: %w", id, err)
	}
	return &b, nil
}

// CreateBooking stores a booking. A client-supplied ID is kept; a zero ID
// is assigned by the database.
func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	var id interface{}
	if b.ID != 0 {
		id = b.ID
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO bookings (id, building_id, apartment_id, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
		id, b.BuildingID, b.ApartmentID, b.StartDate, b.EndDate,
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return nil, fmt.Errorf("booking %d: %w", b.ID, ErrDuplicateID)
		}
		return nil, fmt.Errorf("inserting booking: %w", err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return s.GetBooking(ctx, newID)
}

// Empty reports whether no buildings are stored yet.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM buildings").Scan(&n); err != nil {
		return false, fmt.Errorf("counting buildings: %w", err)
	}
	return n == 0, nil
}

// inTx runs fn inside a transaction.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isPrimaryKeyViolation reports whether err is a SQLite primary key clash.
func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
