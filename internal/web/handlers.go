package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/calendar"
	"github.com/evcraddock/estate-browser/internal/client"
	"github.com/evcraddock/estate-browser/internal/reservation"
)

// messages are the flash and error lines shown at the top of a page.
type messages struct {
	Flash string
	Error string
}

type listData struct {
	messages
	Buildings  []*building.Building
	Selected   *building.Building
	SelectedID int64
}

type detailData struct {
	messages
	Building          *building.Building
	Calendar          calendar.MonthView
	BookingsError     string
	Apartment         *building.Apartment
	ApartmentBookings []*booking.Booking
	SelectedDate      string
	Today             string
	Nights            int
}

// CalendarURL links back to the building page with key set to value,
// keeping the open apartment panel.
func (d detailData) CalendarURL(key, value string) string {
	q := url.Values{}
	if d.Apartment != nil {
		q.Set("apartment", strconv.FormatInt(d.Apartment.ID, 10))
	}
	q.Set(key, value)
	return buildingPath(d.Building.ID) + "?" + q.Encode()
}

type confirmData struct {
	messages
	Building  *building.Building
	Apartment building.Apartment
	Action    string
	Price     float64
	Start     string
	Nights    int
	// Modal marks the form as loaded into #modal, posting back over htmx.
	Modal bool
}

type rowData struct {
	messages
	BuildingID int64
	Apartment  building.Apartment
}

const invalidBuildingMsg = "Invalid Building ID"

// handleFallback sends every unknown path to the building list.
func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/buildings", http.StatusFound)
}

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleBuildings renders the building list. ?selected={id} expands one
// building's apartments inline.
func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := listData{messages: messages{Flash: q.Get("flash"), Error: q.Get("error")}}

	buildings, err := s.api.ListBuildings(r.Context())
	if err != nil {
		slog.Error("listing buildings", "error", err)
		data.Error = "Error fetching buildings"
		w.WriteHeader(http.StatusBadGateway)
		s.render(w, "buildings.html", data)
		return
	}
	data.Buildings = buildings

	if raw := q.Get("selected"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			data.Error = invalidBuildingMsg
		}
		for _, b := range buildings {
			if b.ID == id {
				data.Selected = b
				data.SelectedID = id
			}
		}
	}

	s.render(w, "buildings.html", data)
}

// handleApartments serves /apartments?building={id}, the query-string form
// of the building detail page.
func (s *Server) handleApartments(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("building"))
	if err != nil {
		s.redirectInvalidBuilding(w, r)
		return
	}
	s.handleDetail(w, r, id)
}

// buildingView is a building with all bookings, loaded concurrently.
// A bookings failure does not fail the building.
type buildingView struct {
	Building    *building.Building
	Bookings    []*booking.Booking
	BookingsErr error
}

// loadBuilding fetches the building and the booking list in parallel.
func (s *Server) loadBuilding(ctx context.Context, id int64) (*buildingView, error) {
	var v buildingView
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := s.api.GetBuilding(gctx, id)
		if err != nil {
			return err
		}
		v.Building = b
		return nil
	})
	g.Go(func() error {
		bookings, err := s.api.ListBookings(gctx, client.ListOptions{})
		if err != nil {
			v.BookingsErr = err
			return nil
		}
		v.Bookings = bookings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &v, nil
}

// handleDetail renders a building's apartments and booking calendar.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request, id int64) {
	q := r.URL.Query()
	now := s.opts.Now()
	data := detailData{
		messages: messages{Flash: q.Get("flash"), Error: q.Get("error")},
		Today:    now.Format(booking.DateLayout),
		Nights:   s.opts.Nights,
	}

	v, err := s.loadBuilding(r.Context(), id)
	if errors.Is(err, client.ErrNotFound) {
		s.redirectInvalidBuilding(w, r)
		return
	}
	if err != nil {
		slog.Error("loading building", "building_id", id, "error", err)
		data.Error = "Error fetching apartments"
		w.WriteHeader(http.StatusBadGateway)
		s.render(w, "building.html", data)
		return
	}
	data.Building = v.Building

	if v.BookingsErr != nil {
		slog.Error("listing bookings", "building_id", id, "error", v.BookingsErr)
		data.BookingsError = "Error fetching bookings"
	}

	year, month := calendar.ParseMonth(q.Get("month"), now)
	if raw := q.Get("date"); raw != "" {
		day, err := calendar.SelectDate(id, raw)
		if err != nil {
			data.Error = "Invalid date (use YYYY-MM-DD)"
		} else {
			data.SelectedDate = raw
			if q.Get("month") == "" {
				year, month = day.Year(), day.Month()
			}
		}
	}
	data.Calendar = calendar.Month(year, month, calendar.Events(v.Bookings, v.Building), now)

	if raw := q.Get("apartment"); raw != "" {
		aid, err := parseID(raw)
		idx, ok := v.Building.FindApartment(aid)
		if err != nil || !ok {
			data.Error = "Apartment not found"
		} else {
			data.Apartment = &v.Building.Apartments[idx]
			for _, bk := range booking.ForBuilding(v.Bookings, v.Building) {
				if bk.ApartmentID == aid {
					data.ApartmentBookings = append(data.ApartmentBookings, bk)
				}
			}
		}
	}

	s.render(w, "building.html", data)
}

// handleConfirm renders the confirm/cancel dialog for booking or buying.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, id, aid int64) {
	action := r.URL.Query().Get("action")
	if action != "book" && action != "buy" {
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	b, err := s.api.GetBuilding(r.Context(), id)
	if errors.Is(err, client.ErrNotFound) {
		s.redirectInvalidBuilding(w, r)
		return
	}
	if err != nil {
		slog.Error("loading building", "building_id", id, "error", err)
		s.redirectWithError(w, r, buildingPath(id), "Error fetching apartments")
		return
	}
	idx, ok := b.FindApartment(aid)
	if !ok {
		s.redirectWithError(w, r, buildingPath(id), "Apartment not found")
		return
	}

	a := b.Apartments[idx]
	data := confirmData{
		Building:  b,
		Apartment: a,
		Action:    action,
		Price:     a.BuyPrice,
		Start:     s.opts.Now().Format(booking.DateLayout),
		Nights:    s.opts.Nights,
	}
	if action == "book" {
		data.Price = a.BookPrice
	}

	if isHTMX(r) {
		data.Modal = true
		s.renderPartial(w, "confirm-modal", data)
		return
	}
	s.render(w, "confirm.html", data)
}

// handleBook books an apartment from the confirm form.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request, id, aid int64) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := reservation.BookRequest{BuildingID: id, ApartmentID: aid, Nights: s.opts.Nights}
	if raw := strings.TrimSpace(r.FormValue("start")); raw != "" {
		start, err := time.Parse(booking.DateLayout, raw)
		if err != nil {
			s.fail(w, r, id, "Invalid start date (use YYYY-MM-DD)")
			return
		}
		req.Start = start
	}
	if raw := strings.TrimSpace(r.FormValue("nights")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.fail(w, r, id, "Nights must be a positive number")
			return
		}
		req.Nights = n
	}

	out, err := s.svc.Book(r.Context(), req)
	if err != nil {
		slog.Error("booking apartment", "building_id", id, "apartment_id", aid, "error", err)
		s.fail(w, r, id, failureMessage(err, out, "Error booking apartment"))
		return
	}

	s.succeed(w, r, id, out, fmt.Sprintf("Apartment %d booked from %s to %s",
		aid, out.Booking.StartDate, out.Booking.EndDate))
}

// handleBuy marks an apartment as sold.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request, id, aid int64) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	out, err := s.svc.Buy(r.Context(), id, aid)
	if err != nil {
		slog.Error("buying apartment", "building_id", id, "apartment_id", aid, "error", err)
		s.fail(w, r, id, failureMessage(err, out, "Error buying apartment"))
		return
	}

	s.succeed(w, r, id, out, fmt.Sprintf("Apartment %d bought", aid))
}

// failureMessage turns a workflow error into one line for the user.
func failureMessage(err error, out *reservation.Outcome, fallback string) string {
	switch {
	case out != nil && out.Booking != nil:
		return fmt.Sprintf("Booking %d saved but the apartment status could not be updated", out.Booking.ID)
	case errors.Is(err, client.ErrNotFound):
		return invalidBuildingMsg
	case errors.Is(err, reservation.ErrApartmentNotFound):
		return "Apartment not found"
	case errors.Is(err, reservation.ErrInvalidTransition):
		return "Apartment is not available"
	case errors.Is(err, reservation.ErrOverlap):
		return "Apartment is already booked for these dates"
	case errors.Is(err, reservation.ErrInvalidRequest):
		return "Invalid booking request"
	}
	return fallback
}

// succeed answers a completed book/buy: HTMX gets the updated row, plain
// forms are redirected back to the building page.
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, id int64, out *reservation.Outcome, msg string) {
	if isHTMX(r) {
		s.renderPartial(w, "action-result", rowData{
			messages:   messages{Flash: msg},
			BuildingID: id,
			Apartment:  out.Apartment,
		})
		return
	}
	s.redirectWithFlash(w, r, buildingPath(id), msg)
}

// fail answers a failed book/buy with msg.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, id int64, msg string) {
	if isHTMX(r) {
		w.Header().Set("HX-Retarget", "#messages")
		w.Header().Set("HX-Reswap", "innerHTML")
		s.renderPartial(w, "flash", messages{Error: msg})
		return
	}
	s.redirectWithError(w, r, buildingPath(id), msg)
}

func (s *Server) redirectInvalidBuilding(w http.ResponseWriter, r *http.Request) {
	s.redirectWithError(w, r, "/buildings", invalidBuildingMsg)
}

func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?"+url.Values{"error": {msg}}.Encode(), http.StatusSeeOther)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?"+url.Values{"flash": {msg}}.Encode(), http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
	}
}

// renderPartial executes a named template block (no layout).
func (s *Server) renderPartial(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("rendering partial", "template", name, "error", err)
		http.Error(w, fmt.Sprintf("Error rendering partial: %v", err), http.StatusInternalServerError)
	}
}
