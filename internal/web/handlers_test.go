package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evcraddock/estate-browser/internal/backend"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/calendar"
	"github.com/evcraddock/estate-browser/internal/client"
	"github.com/evcraddock/estate-browser/internal/db"
)

var testNow = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// testServer starts a seeded backend and returns a web server using it.
func testServer(t *testing.T) (*Server, *backend.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d, err := db.Open(filepath.Join(t.TempDir(), "backend.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	store := backend.NewStore(d)
	sd, err := backend.LoadSeed("")
	if err != nil {
		t.Fatalf("loading seed: %v", err)
	}
	if err := store.Seed(context.Background(), sd); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	api := httptest.NewServer(backend.NewRouter(store))
	t.Cleanup(api.Close)

	srv, err := NewServer(client.New(api.URL, 0), Options{Now: func() time.Time { return testNow }})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv, store
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func postForm(t *testing.T, srv http.Handler, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		r.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

func TestUnknownPathsRedirectToBuildings(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/", "/nope", "/buildings/extra"} {
		w := get(t, srv, path)
		if w.Code != http.StatusFound {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusFound)
		}
		if loc := w.Header().Get("Location"); loc != "/buildings" {
			t.Errorf("%s: location = %q, want /buildings", path, loc)
		}
	}
}

func TestBuildingsList(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/buildings")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Harbour View", "Oak Court", "Riverside Lofts", "2 Available", "1 Sold"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}
	if strings.Contains(body, `id="apartment-1"`) {
		t.Error("apartments should be hidden until a building is selected")
	}
}

func TestBuildingsSelectedToggle(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/buildings?selected=1")

	body := w.Body.String()
	if !strings.Contains(body, `id="apartment-1"`) {
		t.Error("expected apartment rows of the selected building")
	}
	if strings.Contains(body, `id="apartment-5"`) {
		t.Error("apartments of other buildings should stay hidden")
	}
	if !strings.Contains(body, `href="/buildings"`) {
		t.Error("selected building should link back to the unselected list")
	}
}

func TestBuildingsSelectedInvalid(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/buildings?selected=abc")

	if !strings.Contains(w.Body.String(), "Invalid Building ID") {
		t.Error("expected invalid building message")
	}
}

func TestBuildingsShowsErrorParam(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/buildings?error=Invalid+Building+ID")

	if !strings.Contains(w.Body.String(), "Invalid Building ID") {
		t.Error("expected error message from query")
	}
}

func TestInvalidBuildingRedirects(t *testing.T) {
	srv, _ := testServer(t)

	paths := []string{
		"/building/abc",
		"/building/0",
		"/building/-3",
		"/building/999",
		"/building/",
		"/apartments",
		"/apartments?building=x",
		"/apartments?building=999",
		"/building/999/apartment/1/confirm?action=book",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := get(t, srv, path)
			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != "/buildings?error=Invalid+Building+ID" {
				t.Errorf("location = %q", loc)
			}
		})
	}
}

func TestBuildingDetail(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/building/1?month=2024-01")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Harbour View", "January 2024", "Apartment 2 booked", `id="apartment-4"`, "$250,000"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}
	if strings.Contains(body, "Apartment 7 booked") {
		t.Error("bookings of other buildings must not appear")
	}
}

func TestBuildingDetailSoldHasNoActions(t *testing.T) {
	srv, _ := testServer(t)

	body := get(t, srv, "/building/1").Body.String()

	if strings.Contains(body, "/apartment/4/confirm") {
		t.Error("sold apartment should offer no book or buy action")
	}
	if !strings.Contains(body, "/apartment/1/confirm?action=book") {
		t.Error("available apartment should offer booking")
	}
}

func TestApartmentsAlias(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/apartments?building=2")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Oak Court") {
		t.Error("expected building name")
	}
}

func TestCalendarLinksKeepBuilding(t *testing.T) {
	srv, _ := testServer(t)

	body := get(t, srv, "/apartments?building=1").Body.String()
	if !strings.Contains(body, `href="/building/1?month=2023-12"`) {
		t.Fatal("expected previous month link to the building page")
	}
	if !strings.Contains(body, `href="/building/1?date=2024-01-15"`) {
		t.Error("expected day link to the building page")
	}

	w := get(t, srv, "/building/1?month=2023-12")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "December 2023") {
		t.Error("expected the previous month")
	}
}

func TestCalendarLinksKeepApartment(t *testing.T) {
	srv, _ := testServer(t)

	body := get(t, srv, "/building/1?apartment=2").Body.String()
	for _, want := range []string{
		`href="/building/1?apartment=2&amp;month=2024-02"`,
		`href="/building/1?apartment=2&amp;date=2024-01-15"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}
}

func TestBuildingDetailSelectedDate(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/building/1?date=2023-12-24")

	body := w.Body.String()
	if !strings.Contains(body, "December 2023") {
		t.Error("selected date should pick the calendar month")
	}
	if !strings.Contains(body, "selected") {
		t.Error("expected selected day")
	}

	w = get(t, srv, "/building/1?date=24/12/2023")
	if !strings.Contains(w.Body.String(), "Invalid date") {
		t.Error("expected invalid date message")
	}
}

func TestBuildingDetailApartment(t *testing.T) {
	srv, _ := testServer(t)

	body := get(t, srv, "/building/1?apartment=2").Body.String()
	if !strings.Contains(body, "#1: 2024-01-10 to 2024-01-13") {
		t.Error("expected the apartment's bookings")
	}

	body = get(t, srv, "/building/1?apartment=7").Body.String()
	if !strings.Contains(body, "Apartment not found") {
		t.Error("apartment of another building should not be found")
	}
}

func TestEventsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/building/1/events")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var events []calendar.Event
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	want := calendar.Event{Title: "Apartment 2 booked", Start: "2024-01-10", End: "2024-01-13", ApartmentID: 2}
	if events[0] != want {
		t.Errorf("event = %+v, want %+v", events[0], want)
	}

	w = get(t, srv, "/building/999/events")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing building: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestConfirm(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/building/1/apartment/1/confirm?action=book")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Book apartment 1", `action="/building/1/apartment/1/book"`, `value="2024-01-15"`, `value="3"`, "Cancel"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}

	if strings.Contains(body, "hx-post") {
		t.Error("standalone confirm page should submit as a plain form")
	}

	w = get(t, srv, "/building/1/apartment/3/confirm?action=buy")
	if !strings.Contains(w.Body.String(), "$310,000") {
		t.Error("buy confirm should show the buy price")
	}
}

func TestConfirmHTMXReturnsModal(t *testing.T) {
	srv, _ := testServer(t)

	r := httptest.NewRequest("GET", "/building/1/apartment/1/confirm?action=buy", nil)
	r.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	body := w.Body.String()
	if !strings.Contains(body, "modal-backdrop") {
		t.Error("expected modal partial")
	}
	if !strings.Contains(body, `hx-target="#apartment-1"`) {
		t.Error("modal form should swap the apartment row")
	}
	if strings.Contains(body, "<!DOCTYPE") {
		t.Error("partial should not include the layout")
	}
}

func TestConfirmErrors(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/building/1/apartment/1/confirm?action=rent")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown action: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = get(t, srv, "/building/1/apartment/77/confirm?action=book")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("unknown apartment: status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/building/1?error=Apartment+not+found" {
		t.Errorf("location = %q", loc)
	}
}

func TestBookPost(t *testing.T) {
	srv, store := testServer(t)

	w := postForm(t, srv, "/building/1/apartment/1/book", url.Values{"start": {"2024-03-01"}, "nights": {"2"}}, false)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/building/1?flash=") {
		t.Errorf("location = %q, want flash redirect", loc)
	}

	b, err := store.GetBooking(context.Background(), 3)
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if b.ApartmentID != 1 || b.StartDate != "2024-03-01" || b.EndDate != "2024-03-03" {
		t.Errorf("booking = %+v", b)
	}

	bldg, err := store.GetBuilding(context.Background(), 1)
	if err != nil {
		t.Fatalf("getting building: %v", err)
	}
	if bldg.Apartments[0].Status != building.StatusBooked {
		t.Errorf("status = %q, want booked", bldg.Apartments[0].Status)
	}
}

func TestBookDefaultsToTodayAndConfiguredNights(t *testing.T) {
	srv, store := testServer(t)

	w := postForm(t, srv, "/building/3/apartment/8/book", url.Values{}, false)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	b, err := store.GetBooking(context.Background(), 3)
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if b.StartDate != "2024-01-15" || b.EndDate != "2024-01-18" {
		t.Errorf("dates = %s..%s, want 2024-01-15..2024-01-18", b.StartDate, b.EndDate)
	}
}

func TestBookHTMXReturnsRow(t *testing.T) {
	srv, _ := testServer(t)

	w := postForm(t, srv, "/building/1/apartment/3/book", url.Values{"start": {"2024-02-01"}}, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{`id="apartment-3"`, "Booked", `hx-swap-oob="true"`, "Apartment 3 booked from 2024-02-01 to 2024-02-04"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}
}

func TestBookValidation(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"bad start", url.Values{"start": {"March 1"}}, "Invalid start date"},
		{"zero nights", url.Values{"nights": {"0"}}, "Nights must be a positive number"},
		{"text nights", url.Values{"nights": {"many"}}, "Nights must be a positive number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(t, srv, "/building/1/apartment/1/book", tt.form, false)
			loc, _ := url.QueryUnescape(w.Header().Get("Location"))
			if !strings.Contains(loc, tt.want) {
				t.Errorf("location = %q, want %q", loc, tt.want)
			}
		})
	}
}

func TestBookOverlapRejected(t *testing.T) {
	srv, _ := testServer(t)

	w := postForm(t, srv, "/building/1/apartment/2/book", url.Values{"start": {"2024-01-11"}}, false)

	loc, _ := url.QueryUnescape(w.Header().Get("Location"))
	if !strings.Contains(loc, "already booked for these dates") {
		t.Errorf("location = %q, want overlap error", loc)
	}
}

func TestBuy(t *testing.T) {
	srv, store := testServer(t)

	w := postForm(t, srv, "/building/2/apartment/6/buy", nil, false)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	b, err := store.GetBuilding(context.Background(), 2)
	if err != nil {
		t.Fatalf("getting building: %v", err)
	}
	if b.Apartments[1].Status != building.StatusSold {
		t.Errorf("status = %q, want sold", b.Apartments[1].Status)
	}
}

func TestBuySoldApartmentFails(t *testing.T) {
	srv, _ := testServer(t)

	w := postForm(t, srv, "/building/1/apartment/4/buy", nil, false)

	if loc := w.Header().Get("Location"); loc != "/building/1?error=Apartment+is+not+available" {
		t.Errorf("location = %q", loc)
	}
}

func TestBuyHTMXFailureTargetsMessages(t *testing.T) {
	srv, _ := testServer(t)

	w := postForm(t, srv, "/building/1/apartment/77/buy", nil, true)

	if got := w.Header().Get("HX-Retarget"); got != "#messages" {
		t.Errorf("HX-Retarget = %q, want #messages", got)
	}
	if !strings.Contains(w.Body.String(), "Apartment not found") {
		t.Error("expected error message")
	}
}

func TestActionMethodNotAllowed(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/building/1/apartment/1/book", "/building/1/apartment/1/buy"} {
		if w := get(t, srv, path); w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestBackendUnavailable(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	srv, err := NewServer(client.New(down.URL, time.Second), Options{})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	w := get(t, srv, "/buildings")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	if !strings.Contains(w.Body.String(), "Error fetching buildings") {
		t.Error("expected fetch error message")
	}

	w = get(t, srv, "/building/1")
	if !strings.Contains(w.Body.String(), "Error fetching apartments") {
		t.Error("expected fetch error message")
	}
}

func TestStaticFiles(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/static/style.css")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
