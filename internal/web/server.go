// Package web provides the HTTP server and handlers for the estate browser UI.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/client"
	"github.com/evcraddock/estate-browser/internal/logging"
	"github.com/evcraddock/estate-browser/internal/reservation"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures the web server.
type Options struct {
	// Nights is the booking length offered by the book form.
	Nights int
	// AllowOverlap is passed through to the reservation workflow.
	AllowOverlap bool
	// Now is the clock used for "today" in calendars and forms.
	Now func() time.Time
}

// Server is the web UI HTTP server.
type Server struct {
	api       *client.Client
	svc       *reservation.Service
	opts      Options
	templates *template.Template
	mux       *http.ServeMux
}

// NewServer creates a web server that talks to the backend through api.
func NewServer(api *client.Client, opts Options) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Nights <= 0 {
		opts.Nights = booking.DefaultNights
	}

	funcMap := template.FuncMap{
		"formatPrice": building.FormatPrice,
		"dateKey":     tmplDateKey,
		"counts":      tmplCounts,
		"row":         tmplRow,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		api: api,
		svc: reservation.NewService(api, reservation.Options{
			AllowOverlap: opts.AllowOverlap,
			Now:          opts.Now,
		}),
		opts:      opts,
		templates: tmpl,
		mux:       http.NewServeMux(),
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/buildings", s.handleBuildings)
	s.mux.HandleFunc("/apartments", s.handleApartments)
	s.mux.HandleFunc("/building/", s.handleBuildingRoute)
	s.mux.HandleFunc("/", s.handleFallback)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server with request logging.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting web UI on http://localhost%s (backend %s)\n", addr, s.api.BaseURL())
	srv := &http.Server{
		Addr:              addr,
		Handler:           logging.RequestLogger(s),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// handleBuildingRoute routes /building/{id}/* requests.
func (s *Server) handleBuildingRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/building/"), "/")
	parts := strings.Split(path, "/")

	id, err := parseID(parts[0])
	if err != nil {
		s.redirectInvalidBuilding(w, r)
		return
	}

	switch {
	case len(parts) == 1:
		s.handleDetail(w, r, id)
	case len(parts) == 2 && parts[1] == "events":
		s.handleEvents(w, r, id)
	case len(parts) == 4 && parts[1] == "apartment":
		aid, err := parseID(parts[2])
		if err != nil {
			s.redirectWithError(w, r, buildingPath(id), "Invalid Apartment ID")
			return
		}
		switch parts[3] {
		case "confirm":
			s.handleConfirm(w, r, id, aid)
		case "book":
			s.handleBook(w, r, id, aid)
		case "buy":
			s.handleBuy(w, r, id, aid)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

// parseID parses a positive numeric ID.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

func buildingPath(id int64) string {
	return fmt.Sprintf("/building/%d", id)
}

// Template helper functions

func tmplDateKey(t time.Time) string {
	return t.Format(booking.DateLayout)
}

type statusCount struct {
	Status building.Status
	Label  string
	N      int
}

// tmplCounts returns per-status apartment counts in display order.
func tmplCounts(b *building.Building) []statusCount {
	counts := b.Counts()
	out := make([]statusCount, len(building.Statuses))
	for i, st := range building.Statuses {
		out[i] = statusCount{Status: st, Label: st.Label(), N: counts[st]}
	}
	return out
}

func tmplRow(buildingID int64, a building.Apartment) rowData {
	return rowData{BuildingID: buildingID, Apartment: a}
}
