package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
	"github.com/evcraddock/estate-browser/internal/logging"
)

// Handler serves the REST endpoints.
type Handler struct {
	store *Store
}

// NewHandler creates a REST handler over store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(store *Store) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("recovered from panic", "error", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}))

	h := NewHandler(store)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/buildings", h.ListBuildings)
	r.GET("/buildings/:id", h.GetBuilding)
	r.PUT("/buildings/:id", h.PutBuilding)
	r.GET("/bookings", h.ListBookings)
	r.GET("/bookings/:id", h.GetBooking)
	r.POST("/bookings", h.CreateBooking)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

// requestLogger logs gin requests through slog, like logging.RequestLogger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := logging.EnsureRequestID(c.GetHeader(logging.RequestIDHeader))
		c.Header(logging.RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))

		path := c.Request.URL.Path
		if logging.Skip(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		slog.Log(c.Request.Context(), logging.Level(status), "request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
			"request_id", id,
		)
	}
}

// apiError writes a JSON error body the client package understands.
func apiError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// storeError maps store errors to HTTP responses.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		apiError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateID):
		apiError(c, http.StatusConflict, err.Error())
	default:
		slog.Error("store error", "path", c.Request.URL.Path, "error", err)
		apiError(c, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

// ListBuildings handles GET /buildings.
func (h *Handler) ListBuildings(c *gin.Context) {
	buildings, err := h.store.ListBuildings(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

// GetBuilding handles GET /buildings/:id.
func (h *Handler) GetBuilding(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.store.GetBuilding(c.Request.Context(), id)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// PutBuilding handles PUT /buildings/:id. The body replaces the stored
// building, apartments included. The path ID wins over any ID in the body.
func (h *Handler) PutBuilding(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var b building.Building
	if err := c.ShouldBindJSON(&b); err != nil {
		apiError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b.ID = id

	updated, err := h.store.ReplaceBuilding(c.Request.Context(), &b)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListBookings handles GET /bookings?apartmentId=1&apartmentId=2&buildingId=1.
func (h *Handler) ListBookings(c *gin.Context) {
	var f BookingFilter
	for _, raw := range c.QueryArray("apartmentId") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apiError(c, http.StatusBadRequest, fmt.Sprintf("invalid apartmentId %q", raw))
			return
		}
		f.ApartmentIDs = append(f.ApartmentIDs, id)
	}
	if raw := c.Query("buildingId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apiError(c, http.StatusBadRequest, fmt.Sprintf("invalid buildingId %q", raw))
			return
		}
		f.BuildingID = id
	}

	bookings, err := h.store.ListBookings(c.Request.Context(), f)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GetBooking handles GET /bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.store.GetBooking(c.Request.Context(), id)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var b booking.Booking
	if err := c.ShouldBindJSON(&b); err != nil {
		apiError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.store.CreateBooking(c.Request.Context(), &b)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListenAndServe runs the backend on port until the server fails.
func ListenAndServe(store *Store, port int) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting backend on http://localhost%s\n", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
