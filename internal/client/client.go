// Package client provides an HTTP client for the buildings/bookings REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/estate-browser/internal/booking"
	"github.com/evcraddock/estate-browser/internal/building"
)

// DefaultTimeout bounds a single round-trip to the backend.
const DefaultTimeout = 30 * time.Second

// ErrNotFound is matched by errors.Is when the backend answers 404.
var ErrNotFound = errors.New("not found")

// Error is returned for non-2xx responses.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: server error: %s", e.Op, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the REST backend. It does no caching and no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListBuildings returns all buildings with their apartments.
func (c *Client) ListBuildings(ctx context.Context) ([]*building.Building, error) {
	var buildings []*building.Building
	if err := c.get(ctx, "list buildings", "/buildings", &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

// GetBuilding returns a single building.
func (c *Client) GetBuilding(ctx context.Context, id int64) (*building.Building, error) {
	var b building.Building
	if err := c.get(ctx, "get building", fmt.Sprintf("/buildings/%d", id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBuilding replaces the whole building, apartments included.
func (c *Client) UpdateBuilding(ctx context.Context, b *building.Building) (*building.Building, error) {
	var updated building.Building
	if err := c.send(ctx, "update building", http.MethodPut, fmt.Sprintf("/buildings/%d", b.ID), b, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListOptions controls filtering for ListBookings.
type ListOptions struct {
	ApartmentIDs []int64 // empty = all
}

// ListBookings returns bookings, optionally limited to some apartments.
func (c *Client) ListBookings(ctx context.Context, opts ListOptions) ([]*booking.Booking, error) {
	path := "/bookings"
	if len(opts.ApartmentIDs) > 0 {
		params := url.Values{}
		for _, id := range opts.ApartmentIDs {
			params.Add("apartmentId", strconv.FormatInt(id, 10))
		}
		path += "?" + params.Encode()
	}

	var bookings []*booking.Booking
	if err := c.get(ctx, "list bookings", path, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateBooking posts a new booking and returns what the backend stored.
func (c *Client) CreateBooking(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	var created booking.Booking
	if err := c.send(ctx, "create booking", http.MethodPost, "/bookings", b, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, op, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	return c.do(op, req, result)
}

// send performs a request with a JSON body and decodes the response.
func (c *Client) send(ctx context.Context, op, method, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshaling request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, result)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(op string, req *http.Request, result interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "op", op, "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Op: op, StatusCode: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		slog.Debug("backend error", "op", op, "status", resp.StatusCode, "url", req.URL.String())
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%s: decoding response: %w", op, err)
		}
	}

	return nil
}
