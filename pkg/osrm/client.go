// Package osrm is a client for an OSRM-compatible road routing service
// ("driving" profile). It exposes the three calls the planner needs:
// a health probe, full routes with geometry and leg durations, and
// distance/duration matrices.
package osrm

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// ─── Errors ─────────────────────────────────────────────────

// ErrorKind classifies a road-service failure.
type ErrorKind string

const (
	// KindUnavailable means the service probe failed; the whole plan
	// request should fail fast.
	KindUnavailable ErrorKind = "road_service_unavailable"
	// KindTransient covers retryable transport failures (reset, timeout)
	// that persisted through every attempt.
	KindTransient ErrorKind = "road_service_transient"
	// KindRequestFailed covers transport failures not worth retrying
	// (bad scheme, TLS failure); surfaced after the first attempt.
	KindRequestFailed ErrorKind = "road_service_request_failed"
	// KindBadResponse covers HTTP errors and non-Ok OSRM codes.
	KindBadResponse ErrorKind = "road_service_bad_response"
)

// Error is a structured road-service error.
type Error struct {
	Kind    ErrorKind
	Message string
	URL     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("osrm: %s: %s", e.Kind, e.Message)
}

// ─── Client ─────────────────────────────────────────────────

const (
	// maxAttempts bounds retries on transport errors. HTTP-level errors
	// are never retried.
	maxAttempts = 3

	// retryDelay is the fixed pause between attempts.
	retryDelay = 500 * time.Millisecond

	// routeTimeout bounds a single /route call.
	routeTimeout = 8 * time.Second

	// tableBaseTimeout and tableTimeoutPerPoint scale the /table
	// timeout with matrix size.
	tableBaseTimeout     = 5 * time.Second
	tableTimeoutPerPoint = 250 * time.Millisecond
)

// Client calls an OSRM-compatible server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables an in-process LRU cache of raw response bodies,
// keyed by request URL. Table requests for identical point sets within
// one plan request hit the cache instead of the network.
func WithCache(maxItems int) Option {
	return func(c *Client) {
		cache, _ := lru.New(maxItems)
		c.cache = cache
	}
}

// NewClient creates a road-service client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ─── Response types ─────────────────────────────────────────

// Waypoint is an input coordinate as placed by the service. WaypointIndex
// is the coordinate's position in the service's chosen ordering; callers
// must map by this index and never assume input order is preserved.
type Waypoint struct {
	WaypointIndex int        `json:"waypoint_index"`
	Location      [2]float64 `json:"location"` // lng, lat
	Name          string     `json:"name"`
}

type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type osrmRoute struct {
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Geometry string    `json:"geometry"`
	Legs     []osrmLeg `json:"legs"`
}

type routeResponse struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Routes    []osrmRoute `json:"routes"`
	Waypoints []Waypoint  `json:"waypoints"`
}

type tableResponse struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Distances [][]float64 `json:"distances"`
	Durations [][]float64 `json:"durations"`
}

// RouteResult is the planner-facing view of a /route response.
type RouteResult struct {
	TotalDistance float64 // meters
	TotalDuration float64 // seconds
	Legs          []model.Leg
	Geometry      string // encoded polyline
	Waypoints     []Waypoint
}

// TableResult holds a distance/duration matrix (possibly rectangular
// when sources/destinations are given).
type TableResult struct {
	Distances [][]float64 // meters
	Durations [][]float64 // seconds
}

// ─── Operations ─────────────────────────────────────────────

// IsAvailable probes the service with two trivial coordinates and
// reports whether it answered with code "Ok" and a non-empty route set.
func (c *Client) IsAvailable(ctx context.Context) bool {
	probe := []model.Location{
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: 12.9352, Lng: 77.6245},
	}
	res, err := c.Route(ctx, probe, false)
	if err != nil {
		log.Printf("[osrm] availability probe failed: %v", err)
		return false
	}
	return res != nil
}

// Route requests a full road route through coords in the given order.
// With withGeometry the response carries the full overview polyline.
func (c *Client) Route(ctx context.Context, coords []model.Location, withGeometry bool) (*RouteResult, error) {
	if len(coords) < 2 {
		return nil, &Error{Kind: KindBadResponse, Message: "route needs at least 2 coordinates"}
	}

	overview := "false"
	if withGeometry {
		overview = "full"
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=%s&geometries=polyline&steps=true&annotations=distance",
		c.baseURL, coordsPath(coords), overview)

	callCtx, cancel := context.WithTimeout(ctx, routeTimeout)
	defer cancel()

	body, err := c.get(callCtx, url)
	if err != nil {
		return nil, err
	}

	var resp routeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindBadResponse, Message: "decode route response: " + err.Error(), URL: url}
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return nil, &Error{
			Kind:    KindBadResponse,
			Message: fmt.Sprintf("route returned code %q (%s)", resp.Code, resp.Message),
			URL:     url,
		}
	}

	route := resp.Routes[0]
	legs := make([]model.Leg, len(route.Legs))
	for i, l := range route.Legs {
		legs[i] = model.Leg{Distance: l.Distance, Duration: l.Duration}
	}

	return &RouteResult{
		TotalDistance: route.Distance,
		TotalDuration: route.Duration,
		Legs:          legs,
		Geometry:      route.Geometry,
		Waypoints:     resp.Waypoints,
	}, nil
}

// Table requests a distance/duration matrix for coords. When sources or
// destinations are non-nil the result is the corresponding submatrix.
func (c *Client) Table(ctx context.Context, coords []model.Location, sources, destinations []int) (*TableResult, error) {
	if len(coords) == 0 {
		return nil, &Error{Kind: KindBadResponse, Message: "table needs at least 1 coordinate"}
	}

	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration",
		c.baseURL, coordsPath(coords))
	if len(sources) > 0 {
		url += "&sources=" + joinIndices(sources)
	}
	if len(destinations) > 0 {
		url += "&destinations=" + joinIndices(destinations)
	}

	timeout := tableBaseTimeout + time.Duration(len(coords))*tableTimeoutPerPoint
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := c.get(callCtx, url)
	if err != nil {
		return nil, err
	}

	var resp tableResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindBadResponse, Message: "decode table response: " + err.Error(), URL: url}
	}
	if resp.Code != "Ok" {
		return nil, &Error{
			Kind:    KindBadResponse,
			Message: fmt.Sprintf("table returned code %q (%s)", resp.Code, resp.Message),
			URL:     url,
		}
	}

	return &TableResult{Distances: resp.Distances, Durations: resp.Durations}, nil
}

// ─── Transport ──────────────────────────────────────────────

// get performs a GET with transport-level retries. HTTP 4xx/5xx are
// surfaced immediately; connection resets, hangs and timeouts are
// retried up to maxAttempts with a fixed delay.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var key string
	if c.cache != nil {
		key = fmt.Sprintf("%x", sha1.Sum([]byte(url)))
		if cached, ok := c.cache.Get(key); ok {
			if b, ok := cached.([]byte); ok {
				return b, nil
			}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &Error{Kind: KindBadResponse, Message: err.Error(), URL: url}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTransient(err) {
				return nil, &Error{Kind: KindRequestFailed, Message: err.Error(), URL: url}
			}
			lastErr = err
			log.Printf("[osrm] transient error (attempt %d/%d): %v", attempt, maxAttempts, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			log.Printf("[osrm] body read error (attempt %d/%d): %v", attempt, maxAttempts, readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &Error{
				Kind:    KindBadResponse,
				Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
				URL:     url,
			}
		}

		if c.cache != nil {
			c.cache.Add(key, body)
		}
		return body, nil
	}

	return nil, &Error{Kind: KindTransient, Message: lastErr.Error(), URL: url}
}

// isTransient reports whether a transport error is worth retrying.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "broken pipe")
}

// coordsPath formats coordinates as "lng,lat;lng,lat..." per OSRM.
func coordsPath(coords []model.Location) string {
	var sb strings.Builder
	for i, p := range coords {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "%.6f,%.6f", p.Lng, p.Lat)
	}
	return sb.String()
}

func joinIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}
