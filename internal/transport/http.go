package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/camdeck/camdeck/internal/alerts"
)

const defaultRequestTimeout = 15 * time.Second

// HTTPClient implements Client against the monitoring backend's REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  zerolog.Logger
}

// NewHTTPClient creates a backend client. tokens may be nil for an
// unauthenticated backend.
func NewHTTPClient(baseURL string, tokens TokenSource, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		tokens:  tokens,
		logger:  logger.With().Str("component", "http_client").Logger(),
	}
}

// FetchAlerts returns one page of alerts for a single severity tier.
func (c *HTTPClient) FetchAlerts(ctx context.Context, tier alerts.Severity, q PageQuery) (Page, error) {
	params := url.Values{}
	params.Set("severity", string(tier))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	var page Page
	if err := c.getJSON(ctx, "/api/v1/alerts?"+params.Encode(), &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// FetchCameras returns the camera directory.
func (c *HTTPClient) FetchCameras(ctx context.Context) ([]alerts.Camera, error) {
	var resp struct {
		Cameras []alerts.Camera `json:"cameras"`
	}
	if err := c.getJSON(ctx, "/api/v1/cameras", &resp); err != nil {
		return nil, err
	}
	return resp.Cameras, nil
}

// mutationRequest is the wire form of a transition request. SnoozeUntil is
// sent as an explicit null when the snooze is being cleared.
type mutationRequest struct {
	Status      *alerts.Status `json:"status,omitempty"`
	SnoozeUntil *time.Time     `json:"snooze_until,omitempty"`
	ClearSnooze bool           `json:"clear_snooze,omitempty"`
	Version     int64          `json:"version"`
}

// MutateAlert applies a state change to one alert, echoing the observed
// version so the backend can detect stale writes.
func (c *HTTPClient) MutateAlert(ctx context.Context, id string, patch MutationPatch, observedVersion int64) (alerts.Alert, error) {
	body, err := json.Marshal(mutationRequest{
		Status:      patch.Status,
		SnoozeUntil: patch.SnoozeUntil,
		ClearSnooze: patch.ClearSnooze,
		Version:     observedVersion,
	})
	if err != nil {
		return alerts.Alert{}, fmt.Errorf("failed to encode mutation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/alerts/"+url.PathEscape(id)+"/transition", bytes.NewReader(body))
	if err != nil {
		return alerts.Alert{}, &NetworkError{Op: "mutate alert", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return alerts.Alert{}, &NetworkError{Op: "mutate alert", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return alerts.Alert{}, &NetworkError{Op: "mutate alert", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		var conflict struct {
			ServerVersion int64 `json:"server_version"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			c.logger.Debug().Err(err).Str("alert_id", id).Msg("conflict response body unreadable")
		}
		return alerts.Alert{}, &ConflictError{
			AlertID:         id,
			ObservedVersion: observedVersion,
			ServerVersion:   conflict.ServerVersion,
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return alerts.Alert{}, &NetworkError{
			Op:  "mutate alert",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readBodyPrefix(resp.Body)),
		}
	}

	var updated alerts.Alert
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return alerts.Alert{}, &NetworkError{Op: "mutate alert", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return updated, nil
}

// getJSON performs an authorized GET and decodes the JSON response into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readBodyPrefix(resp.Body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// authorize attaches the bearer token when a token source is configured.
func (c *HTTPClient) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// readBodyPrefix returns up to 512 bytes of the body for error messages.
func readBodyPrefix(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
