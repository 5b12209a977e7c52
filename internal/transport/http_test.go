package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/camdeck/camdeck/internal/alerts"
)

func TestFetchAlertsQueryParams(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/alerts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = map[string]string{
			"severity": r.URL.Query().Get("severity"),
			"limit":    r.URL.Query().Get("limit"),
			"offset":   r.URL.Query().Get("offset"),
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Page{
			Items:   []alerts.Alert{{ID: "a1", Status: alerts.StatusPending, Version: 3}},
			Total:   7,
			HasMore: true,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, NewStaticTokenSource("tok-123"), zerolog.Nop())
	page, err := client.FetchAlerts(context.Background(), alerts.SeverityCritical, PageQuery{Limit: 25, Offset: 50})
	if err != nil {
		t.Fatalf("FetchAlerts failed: %v", err)
	}

	if gotQuery["severity"] != "critical" || gotQuery["limit"] != "25" || gotQuery["offset"] != "50" {
		t.Errorf("query params = %v", gotQuery)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if page.Total != 7 || !page.HasMore || len(page.Items) != 1 || page.Items[0].ID != "a1" {
		t.Errorf("page = %+v", page)
	}
}

func TestFetchCameras(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/cameras" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cameras": []alerts.Camera{{ID: "cam-1", Name: "Front Entrance", Online: true}},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil, zerolog.Nop())
	cams, err := client.FetchCameras(context.Background())
	if err != nil {
		t.Fatalf("FetchCameras failed: %v", err)
	}
	if len(cams) != 1 || cams[0].Name != "Front Entrance" {
		t.Errorf("cameras = %+v", cams)
	}
}

func TestMutateAlertEchoesVersion(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/alerts/a1/transition" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(alerts.Alert{ID: "a1", Status: alerts.StatusAcknowledged, Version: 4})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil, zerolog.Nop())
	status := alerts.StatusAcknowledged
	updated, err := client.MutateAlert(context.Background(), "a1", MutationPatch{Status: &status}, 3)
	if err != nil {
		t.Fatalf("MutateAlert failed: %v", err)
	}

	if gotBody["version"] != float64(3) {
		t.Errorf("request version = %v; want 3", gotBody["version"])
	}
	if gotBody["status"] != "acknowledged" {
		t.Errorf("request status = %v", gotBody["status"])
	}
	if updated.Version != 4 || updated.Status != alerts.StatusAcknowledged {
		t.Errorf("updated = %+v", updated)
	}
}

func TestMutateAlertConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]int64{"server_version": 9})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil, zerolog.Nop())
	status := alerts.StatusDismissed
	_, err := client.MutateAlert(context.Background(), "a1", MutationPatch{Status: &status}, 5)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v; want *ConflictError", err)
	}
	if conflict.AlertID != "a1" || conflict.ObservedVersion != 5 || conflict.ServerVersion != 9 {
		t.Errorf("conflict = %+v", conflict)
	}
	if !IsConflict(err) {
		t.Error("IsConflict(err) = false")
	}
}

func TestMutateAlertServerErrorIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil, zerolog.Nop())
	status := alerts.StatusAcknowledged
	_, err := client.MutateAlert(context.Background(), "a1", MutationPatch{Status: &status}, 1)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v; want *NetworkError", err)
	}
	if IsConflict(err) {
		t.Error("server error misclassified as conflict")
	}
}

func TestMutateAlertUnsnoozeSendsClearFlag(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(alerts.Alert{ID: "a1", Status: alerts.StatusPending, Version: 2})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil, zerolog.Nop())
	if _, err := client.MutateAlert(context.Background(), "a1", MutationPatch{ClearSnooze: true}, 1); err != nil {
		t.Fatalf("MutateAlert failed: %v", err)
	}

	if gotBody["clear_snooze"] != true {
		t.Errorf("clear_snooze = %v; want true", gotBody["clear_snooze"])
	}
	if _, present := gotBody["status"]; present {
		t.Error("status should be omitted when unchanged")
	}
}

func TestSnoozePatchWireFormat(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(alerts.Alert{ID: "a1", Status: alerts.StatusPending, Version: 2})
	}))
	defer server.Close()

	until := time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC)
	client := NewHTTPClient(server.URL, nil, zerolog.Nop())
	if _, err := client.MutateAlert(context.Background(), "a1", MutationPatch{SnoozeUntil: &until}, 1); err != nil {
		t.Fatalf("MutateAlert failed: %v", err)
	}

	if gotBody["snooze_until"] != "2026-03-14T13:00:00Z" {
		t.Errorf("snooze_until = %v", gotBody["snooze_until"])
	}
}
