package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"parkease/internal/analytics"
	"parkease/internal/facility"
	"parkease/internal/storage"
	"parkease/internal/telemetry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "parking_lot.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %s", err)
	}
	t.Cleanup(func() { store.Close() })

	provider, err := telemetry.NewProvider()
	if err != nil {
		t.Fatalf("Failed to initialize telemetry: %s", err)
	}

	controller, err := facility.NewController(1, store)
	if err != nil {
		t.Fatalf("Failed to create controller: %s", err)
	}

	instrumented, err := facility.NewInstrumentedController(controller, provider)
	if err != nil {
		t.Fatalf("Failed to instrument controller: %s", err)
	}

	srv := NewServer("0", instrumented, analytics.NewReporter(store))
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, body string) (int, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	defer resp.Body.Close()

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %s", err)
	}
	return resp.StatusCode, envelope
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}
}

func TestSpotAndEntryFlow(t *testing.T) {
	ts := newTestServer(t)
	spotBody := `{"floor_number": 1, "row_number": 2, "spot_number": 3}`

	status, envelope := doJSON(t, ts, http.MethodPost, "/api/facility/spots", spotBody)
	if status != http.StatusOK || !envelope.Success {
		t.Fatalf("Expected spot creation to succeed, got %d %+v", status, envelope)
	}

	status, envelope = doJSON(t, ts, http.MethodPost, "/api/facility/spots", spotBody)
	if status != http.StatusConflict {
		t.Errorf("Expected 409 on duplicate spot, got %d", status)
	}
	if envelope.Success {
		t.Error("Expected duplicate creation to fail")
	}

	entryBody := `{"floor_number": 1, "row_number": 2, "spot_number": 3, "plate": "ABC-123"}`
	status, envelope = doJSON(t, ts, http.MethodPost, "/api/facility/entries", entryBody)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 on entry, got %d %+v", status, envelope)
	}
	if !strings.HasPrefix(envelope.Message, "[NEW ENTRY]") {
		t.Errorf("Unexpected entry message %q", envelope.Message)
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/entries", entryBody)
	if status != http.StatusConflict {
		t.Errorf("Expected 409 on occupied spot, got %d", status)
	}

	wrongExit := `{"floor_number": 1, "row_number": 2, "spot_number": 3, "plate": "XYZ-999"}`
	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/exits", wrongExit)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 on plate mismatch, got %d", status)
	}

	status, envelope = doJSON(t, ts, http.MethodPost, "/api/facility/exits", entryBody)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 on exit, got %d %+v", status, envelope)
	}
	if !strings.HasPrefix(envelope.Message, "[NEW EXIT]") {
		t.Errorf("Unexpected exit message %q", envelope.Message)
	}

	missingEntry := `{"floor_number": 9, "row_number": 9, "spot_number": 9, "plate": "ABC-123"}`
	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/entries", missingEntry)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 on unknown spot, got %d", status)
	}

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/facility/spots", spotBody)
	if status != http.StatusOK {
		t.Errorf("Expected 200 on spot delete, got %d", status)
	}
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)

	status, _ := doJSON(t, ts, http.MethodPost, "/api/facility/spots", `{"floor_number": 1, "row_number": 2}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 on missing field, got %d", status)
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/spots",
		`{"floor_number": 1, "row_number": 2, "spot_number": 3, "color": "red"}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 on unknown field, got %d", status)
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/entries", `{not json`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 on malformed body, got %d", status)
	}
}

func TestPremiumAndBooking(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, http.MethodPost, "/api/facility/spots", `{"floor_number": 1, "row_number": 1, "spot_number": 1}`)

	bookingBody := `{"floor_number": 1, "row_number": 1, "spot_number": 1, "plate": "VIP-001"}`
	status, _ := doJSON(t, ts, http.MethodPost, "/api/facility/bookings", bookingBody)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for booking without subscription, got %d", status)
	}

	status, envelope := doJSON(t, ts, http.MethodPost, "/api/facility/premium", `{"plate": "VIP-001"}`)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 on premium registration, got %d %+v", status, envelope)
	}
	if !strings.HasPrefix(envelope.Message, "[NEW PREMIUM]") {
		t.Errorf("Unexpected premium message %q", envelope.Message)
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/premium", `{"plate": "VIP-001"}`)
	if status != http.StatusConflict {
		t.Errorf("Expected 409 on duplicate premium registration, got %d", status)
	}

	status, envelope = doJSON(t, ts, http.MethodPost, "/api/facility/bookings", bookingBody)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 on booking, got %d %+v", status, envelope)
	}
	if !strings.HasPrefix(envelope.Message, "[NEW BOOKING]") {
		t.Errorf("Unexpected booking message %q", envelope.Message)
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/api/facility/bookings", bookingBody)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 when booking a non-free spot, got %d", status)
	}

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/facility/premium/VIP-001", "")
	if status != http.StatusOK {
		t.Errorf("Expected 200 on premium removal, got %d", status)
	}

	status, _ = doJSON(t, ts, http.MethodDelete, "/api/facility/premium/VIP-001", "")
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 removing unknown premium plate, got %d", status)
	}
}

func TestSnapshotAndReports(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, ts, http.MethodPost, "/api/facility/spots", `{"floor_number": 1, "row_number": 1, "spot_number": 1}`)
	doJSON(t, ts, http.MethodPost, "/api/facility/entries", `{"floor_number": 1, "row_number": 1, "spot_number": 1, "plate": "ABC-123"}`)
	doJSON(t, ts, http.MethodPost, "/api/facility/exits", `{"floor_number": 1, "row_number": 1, "spot_number": 1, "plate": "ABC-123"}`)

	status, envelope := doJSON(t, ts, http.MethodGet, "/api/facility/", "")
	if status != http.StatusOK || !envelope.Success {
		t.Errorf("Expected snapshot to succeed, got %d %+v", status, envelope)
	}

	status, envelope = doJSON(t, ts, http.MethodGet, "/api/facility/render", "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200 on render, got %d", status)
	}

	status, envelope = doJSON(t, ts, http.MethodGet, "/api/facility/reports/usage", "")
	if status != http.StatusOK || !envelope.Success {
		t.Fatalf("Expected usage report to succeed, got %d %+v", status, envelope)
	}

	status, envelope = doJSON(t, ts, http.MethodGet, "/api/facility/reports/payments", "")
	if status != http.StatusOK || !envelope.Success {
		t.Fatalf("Expected payments report to succeed, got %d %+v", status, envelope)
	}

	status, envelope = doJSON(t, ts, http.MethodPost, "/api/facility/reload", "")
	if status != http.StatusOK || !envelope.Success {
		t.Errorf("Expected reload to succeed, got %d %+v", status, envelope)
	}
}
