package collab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClients(t *testing.T, handler http.Handler) *HTTPClients {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &HTTPClients{
		client:    srv.Client(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		apxURL:    srv.URL,
		vpkgURL:   srv.URL,
		deployURL: srv.URL,
	}
}

func TestHTTPClients_ExecuteAgentCall(t *testing.T) {
	var got map[string]any
	c := testClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execute" {
			t.Errorf("path = %q, want /execute", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))

	out, err := c.ExecuteAgentCall(context.Background(), "staging", map[string]any{"replicas": 3})
	if err != nil {
		t.Fatalf("ExecuteAgentCall: %v", err)
	}
	if out["status"] != "ok" {
		t.Errorf("status = %v, want ok", out["status"])
	}
	if got["target"] != "staging" {
		t.Errorf("target = %v, want staging", got["target"])
	}
	payload, ok := got["payload"].(map[string]any)
	if !ok || payload["replicas"] != float64(3) {
		t.Errorf("payload = %v", got["payload"])
	}
}

func TestHTTPClients_BadStatus(t *testing.T) {
	c := testClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := c.BuildPackage(context.Background(), map[string]any{"name": "svc"})
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("err = %v, want ErrBadStatus", err)
	}
}

func TestHTTPClients_DeployService(t *testing.T) {
	c := testClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["serviceName"] != "billing" {
			t.Errorf("serviceName = %v, want billing", body["serviceName"])
		}
		json.NewEncoder(w).Encode(map[string]any{"endpoint": "https://billing.internal"})
	}))

	out, err := c.DeployService(context.Background(), map[string]any{"artifact": "pkg-1"}, "billing")
	if err != nil {
		t.Fatalf("DeployService: %v", err)
	}
	if out["endpoint"] != "https://billing.internal" {
		t.Errorf("endpoint = %v", out["endpoint"])
	}
}

func TestHTTPClients_Collaborators(t *testing.T) {
	c := NewHTTPClients(slog.New(slog.NewTextHandler(io.Discard, nil)))
	collab := c.Collaborators()
	if collab.ExecuteAgentCall == nil || collab.BuildPackage == nil ||
		collab.DeployService == nil || collab.ObserveText == nil {
		t.Fatal("collaborators must all be bound")
	}
}
