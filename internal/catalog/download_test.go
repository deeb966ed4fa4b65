package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MichaelYagi/plex-sub-downloader/internal/apperrors"
)

// downloadHandler wires /login, /download and the one-time link endpoint.
type downloadHandler struct {
	mux           *http.ServeMux
	loginCalls    int
	downloadCalls int
}

func newDownloadServer(t *testing.T, downloadStatus func(call int) int, remaining *int) (*downloadHandler, *httptest.Server) {
	t.Helper()
	h := &downloadHandler{mux: http.NewServeMux()}
	server := httptest.NewServer(h.mux)
	t.Cleanup(server.Close)

	h.mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		h.loginCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "fresh-token"})
	})
	h.mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		h.downloadCalls++
		status := downloadStatus(h.downloadCalls)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		body := map[string]any{"link": server.URL + "/file"}
		if remaining != nil {
			body["remaining"] = *remaining
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	h.mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("subtitle bytes"))
	})
	return h, server
}

func TestClient_Download(t *testing.T) {
	remaining := 17
	_, server := newDownloadServer(t, func(int) int { return http.StatusOK }, &remaining)

	c := newTestClient(server.URL)
	c.token = "existing-token"

	data, err := c.Download(context.Background(), 42)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "subtitle bytes" {
		t.Errorf("Unexpected payload %q", data)
	}
	if got, ok := c.RemainingQuota(); !ok || got != 17 {
		t.Errorf("RemainingQuota() = %d, %v; want 17, true", got, ok)
	}
}

func TestClient_Download_LazyLogin(t *testing.T) {
	h, server := newDownloadServer(t, func(int) int { return http.StatusOK }, nil)

	c := newTestClient(server.URL)
	if _, err := c.Download(context.Background(), 42); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if h.loginCalls != 1 {
		t.Errorf("Expected lazy login before first download, got %d logins", h.loginCalls)
	}
}

func TestClient_Download_ReauthenticatesExactlyOnce(t *testing.T) {
	h, server := newDownloadServer(t, func(int) int { return http.StatusUnauthorized }, nil)

	c := newTestClient(server.URL)
	c.token = "stale-token"

	_, err := c.Download(context.Background(), 42)
	if !errors.Is(err, &apperrors.ErrAuthentication{}) {
		t.Fatalf("Expected authentication error after persistent 401, got %v", err)
	}
	if h.downloadCalls != 2 {
		t.Errorf("Expected exactly 2 download attempts (one retry), got %d", h.downloadCalls)
	}
	if h.loginCalls != 1 {
		t.Errorf("Expected exactly 1 re-login, got %d", h.loginCalls)
	}
}

func TestClient_Download_RecoversAfterReauthentication(t *testing.T) {
	h, server := newDownloadServer(t, func(call int) int {
		if call == 1 {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	}, nil)

	c := newTestClient(server.URL)
	c.token = "stale-token"

	data, err := c.Download(context.Background(), 42)
	if err != nil {
		t.Fatalf("Download after re-login: %v", err)
	}
	if string(data) != "subtitle bytes" {
		t.Errorf("Unexpected payload %q", data)
	}
	if h.loginCalls != 1 || h.downloadCalls != 2 {
		t.Errorf("Expected 1 login and 2 download attempts, got %d/%d", h.loginCalls, h.downloadCalls)
	}
}

func TestClient_Download_QuotaFailFast(t *testing.T) {
	h, server := newDownloadServer(t, func(int) int { return http.StatusOK }, nil)

	c := newTestClient(server.URL)
	c.token = "token"
	c.setRemaining(0)

	_, err := c.Download(context.Background(), 42)
	if !errors.Is(err, &apperrors.ErrQuotaExhausted{}) {
		t.Fatalf("Expected quota error, got %v", err)
	}
	if h.downloadCalls != 0 {
		t.Errorf("Quota fail-fast must not touch the network, got %d calls", h.downloadCalls)
	}
}

func TestClient_Download_Unavailable(t *testing.T) {
	_, server := newDownloadServer(t, func(int) int { return http.StatusNotAcceptable }, nil)

	c := newTestClient(server.URL)
	c.token = "token"

	_, err := c.Download(context.Background(), 42)
	if !errors.Is(err, &apperrors.ErrDownloadUnavailable{}) {
		t.Fatalf("Expected unavailable error for 406, got %v", err)
	}
}

func TestSleepWithContext_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Minute); err == nil {
		t.Fatal("Expected context error")
	}
}
