package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newStreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/acquire", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "stream-1", "source": "display"})
	})
	mux.HandleFunc("/clone", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":        req.ID + "-clone",
			"source":    "display",
			"listeners": []string{"inactive", "ended"},
		})
	})
	return httptest.NewServer(mux)
}

func TestHTTPProvider_AcquireAndClone(t *testing.T) {
	srv := newStreamServer(t)
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL, 5*time.Second)

	h, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if h.ID != "stream-1" {
		t.Errorf("handle id = %q", h.ID)
	}

	clone, err := p.Clone(context.Background(), h)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.ID != "stream-1-clone" {
		t.Errorf("clone id = %q", clone.ID)
	}
	if len(clone.Listeners) != 2 {
		t.Errorf("listeners = %v", clone.Listeners)
	}
}

func TestHTTPProvider_CloneWithoutHandle(t *testing.T) {
	srv := newStreamServer(t)
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL, 5*time.Second)
	if _, err := p.Clone(context.Background(), nil); err == nil {
		t.Error("expected error cloning a nil handle")
	}
}

func TestHTTPProvider_AcquireFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capture device available", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL, 5*time.Second)
	if _, err := p.Acquire(context.Background()); err == nil {
		t.Error("expected error on 503")
	}
}
