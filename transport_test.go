package dav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello world"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	data, resp, err := client.Get(context.Background(), "/foo.ics")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if string(data) != "hello world" {
		t.Errorf("Get() data = %q, want %q", data, "hello world")
	}
}

func TestGetNetworkError(t *testing.T) {
	client := NewClient("http://[::1]:0", "user", "pass")
	_, _, err := client.Get(context.Background(), "/foo.ics")
	if err == nil {
		t.Fatal("expected network error")
	}
	if !IsNetworkError(err) {
		t.Errorf("expected network error classification, got %v", err)
	}
}

func TestHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Head(context.Background(), "/foo.ics")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.Header.Get("ETag") != `"abc"` {
		t.Errorf("expected ETag header to survive, got %q", resp.Header.Get("ETag"))
	}
}

func TestOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			t.Errorf("expected OPTIONS, got %s", r.Method)
		}
		w.Header().Set("DAV", "1, 2, extended-mkcol, calendar-access")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Options(context.Background(), "/")
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
}

func TestSupportsWebDAVSync(t *testing.T) {
	tests := []struct {
		name      string
		davHeader string
		want      bool
	}{
		{name: "extended-mkcol token", davHeader: "1, 2, extended-mkcol", want: false},
		{name: "sync-collection substring", davHeader: "1, 2, 3, access-control, sync-collection", want: true},
		{name: "no matching token", davHeader: "1, 2, access-control", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("DAV", tt.davHeader)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := NewClient(server.URL, "user", "pass")
			got, err := client.SupportsWebDAVSync(context.Background(), "/")
			if err != nil {
				t.Fatalf("SupportsWebDAVSync() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SupportsWebDAVSync() = %v, want %v", got, tt.want)
			}
		})
	}
}
