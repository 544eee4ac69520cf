package dav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "text/calendar; charset=utf-8" {
			t.Errorf("unexpected content-type: %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("If-Match") != "" || r.Header.Get("If-None-Match") != "" {
			t.Error("unconditional Put should not set conditional headers")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Put(context.Background(), "/cal/a.ics", "text/calendar; charset=utf-8", []byte("BEGIN:VCALENDAR\nEND:VCALENDAR"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestPutIfMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Match") != `"abc"` {
			t.Errorf("If-Match = %q, want \"abc\"", r.Header.Get("If-Match"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.PutIfMatch(context.Background(), "/cal/a.ics", "text/calendar", []byte("data"), `"abc"`)
	if err != nil {
		t.Fatalf("PutIfMatch() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
}

func TestPutIfNoneMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "*" {
			t.Errorf("If-None-Match = %q, want *", r.Header.Get("If-None-Match"))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.PutIfNoneMatch(context.Background(), "/cal/a.ics", "text/calendar", []byte("data"))
	if err != nil {
		t.Fatalf("PutIfNoneMatch() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
}

func TestDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if r.Header.Get("If-Match") != "" {
			t.Error("unconditional Delete should not set If-Match")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Delete(context.Background(), "/cal/a.ics")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
}

func TestDeleteIfMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Match") != `"etag"` {
			t.Errorf("If-Match = %q, want \"etag\"", r.Header.Get("If-Match"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.DeleteIfMatch(context.Background(), "/cal/a.ics", `"etag"`)
	if err != nil {
		t.Fatalf("DeleteIfMatch() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
}

func TestCopyAndMove(t *testing.T) {
	var gotMethod, gotDestination, gotOverwrite string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotDestination = r.Header.Get("Destination")
		gotOverwrite = r.Header.Get("Overwrite")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")

	resp, err := client.Copy(context.Background(), "/cal/a.ics", "/cal/b.ics", true)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	_ = resp.Body.Close()
	if gotMethod != "COPY" {
		t.Errorf("method = %q, want COPY", gotMethod)
	}
	if gotOverwrite != "T" {
		t.Errorf("Overwrite = %q, want T", gotOverwrite)
	}
	if gotDestination == "" {
		t.Error("expected a Destination header")
	}

	resp2, err := client.Move(context.Background(), "/cal/a.ics", "/cal/c.ics", false)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	_ = resp2.Body.Close()
	if gotMethod != "MOVE" {
		t.Errorf("method = %q, want MOVE", gotMethod)
	}
	if gotOverwrite != "F" {
		t.Errorf("Overwrite = %q, want F", gotOverwrite)
	}
}

func TestMkcalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "MKCALENDAR" {
			t.Errorf("expected MKCALENDAR, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("expected a non-empty MKCALENDAR body")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Mkcalendar(context.Background(), "/cal/new/", "New Calendar", "a new one")
	if err != nil {
		t.Fatalf("Mkcalendar() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestMkcalendarFallsBackToMkcol(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == "MKCALENDAR" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Mkcalendar(context.Background(), "/cal/new/", "New Calendar", "")
	if err != nil {
		t.Fatalf("Mkcalendar() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if len(methods) != 2 || methods[0] != "MKCALENDAR" || methods[1] != "MKCOL" {
		t.Errorf("expected MKCALENDAR then MKCOL fallback, got %v", methods)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestMkaddressbook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "MKADDRESSBOOK" {
			t.Errorf("expected MKADDRESSBOOK, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("expected a non-empty MKADDRESSBOOK body")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Mkaddressbook(context.Background(), "/card/new/", "New Addressbook", "a new one")
	if err != nil {
		t.Fatalf("Mkaddressbook() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestMkaddressbookFallsBackToMkcol(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == "MKADDRESSBOOK" {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "user", "pass")
	resp, err := client.Mkaddressbook(context.Background(), "/card/new/", "New Addressbook", "")
	if err != nil {
		t.Fatalf("Mkaddressbook() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if len(methods) != 2 || methods[0] != "MKADDRESSBOOK" || methods[1] != "MKCOL" {
		t.Errorf("expected MKADDRESSBOOK then MKCOL fallback, got %v", methods)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestPutIfMatchRejectsEmptyETag(t *testing.T) {
	client := NewClient("http://example.com", "user", "pass")
	_, err := client.PutIfMatch(context.Background(), "/cal/a.ics", "text/calendar", []byte("data"), "")
	if err == nil {
		t.Fatal("expected an error for empty etag, got nil")
	}
	if !IsValidationError(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestDeleteIfMatchRejectsEmptyETag(t *testing.T) {
	client := NewClient("http://example.com", "user", "pass")
	_, err := client.DeleteIfMatch(context.Background(), "/cal/a.ics", "")
	if err == nil {
		t.Fatal("expected an error for empty etag, got nil")
	}
	if !IsValidationError(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}
