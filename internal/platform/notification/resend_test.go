package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResendSender_SendEmail(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer re_key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_key", "Dashboard <noreply@example.com>")
	err := s.SendEmail(context.Background(), Email{To: "a@example.com", Subject: "Hi", Text: "body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.From != "Dashboard <noreply@example.com>" || len(got.To) != 1 || got.To[0] != "a@example.com" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestResendSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_key", "noreply@example.com")
	err := s.SendEmail(context.Background(), Email{To: "bad", Subject: "Hi", Text: "body"})
	if err == nil || !strings.Contains(err.Error(), "Invalid to field") {
		t.Fatalf("expected API error message, got %v", err)
	}
}

func TestResendSender_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_2"}`))
	}))
	defer srv.Close()

	s := NewResendSender(srv.URL, "re_key", "noreply@example.com")
	if err := s.SendEmail(context.Background(), Email{To: "a@example.com", Subject: "Hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
