package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/llm"
)

func chatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_Chat(t *testing.T) {
	h := NewHandler(newTestService(&fakeLLM{reply: "hello"}))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(chatRequest(`{"messages":[{"role":"user","content":"hi"}]}`), rec)

	if err := h.Chat(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp ChatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Reply != "hello" {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
}

func TestHandler_ChatErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		client  llm.Client
		body    string
		code    int
		message string
	}{
		{"no key", nil, `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusServiceUnavailable, ErrUnavailable.Error()},
		{"invalid", &fakeLLM{}, `{"messages":[]}`, http.StatusBadRequest, ""},
		{"upstream 429", &fakeLLM{err: fmt.Errorf("%w: x", llm.ErrRateLimited)},
			`{"messages":[{"role":"user","content":"hi"}]}`, http.StatusTooManyRequests, "Rate limits exceeded, please try again later."},
		{"upstream 402", &fakeLLM{err: fmt.Errorf("%w: x", llm.ErrPaymentRequired)},
			`{"messages":[{"role":"user","content":"hi"}]}`, http.StatusPaymentRequired, "Payment required, please add funds."},
		{"upstream other", &fakeLLM{err: errors.New("boom")},
			`{"messages":[{"role":"user","content":"hi"}]}`, http.StatusInternalServerError, "AI service error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(newTestService(tc.client))
			err := h.Chat(echo.New().NewContext(chatRequest(tc.body), httptest.NewRecorder()))
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tc.code {
				t.Fatalf("expected %d, got %v", tc.code, err)
			}
			if tc.message != "" && he.Message != tc.message {
				t.Errorf("expected message %q, got %v", tc.message, he.Message)
			}
		})
	}
}

func TestHandler_ChatLocalRateLimit(t *testing.T) {
	h := NewHandler(newTestService(&fakeLLM{reply: "ok"}))
	e := echo.New()
	var err error
	var rec *httptest.ResponseRecorder
	for i := 0; i < 21; i++ {
		req := chatRequest(`{"messages":[{"role":"user","content":"hi"}]}`)
		req.RemoteAddr = "192.0.2.4:1000"
		rec = httptest.NewRecorder()
		err = h.Chat(e.NewContext(req, rec))
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Errorf("expected Retry-After 30, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestHandler_Suggest(t *testing.T) {
	h := NewHandler(newTestService(&fakeLLM{structured: `{"suggestions":[{"title":"Rounding","rationale":"r","priority":"low","category":"c"}]}`}))
	req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader(`{"riskProfile":{"falls":60}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Suggest(echo.New().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp SuggestionResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Title != "Rounding" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandler_SuggestUnavailable(t *testing.T) {
	h := NewHandler(newTestService(nil))
	req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.Suggest(echo.New().NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}
