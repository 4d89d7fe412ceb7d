package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/llm"
)

// Limit applies to chat and suggestion calls per user.
var Limit = ratelimit.Limit{MaxRequests: 20, Window: time.Minute}

const systemPrompt = `You are the assistant for a nurse-sensitive outcomes dashboard demo.
All patients, scores and trends shown in the dashboard are illustrative and synthetic.
Explain what the dashboard shows, how risk levels and trends are derived, and how a
clinical team might use such a tool. Never present output as a diagnosis or clinical
advice, and say so when asked for one. Keep answers concise.`

const suggestionPrompt = `You generate illustrative nursing intervention suggestions for a demo
dashboard. The data is synthetic. Return between three and six suggestions, each with a short
title, a one or two sentence rationale tied to the supplied data, a priority of high, medium or
low, and a care category. These are examples for demonstration, not clinical advice.`

var suggestionSchema = llm.GenerateSchema[SuggestionResponse]("care_suggestions",
	"Illustrative nursing intervention suggestions")

// Limiter is satisfied by *ratelimit.Service.
type Limiter interface {
	Enforce(ctx context.Context, identifier, endpoint string, limit ratelimit.Limit) error
}

type Service struct {
	client  llm.Client
	limiter Limiter
	logger  zerolog.Logger
}

// NewService builds the proxy. client may be nil, in which case every call
// returns ErrUnavailable.
func NewService(client llm.Client, limiter Limiter, logger zerolog.Logger) *Service {
	return &Service{client: client, limiter: limiter, logger: logger}
}

func (s *Service) Available() bool {
	return s.client != nil
}

func (s *Service) Chat(ctx context.Context, req ChatRequest, requester string) (*ChatResponse, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.limiter.Enforce(ctx, requester, "chat", Limit); err != nil {
		return nil, err
	}
	reply, err := s.client.Complete(ctx, systemPrompt, req.Messages)
	if err != nil {
		s.logger.Error().Err(err).Str("requester", requester).Msg("chat completion failed")
		return nil, err
	}
	return &ChatResponse{Reply: reply}, nil
}

func (s *Service) Suggest(ctx context.Context, req SuggestionRequest, requester string) (*SuggestionResponse, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.limiter.Enforce(ctx, requester, "suggestions", Limit); err != nil {
		return nil, err
	}
	var out SuggestionResponse
	if err := s.client.CompleteJSON(ctx, suggestionPrompt, buildPrompt(req), suggestionSchema, &out); err != nil {
		s.logger.Error().Err(err).Str("requester", requester).Msg("suggestion generation failed")
		return nil, err
	}
	out.normalize()
	return &out, nil
}

func buildPrompt(req SuggestionRequest) string {
	var b strings.Builder
	section := func(title string, raw json.RawMessage) {
		if len(raw) == 0 || string(raw) == "null" {
			return
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", title, strings.TrimSpace(string(raw)))
	}
	section("Risk profile", req.RiskProfile)
	section("Vital signs", req.VitalSigns)
	section("Trends", req.Trends)
	section("Patient info", req.PatientInfo)
	b.WriteString("Suggest interventions for this patient.")
	return b.String()
}
