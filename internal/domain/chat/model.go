// Package chat proxies the dashboard assistant and the care-suggestion
// generator to an upstream LLM. Nothing it returns is clinical advice.
package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/llm"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

// ErrUnavailable means no upstream credentials are configured.
var ErrUnavailable = errors.New("AI assistant is not configured")

const (
	MaxMessages      = 50
	MaxMessageLength = 4000
)

type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
}

func (r ChatRequest) validate() error {
	if len(r.Messages) == 0 || len(r.Messages) > MaxMessages {
		return validate.Collect(validate.Range("messages", len(r.Messages), 1, MaxMessages))
	}
	var errs []error
	for _, m := range r.Messages {
		errs = append(errs,
			validate.OneOf("role", m.Role, llm.RoleUser, llm.RoleAssistant),
			validate.Length("content", m.Content, 1, MaxMessageLength),
		)
	}
	return validate.Collect(errs...)
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// SuggestionRequest carries the patient context as free-form objects.
type SuggestionRequest struct {
	RiskProfile json.RawMessage `json:"riskProfile"`
	VitalSigns  json.RawMessage `json:"vitalSigns,omitempty"`
	Trends      json.RawMessage `json:"trends,omitempty"`
	PatientInfo json.RawMessage `json:"patientInfo,omitempty"`
}

func (r SuggestionRequest) validate() error {
	var riskErr error
	if len(bytes.TrimSpace(r.RiskProfile)) == 0 || string(bytes.TrimSpace(r.RiskProfile)) == "null" {
		riskErr = &validate.FieldError{Field: "riskProfile", Message: "is required"}
	} else {
		riskErr = objectField("riskProfile", r.RiskProfile)
	}
	return validate.Collect(
		riskErr,
		objectField("vitalSigns", r.VitalSigns),
		objectField("trends", r.Trends),
		objectField("patientInfo", r.PatientInfo),
	)
}

func objectField(name string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	var obj map[string]interface{}
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &obj) != nil {
		return &validate.FieldError{Field: name, Message: "must be an object"}
	}
	return nil
}

type Suggestion struct {
	Title     string `json:"title" jsonschema:"description=Short imperative title"`
	Rationale string `json:"rationale" jsonschema:"description=Why this helps given the supplied data"`
	Priority  string `json:"priority" jsonschema:"enum=high,enum=medium,enum=low"`
	Category  string `json:"category" jsonschema:"description=Care area such as mobility or skin integrity"`
}

type SuggestionResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

func (r *SuggestionResponse) normalize() {
	out := r.Suggestions[:0]
	for _, s := range r.Suggestions {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			continue
		}
		s.Priority = strings.ToLower(strings.TrimSpace(s.Priority))
		switch s.Priority {
		case "high", "medium", "low":
		default:
			s.Priority = "medium"
		}
		out = append(out, s)
	}
	r.Suggestions = out
	if r.Suggestions == nil {
		r.Suggestions = []Suggestion{}
	}
}
