// Package attestation records signed patent attestations, grouped into named
// collections that admins can export as spreadsheets.
package attestation

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

var (
	ErrGroupNotFound       = errors.New("attestation group not found")
	ErrAttestationNotFound = errors.New("attestation not found")
)

type Group struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	CreatedBy        string    `json:"createdBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	AttestationCount int       `json:"attestationCount"`
}

type Attestation struct {
	ID              uuid.UUID `json:"id"`
	GroupID         uuid.UUID `json:"groupId"`
	AttestorName    string    `json:"attestorName"`
	AttestorEmail   string    `json:"attestorEmail"`
	Organization    string    `json:"organization,omitempty"`
	PatentReference string    `json:"patentReference,omitempty"`
	Statement       string    `json:"statement,omitempty"`
	Signature       string    `json:"signature"`
	Acknowledged    bool      `json:"acknowledged"`
	IPAddress       string    `json:"ipAddress,omitempty"`
	UserAgent       string    `json:"userAgent,omitempty"`
	AttestedAt      time.Time `json:"attestedAt"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *CreateGroupRequest) normalize() {
	r.Name = validate.Text(r.Name)
	r.Description = validate.Text(r.Description)
}

func (r CreateGroupRequest) validate() error {
	return validate.Collect(
		validate.Length("name", r.Name, 1, 200),
		validate.MaxLength("description", r.Description, 2000),
	)
}

type AttestRequest struct {
	AttestorName    string `json:"attestorName"`
	AttestorEmail   string `json:"attestorEmail"`
	Organization    string `json:"organization"`
	PatentReference string `json:"patentReference"`
	Statement       string `json:"statement"`
	Signature       string `json:"signature"`
	Acknowledged    bool   `json:"acknowledged"`
}

func (r *AttestRequest) normalize() {
	r.AttestorName = validate.Text(r.AttestorName)
	r.AttestorEmail = strings.ToLower(strings.TrimSpace(r.AttestorEmail))
	r.Organization = validate.Text(r.Organization)
	r.PatentReference = validate.Text(r.PatentReference)
	r.Statement = validate.Text(r.Statement)
	r.Signature = validate.Text(r.Signature)
}

func (r AttestRequest) validate() error {
	var ack error
	if !r.Acknowledged {
		ack = &validate.FieldError{Field: "acknowledged", Message: "must be true"}
	}
	return validate.Collect(
		validate.Length("attestorName", r.AttestorName, 1, 100),
		validate.Email("attestorEmail", r.AttestorEmail),
		validate.MaxLength("organization", r.Organization, 200),
		validate.MaxLength("patentReference", r.PatentReference, 200),
		validate.MaxLength("statement", r.Statement, 5000),
		validate.Length("signature", r.Signature, 1, 200),
		ack,
	)
}

// Client describes where an attestation was submitted from.
type Client struct {
	IPAddress string
	UserAgent string
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
