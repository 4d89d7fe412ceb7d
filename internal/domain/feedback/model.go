package feedback

import (
	"time"

	"github.com/google/uuid"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

// Categories accepted for feedback entries.
var Categories = []string{"general", "usability", "clinical", "bug", "feature"}

const DefaultCategory = "general"

type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Page      string    `json:"page,omitempty"`
	Rating    int       `json:"rating"`
	Category  string    `json:"category"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubmitRequest struct {
	Page     string `json:"page"`
	Rating   int    `json:"rating"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
}

func (r *SubmitRequest) normalize() {
	r.Page = validate.Text(r.Page)
	r.Comment = validate.Text(r.Comment)
	if r.Category == "" {
		r.Category = DefaultCategory
	}
}

func (r SubmitRequest) validate() error {
	return validate.Collect(
		validate.Range("rating", r.Rating, 1, 5),
		validate.OneOf("category", r.Category, Categories...),
		validate.MaxLength("page", r.Page, 255),
		validate.MaxLength("comment", r.Comment, 2000),
	)
}

// Summary aggregates every stored entry.
type Summary struct {
	Count         int            `json:"count"`
	AverageRating float64        `json:"averageRating"`
	ByCategory    map[string]int `json:"byCategory"`
}
