package roles

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("role assignment not found")

// Assignment is one row of user_roles.
type Assignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// GrantRequest is the body of POST /roles.
type GrantRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
