package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is the organisation a user transfers on behalf of. Outgoing
// transfers require the user to present the company's pre-shared secret;
// only its HMAC digest is stored.
type Company struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AuthDigest string    `json:"-"` // HMAC-SHA256 of the pre-shared secret
	CreatedAt  time.Time `json:"created_at"`
}
