package auth

import (
	"time"
)

// Claims represents the claims stored in a login token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type Claims struct {
	Username      string `json:"username"`
	UserID        string `json:"user_id"`
	FavoriteGenre string `json:"favorite_genre"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Audience   string    `json:"aud"`
	IssuedAt   time.Time `json:"iat"`
	Expiration time.Time `json:"exp,omitzero"`
	TokenID    string    `json:"jti"`
}
