package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of OIDC access token claims the navigator relies on.
// The registered claims carry sub, iss, aud, exp and iat.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"` // "anon" tokens are rejected
}

// GetUserID returns the user ID from the JWT subject claim.
// This is the primary identifier for the authenticated user.
func (c *Claims) GetUserID() string {
	return c.Subject
}
