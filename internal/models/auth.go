package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaim is the payload the client asks to be signed.
type IdentityClaim struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty" validate:"max=200"`
}

// JWTClaims represents the signed token payload.
type JWTClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the claim the token was issued for.
func (c *JWTClaims) Identity() IdentityClaim {
	return IdentityClaim{Email: c.Email, Name: c.Name}
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	Token string `json:"token"`
}
