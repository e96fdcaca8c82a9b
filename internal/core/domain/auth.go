package domain

import "time"

// TokenClaims represents the claims carried by an API bearer token
type TokenClaims struct {
	Subject   string `json:"sub"`
	Scope     string `json:"scope,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// NewTokenClaims issues claims for subject valid for ttl.
func NewTokenClaims(subject, scope string, ttl time.Duration) *TokenClaims {
	now := time.Now()
	return &TokenClaims{
		Subject:   subject,
		Scope:     scope,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

// IsExpired returns true if the claims are past their expiry
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}

// AuthContext holds the authenticated caller for a request
type AuthContext struct {
	Subject string
	Scope   string
}
