package mocks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Ensure MockTokenService implements TokenService
var _ driven.TokenService = (*MockTokenService)(nil)

// MockTokenService is a mock implementation of TokenService for testing.
// Tokens are base64-encoded JSON claims without a signature.
// NOT secure - only for testing.
type MockTokenService struct{}

// NewMockTokenService creates a new MockTokenService
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// GenerateToken creates a base64-encoded JSON token from claims
func (m *MockTokenService) GenerateToken(claims *domain.TokenClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseToken decodes a base64-encoded JSON token and returns claims
func (m *MockTokenService) ParseToken(token string) (*domain.TokenClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	var claims domain.TokenClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if claims.IsExpired() {
		return nil, domain.ErrUnauthorized
	}

	return &claims, nil
}
