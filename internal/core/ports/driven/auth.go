package driven

import "github.com/funayamateppei/local-rag-comparator/internal/core/domain"

// TokenService signs and verifies API bearer tokens.
type TokenService interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
