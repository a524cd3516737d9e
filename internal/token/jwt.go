// Package token verifies the bearer credentials presented on connect.
//
// Credential issuance lives in the accounts service; this side only needs
// Verify. Generate exists for tests and local development.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Claims are the JWT claims custodia expects: the principal id in the
// registered subject plus a role claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens issued by the accounts service.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// Verify parses and validates a token and returns the identity it carries.
func (v *Verifier) Verify(tokenString string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil || subject == uuid.Nil {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}

	return domain.Identity{ID: subject, Role: role}, nil
}

// Generate signs a token for the given identity. Used by tests and the local
// development environment; production tokens come from the accounts service.
func (v *Verifier) Generate(ident domain.Identity, expiresIn time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(ident.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			ID:        uuid.NewString(),
		},
	})
	return t.SignedString(v.signingKey)
}
