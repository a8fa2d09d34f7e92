// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrNotAccessToken = errors.New("token is not an access token")
	ErrNotAdminToken  = errors.New("token does not carry an admin role")
)

// Verifier accepts only dashboard access tokens: RS256 signed by the
// configured key, issued for this service's audience, unexpired, with the
// access purpose and an admin role.
type Verifier struct {
	pub    *rsa.PublicKey
	parser *jwt.Parser
}

func NewVerifier(pub *rsa.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{
		pub: pub,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify returns the claims of a dashboard access token. Every failure wraps
// ErrTokenInvalid, ErrNotAccessToken or ErrNotAdminToken.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.pub == nil {
		return nil, fmt.Errorf("%w: verifier has no public key", ErrTokenInvalid)
	}

	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.pub, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Purpose != PurposeAccess {
		return nil, ErrNotAccessToken
	}
	if claims.AdminID <= 0 || !claims.IsAdmin() {
		return nil, ErrNotAdminToken
	}

	return claims, nil
}
