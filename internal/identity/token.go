package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// Verifier extracts the owner identifier (the `sub` claim) from a session
// JWT. With a JWKS configured, tokens must carry a valid RS256 signature;
// without one the token is decoded unverified, which is only acceptable for
// local single-user setups where the session file is trusted.
type Verifier struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	parser   *jwt.Parser
}

// NewVerifier creates a Verifier. jwksURL may be empty to disable signature
// verification. audience and issuer are checked only when non-empty.
func NewVerifier(jwksURL, audience, issuer string) (*Verifier, error) {
	v := &Verifier{
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
	}

	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval: 15 * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching JWKS: %w", err)
		}
		v.jwks = jwks
	}

	return v, nil
}

// Close releases the background JWKS refresh, if any.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// OwnerID validates the token and returns its subject.
func (v *Verifier) OwnerID(token string) (string, error) {
	var (
		parsed *jwt.Token
		err    error
	)
	if v.jwks != nil {
		parsed, err = v.parser.Parse(token, v.jwks.Keyfunc)
	} else {
		parsed, _, err = jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	}
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now, false) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, false) {
		return "", errors.New("invalid audience")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, false) {
		return "", errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}
