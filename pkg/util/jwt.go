package util

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a session token when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionClaims is the claim set carried by a session token.
// Subject holds the account id.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTOptions configures signing and verification of session tokens.
type JWTOptions struct {
	Secret   string
	TTL      time.Duration
	Issuer   string
	Audience string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func (o JWTOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o JWTOptions) ttl() time.Duration {
	if o.TTL <= 0 {
		return DefaultSessionTTL
	}
	return o.TTL
}

// GenerateJWT creates an HS256 token for the given account.
func GenerateJWT(userID, email string, opts JWTOptions) (string, time.Time, error) {
	if opts.Secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}

	issuedAt := opts.now()
	expiresAt := issuedAt.Add(opts.ttl())
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if opts.Issuer != "" {
		claims.Issuer = opts.Issuer
	}
	if opts.Audience != "" {
		claims.Audience = jwt.ClaimStrings{opts.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(opts.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT validates the token signature, algorithm, expiry, issuer and
// audience and returns its claims. Subject and email must be present.
func ParseJWT(tokenStr string, opts JWTOptions) (*SessionClaims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(opts.now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(opts.Secret), nil
	}, parserOpts...)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// ExtractToken returns the bearer token from the Authorization header, or "".
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Fields(auth)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}
