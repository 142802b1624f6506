package util

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() JWTOptions {
	return JWTOptions{Secret: "super-secret", Issuer: "projectsmanager", Audience: "projectsmanager-clients"}
}

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	tok, exp, err := GenerateJWT("user-123", "a@example.com", opts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), exp, 5*time.Second)

	claims, err := ParseJWT(tok, opts)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "projectsmanager", claims.Issuer)
}

func TestParseJWT_ExpiresAfterSevenDays(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	opts := testOptions()
	opts.Now = func() time.Time { return issued }

	tok, _, err := GenerateJWT("u1", "u1@example.com", opts)
	require.NoError(t, err)

	opts.Now = func() time.Time { return issued.Add(7*24*time.Hour - time.Minute) }
	_, err = ParseJWT(tok, opts)
	require.NoError(t, err)

	opts.Now = func() time.Time { return issued.Add(7*24*time.Hour + time.Minute) }
	_, err = ParseJWT(tok, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestParseJWT_Rejects(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	valid, _, err := GenerateJWT("u2", "u2@example.com", opts)
	require.NoError(t, err)

	wrongSecret := opts
	wrongSecret.Secret = "other-secret"

	wrongAudience := opts
	wrongAudience.Audience = "someone-else"

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Email: "x@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    opts.Issuer,
			Audience:  jwt.ClaimStrings{opts.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noSubjectStr, err := noSubject.SignedString([]byte(opts.Secret))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		Email: "x@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "u3",
			Issuer:   opts.Issuer,
			Audience: jwt.ClaimStrings{opts.Audience},
		},
	})
	noExpiryStr, err := noExpiry.SignedString([]byte(opts.Secret))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		Email: "x@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u4",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsignedStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		opts  JWTOptions
	}{
		{"wrong secret", valid, wrongSecret},
		{"wrong audience", valid, wrongAudience},
		{"tampered payload", valid[:len(valid)-2] + "xx", opts},
		{"malformed", "not.a.jwt", opts},
		{"missing subject", noSubjectStr, opts},
		{"missing expiry", noExpiryStr, opts},
		{"alg none", unsignedStr, opts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWT(tt.token, tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestGenerateJWT_EmptySecret(t *testing.T) {
	_, _, err := GenerateJWT("u", "u@example.com", JWTOptions{})
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, ExtractToken(r), "header %q", tt.header)
	}
}
