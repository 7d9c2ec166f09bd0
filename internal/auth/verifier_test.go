package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/creation-studio/config"
)

const testKID = "session-key-1"

// serveJWKS publishes pub under kid the way a hosted identity provider does.
func serveJWKS(t *testing.T, kid string, pub *rsa.PublicKey) string {
	t.Helper()
	enc := base64.RawURLEncoding
	body, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"use": "sig",
			"alg": "RS256",
			"n":   enc.EncodeToString(pub.N.Bytes()),
			"e":   enc.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func newJWKSVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v, err := NewVerifier(config.AuthConfig{
		JWKSURL:  serveJWKS(t, testKID, &key.PublicKey),
		Issuer:   "https://id.example.test",
		Audience: "creation-studio",
	})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v, key
}

func TestVerifierAcceptsProviderSignedToken(t *testing.T) {
	v, key := newJWKSVerifier(t)

	id, err := v.Verify(signRS256(t, key, testKID, validClaims("user_2abc", []any{"premium"})))
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", id.UserID)
	assert.True(t, id.Has("premium"))
}

func TestVerifierJWKSRejects(t *testing.T) {
	v, key := newJWKSVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	expired := validClaims("u1", nil)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"foreign key", signRS256(t, other, testKID, validClaims("u1", nil))},
		{"unknown kid", signRS256(t, key, "rotated-away", validClaims("u1", nil))},
		{"expired", signRS256(t, key, testKID, expired)},
		{"shared secret token", signToken(t, testSecret, validClaims("u1", nil))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestSecretVerifierRejectsRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = newTestVerifier(t).Verify(signRS256(t, key, testKID, validClaims("u1", nil)))
	assert.Error(t, err)
}
