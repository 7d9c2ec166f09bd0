// Package auth verifies bearer JWTs issued by the external identity service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/creation-studio/config"
)

const defaultLeeway = 30 * time.Second

var (
	ErrMissingSubject = errors.New("token missing sub")
	ErrInvalidToken   = errors.New("invalid token")
)

// Verifier validates access tokens and extracts the caller identity.
// With a JWKS URL it accepts RS* tokens signed by the identity provider;
// otherwise HS* tokens signed with the shared secret.
type Verifier struct {
	keyfunc    jwt.Keyfunc
	plansClaim string
	parser     *jwt.Parser
	stop       context.CancelFunc
}

// NewVerifier builds a verifier from the auth section of the config.
// Issuer and audience are only enforced when configured.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("auth secret or jwks url must be set")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}

	v := &Verifier{plansClaim: cfg.PlansClaim, stop: func() {}}
	if v.plansClaim == "" {
		v.plansClaim = "plans"
	}

	var methods []string
	if cfg.JWKSURL != "" {
		// 后台刷新 JWKS，Close 时停止
		ctx, cancel := context.WithCancel(context.Background())
		kf, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("init JWKS keyfunc: %w", err)
		}
		v.keyfunc = kf.Keyfunc
		v.stop = cancel
		methods = []string{
			jwt.SigningMethodRS256.Name,
			jwt.SigningMethodRS384.Name,
			jwt.SigningMethodRS512.Name,
		}
	} else {
		secret := []byte(cfg.Secret)
		v.keyfunc = func(*jwt.Token) (any, error) { return secret, nil }
		methods = []string{
			jwt.SigningMethodHS256.Name,
			jwt.SigningMethodHS384.Name,
			jwt.SigningMethodHS512.Name,
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(leeway),
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Close stops the background JWKS refresh, if any.
func (v *Verifier) Close() {
	v.stop()
}

// Verify parses and validates a token, returning the identity it carries.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims.GetSubject()
	if strings.TrimSpace(sub) == "" {
		return nil, ErrMissingSubject
	}
	return &Identity{
		UserID: sub,
		Plans:  readPlans(claims[v.plansClaim]),
		Claims: claims,
	}, nil
}

// readPlans accepts a list claim or a single string with space or comma separators.
func readPlans(raw any) []string {
	switch val := raw.(type) {
	case string:
		return strings.FieldsFunc(val, func(r rune) bool { return r == ' ' || r == ',' })
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	default:
		return nil
	}
}
