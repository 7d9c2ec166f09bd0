package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const identityKey ctxKey = iota

// GinIdentityKey is where the middleware stores the identity on the gin context.
const GinIdentityKey = "auth.identity"

// Identity 已校验的调用方身份
type Identity struct {
	UserID string
	Plans  []string
	Claims map[string]any
}

// Has reports whether the identity is entitled to plan.
func (i *Identity) Has(plan string) bool {
	if i == nil {
		return false
	}
	for _, p := range i.Plans {
		if strings.EqualFold(p, plan) {
			return true
		}
	}
	return false
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// FromGin returns the identity set by Middleware.
func FromGin(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(GinIdentityKey)
	if !ok {
		return IdentityFromContext(c.Request.Context())
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}
