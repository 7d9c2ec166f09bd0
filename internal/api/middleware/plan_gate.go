package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/policy"
	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/metrics"
	"github.com/d60-Lab/creation-studio/pkg/response"
)

const usageKey = "gate.usage"

type usageCtxKey struct{}

// UsageResolver is satisfied by *service.UsageGate.
type UsageResolver interface {
	Resolve(ctx context.Context, id *auth.Identity) (service.Usage, error)
}

// PlanGate resolves plan and free usage for the authenticated caller and
// stores them on the request. It must run after auth.Middleware.
func PlanGate(gate UsageResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromGin(c)
		if !ok {
			response.Error(c, errcode.Unauthorized("Not authenticated"))
			return
		}
		usage, err := gate.Resolve(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(usageKey, usage)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), usageCtxKey{}, usage))
		c.Next()
	}
}

// UsageFrom returns the snapshot stored by PlanGate.
func UsageFrom(c *gin.Context) (service.Usage, bool) {
	if v, ok := c.Get(usageKey); ok {
		u, ok := v.(service.Usage)
		return u, ok
	}
	u, ok := c.Request.Context().Value(usageCtxKey{}).(service.Usage)
	return u, ok
}

// Authorize rejects the request when the caller's plan does not allow op.
// The ledger reservation in the service still has the final word for
// metered operations.
func Authorize(op policy.Operation, freeLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		usage, ok := UsageFrom(c)
		if !ok {
			response.Error(c, errcode.Unauthorized("Not authenticated"))
			return
		}
		d := policy.Authorize(op, usage.Plan, usage.FreeUsage, freeLimit)
		if !d.Allowed {
			metrics.GateDenied(string(op), string(d.Reason))
			response.Error(c, service.DenialError(d))
			return
		}
		c.Next()
	}
}
