package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/model"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/logger"
)

// Usage 请求级的套餐与免费额度快照
type Usage struct {
	Plan      model.Plan
	FreeUsage int
}

func (u Usage) Premium() bool { return u.Plan == model.PlanPremium }

// UsageGate resolves the caller's plan and free usage counter.
type UsageGate struct {
	ledger  repository.UsageLedger
	timeout time.Duration
}

func NewUsageGate(ledger repository.UsageLedger, timeout time.Duration) *UsageGate {
	return &UsageGate{ledger: ledger, timeout: timeout}
}

// Resolve derives the plan from the identity's entitlements and loads the
// counter. A free caller without a counter gets one initialized to 0; a
// premium caller without one is reported as 0 and nothing is written.
func (g *UsageGate) Resolve(ctx context.Context, id *auth.Identity) (Usage, error) {
	if id == nil || id.UserID == "" {
		return Usage{}, errcode.Unauthorized("Not authenticated")
	}
	plan := model.PlanFree
	if id.Has(string(model.PlanPremium)) {
		plan = model.PlanPremium
	}

	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	n, found, err := g.ledger.Get(ctx, id.UserID)
	if err != nil {
		return Usage{}, identityError(err)
	}
	if found {
		return Usage{Plan: plan, FreeUsage: n}, nil
	}
	if plan == model.PlanPremium {
		return Usage{Plan: plan}, nil
	}

	n, err = g.ledger.Init(ctx, id.UserID)
	if err != nil {
		return Usage{}, identityError(err)
	}
	logger.L().Debug("usage counter initialized", zap.String("user_id", id.UserID), zap.Int("free_usage", n))
	return Usage{Plan: plan, FreeUsage: n}, nil
}

func identityError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errcode.Timeout(err)
	}
	return errcode.Identity(err)
}

// withTimeout treats a non-positive d as "no extra bound".
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
