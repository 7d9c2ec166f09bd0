// Package policy decides whether a plan may run a metered operation.
// Every AI endpoint consults Authorize instead of carrying its own check.
package policy

import "github.com/d60-Lab/creation-studio/internal/model"

// Operation names a gated capability.
type Operation string

const (
	OpArticle           Operation = "article"
	OpBlogTitle         Operation = "blog-title"
	OpImage             Operation = "image"
	OpBackgroundRemoval Operation = "background-removal"
	OpObjectRemoval     Operation = "object-removal"
	OpResumeReview      Operation = "resume-review"
)

// Requirement is what an operation asks of the caller's plan.
type Requirement int

const (
	// RequireMetered allows premium callers and free callers under the limit.
	RequireMetered Requirement = iota + 1
	// RequirePremium allows premium callers only.
	RequirePremium
)

var requirements = map[Operation]Requirement{
	OpArticle:           RequireMetered,
	OpBlogTitle:         RequireMetered,
	OpImage:             RequirePremium,
	OpBackgroundRemoval: RequirePremium,
	OpObjectRemoval:     RequirePremium,
	OpResumeReview:      RequirePremium,
}

// RequirementOf returns the requirement registered for op. Unknown operations
// are treated as premium-only.
func RequirementOf(op Operation) Requirement {
	if r, ok := requirements[op]; ok {
		return r
	}
	return RequirePremium
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonFreeLimit       Reason = "free_limit"
	ReasonPremiumRequired Reason = "premium_required"
)

type Decision struct {
	Allowed bool
	Reason  Reason
	// Metered is true when an allowed call must be charged to the free counter.
	Metered bool
}

// Authorize evaluates op for a caller on plan with usage free operations consumed.
func Authorize(op Operation, plan model.Plan, usage, limit int) Decision {
	premium := plan == model.PlanPremium
	switch RequirementOf(op) {
	case RequireMetered:
		if premium {
			return Decision{Allowed: true}
		}
		if usage >= limit {
			return Decision{Reason: ReasonFreeLimit}
		}
		return Decision{Allowed: true, Metered: true}
	default:
		if !premium {
			return Decision{Reason: ReasonPremiumRequired}
		}
		return Decision{Allowed: true}
	}
}
