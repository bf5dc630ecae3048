package engine

import (
	"context"

	"github.com/prism-engine/prism/pkg/ratelimit"
)

// Metered wraps an engine whose backend is a metered external service
// with a daily request budget. Each calculation consumes one unit of
// the budget; failed calculations refund it. When only the reserved
// buffer remains the wrapper refuses with a throttled error instead of
// calling the backend.
//
// Cache hits never reach Calculate, so served-from-cache results do not
// consume budget.
type Metered struct {
	inner   Engine
	limiter *ratelimit.DailyLimiter
}

// NewMetered wraps an engine with a daily budget.
func NewMetered(inner Engine, limiter *ratelimit.DailyLimiter) *Metered {
	return &Metered{inner: inner, limiter: limiter}
}

// ID returns the wrapped engine's id.
func (m *Metered) ID() string { return m.inner.ID() }

// Name returns the wrapped engine's name.
func (m *Metered) Name() string { return m.inner.Name() }

// RequiredPhase returns the wrapped engine's required phase.
func (m *Metered) RequiredPhase() int { return m.inner.RequiredPhase() }

// Calculate consumes one unit of the daily budget and delegates to the
// wrapped engine. A failed delegate call refunds the unit.
func (m *Metered) Calculate(ctx context.Context, input Input) (*Output, error) {
	if !m.limiter.Acquire() {
		return nil, NewRateLimitedError(m.inner.ID())
	}
	out, err := m.inner.Calculate(ctx, input)
	if err != nil {
		m.limiter.Release()
		return nil, err
	}
	return out, nil
}

// Validate delegates to the wrapped engine. Validation runs locally and
// is not metered.
func (m *Metered) Validate(ctx context.Context, output *Output) (*ValidationResult, error) {
	return m.inner.Validate(ctx, output)
}

// CacheKey delegates to the wrapped engine.
func (m *Metered) CacheKey(input Input) string { return m.inner.CacheKey(input) }

// Budget returns the current budget status for monitoring.
func (m *Metered) Budget() ratelimit.Status { return m.limiter.Status() }
