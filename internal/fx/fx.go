// Package fx resolves historical currency conversion rates. Resolution sits
// on the critical path of every differing-currency write: a missing rate
// blocks the write, it is never silently substituted with 1.
package fx

import (
	"context"
	"errors"
	"fmt"

	"famspend/internal/core"
)

var (
	// ErrRateUnavailable means the source has no rate for the requested
	// date/pair (future date, unsupported currency).
	ErrRateUnavailable = errors.New("fx rate not available")

	// ErrSourceUnreachable means the rate source could not be reached.
	ErrSourceUnreachable = errors.New("fx rate source unreachable")
)

// Resolver returns the multiplier that converts one unit of from into to as
// of the given date. Implementations must return exactly 1 for from == to
// without any external call.
type Resolver interface {
	Resolve(ctx context.Context, from, to core.CurrencyCode, date core.Date) (float64, error)
}

// Fixed is a static in-memory resolver keyed by "FROM/TO". Used by tests and
// the memory backend; the same-currency short circuit still applies.
type Fixed map[string]float64

func (f Fixed) Resolve(_ context.Context, from, to core.CurrencyCode, _ core.Date) (float64, error) {
	if from == to {
		return 1, nil
	}
	rate, ok := f[fmt.Sprintf("%s/%s", from, to)]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: %s/%s", ErrRateUnavailable, from, to)
	}
	return rate, nil
}
