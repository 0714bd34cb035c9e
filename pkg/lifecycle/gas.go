package lifecycle

import (
	"math/rand"
	"time"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// gasPolicy prices submissions off the live network price.
type gasPolicy struct {
	multiplier math.LegacyDec
}

// submissionPrice returns networkPrice scaled by the multiplier, rounded up.
// When previous is set (a retry), the result never drops below it: lowering
// the price on a replacement would orphan the original.
func (g gasPolicy) submissionPrice(networkPrice, previous math.Int) math.Int {
	price := g.multiplier.MulInt(networkPrice).Ceil().TruncateInt()
	if !previous.IsNil() && price.LT(previous) {
		return previous
	}
	return price
}

// gasLimit sizes the limit from the quote estimate, falling back to a
// per-hop model when the assembler attached none.
func gasLimit(q *types.Quote, base, perHop uint64) uint64 {
	if q.GasEstimate > 0 {
		return q.GasEstimate
	}
	return base + perHop*uint64(q.Route.Path.Hops())
}

// mevPolicy decides whether a swap is shielded from frontrunning.
type mevPolicy struct {
	enabled           bool
	maxDelay          time.Duration
	maxPriceImpactBps int64
}

// assess returns whether the route should broadcast on the protected channel
// and the randomized delay to apply before submission. High-impact routes are
// the attractive sandwich targets, so they are always shielded when
// protection is on.
func (m mevPolicy) assess(route types.EvaluatedRoute) (protected bool, delay time.Duration) {
	if !m.enabled {
		return false, 0
	}
	impactBps := route.TotalPriceImpact.MulInt64(types.BpsDenominator).TruncateInt64()
	protected = impactBps > m.maxPriceImpactBps || route.RiskLevel >= types.RiskHigh
	if m.maxDelay > 0 {
		delay = time.Duration(rand.Int63n(int64(m.maxDelay)))
	}
	return protected, delay
}
