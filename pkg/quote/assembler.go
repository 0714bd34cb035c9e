// Package quote turns evaluated routes into slippage-bounded, deadlined
// execution quotes.
package quote

import (
	"sort"
	"time"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/types"
)

const (
	// DefaultDeadlineWindow is applied when a request does not specify one.
	DefaultDeadlineWindow = 20 * time.Minute
	// DefaultSlippageCeilingBps rejects tolerances at or above 50%.
	DefaultSlippageCeilingBps uint32 = 5000
)

// Assembler selects the best evaluated route and derives execution bounds.
type Assembler struct {
	slippageCeilingBps uint32
	defaultWindow      time.Duration
	gasBase            uint64
	gasPerHop          uint64
	now                func() time.Time
}

// NewAssembler builds an assembler; zero arguments select the defaults.
func NewAssembler(slippageCeilingBps uint32, defaultWindow time.Duration) *Assembler {
	if slippageCeilingBps == 0 || slippageCeilingBps > DefaultSlippageCeilingBps {
		slippageCeilingBps = DefaultSlippageCeilingBps
	}
	if defaultWindow <= 0 {
		defaultWindow = DefaultDeadlineWindow
	}
	return &Assembler{
		slippageCeilingBps: slippageCeilingBps,
		defaultWindow:      defaultWindow,
		now:                time.Now,
	}
}

// WithGasModel sets the linear gas sizing used when Assemble is not handed
// an explicit estimate.
func (a *Assembler) WithGasModel(base, perHop uint64) *Assembler {
	a.gasBase = base
	a.gasPerHop = perHop
	return a
}

// WithClock overrides the time source (tests).
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Assemble picks the best route for the request direction and produces a
// quote with guaranteed bounds and an absolute deadline. The quote is a
// value object; assembling never mutates the routes or any prior quote.
func (a *Assembler) Assemble(req types.QuoteRequest, routes []types.EvaluatedRoute, gasEstimate uint64) (*types.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.SlippageBps >= a.slippageCeilingBps {
		// A tolerance at or above the ceiling is a configuration error,
		// rejected outright rather than silently clamped.
		return nil, types.ErrInvalidSlippage.Wrapf(
			"slippage %d bps must be below %d bps", req.SlippageBps, a.slippageCeilingBps)
	}
	if len(routes) == 0 {
		return nil, types.ErrNoRouteFound.Wrapf(
			"no viable route from %s to %s", req.SourceAsset, req.DestinationAsset)
	}

	best := selectBest(routes, req.Amount.Direction())

	tol := math.NewInt(int64(req.SlippageBps))
	bps := math.NewInt(types.BpsDenominator)

	// amountOutMin = amountOut * (1 - tolerance), rounded down.
	amountOutMin := best.TotalAmountOut.Mul(bps.Sub(tol)).Quo(bps)
	// amountInMax = amountIn * (1 + tolerance), rounded up.
	inMaxNum := best.TotalAmountIn.Mul(bps.Add(tol))
	amountInMax := inMaxNum.Quo(bps)
	if !inMaxNum.Mod(bps).IsZero() {
		amountInMax = amountInMax.AddRaw(1)
	}

	window := req.DeadlineWindow
	if window <= 0 {
		window = a.defaultWindow
	}

	if gasEstimate == 0 && a.gasPerHop > 0 {
		gasEstimate = a.gasBase + a.gasPerHop*uint64(best.Path.Hops())
	}

	return &types.Quote{
		Route:        best,
		AmountIn:     best.TotalAmountIn,
		AmountOut:    best.TotalAmountOut,
		AmountOutMin: amountOutMin,
		AmountInMax:  amountInMax,
		SlippageBps:  req.SlippageBps,
		Deadline:     a.now().Add(window),
		GasEstimate:  gasEstimate,
	}, nil
}

// selectBest orders by total amount out descending for exact-input requests
// and total amount in ascending for exact-output requests; ties break toward
// higher confidence.
func selectBest(routes []types.EvaluatedRoute, direction types.Direction) types.EvaluatedRoute {
	sorted := make([]types.EvaluatedRoute, len(routes))
	copy(sorted, routes)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if direction == types.DirectionExactOutput {
			if !a.TotalAmountIn.Equal(b.TotalAmountIn) {
				return a.TotalAmountIn.LT(b.TotalAmountIn)
			}
		} else {
			if !a.TotalAmountOut.Equal(b.TotalAmountOut) {
				return a.TotalAmountOut.GT(b.TotalAmountOut)
			}
		}
		return a.Confidence > b.Confidence
	})

	return sorted[0]
}
