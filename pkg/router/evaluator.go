// Package router enumerates candidate swap paths over the liquidity graph
// and prices them with exact-integer constant-product simulation.
package router

import (
	"fmt"
	"sort"

	"cosmossdk.io/math"
	log "github.com/sirupsen/logrus"

	"github.com/paw-chain/swaprouter/pkg/registry"
	"github.com/paw-chain/swaprouter/pkg/types"
)

// Router finds and evaluates multi-hop swap routes. Route computation is
// CPU-bound and side-effect-free against a registry snapshot, so concurrent
// requests need no coordination beyond the snapshot load.
type Router struct {
	params Params
	graphs *graphCache
}

// New constructs a router over the registry.
func New(reg *registry.Registry, params Params) (*Router, error) {
	if err := params.Validate(); err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("router params: %v", err)
	}
	return &Router{
		params: params,
		graphs: newGraphCache(reg),
	}, nil
}

// Params returns the router configuration.
func (r *Router) Params() Params {
	return r.params
}

// FindRoutes enumerates acyclic paths for the request, simulates each one,
// and returns the viable routes ranked best-first, trimmed to
// MaxCandidatePaths. Candidate routes that fail simulation are absorbed
// (dropped); only a fully empty result surfaces as ErrNoRouteFound.
func (r *Router) FindRoutes(req types.QuoteRequest) ([]types.EvaluatedRoute, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	maxHops := req.MaxHops
	if maxHops <= 0 || maxHops > r.params.MaxHops {
		maxHops = r.params.MaxHops
	}

	graph := r.graphs.get(NewExclusions(req.ExcludedAssets, req.ExcludedPools))
	if !graph.contains(req.SourceAsset) {
		return nil, types.ErrUnknownAsset.Wrapf("no pools contain asset %s", req.SourceAsset)
	}
	if !graph.contains(req.DestinationAsset) {
		return nil, types.ErrUnknownAsset.Wrapf("no pools contain asset %s", req.DestinationAsset)
	}

	paths := findPaths(graph, req.SourceAsset, req.DestinationAsset, maxHops)
	if len(paths) == 0 {
		return nil, types.ErrNoRouteFound.Wrapf(
			"no path from %s to %s within %d hops", req.SourceAsset, req.DestinationAsset, maxHops)
	}

	routes := make([]types.EvaluatedRoute, 0, len(paths))
	for _, path := range paths {
		route, err := r.evaluate(graph, path, req.Amount)
		if err != nil {
			log.WithFields(log.Fields{
				"path":  path.String(),
				"error": err,
			}).Debug("Dropping candidate route")
			continue
		}
		routes = append(routes, *route)
	}
	if len(routes) == 0 {
		return nil, types.ErrNoRouteFound.Wrapf(
			"all %d candidate paths from %s to %s were non-viable",
			len(paths), req.SourceAsset, req.DestinationAsset)
	}

	// The candidate cap is applied after ranking, so trimming a dense graph
	// can never drop the best route.
	rankRoutes(routes, req.Amount.Direction())
	if r.params.MaxCandidatePaths > 0 && len(routes) > r.params.MaxCandidatePaths {
		routes = routes[:r.params.MaxCandidatePaths]
	}
	return routes, nil
}

// rankRoutes orders routes best-first for the swap direction: highest output
// for exact input, lowest input for exact output, confidence as tie-break.
func rankRoutes(routes []types.EvaluatedRoute, direction types.Direction) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
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
}

// evaluate simulates the path for the given amount and scores the result.
func (r *Router) evaluate(graph *liquidityGraph, path types.Path, amount types.SwapAmount) (*types.EvaluatedRoute, error) {
	if path.Hops() < 1 {
		return nil, types.ErrInvalidRequest.Wrapf("path %s too short", path.String())
	}

	var (
		hops []types.RouteHop
		err  error
	)
	switch amount.Direction() {
	case types.DirectionExactOutput:
		hops, err = r.simulateExactOutput(graph, path, amount.Amount())
	default:
		hops, err = r.simulateExactInput(graph, path, amount.Amount())
	}
	if err != nil {
		return nil, err
	}

	route := &types.EvaluatedRoute{
		Path:             path,
		Hops:             hops,
		TotalAmountIn:    hops[0].AmountIn,
		TotalAmountOut:   hops[len(hops)-1].AmountOut,
		TotalFee:         math.ZeroInt(),
		TotalPriceImpact: math.LegacyZeroDec(),
	}

	lowLiquidityHops := 0
	for _, hop := range hops {
		route.TotalFee = route.TotalFee.Add(hop.Fee)
		// Per-hop impacts are summed, not compounded. A documented
		// approximation: it overstates impact slightly for long paths.
		route.TotalPriceImpact = route.TotalPriceImpact.Add(hop.PriceImpact)
		pool := graph.pools[hop.PoolID]
		if pool.ReserveA.LT(r.params.MinLiquidity) || pool.ReserveB.LT(r.params.MinLiquidity) {
			lowLiquidityHops++
			route.Warnings = append(route.Warnings, fmt.Sprintf("low liquidity in pool %s", hop.PoolID))
		}
	}

	impactBps := route.TotalPriceImpact.MulInt64(types.BpsDenominator).TruncateInt64()
	extraHops := path.Hops() - 1

	route.RiskLevel = r.riskLevel(extraHops, impactBps, lowLiquidityHops)
	route.Confidence = r.confidence(extraHops, impactBps, lowLiquidityHops, route.RiskLevel)

	if impactBps > r.params.SlippageHighBps {
		route.Warnings = append(route.Warnings, "high price impact")
	}
	if path.Hops() >= r.params.MaxHops {
		route.Warnings = append(route.Warnings, "long path")
	}

	return route, nil
}

// simulateExactInput walks the path forward, threading each hop's output
// into the next hop's input.
func (r *Router) simulateExactInput(graph *liquidityGraph, path types.Path, amountIn math.Int) ([]types.RouteHop, error) {
	hops := make([]types.RouteHop, 0, path.Hops())
	current := amountIn
	for i := 0; i < path.Hops(); i++ {
		assetIn, assetOut := path[i], path[i+1]
		pool, ok := graph.bestPool(assetIn, assetOut)
		if !ok {
			return nil, types.ErrPoolNotFound.Wrapf("no pool for %s/%s", assetIn, assetOut)
		}
		hop, err := swapExactInput(pool, assetIn, assetOut, current)
		if err != nil {
			return nil, err
		}
		hops = append(hops, hop)
		current = hop.AmountOut
	}
	return hops, nil
}

// simulateExactOutput walks the path in reverse, inverting the
// constant-product formula per hop to find the implied input.
func (r *Router) simulateExactOutput(graph *liquidityGraph, path types.Path, amountOut math.Int) ([]types.RouteHop, error) {
	hops := make([]types.RouteHop, path.Hops())
	current := amountOut
	for i := path.Hops() - 1; i >= 0; i-- {
		assetIn, assetOut := path[i], path[i+1]
		pool, ok := graph.bestPool(assetIn, assetOut)
		if !ok {
			return nil, types.ErrPoolNotFound.Wrapf("no pool for %s/%s", assetIn, assetOut)
		}
		hop, err := swapExactOutput(pool, assetIn, assetOut, current)
		if err != nil {
			return nil, err
		}
		hops[i] = hop
		current = hop.AmountIn
	}
	return hops, nil
}

// swapExactInput prices one hop with the constant-product formula, deducting
// the pool fee from the input in exact basis-point integer arithmetic:
//
//	amountInAfterFee = amountIn * (10000 - feeBps) / 10000
//	amountOut        = amountInAfterFee * reserveOut / (reserveIn + amountInAfterFee)
func swapExactInput(pool types.Pool, assetIn, assetOut string, amountIn math.Int) (types.RouteHop, error) {
	if !amountIn.IsPositive() {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf("pool %s: non-positive input", pool.ID)
	}
	reserveIn, reserveOut, ok := pool.ReservesFor(assetIn)
	if !ok {
		return types.RouteHop{}, types.ErrPoolNotFound.Wrapf("pool %s does not hold %s", pool.ID, assetIn)
	}

	feeNumerator := math.NewInt(types.BpsDenominator - int64(pool.FeeBps))
	amountInAfterFee, err := SafeMulDiv(amountIn, feeNumerator, math.NewInt(types.BpsDenominator))
	if err != nil {
		return types.RouteHop{}, err
	}
	if !amountInAfterFee.IsPositive() {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf("pool %s: amount too small after fees", pool.ID)
	}

	amountOut, err := SafeMulDiv(amountInAfterFee, reserveOut, reserveIn.Add(amountInAfterFee))
	if err != nil {
		return types.RouteHop{}, err
	}
	if !amountOut.IsPositive() {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf("pool %s: output rounds to zero", pool.ID)
	}
	if amountOut.GTE(reserveOut) {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf(
			"pool %s: output %s >= reserve %s", pool.ID, amountOut, reserveOut)
	}

	return types.RouteHop{
		PoolID:      pool.ID,
		AssetIn:     assetIn,
		AssetOut:    assetOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Fee:         amountIn.Sub(amountInAfterFee),
		PriceImpact: priceImpact(reserveIn, reserveOut, amountInAfterFee, amountOut),
	}, nil
}

// swapExactOutput inverts the exact-input formula for a desired output:
//
//	amountInAfterFee = ceil(amountOut * reserveIn / (reserveOut - amountOut))
//	amountIn         = ceil(amountInAfterFee * 10000 / (10000 - feeBps))
//
// Rounding up on both steps keeps the round trip conservative for the pool.
func swapExactOutput(pool types.Pool, assetIn, assetOut string, amountOut math.Int) (types.RouteHop, error) {
	if !amountOut.IsPositive() {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf("pool %s: non-positive output", pool.ID)
	}
	reserveIn, reserveOut, ok := pool.ReservesFor(assetIn)
	if !ok {
		return types.RouteHop{}, types.ErrPoolNotFound.Wrapf("pool %s does not hold %s", pool.ID, assetIn)
	}
	if amountOut.GTE(reserveOut) {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf(
			"pool %s: requested output %s >= reserve %s", pool.ID, amountOut, reserveOut)
	}

	amountInAfterFee, err := SafeMulDivCeil(amountOut, reserveIn, reserveOut.Sub(amountOut))
	if err != nil {
		return types.RouteHop{}, err
	}
	if !amountInAfterFee.IsPositive() {
		return types.RouteHop{}, types.ErrInsufficientLiquidity.Wrapf("pool %s: implied input non-positive", pool.ID)
	}

	amountIn, err := SafeMulDivCeil(amountInAfterFee, math.NewInt(types.BpsDenominator), math.NewInt(types.BpsDenominator-int64(pool.FeeBps)))
	if err != nil {
		return types.RouteHop{}, err
	}

	return types.RouteHop{
		PoolID:      pool.ID,
		AssetIn:     assetIn,
		AssetOut:    assetOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Fee:         amountIn.Sub(amountInAfterFee),
		PriceImpact: priceImpact(reserveIn, reserveOut, amountInAfterFee, amountOut),
	}, nil
}

// priceImpact is the relative change between the pre-trade and post-trade
// marginal price of the pool.
func priceImpact(reserveIn, reserveOut, amountInAfterFee, amountOut math.Int) math.LegacyDec {
	pre := math.LegacyNewDecFromInt(reserveOut).Quo(math.LegacyNewDecFromInt(reserveIn))
	post := math.LegacyNewDecFromInt(reserveOut.Sub(amountOut)).
		Quo(math.LegacyNewDecFromInt(reserveIn.Add(amountInAfterFee)))
	if pre.IsZero() {
		return math.LegacyZeroDec()
	}
	return pre.Sub(post).Quo(pre).Abs()
}

// SpotPrice returns the current marginal price of assetOut in terms of
// assetIn for the deepest pool of the pair. When both assets carry registered
// metadata the price is scaled to whole display units; otherwise it is a raw
// base-unit ratio.
func (r *Router) SpotPrice(assetIn, assetOut string) (math.LegacyDec, error) {
	graph := r.graphs.get(Exclusions{})
	pool, ok := graph.bestPool(assetIn, assetOut)
	if !ok {
		return math.LegacyZeroDec(), types.ErrPoolNotFound.Wrapf("no pool for %s/%s", assetIn, assetOut)
	}
	reserveIn, reserveOut, _ := pool.ReservesFor(assetIn)
	if reserveIn.IsZero() {
		return math.LegacyZeroDec(), types.ErrInsufficientLiquidity.Wrapf("pool %s: empty reserves", pool.ID)
	}
	price := math.LegacyNewDecFromInt(reserveOut).Quo(math.LegacyNewDecFromInt(reserveIn))

	in, haveIn := r.graphs.registry.GetAsset(assetIn)
	out, haveOut := r.graphs.registry.GetAsset(assetOut)
	if haveIn && haveOut {
		price = scaleByDecimals(price, in.Decimals, out.Decimals)
	}
	return price, nil
}

// scaleByDecimals converts a base-unit price ratio into display units for
// assets with differing exponents.
func scaleByDecimals(price math.LegacyDec, decimalsIn, decimalsOut uint8) math.LegacyDec {
	switch {
	case decimalsIn > decimalsOut:
		return price.Mul(math.LegacyNewDec(10).Power(uint64(decimalsIn - decimalsOut)))
	case decimalsOut > decimalsIn:
		return price.Quo(math.LegacyNewDec(10).Power(uint64(decimalsOut - decimalsIn)))
	}
	return price
}

// riskLevel maps the additive risk score to the ordered risk enumeration.
func (r *Router) riskLevel(extraHops int, impactBps int64, lowLiquidityHops int) types.RiskLevel {
	score := 10 * extraHops
	switch {
	case impactBps > r.params.SlippageHighBps:
		score += 30
	case impactBps > r.params.SlippageMediumBps:
		score += 20
	case impactBps > r.params.SlippageLowBps:
		score += 10
	}
	score += 15 * lowLiquidityHops

	switch {
	case score >= r.params.RiskVeryHighThreshold:
		return types.RiskVeryHigh
	case score >= r.params.RiskHighThreshold:
		return types.RiskHigh
	case score >= r.params.RiskMediumThreshold:
		return types.RiskMedium
	}
	return types.RiskLow
}

// confidence starts at 100 and is reduced by fixed penalties, clamped to
// [0,100].
func (r *Router) confidence(extraHops int, impactBps int64, lowLiquidityHops int, risk types.RiskLevel) int {
	score := 100
	score -= r.params.PenaltyPerExtraHop * extraHops
	switch {
	case impactBps > r.params.SlippageHighBps:
		score -= r.params.PenaltySlippageHigh
	case impactBps > r.params.SlippageMediumBps:
		score -= r.params.PenaltySlippageMedium
	case impactBps > r.params.SlippageLowBps:
		score -= r.params.PenaltySlippageLow
	}
	score -= r.params.PenaltyLowLiquidityHop * lowLiquidityHops
	if risk >= types.RiskHigh {
		score -= r.params.PenaltyElevatedRisk
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
