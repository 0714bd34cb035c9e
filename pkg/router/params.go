package router

import (
	"fmt"

	"cosmossdk.io/math"
)

// Params holds the routing and scoring tunables. Thresholds that grade
// confidence and risk are configuration, not hardcoded law.
type Params struct {
	// MaxHops bounds path length in pool hops.
	MaxHops int
	// MaxCandidatePaths bounds how many evaluated routes FindRoutes returns.
	// Enumeration is always exhaustive; the cap trims the ranked result.
	MaxCandidatePaths int

	// MinLiquidity is the reserve floor below which a hop is graded as thin.
	MinLiquidity math.Int

	// Confidence penalties. Confidence starts at 100 and is reduced by fixed
	// amounts independent of path length.
	PenaltyPerExtraHop     int
	PenaltySlippageLow     int // total impact above SlippageLowBps
	PenaltySlippageMedium  int // total impact above SlippageMediumBps
	PenaltySlippageHigh    int // total impact above SlippageHighBps
	PenaltyLowLiquidityHop int
	PenaltyElevatedRisk    int

	// Slippage breakpoints in basis points (1%, 2%, 5% defaults).
	SlippageLowBps    int64
	SlippageMediumBps int64
	SlippageHighBps   int64

	// Risk score thresholds mapping the additive score to risk levels.
	RiskMediumThreshold   int
	RiskHighThreshold     int
	RiskVeryHighThreshold int
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		MaxHops:           3,
		MaxCandidatePaths: 32,
		MinLiquidity:      math.NewInt(1000),

		PenaltyPerExtraHop:     5,
		PenaltySlippageLow:     5,
		PenaltySlippageMedium:  10,
		PenaltySlippageHigh:    20,
		PenaltyLowLiquidityHop: 15,
		PenaltyElevatedRisk:    10,

		SlippageLowBps:    100,
		SlippageMediumBps: 200,
		SlippageHighBps:   500,

		RiskMediumThreshold:   20,
		RiskHighThreshold:     40,
		RiskVeryHighThreshold: 60,
	}
}

// Validate checks parameter sanity.
func (p Params) Validate() error {
	if p.MaxHops <= 0 {
		return fmt.Errorf("max hops must be positive, got %d", p.MaxHops)
	}
	if p.MaxCandidatePaths <= 0 {
		return fmt.Errorf("max candidate paths must be positive, got %d", p.MaxCandidatePaths)
	}
	if p.MinLiquidity.IsNil() || p.MinLiquidity.IsNegative() {
		return fmt.Errorf("min liquidity must be non-negative")
	}
	if p.SlippageLowBps >= p.SlippageMediumBps || p.SlippageMediumBps >= p.SlippageHighBps {
		return fmt.Errorf("slippage breakpoints must be strictly increasing")
	}
	if p.RiskMediumThreshold >= p.RiskHighThreshold || p.RiskHighThreshold >= p.RiskVeryHighThreshold {
		return fmt.Errorf("risk thresholds must be strictly increasing")
	}
	return nil
}
