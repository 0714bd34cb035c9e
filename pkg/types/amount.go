package types

import (
	"time"

	"cosmossdk.io/math"
)

// Direction distinguishes exact-input from exact-output swaps.
type Direction int

const (
	// DirectionExactInput fixes the input amount; the route maximizes output.
	DirectionExactInput Direction = iota
	// DirectionExactOutput fixes the output amount; the route minimizes input.
	DirectionExactOutput
)

func (d Direction) String() string {
	if d == DirectionExactOutput {
		return "exact_output"
	}
	return "exact_input"
}

// SwapAmount is a tagged variant carrying exactly one of an exact input or
// an exact output amount. Constructing it through ExactInput/ExactOutput
// makes "exactly one amount must be set" a type-level invariant instead of a
// pair of optional fields.
type SwapAmount struct {
	direction Direction
	amount    math.Int
}

// ExactInput builds a SwapAmount fixing the input side.
func ExactInput(amount math.Int) SwapAmount {
	return SwapAmount{direction: DirectionExactInput, amount: amount}
}

// ExactOutput builds a SwapAmount fixing the output side.
func ExactOutput(amount math.Int) SwapAmount {
	return SwapAmount{direction: DirectionExactOutput, amount: amount}
}

// Direction returns which side of the swap is fixed.
func (s SwapAmount) Direction() Direction {
	return s.direction
}

// Amount returns the fixed amount.
func (s SwapAmount) Amount() math.Int {
	return s.amount
}

// Validate rejects zero-value and non-positive amounts.
func (s SwapAmount) Validate() error {
	if s.amount.IsNil() {
		return ErrInvalidRequest.Wrap("swap amount not set")
	}
	if !s.amount.IsPositive() {
		return ErrInvalidRequest.Wrapf("swap amount must be positive, got %s", s.amount)
	}
	return nil
}

// QuoteRequest describes a routing request from the API layer.
type QuoteRequest struct {
	SourceAsset      string        `json:"source_asset"`
	DestinationAsset string        `json:"destination_asset"`
	Amount           SwapAmount    `json:"-"`
	SlippageBps      uint32        `json:"slippage_bps"`
	MaxHops          int           `json:"max_hops,omitempty"`
	DeadlineWindow   time.Duration `json:"deadline_window,omitempty"`
	ExcludedAssets   []string      `json:"excluded_assets,omitempty"`
	ExcludedPools    []string      `json:"excluded_pools,omitempty"`
}

// Validate checks request fields that do not require registry state.
func (r QuoteRequest) Validate() error {
	if r.SourceAsset == "" || r.DestinationAsset == "" {
		return ErrInvalidRequest.Wrap("source and destination assets are required")
	}
	if r.SourceAsset == r.DestinationAsset {
		return ErrInvalidRequest.Wrapf("cannot swap %s for itself", r.SourceAsset)
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.MaxHops < 0 {
		return ErrInvalidRequest.Wrapf("max hops cannot be negative, got %d", r.MaxHops)
	}
	return nil
}
