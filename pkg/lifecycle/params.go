package lifecycle

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// Params are the lifecycle tunables. Everything here is configuration with
// defaults, not hard-coded law.
type Params struct {
	// GasMultiplier scales the network gas price on submission. Must be
	// strictly above 1 so replacements are never underpriced.
	GasMultiplier math.LegacyDec
	// GasPerHop sizes the gas limit when the quote carries no estimate.
	GasPerHop uint64
	// GasBase is the flat gas cost added to the per-hop component.
	GasBase uint64
	// FeeAsset is the asset gas fees are paid in. When a swap spends the
	// fee asset, the balance check covers the gas cost on top of the input.
	// Empty disables the gas component of the check.
	FeeAsset string
	// ConfirmationTimeout bounds how long an unmined submission stays
	// PENDING before local accounting abandons it.
	ConfirmationTimeout time.Duration
	// MEVProtection routes swaps through a protected broadcast channel
	// with a randomized submission delay.
	MEVProtection bool
	// MEVMaxDelay caps the randomized pre-submission delay.
	MEVMaxDelay time.Duration
	// MaxPriceImpactBps flags routes whose total impact exceeds this bound.
	MaxPriceImpactBps int64
	// QueueCapacity bounds the submission queue length.
	QueueCapacity int
	// QueueRate paces dequeues, submissions per second.
	QueueRate float64
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		GasMultiplier:       math.LegacyNewDecWithPrec(12, 1), // 1.2x
		GasPerHop:           90_000,
		GasBase:             60_000,
		FeeAsset:            "upaw",
		ConfirmationTimeout: 10 * time.Minute,
		MEVProtection:       false,
		MEVMaxDelay:         2 * time.Second,
		MaxPriceImpactBps:   500,
		QueueCapacity:       256,
		QueueRate:           4,
	}
}

// Validate checks parameter sanity.
func (p Params) Validate() error {
	if p.GasMultiplier.IsNil() || p.GasMultiplier.LTE(math.LegacyOneDec()) {
		return fmt.Errorf("gas multiplier must be greater than 1")
	}
	if p.GasPerHop == 0 || p.GasBase == 0 {
		return fmt.Errorf("gas sizing must be positive")
	}
	if p.ConfirmationTimeout <= 0 {
		return fmt.Errorf("confirmation timeout must be positive")
	}
	if p.MEVMaxDelay < 0 {
		return fmt.Errorf("mev max delay cannot be negative")
	}
	if p.MaxPriceImpactBps <= 0 {
		return fmt.Errorf("max price impact must be positive")
	}
	if p.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if p.QueueRate <= 0 {
		return fmt.Errorf("queue rate must be positive")
	}
	return nil
}
