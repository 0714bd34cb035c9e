package types

import (
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/math"
)

// BpsDenominator is the basis-point denominator used for fees and slippage.
const BpsDenominator = 10000

// Asset identifies a fungible token by its address-like id and decimal
// precision. Assets are immutable once referenced.
type Asset struct {
	ID       string `json:"id"`
	Decimals uint8  `json:"decimals"`
}

// Validate checks the asset fields.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrUnknownAsset.Wrap("asset id cannot be empty")
	}
	return nil
}

// Pool is a constant-product liquidity pool between two assets.
// Reserves are arbitrary-precision integers; they are replaced atomically as
// a pair by registry refresh and never mutated in place.
type Pool struct {
	ID       string   `json:"id"`
	AssetA   string   `json:"asset_a"`
	AssetB   string   `json:"asset_b"`
	ReserveA math.Int `json:"reserve_a"`
	ReserveB math.Int `json:"reserve_b"`
	FeeBps   uint32   `json:"fee_bps"`
}

// Validate checks pool structure and reserve positivity.
func (p Pool) Validate() error {
	if p.ID == "" {
		return ErrInvalidRequest.Wrap("pool id cannot be empty")
	}
	if p.AssetA == "" || p.AssetB == "" {
		return ErrUnknownAsset.Wrapf("pool %s: asset ids cannot be empty", p.ID)
	}
	if p.AssetA == p.AssetB {
		return ErrInvalidRequest.Wrapf("pool %s: identical assets %s", p.ID, p.AssetA)
	}
	if p.ReserveA.IsNil() || p.ReserveB.IsNil() {
		return ErrInvalidRequest.Wrapf("pool %s: nil reserves", p.ID)
	}
	if !p.ReserveA.IsPositive() || !p.ReserveB.IsPositive() {
		return ErrInsufficientLiquidity.Wrapf("pool %s: reserves must be positive", p.ID)
	}
	if p.FeeBps >= BpsDenominator {
		return ErrInvalidRequest.Wrapf("pool %s: fee %d bps out of range", p.ID, p.FeeBps)
	}
	return nil
}

// Other returns the pool asset paired with the given asset, and whether the
// asset belongs to the pool at all.
func (p Pool) Other(asset string) (string, bool) {
	switch asset {
	case p.AssetA:
		return p.AssetB, true
	case p.AssetB:
		return p.AssetA, true
	}
	return "", false
}

// ReservesFor orients the pool reserves for a swap from assetIn.
func (p Pool) ReservesFor(assetIn string) (reserveIn, reserveOut math.Int, ok bool) {
	switch assetIn {
	case p.AssetA:
		return p.ReserveA, p.ReserveB, true
	case p.AssetB:
		return p.ReserveB, p.ReserveA, true
	}
	return math.Int{}, math.Int{}, false
}

// Path is an ordered, acyclic sequence of asset ids from source to
// destination. Derived by the path finder, never persisted.
type Path []string

// String renders the path as A->B->C for logging.
func (p Path) String() string {
	return strings.Join(p, "->")
}

// Hops returns the number of pool hops the path crosses.
func (p Path) Hops() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}

// RiskLevel is an ordered classification of route risk.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskVeryHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskVeryHigh:
		return "VERY_HIGH"
	}
	return fmt.Sprintf("RiskLevel(%d)", int(r))
}

// RouteHop is one simulated swap through a single pool.
type RouteHop struct {
	PoolID      string         `json:"pool_id"`
	AssetIn     string         `json:"asset_in"`
	AssetOut    string         `json:"asset_out"`
	AmountIn    math.Int       `json:"amount_in"`
	AmountOut   math.Int       `json:"amount_out"`
	Fee         math.Int       `json:"fee"`
	PriceImpact math.LegacyDec `json:"price_impact"`
}

// EvaluatedRoute is a fully simulated candidate route.
//
// Invariant: for exact-input routes Hops[i].AmountOut == Hops[i+1].AmountIn
// (and the reverse chain for exact-output routes). Confidence is clamped to
// [0,100].
type EvaluatedRoute struct {
	Path             Path           `json:"path"`
	Hops             []RouteHop     `json:"hops"`
	TotalAmountIn    math.Int       `json:"total_amount_in"`
	TotalAmountOut   math.Int       `json:"total_amount_out"`
	TotalFee         math.Int       `json:"total_fee"`
	TotalPriceImpact math.LegacyDec `json:"total_price_impact"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	Confidence       int            `json:"confidence"`
	Warnings         []string       `json:"warnings,omitempty"`
}

// Quote is a priced, slippage-bounded execution offer. Quotes are value
// objects: assembling a new quote never mutates a prior one. A quote is
// logically expired once now > Deadline.
type Quote struct {
	Route        EvaluatedRoute `json:"route"`
	AmountIn     math.Int       `json:"amount_in"`
	AmountOut    math.Int       `json:"amount_out"`
	AmountOutMin math.Int       `json:"amount_out_min"`
	AmountInMax  math.Int       `json:"amount_in_max"`
	SlippageBps  uint32         `json:"slippage_bps"`
	Deadline     time.Time      `json:"deadline"`
	GasEstimate  uint64         `json:"gas_estimate"`
}

// Expired reports whether the quote deadline has passed.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.Deadline)
}

// TxStatus is the lifecycle state of a submitted swap transaction.
type TxStatus string

const (
	TxStatusQueued    TxStatus = "QUEUED"
	TxStatusBuilt     TxStatus = "BUILT"
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusFailed    TxStatus = "FAILED"
	TxStatusCancelled TxStatus = "CANCELLED"
	TxStatusAbandoned TxStatus = "ABANDONED"
)

// Terminal reports whether the status permits no further transitions.
func (s TxStatus) Terminal() bool {
	switch s {
	case TxStatusConfirmed, TxStatusFailed, TxStatusCancelled, TxStatusAbandoned:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next. QUEUED items are dequeued into PENDING; PENDING resolves to
// CONFIRMED, FAILED or ABANDONED; cancellation is only legal before a
// terminal state.
func (s TxStatus) CanTransitionTo(next TxStatus) bool {
	switch s {
	case TxStatusQueued:
		return next == TxStatusPending || next == TxStatusCancelled
	case TxStatusBuilt:
		return next == TxStatusPending
	case TxStatusPending:
		switch next {
		case TxStatusConfirmed, TxStatusFailed, TxStatusCancelled, TxStatusAbandoned:
			return true
		}
	}
	return false
}

// SwapDetails records what a transaction was executing, for inspection.
type SwapDetails struct {
	SourceAsset      string   `json:"source_asset"`
	DestinationAsset string   `json:"destination_asset"`
	Path             Path     `json:"path"`
	AmountIn         math.Int `json:"amount_in"`
	AmountOutMin     math.Int `json:"amount_out_min"`
}

// SwapTransaction tracks one submitted exchange. Status (and Confirmations)
// are the only fields mutated after creation; terminal states are immutable.
type SwapTransaction struct {
	Hash          string      `json:"hash"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	Payload       []byte      `json:"payload"`
	GasPrice      math.Int    `json:"gas_price"`
	GasLimit      uint64      `json:"gas_limit"`
	Status        TxStatus    `json:"status"`
	Confirmations uint64      `json:"confirmations"`
	SubmittedAt   time.Time   `json:"submitted_at"`
	SwapDetails   SwapDetails `json:"swap_details"`
}

// QueueStatus is the aggregate view of the submission queue.
type QueueStatus struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
