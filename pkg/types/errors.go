package types

import (
	"cosmossdk.io/errors"
)

// Codespace for swap router sentinel errors.
const Codespace = "swaprouter"

// Router sentinel errors
var (
	ErrNoRouteFound          = errors.Register(Codespace, 1, "no route found")
	ErrInvalidRequest        = errors.Register(Codespace, 2, "invalid request")
	ErrQuoteExpired          = errors.Register(Codespace, 3, "quote expired")
	ErrInsufficientLiquidity = errors.Register(Codespace, 4, "insufficient liquidity")
	ErrInsufficientBalance   = errors.Register(Codespace, 5, "insufficient balance")
	ErrSubmissionFailed      = errors.Register(Codespace, 6, "transaction submission failed")
	ErrTimeout               = errors.Register(Codespace, 7, "confirmation timeout")
	ErrInvalidSlippage       = errors.Register(Codespace, 8, "slippage tolerance out of range")
	ErrUnknownAsset          = errors.Register(Codespace, 9, "unknown asset")
	ErrPoolNotFound          = errors.Register(Codespace, 10, "pool not found")
	ErrTxNotFound            = errors.Register(Codespace, 11, "transaction not found")
	ErrInvalidStatus         = errors.Register(Codespace, 12, "invalid status transition")
	ErrQueueFull             = errors.Register(Codespace, 13, "submission queue full")
	ErrOverflow              = errors.Register(Codespace, 14, "arithmetic overflow")
)
