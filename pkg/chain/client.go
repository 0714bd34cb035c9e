// Package chain defines the boundary to the external chain client. The
// router consumes this interface; the concrete RPC implementation lives
// outside the engine.
package chain

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// Receipt is the mined-transaction view returned by the chain client.
type Receipt struct {
	TxHash        string
	BlockNumber   uint64
	GasUsed       uint64
	Reverted      bool
	Confirmations uint64
}

// GasParams carries submission gas settings. Protected requests broadcast
// through a private relay instead of the public mempool.
type GasParams struct {
	GasPrice  math.Int
	GasLimit  uint64
	Protected bool
}

// Client is the asynchronous chain collaborator. All methods may fail with a
// *NetworkError, which the engine treats as retryable.
type Client interface {
	ListPools(ctx context.Context) ([]types.Pool, error)
	GetPoolReserves(ctx context.Context, poolID string) (reserveA, reserveB math.Int, err error)
	GetGasPrice(ctx context.Context) (math.Int, error)
	GetBalance(ctx context.Context, account, asset string) (math.Int, error)
	SubmitTransaction(ctx context.Context, payload []byte, gas GasParams) (hash string, err error)
	GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error)
	GetBlockNumber(ctx context.Context) (uint64, error)
}

// NetworkError wraps a transient transport failure. Callers retry these;
// anything else from the client is treated as a chain-level rejection.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("chain: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps err as a retryable network failure.
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

// IsRetryable reports whether err is a transient network failure.
func IsRetryable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
