package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/swaprouter/pkg/chain"
	"github.com/paw-chain/swaprouter/pkg/lifecycle"
	"github.com/paw-chain/swaprouter/pkg/types"
)

func testQuote(deadline time.Time) *types.Quote {
	return &types.Quote{
		Route: types.EvaluatedRoute{
			Path: types.Path{"A", "B"},
			Hops: []types.RouteHop{{
				PoolID:   "ab",
				AssetIn:  "A",
				AssetOut: "B",
			}},
			TotalAmountIn:  math.NewInt(1000),
			TotalAmountOut: math.NewInt(500),
		},
		AmountIn:     math.NewInt(1000),
		AmountOut:    math.NewInt(500),
		AmountOutMin: math.NewInt(495),
		AmountInMax:  math.NewInt(1010),
		SlippageBps:  100,
		Deadline:     deadline,
	}
}

func newManager(t *testing.T, client chain.Client) *lifecycle.Manager {
	t.Helper()
	mgr, err := lifecycle.NewManager(client, lifecycle.DefaultParams())
	require.NoError(t, err)
	return mgr
}

func TestExecuteSubmits(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)
	require.Equal(t, types.TxStatusPending, tx.Status)
	require.NotEmpty(t, tx.Hash)
	require.Equal(t, "alice", tx.From)
	require.Equal(t, "A", tx.SwapDetails.SourceAsset)
	require.Equal(t, "B", tx.SwapDetails.DestinationAsset)
	require.Equal(t, 1, client.SubmittedCount())

	// Gas price is the network price scaled by the multiplier.
	require.Equal(t, math.NewInt(2), tx.GasPrice, "1 * 1.2 rounds up to 2")
}

func TestExecuteExpiredQuoteNeverReachesChain(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	_, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(-time.Second)), "alice")
	require.ErrorIs(t, err, types.ErrQuoteExpired)
	require.Zero(t, client.SubmittedCount(), "expired quotes must not touch the chain client")
}

func TestExecuteInsufficientBalance(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(500)) // below AmountInMax
	mgr := newManager(t, client)

	_, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	require.NotErrorIs(t, err, types.ErrSubmissionFailed,
		"insufficient balance is distinct from a generic submission failure")
	require.Zero(t, client.SubmittedCount())
}

func TestExecuteBalanceCoversGasInFeeAsset(t *testing.T) {
	client := chain.NewMockClient()
	mgr := newManager(t, client)

	q := testQuote(time.Now().Add(time.Minute))
	q.Route.Path = types.Path{"upaw", "B"}
	q.Route.Hops[0].AssetIn = "upaw"

	// Covering the input alone is not enough when gas draws from the same
	// balance: price 2 * limit 150000 on top of AmountInMax 1010.
	client.SetBalance("alice", "upaw", math.NewInt(1010))
	_, err := mgr.Execute(context.Background(), q, "alice")
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	require.Zero(t, client.SubmittedCount())

	client.SetBalance("alice", "upaw", math.NewInt(301_010))
	_, err = mgr.Execute(context.Background(), q, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, client.SubmittedCount())
}

func TestExecuteSubmissionFailure(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	client.SubmitErr = chain.NewNetworkError("submit", context.DeadlineExceeded)
	mgr := newManager(t, client)

	_, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.ErrorIs(t, err, types.ErrSubmissionFailed)
}

func TestResubmitNeverLowersGasPrice(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	client.GasPrice = math.NewInt(100)
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(120), tx.GasPrice)

	// The network price dropping does not lower the replacement price.
	client.GasPrice = math.NewInt(50)
	replaced, err := mgr.Resubmit(context.Background(), tx.Hash)
	require.NoError(t, err)
	require.NotEqual(t, tx.Hash, replaced.Hash)
	require.Equal(t, math.NewInt(120), replaced.GasPrice)
	require.Equal(t, 2, client.SubmittedCount())

	// The original record is retired in favor of the replacement.
	_, err = mgr.GetTransaction(tx.Hash)
	require.ErrorIs(t, err, types.ErrTxNotFound)
	got, err := mgr.GetTransaction(replaced.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusPending, got.Status)

	// A higher network price reprices the next replacement upward.
	client.GasPrice = math.NewInt(200)
	replaced, err = mgr.Resubmit(context.Background(), replaced.Hash)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(240), replaced.GasPrice)
}

func TestResubmitRequiresPending(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)

	client.Receipts[tx.Hash] = &chain.Receipt{TxHash: tx.Hash, Confirmations: 1}
	_, err = mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)

	_, err = mgr.Resubmit(context.Background(), tx.Hash)
	require.ErrorIs(t, err, types.ErrInvalidStatus, "confirmed submissions cannot be replaced")

	_, err = mgr.Resubmit(context.Background(), "missing")
	require.ErrorIs(t, err, types.ErrTxNotFound)
}

func TestGetStatusMapping(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)

	// No receipt yet: still pending.
	status, err := mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusPending, status)

	// Reverted receipt: failed.
	client.Receipts[tx.Hash] = &chain.Receipt{TxHash: tx.Hash, Reverted: true}
	status, err = mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusFailed, status)

	// Terminal states stick even if the receipt later changes.
	client.Receipts[tx.Hash] = &chain.Receipt{TxHash: tx.Hash, Confirmations: 3}
	status, err = mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusFailed, status)
}

func TestGetStatusConfirmed(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)

	client.Receipts[tx.Hash] = &chain.Receipt{TxHash: tx.Hash, BlockNumber: 10, Confirmations: 2}
	status, err := mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusConfirmed, status)

	got, err := mgr.GetTransaction(tx.Hash)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.Confirmations)
}

func TestGetStatusAbandonsAfterTimeout(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))

	params := lifecycle.DefaultParams()
	params.ConfirmationTimeout = time.Minute
	mgr, err := lifecycle.NewManager(client, params)
	require.NoError(t, err)

	now := time.Now()
	mgr.WithClock(func() time.Time { return now })

	tx, err := mgr.Execute(context.Background(), testQuote(now.Add(time.Hour)), "alice")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	status, err := mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusAbandoned, status)
}

func TestCancelSemantics(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)

	require.True(t, mgr.Cancel(tx.Hash), "pending transactions can be cancelled")

	got, err := mgr.GetTransaction(tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusCancelled, got.Status)

	require.False(t, mgr.Cancel(tx.Hash), "cancelling twice is a no-op")
	require.False(t, mgr.Cancel("does-not-exist"))
}

func TestCancelConfirmedFails(t *testing.T) {
	client := chain.NewMockClient()
	client.SetBalance("alice", "A", math.NewInt(10_000))
	mgr := newManager(t, client)

	tx, err := mgr.Execute(context.Background(), testQuote(time.Now().Add(time.Minute)), "alice")
	require.NoError(t, err)

	client.Receipts[tx.Hash] = &chain.Receipt{TxHash: tx.Hash, Confirmations: 1}
	_, err = mgr.GetStatus(context.Background(), tx.Hash)
	require.NoError(t, err)

	require.False(t, mgr.Cancel(tx.Hash), "confirmed transactions cannot be cancelled")

	got, err := mgr.GetTransaction(tx.Hash)
	require.NoError(t, err)
	require.Equal(t, types.TxStatusConfirmed, got.Status, "status is untouched by the failed cancel")
}

func TestGetTransactionNotFound(t *testing.T) {
	mgr := newManager(t, chain.NewMockClient())
	_, err := mgr.GetTransaction("missing")
	require.ErrorIs(t, err, types.ErrTxNotFound)

	_, err = mgr.GetStatus(context.Background(), "missing")
	require.ErrorIs(t, err, types.ErrTxNotFound)
}
