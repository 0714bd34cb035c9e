package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// MockClient is an in-memory chain client for tests. Reserve, balance and
// receipt state is configured up front; every method can be forced to fail
// through the error hooks.
type MockClient struct {
	mu sync.Mutex

	Pools    []types.Pool
	Reserves map[string][2]math.Int // poolID -> {reserveA, reserveB}
	Balances map[string]math.Int    // account/asset -> balance
	Receipts map[string]*Receipt
	GasPrice math.Int
	Block    uint64

	SubmitErr   error
	ReceiptErr  error
	GasPriceErr error

	Submitted []SubmittedTx
}

// SubmittedTx records one SubmitTransaction call.
type SubmittedTx struct {
	Hash    string
	Payload []byte
	Gas     GasParams
}

// NewMockClient returns a mock with empty state and a 1-unit gas price.
func NewMockClient() *MockClient {
	return &MockClient{
		Reserves: make(map[string][2]math.Int),
		Balances: make(map[string]math.Int),
		Receipts: make(map[string]*Receipt),
		GasPrice: math.NewInt(1),
		Block:    1,
	}
}

func balanceKey(account, asset string) string {
	return account + "/" + asset
}

// SetBalance configures an account balance for an asset.
func (m *MockClient) SetBalance(account, asset string, amount math.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Balances[balanceKey(account, asset)] = amount
}

func (m *MockClient) ListPools(_ context.Context) ([]types.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pools := make([]types.Pool, len(m.Pools))
	copy(pools, m.Pools)
	return pools, nil
}

func (m *MockClient) GetPoolReserves(_ context.Context, poolID string) (math.Int, math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Reserves[poolID]
	if !ok {
		return math.Int{}, math.Int{}, fmt.Errorf("mock: unknown pool %s", poolID)
	}
	return r[0], r[1], nil
}

func (m *MockClient) GetGasPrice(_ context.Context) (math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GasPriceErr != nil {
		return math.Int{}, m.GasPriceErr
	}
	return m.GasPrice, nil
}

func (m *MockClient) GetBalance(_ context.Context, account, asset string) (math.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.Balances[balanceKey(account, asset)]
	if !ok {
		return math.ZeroInt(), nil
	}
	return bal, nil
}

func (m *MockClient) SubmitTransaction(_ context.Context, payload []byte, gas GasParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	sum := sha256.Sum256(append(payload, byte(len(m.Submitted))))
	hash := hex.EncodeToString(sum[:])
	m.Submitted = append(m.Submitted, SubmittedTx{Hash: hash, Payload: payload, Gas: gas})
	return hash, nil
}

func (m *MockClient) GetTransactionReceipt(_ context.Context, hash string) (*Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReceiptErr != nil {
		return nil, m.ReceiptErr
	}
	return m.Receipts[hash], nil
}

func (m *MockClient) GetBlockNumber(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Block, nil
}

// SubmittedCount returns how many transactions were submitted.
func (m *MockClient) SubmittedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

var _ Client = (*MockClient)(nil)
