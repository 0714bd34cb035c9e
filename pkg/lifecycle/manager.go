// Package lifecycle owns swap execution: payload construction, gas and MEV
// policy, submission, and the transaction state machine through confirmation.
package lifecycle

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cosmossdk.io/math"
	log "github.com/sirupsen/logrus"

	"github.com/paw-chain/swaprouter/pkg/chain"
	"github.com/paw-chain/swaprouter/pkg/types"
)

// Manager executes quotes against the chain client and tracks the resulting
// transactions through their lifecycle.
type Manager struct {
	client chain.Client
	params Params
	gas    gasPolicy
	mev    mevPolicy

	mu  sync.Mutex
	txs map[string]*types.SwapTransaction

	now func() time.Time
}

// NewManager builds a manager over the given chain client.
func NewManager(client chain.Client, params Params) (*Manager, error) {
	if err := params.Validate(); err != nil {
		return nil, types.ErrInvalidRequest.Wrap(err.Error())
	}
	return &Manager{
		client: client,
		params: params,
		gas:    gasPolicy{multiplier: params.GasMultiplier},
		mev: mevPolicy{
			enabled:           params.MEVProtection,
			maxDelay:          params.MEVMaxDelay,
			maxPriceImpactBps: params.MaxPriceImpactBps,
		},
		txs: make(map[string]*types.SwapTransaction),
		now: time.Now,
	}, nil
}

// WithClock overrides the time source (tests).
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// swapPayload is the wire body handed to the chain client.
type swapPayload struct {
	Account      string     `json:"account"`
	Path         types.Path `json:"path"`
	PoolIDs      []string   `json:"pool_ids"`
	AmountIn     string     `json:"amount_in"`
	AmountOutMin string     `json:"amount_out_min"`
	Deadline     int64      `json:"deadline"`
}

// Execute submits the quoted swap for account. The deadline is enforced
// before any chain interaction: an expired quote never reaches the client.
func (m *Manager) Execute(ctx context.Context, q *types.Quote, account string) (*types.SwapTransaction, error) {
	if q == nil || account == "" {
		return nil, types.ErrInvalidRequest.Wrap("quote and account are required")
	}
	now := m.now()
	if q.Expired(now) {
		return nil, types.ErrQuoteExpired.Wrapf("deadline %s passed", q.Deadline.Format(time.RFC3339))
	}

	networkPrice, err := m.client.GetGasPrice(ctx)
	if err != nil {
		return nil, types.ErrSubmissionFailed.Wrapf("gas price: %v", err)
	}
	price := m.gas.submissionPrice(networkPrice, math.Int{})
	limit := gasLimit(q, m.params.GasBase, m.params.GasPerHop)

	source := q.Route.Path[0]
	balance, err := m.client.GetBalance(ctx, account, source)
	if err != nil {
		return nil, types.ErrSubmissionFailed.Wrapf("balance query: %v", err)
	}
	// The swap input and the gas fee draw from the same balance when the
	// source asset is the fee asset.
	required := q.AmountInMax
	if source == m.params.FeeAsset {
		required = required.Add(price.MulRaw(int64(limit)))
	}
	if balance.LT(required) {
		return nil, types.ErrInsufficientBalance.Wrapf(
			"account %s holds %s %s, swap may require up to %s",
			account, balance, source, required)
	}

	payload, err := buildPayload(q, account)
	if err != nil {
		return nil, types.ErrInvalidRequest.Wrapf("payload: %v", err)
	}

	protected, delay := m.mev.assess(q.Route)
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, types.ErrTimeout.Wrap(ctx.Err().Error())
		}
	}

	hash, err := m.client.SubmitTransaction(ctx, payload, chain.GasParams{
		GasPrice:  price,
		GasLimit:  limit,
		Protected: protected,
	})
	if err != nil {
		return nil, types.ErrSubmissionFailed.Wrapf("submit: %v", err)
	}

	tx := &types.SwapTransaction{
		Hash:        hash,
		From:        account,
		Payload:     payload,
		GasPrice:    price,
		GasLimit:    limit,
		Status:      types.TxStatusPending,
		SubmittedAt: m.now(),
		SwapDetails: types.SwapDetails{
			SourceAsset:      source,
			DestinationAsset: q.Route.Path[len(q.Route.Path)-1],
			Path:             q.Route.Path,
			AmountIn:         q.AmountIn,
			AmountOutMin:     q.AmountOutMin,
		},
	}

	m.mu.Lock()
	m.txs[hash] = tx
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"hash":      hash,
		"path":      q.Route.Path.String(),
		"protected": protected,
		"gas_price": price.String(),
	}).Info("Swap transaction submitted")

	cp := *tx
	return &cp, nil
}

func buildPayload(q *types.Quote, account string) ([]byte, error) {
	poolIDs := make([]string, 0, len(q.Route.Hops))
	for _, hop := range q.Route.Hops {
		poolIDs = append(poolIDs, hop.PoolID)
	}
	return json.Marshal(swapPayload{
		Account:      account,
		Path:         q.Route.Path,
		PoolIDs:      poolIDs,
		AmountIn:     q.AmountIn.String(),
		AmountOutMin: q.AmountOutMin.String(),
		Deadline:     q.Deadline.Unix(),
	})
}

// Resubmit replaces a stuck PENDING submission with a repriced copy of the
// same payload. The replacement is priced off the current network price but
// never below the original: lowering the price on a replacement would orphan
// it behind the transaction it is meant to displace.
func (m *Manager) Resubmit(ctx context.Context, hash string) (*types.SwapTransaction, error) {
	m.mu.Lock()
	tx, ok := m.txs[hash]
	if !ok {
		m.mu.Unlock()
		return nil, types.ErrTxNotFound.Wrapf("transaction %s", hash)
	}
	if tx.Status != types.TxStatusPending {
		m.mu.Unlock()
		return nil, types.ErrInvalidStatus.Wrapf(
			"transaction %s is %s, only pending submissions can be replaced", hash, tx.Status)
	}
	prior := *tx
	m.mu.Unlock()

	networkPrice, err := m.client.GetGasPrice(ctx)
	if err != nil {
		return nil, types.ErrSubmissionFailed.Wrapf("gas price: %v", err)
	}
	price := m.gas.submissionPrice(networkPrice, prior.GasPrice)

	newHash, err := m.client.SubmitTransaction(ctx, prior.Payload, chain.GasParams{
		GasPrice: price,
		GasLimit: prior.GasLimit,
	})
	if err != nil {
		return nil, types.ErrSubmissionFailed.Wrapf("resubmit: %v", err)
	}

	replacement := prior
	replacement.Hash = newHash
	replacement.GasPrice = price
	replacement.SubmittedAt = m.now()

	m.mu.Lock()
	delete(m.txs, hash)
	m.txs[newHash] = &replacement
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"hash":      newHash,
		"replaces":  hash,
		"gas_price": price.String(),
	}).Info("Swap transaction resubmitted")

	cp := replacement
	return &cp, nil
}

// GetStatus reconciles the tracked transaction with the chain. No receipt
// means still PENDING until the confirmation timeout, after which the
// transaction is ABANDONED locally. A reverted receipt is FAILED, a mined one
// CONFIRMED.
func (m *Manager) GetStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	m.mu.Lock()
	tx, ok := m.txs[hash]
	m.mu.Unlock()
	if !ok {
		return "", types.ErrTxNotFound.Wrapf("transaction %s", hash)
	}
	if tx.Status.Terminal() {
		return tx.Status, nil
	}

	receipt, err := m.client.GetTransactionReceipt(ctx, hash)
	if err != nil {
		if chain.IsRetryable(err) {
			// Transient lookup failure; the local view stands.
			return tx.Status, nil
		}
		return "", types.ErrSubmissionFailed.Wrapf("receipt: %v", err)
	}

	if receipt == nil {
		if m.now().Sub(tx.SubmittedAt) > m.params.ConfirmationTimeout {
			m.transition(tx, types.TxStatusAbandoned, 0)
			return types.TxStatusAbandoned, nil
		}
		return tx.Status, nil
	}
	if receipt.Reverted {
		m.transition(tx, types.TxStatusFailed, 0)
		return types.TxStatusFailed, nil
	}
	m.transition(tx, types.TxStatusConfirmed, receipt.Confirmations)
	return types.TxStatusConfirmed, nil
}

// transition applies a state change if the machine allows it; illegal moves
// leave the transaction untouched.
func (m *Manager) transition(tx *types.SwapTransaction, next types.TxStatus, confirmations uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !tx.Status.CanTransitionTo(next) {
		log.WithFields(log.Fields{
			"hash": tx.Hash,
			"from": tx.Status,
			"to":   next,
		}).Warn("Illegal transaction status transition ignored")
		return
	}
	tx.Status = next
	if confirmations > tx.Confirmations {
		tx.Confirmations = confirmations
	}
}

// Cancel moves a transaction to CANCELLED if it has not progressed past
// PENDING. It reports whether the cancellation took effect; terminal and
// unknown transactions are left untouched.
func (m *Manager) Cancel(hash string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[hash]
	if !ok {
		return false
	}
	if !tx.Status.CanTransitionTo(types.TxStatusCancelled) {
		return false
	}
	tx.Status = types.TxStatusCancelled
	return true
}

// GetTransaction returns a copy of the tracked transaction.
func (m *Manager) GetTransaction(hash string) (*types.SwapTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[hash]
	if !ok {
		return nil, types.ErrTxNotFound.Wrapf("transaction %s", hash)
	}
	cp := *tx
	return &cp, nil
}
