// Package engine wires the registry, router, quote assembler, cache and
// lifecycle manager into one conversion engine facade.
package engine

import (
	"context"
	"errors"
	"time"

	"cosmossdk.io/math"
	log "github.com/sirupsen/logrus"

	"github.com/paw-chain/swaprouter/pkg/chain"
	"github.com/paw-chain/swaprouter/pkg/lifecycle"
	"github.com/paw-chain/swaprouter/pkg/metrics"
	"github.com/paw-chain/swaprouter/pkg/quote"
	"github.com/paw-chain/swaprouter/pkg/registry"
	"github.com/paw-chain/swaprouter/pkg/router"
	"github.com/paw-chain/swaprouter/pkg/types"
)

// Options collects the engine tunables. Zero values select defaults.
type Options struct {
	RouterParams       router.Params
	LifecycleParams    lifecycle.Params
	SlippageCeilingBps uint32
	DeadlineWindow     time.Duration
	QuoteCacheTTL      time.Duration
	RefreshInterval    time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		RouterParams:    router.DefaultParams(),
		LifecycleParams: lifecycle.DefaultParams(),
		RefreshInterval: 15 * time.Second,
	}
}

// Engine is the conversion engine facade. All methods are safe for
// concurrent use.
type Engine struct {
	registry  *registry.Registry
	router    *router.Router
	assembler *quote.Assembler
	cache     *quote.Cache
	manager   *lifecycle.Manager
	queue     *lifecycle.Queue
	client    chain.Client
	opts      Options
}

// New builds an engine over the chain client.
func New(client chain.Client, opts Options) (*Engine, error) {
	reg := registry.New()
	rtr, err := router.New(reg, opts.RouterParams)
	if err != nil {
		return nil, err
	}
	mgr, err := lifecycle.NewManager(client, opts.LifecycleParams)
	if err != nil {
		return nil, err
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 15 * time.Second
	}
	return &Engine{
		registry: reg,
		router:   rtr,
		assembler: quote.NewAssembler(opts.SlippageCeilingBps, opts.DeadlineWindow).
			WithGasModel(opts.LifecycleParams.GasBase, opts.LifecycleParams.GasPerHop),
		cache:   quote.NewCache(opts.QuoteCacheTTL),
		manager: mgr,
		queue:   lifecycle.NewQueue(mgr, opts.LifecycleParams),
		client:  client,
		opts:    opts,
	}, nil
}

// Registry exposes the pool registry, for seeding pools and inspection.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// GetQuote computes the best conversion quote for the request, serving from
// the TTL cache when a fresh equivalent quote exists.
func (e *Engine) GetQuote(ctx context.Context, req types.QuoteRequest) (*types.Quote, error) {
	start := time.Now()

	key := quote.Key(req)
	if key == "" {
		metrics.RecordCacheLookup("bypass")
	} else if cached, ok := e.cache.Get(key); ok {
		metrics.RecordCacheLookup("hit")
		metrics.RecordQuote("success", time.Since(start))
		return cached, nil
	} else {
		metrics.RecordCacheLookup("miss")
	}

	routes, err := e.router.FindRoutes(req)
	if err != nil {
		metrics.RecordQuote(quoteOutcome(err), time.Since(start))
		return nil, err
	}
	metrics.RoutesEvaluated.Add(float64(len(routes)))

	q, err := e.assembler.Assemble(req, routes, 0)
	if err != nil {
		metrics.RecordQuote(quoteOutcome(err), time.Since(start))
		return nil, err
	}

	e.cache.Put(key, q)
	metrics.RecordQuote("success", time.Since(start))
	return q, nil
}

func quoteOutcome(err error) string {
	switch {
	case errors.Is(err, types.ErrNoRouteFound):
		return "no_route"
	case errors.Is(err, types.ErrInvalidRequest),
		errors.Is(err, types.ErrInvalidSlippage),
		errors.Is(err, types.ErrUnknownAsset):
		return "invalid"
	}
	return "error"
}

// BatchQuotes computes quotes for several requests, omitting the ones that
// fail. The result order follows the input order of the successes.
func (e *Engine) BatchQuotes(ctx context.Context, reqs []types.QuoteRequest) []*types.Quote {
	quotes := make([]*types.Quote, 0, len(reqs))
	for _, req := range reqs {
		q, err := e.GetQuote(ctx, req)
		if err != nil {
			log.WithFields(log.Fields{
				"source":      req.SourceAsset,
				"destination": req.DestinationAsset,
			}).WithError(err).Debug("Batch quote entry skipped")
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// SpotPrice returns the marginal price of assetOut in assetIn for the
// deepest pool of the pair.
func (e *Engine) SpotPrice(assetIn, assetOut string) (math.LegacyDec, error) {
	return e.router.SpotPrice(assetIn, assetOut)
}

// ExecuteSwap submits the quoted swap immediately.
func (e *Engine) ExecuteSwap(ctx context.Context, q *types.Quote, account string) (*types.SwapTransaction, error) {
	timer := metrics.NewTimer()
	tx, err := e.manager.Execute(ctx, q, account)
	metrics.RecordSubmission(submissionOutcome(err))
	if err == nil {
		timer.ObserveDuration(metrics.SubmissionLatency)
	}
	return tx, err
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "submitted"
	case errors.Is(err, types.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, types.ErrQuoteExpired):
		return "expired"
	}
	return "failed"
}

// ResubmitTransaction replaces a stuck pending submission with a repriced
// one and returns the replacement.
func (e *Engine) ResubmitTransaction(ctx context.Context, hash string) (*types.SwapTransaction, error) {
	tx, err := e.manager.Resubmit(ctx, hash)
	metrics.RecordSubmission(submissionOutcome(err))
	return tx, err
}

// QueueSwap quotes the request and enqueues it for rate-limited background
// submission, returning the queue id.
func (e *Engine) QueueSwap(ctx context.Context, req types.QuoteRequest, account string, priority int) (string, error) {
	q, err := e.GetQuote(ctx, req)
	if err != nil {
		return "", err
	}
	id, err := e.queue.Enqueue(q, account, priority)
	if err == nil {
		metrics.UpdateQueueDepth(e.queue.Status().Queued)
	}
	return id, err
}

// GetQueueStatus returns the aggregate submission queue counters.
func (e *Engine) GetQueueStatus() types.QueueStatus {
	st := e.queue.Status()
	metrics.UpdateQueueDepth(st.Queued)
	return st
}

// GetTransaction returns the tracked transaction for hash.
func (e *Engine) GetTransaction(hash string) (*types.SwapTransaction, error) {
	return e.manager.GetTransaction(hash)
}

// GetTransactionStatus reconciles the transaction with the chain and returns
// its current lifecycle status.
func (e *Engine) GetTransactionStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	return e.manager.GetStatus(ctx, hash)
}

// CancelTransaction cancels a queued or pending swap. It tries the queue id
// first, then the transaction hash, and reports whether anything was
// cancelled.
func (e *Engine) CancelTransaction(id string) bool {
	if e.queue.Cancel(id) {
		return true
	}
	return e.manager.Cancel(id)
}

// Sync discovers the pool set from the chain and replaces the registry
// contents. Called at startup and whenever the pool set may have changed.
func (e *Engine) Sync(ctx context.Context) error {
	pools, err := e.client.ListPools(ctx)
	if err != nil {
		metrics.UpdateRegistry(e.registry.PoolCount(), "failed")
		return err
	}
	if err := e.registry.UpsertPools(pools); err != nil {
		metrics.UpdateRegistry(e.registry.PoolCount(), "failed")
		return err
	}
	metrics.UpdateRegistry(e.registry.PoolCount(), "ok")
	return nil
}

// Refresh re-reads reserves for every registered pool from the chain.
func (e *Engine) Refresh(ctx context.Context) error {
	err := e.registry.Refresh(ctx, e.client)
	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.UpdateRegistry(e.registry.PoolCount(), status)
	return err
}

// Run drives the engine background work until ctx is cancelled: the queue
// worker, the periodic reserve refresh, and the subscription that drops
// cached quotes whenever reserves change.
func (e *Engine) Run(ctx context.Context) {
	go e.queue.Run(ctx)

	events := e.registry.Subscribe(ctx)
	go func() {
		for ev := range events {
			e.cache.InvalidateAll()
			log.WithFields(log.Fields{
				"version": ev.Version,
				"pools":   ev.PoolCount,
			}).Debug("Quote cache invalidated on registry refresh")
		}
	}()

	ticker := time.NewTicker(e.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				log.WithError(err).Warn("Periodic reserve refresh failed")
			}
		}
	}
}
