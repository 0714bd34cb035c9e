// Package registry holds the known set of liquidity pools. Reads are served
// from an immutable snapshot swapped in atomically on refresh, so concurrent
// readers never observe a torn update.
package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cosmossdk.io/math"
	log "github.com/sirupsen/logrus"

	"github.com/paw-chain/swaprouter/pkg/chain"
	"github.com/paw-chain/swaprouter/pkg/types"
)

// PairKey is the canonical (order-independent) key for an asset pair.
type PairKey struct {
	A, B string
}

// NewPairKey normalizes the pair so that NewPairKey(x, y) == NewPairKey(y, x).
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// snapshot is the immutable registry state. A new snapshot replaces the old
// one wholesale; existing readers keep working against the one they loaded.
type snapshot struct {
	version uint64
	pools   map[string]types.Pool  // pool id -> pool
	byPair  map[PairKey][]string   // pair -> pool ids
	byAsset map[string][]string    // asset -> pool ids touching it
	assets  map[string]types.Asset // asset id -> metadata
}

func emptySnapshot() *snapshot {
	return &snapshot{
		pools:   make(map[string]types.Pool),
		byPair:  make(map[PairKey][]string),
		byAsset: make(map[string][]string),
		assets:  make(map[string]types.Asset),
	}
}

// RefreshEvent is published to subscribers when the snapshot changes.
type RefreshEvent struct {
	Version   uint64
	PoolCount int
	At        time.Time
}

// Registry owns the pool set. Writes are serialized by mu; the read path is
// lock-free against the current snapshot.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]

	subMu   sync.Mutex
	subs    map[int]chan RefreshEvent
	nextSub int
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{subs: make(map[int]chan RefreshEvent)}
	r.snap.Store(emptySnapshot())
	return r
}

// Version returns the current snapshot version. It increases on every
// UpsertPools, so cached derivations (graphs, quotes) can detect staleness.
func (r *Registry) Version() uint64 {
	return r.snap.Load().version
}

// UpsertPools replaces or adds pools, swapping in a new immutable snapshot.
// Invalid pools are rejected before any state changes.
func (r *Registry) UpsertPools(pools []types.Pool) error {
	for _, p := range pools {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	old := r.snap.Load()
	next := emptySnapshot()
	next.version = old.version + 1
	for id, p := range old.pools {
		next.pools[id] = p
	}
	for _, p := range pools {
		next.pools[p.ID] = p
	}
	for id, a := range old.assets {
		next.assets[id] = a
	}
	for id, p := range next.pools {
		key := NewPairKey(p.AssetA, p.AssetB)
		next.byPair[key] = append(next.byPair[key], id)
		next.byAsset[p.AssetA] = append(next.byAsset[p.AssetA], id)
		next.byAsset[p.AssetB] = append(next.byAsset[p.AssetB], id)
	}
	r.snap.Store(next)
	r.mu.Unlock()

	r.publish(RefreshEvent{Version: next.version, PoolCount: len(next.pools), At: time.Now()})
	return nil
}

// UpsertAssets registers or replaces asset metadata. Invalid assets are
// rejected before any state changes. The pool set is untouched; published
// snapshots are immutable, so the new one shares the old pool maps.
func (r *Registry) UpsertAssets(assets []types.Asset) error {
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	old := r.snap.Load()
	next := &snapshot{
		version: old.version + 1,
		pools:   old.pools,
		byPair:  old.byPair,
		byAsset: old.byAsset,
		assets:  make(map[string]types.Asset, len(old.assets)+len(assets)),
	}
	for id, a := range old.assets {
		next.assets[id] = a
	}
	for _, a := range assets {
		next.assets[a.ID] = a
	}
	r.snap.Store(next)
	r.mu.Unlock()

	r.publish(RefreshEvent{Version: next.version, PoolCount: len(next.pools), At: time.Now()})
	return nil
}

// GetAsset returns the registered metadata for an asset, if any.
func (r *Registry) GetAsset(id string) (types.Asset, bool) {
	a, ok := r.snap.Load().assets[id]
	return a, ok
}

// GetPool returns the deepest pool for the unordered asset pair, if any.
func (r *Registry) GetPool(assetA, assetB string) (types.Pool, bool) {
	snap := r.snap.Load()
	ids := snap.byPair[NewPairKey(assetA, assetB)]
	if len(ids) == 0 {
		return types.Pool{}, false
	}
	best := snap.pools[ids[0]]
	for _, id := range ids[1:] {
		p := snap.pools[id]
		if p.ReserveA.Mul(p.ReserveB).GT(best.ReserveA.Mul(best.ReserveB)) {
			best = p
		}
	}
	return best, true
}

// GetPoolByID looks a pool up by its identifier.
func (r *Registry) GetPoolByID(id string) (types.Pool, bool) {
	p, ok := r.snap.Load().pools[id]
	return p, ok
}

// AllPoolsTouching returns every pool containing the asset.
func (r *Registry) AllPoolsTouching(asset string) []types.Pool {
	snap := r.snap.Load()
	ids := snap.byAsset[asset]
	out := make([]types.Pool, 0, len(ids))
	for _, id := range ids {
		out = append(out, snap.pools[id])
	}
	return out
}

// AllPools returns every registered pool.
func (r *Registry) AllPools() []types.Pool {
	snap := r.snap.Load()
	out := make([]types.Pool, 0, len(snap.pools))
	for _, p := range snap.pools {
		out = append(out, p)
	}
	return out
}

// PoolCount returns the number of registered pools.
func (r *Registry) PoolCount() int {
	return len(r.snap.Load().pools)
}

// Refresh re-reads reserves for every known pool from the chain client and
// swaps in the updated snapshot. Reserve pairs are replaced atomically: a
// pool whose lookup fails keeps its previous reserves rather than taking a
// partial update.
func (r *Registry) Refresh(ctx context.Context, client chain.Client) error {
	snap := r.snap.Load()
	updated := make([]types.Pool, 0, len(snap.pools))
	for id, p := range snap.pools {
		reserveA, reserveB, err := fetchReservesWithRetry(ctx, client, id)
		if err != nil {
			log.WithFields(log.Fields{
				"pool_id": id,
				"error":   err,
			}).Warn("Pool reserve refresh failed, keeping previous reserves")
			continue
		}
		if !reserveA.IsPositive() || !reserveB.IsPositive() {
			log.WithField("pool_id", id).Warn("Refresh returned non-positive reserves, skipping pool")
			continue
		}
		p.ReserveA = reserveA
		p.ReserveB = reserveB
		updated = append(updated, p)
	}
	if len(updated) == 0 {
		return nil
	}
	return r.UpsertPools(updated)
}

const (
	refreshRetries    = 3
	refreshRetryDelay = 250 * time.Millisecond
)

// fetchReservesWithRetry retries transient chain failures with exponential
// backoff; non-retryable errors fail immediately.
func fetchReservesWithRetry(ctx context.Context, client chain.Client, poolID string) (math.Int, math.Int, error) {
	var lastErr error
	delay := refreshRetryDelay
	for attempt := 0; attempt <= refreshRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return math.Int{}, math.Int{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		reserveA, reserveB, err := client.GetPoolReserves(ctx, poolID)
		if err == nil {
			return reserveA, reserveB, nil
		}
		lastErr = err
		if !chain.IsRetryable(err) {
			break
		}
	}
	return math.Int{}, math.Int{}, lastErr
}

// Subscribe returns a channel receiving refresh events until ctx is
// cancelled. The channel is buffered; a slow consumer drops events rather
// than blocking the writer.
func (r *Registry) Subscribe(ctx context.Context) <-chan RefreshEvent {
	ch := make(chan RefreshEvent, 8)

	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subMu.Unlock()

	go func() {
		<-ctx.Done()
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
		close(ch)
	}()

	return ch
}

func (r *Registry) publish(ev RefreshEvent) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
