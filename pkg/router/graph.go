package router

import (
	"sync"

	"github.com/paw-chain/swaprouter/pkg/registry"
	"github.com/paw-chain/swaprouter/pkg/types"
)

// poolEdge is one traversable connection between assets via a pool.
type poolEdge struct {
	poolID   string
	assetOut string
}

// liquidityGraph is the asset connectivity derived from a registry snapshot.
// It is immutable once built; a registry version bump invalidates it.
type liquidityGraph struct {
	version uint64
	edges   map[string][]poolEdge
	pools   map[string]types.Pool
}

// Exclusions lists assets and pools a request must not route through.
type Exclusions struct {
	Assets map[string]struct{}
	Pools  map[string]struct{}
}

// NewExclusions builds an exclusion set from slices.
func NewExclusions(assets, pools []string) Exclusions {
	ex := Exclusions{
		Assets: make(map[string]struct{}, len(assets)),
		Pools:  make(map[string]struct{}, len(pools)),
	}
	for _, a := range assets {
		ex.Assets[a] = struct{}{}
	}
	for _, p := range pools {
		ex.Pools[p] = struct{}{}
	}
	return ex
}

// Empty reports whether nothing is excluded.
func (ex Exclusions) Empty() bool {
	return len(ex.Assets) == 0 && len(ex.Pools) == 0
}

// graphCache lazily rebuilds the liquidity graph on first use after a
// registry change. The unfiltered graph is cached; exclusion-filtered graphs
// are built per request since exclusion sets vary by caller.
type graphCache struct {
	mu       sync.Mutex
	registry *registry.Registry
	cached   *liquidityGraph
}

func newGraphCache(reg *registry.Registry) *graphCache {
	return &graphCache{registry: reg}
}

// get returns a graph for the current registry version, honoring exclusions.
func (gc *graphCache) get(ex Exclusions) *liquidityGraph {
	if !ex.Empty() {
		return buildGraph(gc.registry, ex)
	}

	version := gc.registry.Version()
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.cached != nil && gc.cached.version == version {
		return gc.cached
	}
	gc.cached = buildGraph(gc.registry, ex)
	return gc.cached
}

// buildGraph derives bidirectional asset adjacency from the registry
// snapshot, skipping excluded assets and pools.
func buildGraph(reg *registry.Registry, ex Exclusions) *liquidityGraph {
	g := &liquidityGraph{
		version: reg.Version(),
		edges:   make(map[string][]poolEdge),
		pools:   make(map[string]types.Pool),
	}
	for _, pool := range reg.AllPools() {
		if _, excluded := ex.Pools[pool.ID]; excluded {
			continue
		}
		if _, excluded := ex.Assets[pool.AssetA]; excluded {
			continue
		}
		if _, excluded := ex.Assets[pool.AssetB]; excluded {
			continue
		}
		g.pools[pool.ID] = pool
		g.edges[pool.AssetA] = append(g.edges[pool.AssetA], poolEdge{poolID: pool.ID, assetOut: pool.AssetB})
		g.edges[pool.AssetB] = append(g.edges[pool.AssetB], poolEdge{poolID: pool.ID, assetOut: pool.AssetA})
	}
	return g
}

// contains reports whether the asset appears in any pool of the graph.
func (g *liquidityGraph) contains(asset string) bool {
	_, ok := g.edges[asset]
	return ok
}
