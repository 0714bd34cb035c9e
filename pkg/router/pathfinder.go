package router

import (
	"sort"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// findPaths enumerates every acyclic path from source to destination with at
// most maxHops edges, each exactly once. It runs an explicit stack-based DFS
// with a visited set restored on backtrack, so the traversal has no shared
// mutable state and is safe to run per request on worker goroutines.
//
// Enumeration is exhaustive; callers that cap the candidate set must do so
// after ranking, never here, or the best path can be silently dropped.
//
// An empty result is a valid outcome; the caller decides how to report it.
func findPaths(g *liquidityGraph, source, destination string, maxHops int) []types.Path {
	if source == destination || maxHops <= 0 {
		return nil
	}
	if !g.contains(source) || !g.contains(destination) {
		return nil
	}

	neighbors := g.neighborSets()

	type frame struct {
		asset string
		next  int // index of the next neighbor to explore
	}

	var paths []types.Path
	stack := []frame{{asset: source}}
	path := []string{source}
	visited := map[string]struct{}{source: {}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		adj := neighbors[top.asset]

		if top.next >= len(adj) {
			// Exhausted this node: backtrack and restore the visited set.
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			delete(visited, top.asset)
			continue
		}

		candidate := adj[top.next]
		top.next++

		if _, seen := visited[candidate]; seen {
			continue
		}

		if candidate == destination {
			emitted := make(types.Path, len(path)+1)
			copy(emitted, path)
			emitted[len(path)] = candidate
			paths = append(paths, emitted)
			continue
		}

		// Depth is bounded by maxHops edges; the visited set bounds it
		// further by the asset count.
		if len(path) >= maxHops {
			continue
		}

		visited[candidate] = struct{}{}
		path = append(path, candidate)
		stack = append(stack, frame{asset: candidate})
	}

	return paths
}

// neighborSets collapses parallel pools between the same pair into a single
// adjacency entry, sorted for deterministic traversal order.
func (g *liquidityGraph) neighborSets() map[string][]string {
	sets := make(map[string][]string, len(g.edges))
	for asset, edges := range g.edges {
		seen := make(map[string]struct{}, len(edges))
		var adj []string
		for _, e := range edges {
			if _, dup := seen[e.assetOut]; dup {
				continue
			}
			seen[e.assetOut] = struct{}{}
			adj = append(adj, e.assetOut)
		}
		sort.Strings(adj)
		sets[asset] = adj
	}
	return sets
}

// bestPool returns the deepest non-excluded pool connecting the pair within
// this graph, if any.
func (g *liquidityGraph) bestPool(assetA, assetB string) (types.Pool, bool) {
	var best types.Pool
	found := false
	for _, e := range g.edges[assetA] {
		if e.assetOut != assetB {
			continue
		}
		p := g.pools[e.poolID]
		if !found || p.ReserveA.Mul(p.ReserveB).GT(best.ReserveA.Mul(best.ReserveB)) {
			best = p
			found = true
		}
	}
	return best, found
}
