package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
)

// Query evaluates one of the named queries. Every query yields a single row
// whose only column is the query name; AveragePathLength yields a nil value
// when the graph has no paths.
func (s *Store) Query(ctx context.Context, q graphstore.Query) ([]graphstore.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.g

	var v any
	switch q {
	case graphstore.TotalPackages:
		v = int64(len(g.nodes))
	case graphstore.TotalTransitiveDependencies:
		v = g.transitiveCount()
	case graphstore.TotalCyclicDependencies:
		var cycles int64
		g.walkTrails(func(start, end, _ int) {
			if start == end {
				cycles++
			}
		})
		v = cycles
	case graphstore.TotalOptionalDependencies:
		v = int64(g.countEdges(graphstore.RelOptionalDependencies))
	case graphstore.TotalPeerDependencies:
		v = int64(g.countEdges(graphstore.RelPeerDependencies))
	case graphstore.GraphDensity:
		v = g.density()
	case graphstore.AveragePathLength:
		var total, count int64
		g.walkTrails(func(_, _, length int) {
			total += int64(length)
			count++
		})
		if count > 0 {
			v = float64(total) / float64(count)
		}
	case graphstore.UnusedDependencies:
		v = g.unusedCount()
	case graphstore.MostDependedOnPackage:
		v = g.maxInDegree()
	case graphstore.VersionMismatch:
		v = g.versionMismatches()
	default:
		return nil, fmt.Errorf("%w: %q", graphstore.ErrUnknownQuery, q)
	}
	return []graphstore.Row{{string(q): v}}, nil
}

func (g *graph) countEdges(types ...graphstore.RelType) int {
	if len(types) == 0 {
		return len(g.edges)
	}
	n := 0
	for _, e := range g.edges {
		if slices.Contains(types, e.rt) {
			n++
		}
	}
	return n
}

func (g *graph) outEdges() [][]int {
	out := make([][]int, len(g.nodes))
	for i, e := range g.edges {
		out[e.from] = append(out[e.from], i)
	}
	return out
}

// walkTrails calls visit once for every path of one or more relationships
// that never reuses a relationship, with its start node, end node and length.
func (g *graph) walkTrails(visit func(start, end, length int)) {
	out := g.outEdges()
	used := make([]bool, len(g.edges))

	var walk func(start, at, depth int)
	walk = func(start, at, depth int) {
		for _, ei := range out[at] {
			if used[ei] {
				continue
			}
			used[ei] = true
			next := g.edges[ei].to
			visit(start, next, depth+1)
			walk(start, next, depth+1)
			used[ei] = false
		}
	}
	for start := range g.nodes {
		walk(start, start, 0)
	}
}

// transitiveCount counts nodes d reachable by a two-relationship path
// u->x->d. The only walk of length two that is not a valid path reuses a
// self-loop, so d qualifies when some x->d has a different relationship
// entering x.
func (g *graph) transitiveCount() int64 {
	in := make([][]int, len(g.nodes))
	for i, e := range g.edges {
		in[e.to] = append(in[e.to], i)
	}
	var n int64
	for d := range g.nodes {
		found := false
		for _, last := range in[d] {
			x := g.edges[last].from
			for _, prev := range in[x] {
				if prev != last {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if found {
			n++
		}
	}
	return n
}

func (g *graph) density() float64 {
	n := len(g.nodes)
	if n <= 1 {
		return 0
	}
	return 2 * float64(len(g.edges)) / float64(n*(n-1))
}

func (g *graph) unusedCount() int64 {
	touched := make([]bool, len(g.nodes))
	for _, e := range g.edges {
		if e.rt == graphstore.RelDependencies {
			touched[e.from] = true
			touched[e.to] = true
		}
	}
	var n int64
	for _, t := range touched {
		if !t {
			n++
		}
	}
	return n
}

func (g *graph) maxInDegree() int64 {
	deg := make([]int64, len(g.nodes))
	var best int64
	for _, e := range g.edges {
		deg[e.to]++
		best = max(best, deg[e.to])
	}
	return best
}

func (g *graph) versionMismatches() int64 {
	versions := make(map[string]map[string]struct{})
	for _, e := range g.edges {
		child := g.nodes[e.to]
		if versions[child.Path] == nil {
			versions[child.Path] = make(map[string]struct{})
		}
		versions[child.Path][child.Version] = struct{}{}
	}
	var n int64
	for _, vs := range versions {
		if len(vs) > 1 {
			n++
		}
	}
	return n
}
