package elementmap

import (
	"iter"
	"sort"
)

// depEdge is one edge in a depGraph: a reference from a parent
// ElementMap to a child ElementMap via a ChildElementGroup.
type depEdge struct {
	from, to *ElementMap
}

// depGraph is the DAG of ElementMap cross-references reachable from a
// save root, adapted to github.com/rogpeppe/generic/graph's
// EnumerableGraph so its Tarjan SCC implementation can both order the
// save and detect the cycles spec §3/§9 require rejecting. Pointer
// identity is used directly as the node type; CmpNode falls back to
// discovery order for a total, if arbitrary, ordering.
type depGraph struct {
	nodes []*ElementMap
	index map[*ElementMap]int
	edges map[*ElementMap][]depEdge
}

// buildDepGraph walks every ElementMap reachable from root through
// child-group references, in depth-first discovery order.
func buildDepGraph(root *ElementMap) *depGraph {
	g := &depGraph{
		index: make(map[*ElementMap]int),
		edges: make(map[*ElementMap][]depEdge),
	}
	visited := make(map[*ElementMap]bool)

	var visit func(n *ElementMap)
	visit = func(n *ElementMap) {
		if visited[n] {
			return
		}
		visited[n] = true
		g.index[n] = len(g.nodes)
		g.nodes = append(g.nodes, n)

		for _, typ := range n.sortedTypes() {
			bucket := n.indexed[typ]
			bucket.children.Range(func(_ int, grp ChildElementGroup) bool {
				if grp.ElementMap != nil {
					g.edges[n] = append(g.edges[n], depEdge{from: n, to: grp.ElementMap})
					visit(grp.ElementMap)
				}
				return true
			})
		}
	}
	visit(root)
	return g
}

// EdgesFrom implements graph.Graph.
func (g *depGraph) EdgesFrom(n *ElementMap) ([]depEdge, bool) {
	if _, known := g.index[n]; !known {
		return nil, false
	}
	return g.edges[n], true
}

// Nodes implements graph.Graph.
func (g *depGraph) Nodes(e depEdge) (*ElementMap, *ElementMap) {
	return e.from, e.to
}

// CmpNode implements graph.Graph, ordering nodes by discovery position.
func (g *depGraph) CmpNode(a, b *ElementMap) int {
	return g.index[a] - g.index[b]
}

// AllNodes implements graph.EnumerableGraph.
func (g *depGraph) AllNodes() iter.Seq[*ElementMap] {
	return func(yield func(*ElementMap) bool) {
		for _, n := range g.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// sortedTypes returns m's type-bucket keys in ascending order, matching
// the deterministic iteration order spec §5 requires for save.
func (m *ElementMap) sortedTypes() []string {
	types := make([]string, 0, len(m.indexed))
	for t := range m.indexed {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
