package graph

import (
	"slices"

	"gonum.org/v1/gonum/graph/path"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// pathKey returns a canonical string key for a start→goal pair.
func pathKey(start, goal grid.Cell) PathID { return start.String() + "->" + goal.String() }

// tree returns the shortest-path tree rooted at start, computing it on first use.
// Every edge has unit weight, so Dijkstra visits nodes in breadth-first order.
func (g *Graph) tree(start Node) path.Shortest {
	if t, ok := g.trees[start.id]; ok {
		return t
	}
	t := path.DijkstraFrom(start, g)
	g.trees[start.id] = t
	return t
}

// ShortestPath returns the cells from start to goal inclusive. ok is false when
// either cell is not in the graph or goal is unreachable; that is a normal outcome,
// not an error.
func (g *Graph) ShortestPath(start, goal grid.Cell) (route []grid.Cell, ok bool) {
	key := pathKey(start, goal)
	if p, hit := g.pathCache[key]; hit {
		return slices.Clone(p), p != nil
	}
	route = g.shortestPath(start, goal)
	g.pathCache[key] = route
	return slices.Clone(route), route != nil
}

func (g *Graph) shortestPath(start, goal grid.Cell) []grid.Cell {
	s, ok := g.nodeMap[g.nodeID(start)]
	if !ok || !g.has(goal) {
		return nil
	}
	if start == goal {
		return []grid.Cell{start}
	}
	nodes, _ := g.tree(s).To(g.nodeID(goal))
	if len(nodes) == 0 {
		return nil
	}
	route := make([]grid.Cell, len(nodes))
	for i, n := range nodes {
		route[i] = n.(Node).Cell
	}
	return route
}
