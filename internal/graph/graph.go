// Package graph derives the directed movement graph from a road layout and answers
// shortest-path queries over it.
//
// Nodes are road cells plus the entrance/exit sentinel cells registered with the
// graph. An open road has edges to every orthogonal road or sentinel neighbour; a
// road with direction annotations only has edges along those directions. A sentinel
// has a single edge into its interior neighbour when that neighbour is a road.
//
// Graph implements gonum's graph.Directed. Neighbour iteration follows scan order
// (roads row-major, then sentinels in registration order; per node, exits in
// annotation order) so repeated queries on an unchanged graph return identical paths.
package graph

import (
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// PathID identifies a cached start→goal query.
type PathID = string

// Node is a graph node for one cell.
type Node struct {
	id   int64
	Cell grid.Cell
}

// ID implements gonum's graph.Node.
func (n Node) ID() int64 { return n.id }

// Graph is a directed cell graph built from a layout snapshot.
type Graph struct {
	dims    grid.Dims
	nodes   []gonum.Node
	nodeMap map[int64]Node
	from    map[int64][]gonum.Node
	to      map[int64][]gonum.Node
	edges   map[int64]map[int64]bool // u → v
	// Shortest-path trees per start node; filled on demand.
	trees map[int64]path.Shortest
	// Path cache keyed by pathKey.
	pathCache map[PathID][]grid.Cell
}

var _ gonum.Directed = (*Graph)(nil)

// Build derives the movement graph from the layout's roads. Endpoints are the
// entrance/exit sentinel cells that should exist as nodes; cells that are not valid
// sentinels for the layout's dimensions are ignored.
func Build(layout *grid.Layout, endpoints []grid.Cell) *Graph {
	g := &Graph{
		dims:      layout.Dims,
		nodeMap:   make(map[int64]Node),
		from:      make(map[int64][]gonum.Node),
		to:        make(map[int64][]gonum.Node),
		edges:     make(map[int64]map[int64]bool),
		trees:     make(map[int64]path.Shortest),
		pathCache: make(map[PathID][]grid.Cell),
	}

	for r := 0; r < layout.Rows; r++ {
		for c := 0; c < layout.Cols; c++ {
			cell := grid.Cell{Row: r, Col: c}
			if layout.IsRoad(cell) && !layout.IsBlocked(cell) {
				g.addNode(cell)
			}
		}
	}
	var sentinels []grid.Cell
	for _, e := range endpoints {
		if !layout.IsExterior(e) || g.has(e) {
			continue
		}
		g.addNode(e)
		sentinels = append(sentinels, e)
	}

	for _, n := range slices.Clone(g.nodes) {
		cell := n.(Node).Cell
		road, ok := layout.Road(cell)
		if !ok {
			continue
		}
		for _, d := range road.Exits() {
			if next := cell.Neighbor(d); g.has(next) {
				g.addEdge(cell, next)
			}
		}
	}
	for _, s := range sentinels {
		if in, ok := layout.Interior(s); ok && g.has(in) {
			g.addEdge(s, in)
		}
	}
	return g
}

// nodeID maps a cell (including sentinels one step outside) to a unique id.
func (g *Graph) nodeID(c grid.Cell) int64 {
	return int64(c.Row+1)*int64(g.dims.Cols+2) + int64(c.Col+1)
}

func (g *Graph) has(c grid.Cell) bool {
	_, ok := g.nodeMap[g.nodeID(c)]
	return ok
}

func (g *Graph) addNode(c grid.Cell) {
	n := Node{id: g.nodeID(c), Cell: c}
	g.nodes = append(g.nodes, n)
	g.nodeMap[n.id] = n
}

func (g *Graph) addEdge(u, v grid.Cell) {
	uid, vid := g.nodeID(u), g.nodeID(v)
	if g.edges[uid] == nil {
		g.edges[uid] = make(map[int64]bool)
	}
	if g.edges[uid][vid] {
		return
	}
	g.edges[uid][vid] = true
	g.from[uid] = append(g.from[uid], g.nodeMap[vid])
	g.to[vid] = append(g.to[vid], g.nodeMap[uid])
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// HasStep reports whether the graph allows a single move from u to v.
func (g *Graph) HasStep(u, v grid.Cell) bool {
	return g.HasEdgeFromTo(g.nodeID(u), g.nodeID(v))
}

// Successors returns the cells reachable in one step from c, in scan order.
func (g *Graph) Successors(c grid.Cell) []grid.Cell {
	out := make([]grid.Cell, 0, 4)
	for _, n := range g.from[g.nodeID(c)] {
		out = append(out, n.(Node).Cell)
	}
	return out
}

// Node implements gonum's graph.Graph.
func (g *Graph) Node(id int64) gonum.Node {
	n, ok := g.nodeMap[id]
	if !ok {
		return nil
	}
	return n
}

// Nodes implements gonum's graph.Graph.
func (g *Graph) Nodes() gonum.Nodes {
	if len(g.nodes) == 0 {
		return gonum.Empty
	}
	return iterator.NewOrderedNodes(g.nodes)
}

// From implements gonum's graph.Graph.
func (g *Graph) From(id int64) gonum.Nodes {
	if len(g.from[id]) == 0 {
		return gonum.Empty
	}
	return iterator.NewOrderedNodes(g.from[id])
}

// To implements gonum's graph.Directed.
func (g *Graph) To(id int64) gonum.Nodes {
	if len(g.to[id]) == 0 {
		return gonum.Empty
	}
	return iterator.NewOrderedNodes(g.to[id])
}

// HasEdgeFromTo implements gonum's graph.Directed.
func (g *Graph) HasEdgeFromTo(uid, vid int64) bool { return g.edges[uid][vid] }

// HasEdgeBetween implements gonum's graph.Graph.
func (g *Graph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

// Edge implements gonum's graph.Graph.
func (g *Graph) Edge(uid, vid int64) gonum.Edge {
	if !g.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return simple.Edge{F: g.nodeMap[uid], T: g.nodeMap[vid]}
}
