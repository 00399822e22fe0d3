package graph

import (
	"slices"

	"github.com/cxd309/roadgrid-engine/internal/grid"
)

// Provider hands out paths over the current road layout and rebuilds the routing
// graph lazily: only when a road edit marked it dirty (or the layout version moved)
// since the last build. It never mutates the layout.
type Provider struct {
	layout    *grid.Layout
	endpoints []grid.Cell
	graph     *Graph
	dirty     bool
	version   uint64
	builds    int
}

// NewProvider creates a provider over layout. Endpoints are the entrance/exit
// sentinel cells of the level.
func NewProvider(layout *grid.Layout, endpoints []grid.Cell) *Provider {
	return &Provider{
		layout:    layout,
		endpoints: slices.Clone(endpoints),
		dirty:     true,
	}
}

// MarkDirty forces a rebuild before the next query.
func (p *Provider) MarkDirty() { p.dirty = true }

// Dirty reports whether the next query will rebuild the graph.
func (p *Provider) Dirty() bool {
	return p.dirty || p.graph == nil || p.version != p.layout.Version()
}

// Builds returns how many times the graph has been built.
func (p *Provider) Builds() int { return p.builds }

// Graph returns the up-to-date routing graph.
func (p *Provider) Graph() *Graph {
	if p.layout == nil {
		panic("graph: path provider used before a grid was established")
	}
	if p.Dirty() {
		p.graph = Build(p.layout, p.endpoints)
		p.version = p.layout.Version()
		p.dirty = false
		p.builds++
	}
	return p.graph
}

// RequestPath returns the shortest path from start to goal, or ok=false when no
// path exists. Sentinel cells outside the grid that were not registered up front
// are added as endpoints, which triggers one rebuild.
func (p *Provider) RequestPath(start, goal grid.Cell) ([]grid.Cell, bool) {
	if p.layout == nil {
		panic("graph: path provider used before a grid was established")
	}
	for _, c := range []grid.Cell{start, goal} {
		if p.layout.IsExterior(c) && !slices.Contains(p.endpoints, c) {
			p.endpoints = append(p.endpoints, c)
			p.dirty = true
		}
	}
	return p.Graph().ShortestPath(start, goal)
}
