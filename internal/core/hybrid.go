package core

import (
	"fmt"
	"sort"
)

// SubgraphKind tags the members of a Hybrid graph.
type SubgraphKind int

const (
	KindGrid SubgraphKind = iota
	KindRoadmap
)

func (k SubgraphKind) String() string {
	return [...]string{"grid", "roadmap"}[k]
}

// Subgraph is one member of a Hybrid graph. Exactly one of Grid or Roadmap
// is set, matching Kind. Its local IDs map to global IDs [Start, End).
type Subgraph struct {
	Kind    SubgraphKind
	Grid    *Grid
	Roadmap *Workspace
	Start   VertexID
	End     VertexID
	Origin  Pos // layout offset for Position
}

func (s *Subgraph) graph() localGraph {
	if s.Kind == KindGrid {
		return s.Grid
	}
	return s.Roadmap
}

// localGraph is the topology part of Graph, without capacity bookkeeping.
type localGraph interface {
	HasVertex(v VertexID) bool
	HasArc(u, v VertexID) bool
	Succs(v VertexID) []VertexID
	Preds(v VertexID) []VertexID
	Cost(u, v VertexID) CostVec
	SuccCosts(v VertexID) []CostVec
	PredCosts(v VertexID) []CostVec
	NumVertices() int
	NumArcs() int
	CostDim() int
	AllVertices() []VertexID
	Position(v VertexID) (Pos, bool)
}

// Hybrid composes grids and roadmaps into one addressable vertex space and
// adds inter-graph links. Capacity is tracked on global IDs.
type Hybrid struct {
	Capacities

	parts []*Subgraph
	links []Edge
}

// NewHybrid creates an empty composite graph.
func NewHybrid() *Hybrid {
	return &Hybrid{}
}

func (h *Hybrid) nextStart() VertexID {
	if len(h.parts) == 0 {
		return 0
	}
	return h.parts[len(h.parts)-1].End
}

// AddGrid appends a grid and returns its global ID range.
func (h *Hybrid) AddGrid(g *Grid, origin Pos) *Subgraph {
	start := h.nextStart()
	s := &Subgraph{Kind: KindGrid, Grid: g, Start: start, End: start + VertexID(g.NumVertices()), Origin: origin}
	h.parts = append(h.parts, s)
	return s
}

// AddRoadmap appends a roadmap and returns its global ID range.
func (h *Hybrid) AddRoadmap(w *Workspace, origin Pos) *Subgraph {
	start := h.nextStart()
	s := &Subgraph{Kind: KindRoadmap, Roadmap: w, Start: start, End: start + VertexID(w.NumVertices()), Origin: origin}
	h.parts = append(h.parts, s)
	return s
}

// AddLink adds an inter-graph arc between global IDs.
func (h *Hybrid) AddLink(u, v VertexID, cost CostVec) error {
	if !h.HasVertex(u) || !h.HasVertex(v) {
		return fmt.Errorf("link %d->%d: %w", u, v, ErrVertexNotFound)
	}
	if d := h.CostDim(); d != 0 && len(cost) != d {
		return fmt.Errorf("link %d->%d: got %d components, want %d: %w", u, v, len(cost), d, ErrCostDim)
	}
	h.links = append(h.links, Edge{From: u, To: v, Cost: cost.Clone()})
	return nil
}

// Parts returns the subgraph table in insertion order.
func (h *Hybrid) Parts() []*Subgraph { return h.parts }

// Links returns the inter-graph arcs.
func (h *Hybrid) Links() []Edge { return h.links }

// Locate resolves a global ID to its subgraph and local ID.
func (h *Hybrid) Locate(v VertexID) (*Subgraph, VertexID, bool) {
	i := sort.Search(len(h.parts), func(i int) bool { return h.parts[i].End > v })
	if v < 0 || i == len(h.parts) || v < h.parts[i].Start {
		return nil, 0, false
	}
	return h.parts[i], v - h.parts[i].Start, true
}

func (s *Subgraph) globalize(local []VertexID) []VertexID {
	out := make([]VertexID, len(local))
	for i, v := range local {
		out[i] = v + s.Start
	}
	return out
}

// HasVertex reports whether v resolves to a vertex of some subgraph.
func (h *Hybrid) HasVertex(v VertexID) bool {
	s, lv, ok := h.Locate(v)
	return ok && s.graph().HasVertex(lv)
}

// HasArc checks subgraph arcs and links.
func (h *Hybrid) HasArc(u, v VertexID) bool {
	su, lu, ok1 := h.Locate(u)
	sv, lv, ok2 := h.Locate(v)
	if !ok1 || !ok2 {
		return false
	}
	if su == sv && su.graph().HasArc(lu, lv) {
		return true
	}
	for _, l := range h.links {
		if l.From == u && l.To == v {
			return true
		}
	}
	return false
}

// Succs returns subgraph successors followed by linked successors.
func (h *Hybrid) Succs(v VertexID) []VertexID {
	s, lv, ok := h.Locate(v)
	if !ok {
		return nil
	}
	out := s.globalize(s.graph().Succs(lv))
	for _, l := range h.links {
		if l.From == v {
			out = append(out, l.To)
		}
	}
	return out
}

// Preds returns subgraph predecessors followed by linked predecessors.
func (h *Hybrid) Preds(v VertexID) []VertexID {
	s, lv, ok := h.Locate(v)
	if !ok {
		return nil
	}
	out := s.globalize(s.graph().Preds(lv))
	for _, l := range h.links {
		if l.To == v {
			out = append(out, l.From)
		}
	}
	return out
}

// Cost returns the arc cost from the owning subgraph or the link table.
func (h *Hybrid) Cost(u, v VertexID) CostVec {
	su, lu, ok1 := h.Locate(u)
	sv, lv, ok2 := h.Locate(v)
	if !ok1 || !ok2 {
		return nil
	}
	if su == sv {
		if c := su.graph().Cost(lu, lv); c != nil {
			return c
		}
	}
	for _, l := range h.links {
		if l.From == u && l.To == v {
			return l.Cost.Clone()
		}
	}
	return nil
}

// SuccCosts returns costs aligned with Succs.
func (h *Hybrid) SuccCosts(v VertexID) []CostVec {
	s, lv, ok := h.Locate(v)
	if !ok {
		return nil
	}
	out := s.graph().SuccCosts(lv)
	for _, l := range h.links {
		if l.From == v {
			out = append(out, l.Cost.Clone())
		}
	}
	return out
}

// PredCosts returns costs aligned with Preds.
func (h *Hybrid) PredCosts(v VertexID) []CostVec {
	s, lv, ok := h.Locate(v)
	if !ok {
		return nil
	}
	out := s.graph().PredCosts(lv)
	for _, l := range h.links {
		if l.To == v {
			out = append(out, l.Cost.Clone())
		}
	}
	return out
}

// NumVertices returns the size of the global ID space.
func (h *Hybrid) NumVertices() int { return int(h.nextStart()) }

// NumArcs sums subgraph arcs and links.
func (h *Hybrid) NumArcs() int {
	n := len(h.links)
	for _, s := range h.parts {
		n += s.graph().NumArcs()
	}
	return n
}

// NumEdges fails when links are not paired.
func (h *Hybrid) NumEdges() (int, error) {
	n := h.NumArcs()
	if n%2 != 0 {
		return 0, fmt.Errorf("hybrid graph has %d arcs, edge count is not an integer: %w", n, ErrInvariant)
	}
	return n / 2, nil
}

// CostDim assumes every member shares the first member's dimension.
func (h *Hybrid) CostDim() int {
	for _, s := range h.parts {
		if d := s.graph().CostDim(); d != 0 {
			return d
		}
	}
	for _, l := range h.links {
		return len(l.Cost)
	}
	return 0
}

// AllVertices returns global IDs of every member vertex in ascending order.
func (h *Hybrid) AllVertices() []VertexID {
	var out []VertexID
	for _, s := range h.parts {
		out = append(out, s.globalize(s.graph().AllVertices())...)
	}
	return out
}

// Position offsets the member layout by its origin.
func (h *Hybrid) Position(v VertexID) (Pos, bool) {
	s, lv, ok := h.Locate(v)
	if !ok {
		return Pos{}, false
	}
	p, ok := s.graph().Position(lv)
	if !ok {
		return Pos{}, false
	}
	return Pos{X: p.X + s.Origin.X, Y: p.Y + s.Origin.Y, Z: p.Z + s.Origin.Z}, true
}
