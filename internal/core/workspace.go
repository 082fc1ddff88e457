package core

import (
	"fmt"
	"strings"
)

// Vertex represents a location in a roadmap.
type Vertex struct {
	ID  VertexID
	Pos Pos
}

// Edge is a directed arc with a vector cost.
type Edge struct {
	From, To VertexID
	Cost     CostVec
}

// Workspace is a sparse roadmap graph with vector arc costs.
// Vertex IDs span [0, NumVertices()); gaps are allowed but hold no vertex.
type Workspace struct {
	Capacities

	Vertices map[VertexID]*Vertex
	Edges    map[VertexID][]Edge // outgoing arcs
	In       map[VertexID][]Edge // incoming arcs

	nArc int
	cdim int
	span int
}

// NewWorkspace creates an empty roadmap.
func NewWorkspace() *Workspace {
	return &Workspace{
		Vertices: make(map[VertexID]*Vertex),
		Edges:    make(map[VertexID][]Edge),
		In:       make(map[VertexID][]Edge),
	}
}

// AddVertex adds a vertex to the roadmap. Re-adding an ID replaces its position.
func (w *Workspace) AddVertex(v *Vertex) {
	w.Vertices[v.ID] = v
	if w.Edges[v.ID] == nil {
		w.Edges[v.ID] = []Edge{}
	}
	if int(v.ID)+1 > w.span {
		w.span = int(v.ID) + 1
	}
}

// AddArc adds a directed arc, creating missing endpoints. The first arc fixes
// the cost dimension; later arcs must match it.
func (w *Workspace) AddArc(from, to VertexID, cost CostVec) error {
	if from < 0 || to < 0 {
		return fmt.Errorf("add arc %d->%d: %w", from, to, ErrVertexNotFound)
	}
	if w.nArc == 0 && w.cdim == 0 {
		w.cdim = len(cost)
	} else if len(cost) != w.cdim {
		return fmt.Errorf("add arc %d->%d: got %d components, want %d: %w",
			from, to, len(cost), w.cdim, ErrCostDim)
	}
	for _, id := range []VertexID{from, to} {
		if _, ok := w.Vertices[id]; !ok {
			w.AddVertex(&Vertex{ID: id})
		}
	}
	c := cost.Clone()
	w.Edges[from] = append(w.Edges[from], Edge{From: from, To: to, Cost: c})
	w.In[to] = append(w.In[to], Edge{From: from, To: to, Cost: c})
	w.nArc++
	return nil
}

// AddEdge adds a bidirectional edge as two arcs with the same cost.
func (w *Workspace) AddEdge(from, to VertexID, cost CostVec) error {
	if err := w.AddArc(from, to, cost); err != nil {
		return err
	}
	return w.AddArc(to, from, cost)
}

// SetArcCost replaces the cost of an existing arc.
func (w *Workspace) SetArcCost(from, to VertexID, cost CostVec) error {
	if len(cost) != w.cdim {
		return fmt.Errorf("set arc cost %d->%d: %w (call ChangeCostDim first)", from, to, ErrCostDim)
	}
	if !w.HasVertex(from) || !w.HasVertex(to) {
		return fmt.Errorf("set arc cost %d->%d: %w", from, to, ErrVertexNotFound)
	}
	i := indexOf(w.Edges[from], to)
	if i < 0 {
		return fmt.Errorf("set arc cost %d->%d: %w", from, to, ErrArcNotFound)
	}
	c := cost.Clone()
	w.Edges[from][i].Cost = c
	for j, e := range w.In[to] {
		if e.From == from {
			w.In[to][j].Cost = c
			return nil
		}
	}
	return fmt.Errorf("set arc cost %d->%d: incoming list out of sync: %w", from, to, ErrInvariant)
}

func indexOf(edges []Edge, to VertexID) int {
	for i, e := range edges {
		if e.To == to {
			return i
		}
	}
	return -1
}

// ChangeCostDim resizes every arc cost to n components, filling with def.
func (w *Workspace) ChangeCostDim(n int, def float64) {
	resize := func(c CostVec) CostVec {
		out := make(CostVec, n)
		for i := range out {
			if i < len(c) {
				out[i] = c[i]
			} else {
				out[i] = def
			}
		}
		return out
	}
	for from, edges := range w.Edges {
		for i := range edges {
			w.Edges[from][i].Cost = resize(edges[i].Cost)
		}
	}
	for to, edges := range w.In {
		for i, e := range edges {
			w.In[to][i].Cost = w.Edges[e.From][indexOf(w.Edges[e.From], to)].Cost
		}
	}
	w.cdim = n
}

// Neighbors returns successor vertices.
func (w *Workspace) Neighbors(v VertexID) []VertexID {
	return w.Succs(v)
}

// HasVertex reports whether v was added.
func (w *Workspace) HasVertex(v VertexID) bool {
	_, ok := w.Vertices[v]
	return ok
}

// HasArc reports whether the arc u->v exists.
func (w *Workspace) HasArc(u, v VertexID) bool {
	return indexOf(w.Edges[u], v) >= 0
}

// Succs returns successors in insertion order.
func (w *Workspace) Succs(v VertexID) []VertexID {
	edges := w.Edges[v]
	out := make([]VertexID, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}

// Preds returns predecessors in insertion order.
func (w *Workspace) Preds(v VertexID) []VertexID {
	edges := w.In[v]
	out := make([]VertexID, len(edges))
	for i, e := range edges {
		out[i] = e.From
	}
	return out
}

// Cost returns the cost of u->v, or nil if there is no such arc.
func (w *Workspace) Cost(u, v VertexID) CostVec {
	if i := indexOf(w.Edges[u], v); i >= 0 {
		return w.Edges[u][i].Cost.Clone()
	}
	return nil
}

// SuccCosts returns the costs aligned with Succs.
func (w *Workspace) SuccCosts(v VertexID) []CostVec {
	edges := w.Edges[v]
	out := make([]CostVec, len(edges))
	for i, e := range edges {
		out[i] = e.Cost.Clone()
	}
	return out
}

// PredCosts returns the costs aligned with Preds.
func (w *Workspace) PredCosts(v VertexID) []CostVec {
	edges := w.In[v]
	out := make([]CostVec, len(edges))
	for i, e := range edges {
		out[i] = e.Cost.Clone()
	}
	return out
}

// NumVertices returns the size of the ID space (highest ID + 1).
func (w *Workspace) NumVertices() int { return w.span }

// NumArcs returns the number of directed arcs.
func (w *Workspace) NumArcs() int { return w.nArc }

// NumEdges returns NumArcs/2, failing when the roadmap has unpaired arcs.
func (w *Workspace) NumEdges() (int, error) {
	if w.nArc%2 != 0 {
		return 0, fmt.Errorf("roadmap has %d arcs, edge count is not an integer: %w", w.nArc, ErrInvariant)
	}
	return w.nArc / 2, nil
}

// CostDim returns the number of arc cost components.
func (w *Workspace) CostDim() int { return w.cdim }

// AllVertices returns vertex IDs in ascending order.
func (w *Workspace) AllVertices() []VertexID {
	return sortedIDs(w.Vertices)
}

// Position returns the layout position of v.
func (w *Workspace) Position(v VertexID) (Pos, bool) {
	vx, ok := w.Vertices[v]
	if !ok {
		return Pos{}, false
	}
	return vx.Pos, true
}

// String dumps the roadmap one vertex per line.
func (w *Workspace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "roadmap: %d vertices, %d arcs, cdim %d\n", len(w.Vertices), w.nArc, w.cdim)
	for _, id := range w.AllVertices() {
		fmt.Fprintf(&b, "  %d:", id)
		for _, e := range w.Edges[id] {
			fmt.Fprintf(&b, " %d%v", e.To, []float64(e.Cost))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
