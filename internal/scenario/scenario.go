// Package scenario reads and writes planning problems and plans as YAML,
// and generates random grid scenarios.
//
// A scenario holds exactly one graph: an occupancy grid, a roadmap, or a
// hybrid of both. Grid rows use '.' for free cells and any of "@#TO" for
// obstacles. Vertex IDs of hybrid parts are assigned in order, the way
// core.Hybrid numbers them.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// ErrFormat is returned for scenario files that cannot describe a graph.
var ErrFormat = errors.New("scenario: malformed file")

// File is the on-disk scenario.
type File struct {
	Name      string  `yaml:"name"`
	Params    *Params `yaml:"params,omitempty"`
	Generated string  `yaml:"generated,omitempty"`

	Graph      GraphSpec      `yaml:"graph"`
	Capacities []CapacitySpec `yaml:"capacities,omitempty"`
	Agents     []AgentSpec    `yaml:"agents"`
	EdgeCosts  []EdgeCostSpec `yaml:"edge_costs,omitempty"`

	// DurationsFile is an agents.txt style list, relative to the scenario.
	// Its values override the per-agent durations above.
	DurationsFile string  `yaml:"durations_file,omitempty"`
	TimeLimit     float64 `yaml:"time_limit,omitempty"`
}

// GraphSpec describes one of the three graph kinds.
type GraphSpec struct {
	Kind    string       `yaml:"kind"` // "grid" | "roadmap" | "hybrid"
	Grid    *GridSpec    `yaml:"grid,omitempty"`
	Roadmap *RoadmapSpec `yaml:"roadmap,omitempty"`
	Parts   []PartSpec   `yaml:"parts,omitempty"`
	Links   []EdgeSpec   `yaml:"links,omitempty"`
}

// GridSpec is an occupancy grid.
type GridSpec struct {
	Rows         []string `yaml:"rows"`
	Neighborhood int      `yaml:"neighborhood,omitempty"` // 4 (default) or 8
	Scale        float64  `yaml:"scale,omitempty"`        // default 1
}

// RoadmapSpec is a sparse graph.
type RoadmapSpec struct {
	Vertices []VertexSpec `yaml:"vertices"`
	Edges    []EdgeSpec   `yaml:"edges"`
}

// VertexSpec places a roadmap vertex.
type VertexSpec struct {
	ID int     `yaml:"id"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
	Z  float64 `yaml:"z,omitempty"`
}

// EdgeSpec connects two vertices. Edges are bidirectional unless Directed.
// An empty cost means the Euclidean length, or 1 for coincident vertices.
type EdgeSpec struct {
	From     int       `yaml:"from"`
	To       int       `yaml:"to"`
	Cost     []float64 `yaml:"cost,omitempty,flow"`
	Directed bool      `yaml:"directed,omitempty"`
}

// PartSpec is one member of a hybrid graph.
type PartSpec struct {
	Grid    *GridSpec    `yaml:"grid,omitempty"`
	Roadmap *RoadmapSpec `yaml:"roadmap,omitempty"`
	Origin  PosSpec      `yaml:"origin,omitempty"`
}

// PosSpec is a layout offset.
type PosSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z,omitempty"`
}

// CapacitySpec overrides the max capacity of a vertex.
type CapacitySpec struct {
	Vertex int `yaml:"vertex"`
	Max    int `yaml:"max"`
}

// AgentSpec is one agent. Duration scales its traversal times; 0 means 1.
type AgentSpec struct {
	Start    int     `yaml:"start"`
	Goal     int     `yaml:"goal"`
	Duration float64 `yaml:"duration,omitempty"`
}

// EdgeCostSpec overrides the traversal duration of one arc.
type EdgeCostSpec struct {
	From int     `yaml:"from"`
	To   int     `yaml:"to"`
	Cost float64 `yaml:"cost"`
}

// Load reads and builds the scenario at path.
func Load(path string) (*File, *core.Instance, error) {
	f, err := Read(path)
	if err != nil {
		return nil, nil, err
	}
	if f.DurationsFile != "" {
		p := f.DurationsFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		d, err := ReadDurations(p)
		if err != nil {
			return nil, nil, err
		}
		if err := f.ApplyDurations(d); err != nil {
			return nil, nil, err
		}
	}
	inst, err := f.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building %s: %w", path, err)
	}
	return f, inst, nil
}

// Read parses the scenario at path without building it.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &f, nil
}

// Save writes f to path, creating its directory if needed.
func Save(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating scenario directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshalling scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}

// ApplyDurations sets per-agent durations; extra values are ignored.
func (f *File) ApplyDurations(d []float64) error {
	if len(d) < len(f.Agents) {
		return fmt.Errorf("%d durations for %d agents: %w", len(d), len(f.Agents), ErrFormat)
	}
	for i := range f.Agents {
		f.Agents[i].Duration = d[i]
	}
	return nil
}

// Build constructs the graph and instance.
func (f *File) Build() (*core.Instance, error) {
	g, err := f.Graph.Build()
	if err != nil {
		return nil, err
	}
	inst := core.NewInstance(g)
	inst.Name = f.Name
	inst.TimeLimit = f.TimeLimit
	for _, a := range f.Agents {
		inst.AddAgent(core.VertexID(a.Start), core.VertexID(a.Goal), a.Duration)
	}
	for _, c := range f.Capacities {
		if c.Max < 0 {
			return nil, fmt.Errorf("capacity %d on vertex %d: %w", c.Max, c.Vertex, ErrFormat)
		}
		inst.Capacities[core.VertexID(c.Vertex)] = c.Max
	}
	for _, e := range f.EdgeCosts {
		inst.EdgeCosts[core.Arc{From: core.VertexID(e.From), To: core.VertexID(e.To)}] = e.Cost
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Build constructs the graph.
func (s *GraphSpec) Build() (core.Graph, error) {
	switch s.Kind {
	case "grid":
		if s.Grid == nil {
			return nil, fmt.Errorf("grid graph without grid section: %w", ErrFormat)
		}
		return s.Grid.Build()
	case "roadmap":
		if s.Roadmap == nil {
			return nil, fmt.Errorf("roadmap graph without roadmap section: %w", ErrFormat)
		}
		return s.Roadmap.Build()
	case "hybrid":
		return s.buildHybrid()
	default:
		return nil, fmt.Errorf("graph kind %q: %w", s.Kind, ErrFormat)
	}
}

func (s *GraphSpec) buildHybrid() (*core.Hybrid, error) {
	h := core.NewHybrid()
	for i, p := range s.Parts {
		origin := core.Pos{X: p.Origin.X, Y: p.Origin.Y, Z: p.Origin.Z}
		switch {
		case p.Grid != nil && p.Roadmap == nil:
			g, err := p.Grid.Build()
			if err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
			h.AddGrid(g, origin)
		case p.Roadmap != nil && p.Grid == nil:
			w, err := p.Roadmap.Build()
			if err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
			h.AddRoadmap(w, origin)
		default:
			return nil, fmt.Errorf("part %d needs exactly one of grid or roadmap: %w", i, ErrFormat)
		}
	}
	for _, e := range s.Links {
		u, v := core.VertexID(e.From), core.VertexID(e.To)
		cost := core.CostVec(e.Cost)
		if len(cost) == 0 {
			cost = core.CostVec{linkLength(h, u, v)}
		}
		if err := h.AddLink(u, v, cost); err != nil {
			return nil, err
		}
		if !e.Directed {
			if err := h.AddLink(v, u, cost.Clone()); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

func linkLength(g core.Positioner, u, v core.VertexID) float64 {
	pu, ok1 := g.Position(u)
	pv, ok2 := g.Position(v)
	if d := pu.Dist(pv); ok1 && ok2 && d > 0 {
		return d
	}
	return 1
}

// Build constructs the grid.
func (s *GridSpec) Build() (*core.Grid, error) {
	cells := make([][]float64, len(s.Rows))
	for r, row := range s.Rows {
		cells[r] = make([]float64, len(row))
		for c, ch := range row {
			switch ch {
			case '.', 'G', 'S':
			case '@', '#', 'T', 'O':
				cells[r][c] = 1
			default:
				return nil, fmt.Errorf("grid row %d col %d: unknown cell %q: %w", r, c, ch, ErrFormat)
			}
		}
	}
	g, err := core.NewGrid(cells)
	if err != nil {
		return nil, err
	}
	if s.Neighborhood != 0 {
		if err := g.SetNeighborhood(s.Neighborhood); err != nil {
			return nil, err
		}
	}
	if s.Scale != 0 {
		if s.Scale < 0 {
			return nil, fmt.Errorf("grid scale %v: %w", s.Scale, ErrFormat)
		}
		g.SetScale(s.Scale)
	}
	return g, nil
}

// Build constructs the roadmap.
func (s *RoadmapSpec) Build() (*core.Workspace, error) {
	w := core.NewWorkspace()
	for _, v := range s.Vertices {
		if v.ID < 0 {
			return nil, fmt.Errorf("vertex id %d: %w", v.ID, ErrFormat)
		}
		w.AddVertex(&core.Vertex{ID: core.VertexID(v.ID), Pos: core.Pos{X: v.X, Y: v.Y, Z: v.Z}})
	}
	for _, e := range s.Edges {
		u, v := core.VertexID(e.From), core.VertexID(e.To)
		if !w.HasVertex(u) || !w.HasVertex(v) {
			return nil, fmt.Errorf("edge %d->%d: %w", e.From, e.To, core.ErrVertexNotFound)
		}
		cost := core.CostVec(e.Cost)
		if len(cost) == 0 {
			cost = core.CostVec{linkLength(w, u, v)}
		}
		add := w.AddEdge
		if e.Directed {
			add = w.AddArc
		}
		if err := add(u, v, cost.Clone()); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// FromInstance encodes inst as a scenario. Capacity overrides already
// applied to the graph are written alongside the instance's own.
func FromInstance(inst *core.Instance) (*File, error) {
	gs, err := encodeGraph(inst.Graph)
	if err != nil {
		return nil, err
	}
	f := &File{Name: inst.Name, Graph: *gs, TimeLimit: inst.TimeLimit}
	for _, a := range inst.Agents {
		f.Agents = append(f.Agents, AgentSpec{Start: int(a.Start), Goal: int(a.Goal), Duration: a.Duration})
	}

	caps := make(map[core.VertexID]int)
	if o, ok := inst.Graph.(interface {
		CapacityOverrides() map[core.VertexID]int
	}); ok {
		for v, k := range o.CapacityOverrides() {
			caps[v] = k
		}
	}
	for v, k := range inst.Capacities {
		caps[v] = k
	}
	for v, k := range caps {
		f.Capacities = append(f.Capacities, CapacitySpec{Vertex: int(v), Max: k})
	}
	sort.Slice(f.Capacities, func(i, j int) bool { return f.Capacities[i].Vertex < f.Capacities[j].Vertex })

	for arc, c := range inst.EdgeCosts {
		f.EdgeCosts = append(f.EdgeCosts, EdgeCostSpec{From: int(arc.From), To: int(arc.To), Cost: c})
	}
	sort.Slice(f.EdgeCosts, func(i, j int) bool {
		a, b := f.EdgeCosts[i], f.EdgeCosts[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return f, nil
}

func encodeGraph(g core.Graph) (*GraphSpec, error) {
	switch g := g.(type) {
	case *core.Grid:
		return &GraphSpec{Kind: "grid", Grid: encodeGrid(g)}, nil
	case *core.Workspace:
		return &GraphSpec{Kind: "roadmap", Roadmap: encodeRoadmap(g)}, nil
	case *core.Hybrid:
		s := &GraphSpec{Kind: "hybrid"}
		for _, p := range g.Parts() {
			ps := PartSpec{Origin: PosSpec{X: p.Origin.X, Y: p.Origin.Y, Z: p.Origin.Z}}
			if p.Kind == core.KindGrid {
				ps.Grid = encodeGrid(p.Grid)
			} else {
				ps.Roadmap = encodeRoadmap(p.Roadmap)
			}
			s.Parts = append(s.Parts, ps)
		}
		for _, e := range g.Links() {
			s.Links = append(s.Links, EdgeSpec{From: int(e.From), To: int(e.To), Cost: e.Cost.Clone(), Directed: true})
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cannot encode graph %T: %w", g, core.ErrNotImplemented)
	}
}

func encodeGrid(g *core.Grid) *GridSpec {
	s := &GridSpec{Neighborhood: g.Neighborhood()}
	if g.Scale() != 1 {
		s.Scale = g.Scale()
	}
	for r := 0; r < g.Rows(); r++ {
		var b strings.Builder
		for c := 0; c < g.Cols(); c++ {
			if g.Cell(r, c) > 0 {
				b.WriteByte('@')
			} else {
				b.WriteByte('.')
			}
		}
		s.Rows = append(s.Rows, b.String())
	}
	return s
}

func encodeRoadmap(w *core.Workspace) *RoadmapSpec {
	s := &RoadmapSpec{}
	for _, id := range w.AllVertices() {
		p, _ := w.Position(id)
		s.Vertices = append(s.Vertices, VertexSpec{ID: int(id), X: p.X, Y: p.Y, Z: p.Z})
	}
	for _, id := range w.AllVertices() {
		for _, e := range w.Edges[id] {
			s.Edges = append(s.Edges, EdgeSpec{From: int(e.From), To: int(e.To), Cost: e.Cost.Clone(), Directed: true})
		}
	}
	return s
}

// round1 rounds to one decimal, the precision of generated durations.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
