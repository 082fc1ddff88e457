package core

import (
	"fmt"
	"math"
)

// Grid is an occupancy-grid graph. Cell (r, c) is vertex r*Cols+c; a cell
// value > 0 is an obstacle. Orthogonal moves cost Scale, diagonal moves
// cost Sqrt2*Scale.
type Grid struct {
	Capacities

	cells [][]float64
	rows  int
	cols  int
	k     int
	dr    []int
	dc    []int
	scale float64
}

// NewGrid builds a 4-connected grid over the given occupancy matrix.
// All rows must have the same length.
func NewGrid(cells [][]float64) (*Grid, error) {
	g := &Grid{scale: 1}
	if err := g.SetCells(cells); err != nil {
		return nil, err
	}
	if err := g.SetNeighborhood(4); err != nil {
		return nil, err
	}
	return g, nil
}

// NewOpenGrid builds an obstacle-free rows x cols grid.
func NewOpenGrid(rows, cols int) *Grid {
	cells := make([][]float64, rows)
	for r := range cells {
		cells[r] = make([]float64, cols)
	}
	g, _ := NewGrid(cells)
	return g
}

// SetCells replaces the occupancy matrix.
func (g *Grid) SetCells(cells [][]float64) error {
	for r, row := range cells {
		if len(row) != len(cells[0]) {
			return fmt.Errorf("grid row %d has %d cells, want %d: %w",
				r, len(row), len(cells[0]), ErrInvalidInstance)
		}
	}
	g.cells = cells
	g.rows = len(cells)
	g.cols = 0
	if g.rows > 0 {
		g.cols = len(cells[0])
	}
	return nil
}

// SetNeighborhood selects 4- or 8-connectivity.
func (g *Grid) SetNeighborhood(k int) error {
	switch k {
	case 4:
		g.dr = []int{0, 0, -1, 1}
		g.dc = []int{-1, 1, 0, 0}
	case 8:
		g.dr = []int{0, 0, -1, 1, -1, -1, 1, 1}
		g.dc = []int{-1, 1, 0, 0, -1, 1, -1, 1}
	default:
		return fmt.Errorf("grid neighborhood %d: %w", k, ErrNotImplemented)
	}
	g.k = k
	return nil
}

// SetScale sets the cost scale factor.
func (g *Grid) SetScale(s float64) { g.scale = s }

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.cols }

// Neighborhood returns 4 or 8.
func (g *Grid) Neighborhood() int { return g.k }

// Scale returns the cost scale factor.
func (g *Grid) Scale() float64 { return g.scale }

// Cell returns the occupancy value at (r, c).
func (g *Grid) Cell(r, c int) float64 { return g.cells[r][c] }

// ID converts a cell to its vertex ID.
func (g *Grid) ID(r, c int) VertexID { return VertexID(r*g.cols + c) }

// RC converts a vertex ID to its cell.
func (g *Grid) RC(v VertexID) (int, int) {
	if g.cols == 0 {
		return 0, 0
	}
	return int(v) / g.cols, int(v) % g.cols
}

// InBounds reports whether (r, c) lies inside the grid.
func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.rows && c >= 0 && c < g.cols
}

func (g *Grid) free(r, c int) bool {
	return g.InBounds(r, c) && g.cells[r][c] <= 0
}

// HasVertex reports whether v is an in-bounds free cell.
func (g *Grid) HasVertex(v VertexID) bool {
	if v < 0 {
		return false
	}
	r, c := g.RC(v)
	return g.free(r, c)
}

// HasArc reports whether u and v are free cells one move apart.
func (g *Grid) HasArc(u, v VertexID) bool {
	if !g.HasVertex(u) || !g.HasVertex(v) {
		return false
	}
	r1, c1 := g.RC(u)
	r2, c2 := g.RC(v)
	for i := range g.dr {
		if r2 == r1+g.dr[i] && c2 == c1+g.dc[i] {
			return true
		}
	}
	return false
}

func (g *Grid) moveCost(i int) CostVec {
	if i < 4 {
		return CostVec{g.scale}
	}
	return CostVec{math.Sqrt2 * g.scale}
}

// Succs returns free neighbouring cells. The grid is undirected, so Preds
// returns the same list.
func (g *Grid) Succs(v VertexID) []VertexID {
	var out []VertexID
	if !g.HasVertex(v) {
		return out
	}
	r, c := g.RC(v)
	for i := range g.dr {
		nr, nc := r+g.dr[i], c+g.dc[i]
		if g.free(nr, nc) {
			out = append(out, g.ID(nr, nc))
		}
	}
	return out
}

// Preds returns the same cells as Succs.
func (g *Grid) Preds(v VertexID) []VertexID { return g.Succs(v) }

// Cost returns the move cost between adjacent cells, or nil.
func (g *Grid) Cost(u, v VertexID) CostVec {
	if !g.HasVertex(u) || !g.HasVertex(v) {
		return nil
	}
	r1, c1 := g.RC(u)
	r2, c2 := g.RC(v)
	for i := range g.dr {
		if r2 == r1+g.dr[i] && c2 == c1+g.dc[i] {
			return g.moveCost(i)
		}
	}
	return nil
}

// SuccCosts returns costs aligned with Succs.
func (g *Grid) SuccCosts(v VertexID) []CostVec {
	var out []CostVec
	if !g.HasVertex(v) {
		return out
	}
	r, c := g.RC(v)
	for i := range g.dr {
		if g.free(r+g.dr[i], c+g.dc[i]) {
			out = append(out, g.moveCost(i))
		}
	}
	return out
}

// PredCosts returns costs aligned with Preds.
func (g *Grid) PredCosts(v VertexID) []CostVec { return g.SuccCosts(v) }

// NumVertices returns rows*cols, the size of the ID space.
func (g *Grid) NumVertices() int { return g.rows * g.cols }

// NumArcs counts arcs between free cells.
func (g *Grid) NumArcs() int {
	n := 0
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.free(r, c) {
				n += len(g.Succs(g.ID(r, c)))
			}
		}
	}
	return n
}

// NumEdges returns NumArcs/2.
func (g *Grid) NumEdges() (int, error) {
	n := g.NumArcs()
	if n%2 != 0 {
		return 0, fmt.Errorf("grid has %d arcs: %w", n, ErrInvariant)
	}
	return n / 2, nil
}

// CostDim is always 1 for grids.
func (g *Grid) CostDim() int { return 1 }

// AllVertices returns every free cell in row-major order.
func (g *Grid) AllVertices() []VertexID {
	var out []VertexID
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.free(r, c) {
				out = append(out, g.ID(r, c))
			}
		}
	}
	return out
}

// Position maps cell (r, c) to (c, r).
func (g *Grid) Position(v VertexID) (Pos, bool) {
	if v < 0 || int(v) >= g.NumVertices() {
		return Pos{}, false
	}
	r, c := g.RC(v)
	return Pos{X: float64(c), Y: float64(r)}, true
}
