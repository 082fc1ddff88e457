// Package core defines the graph, instance and solution models for LSRP planning.
package core

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors shared by the graph containers and the planner.
var (
	ErrVertexNotFound  = errors.New("core: vertex not found")
	ErrArcNotFound     = errors.New("core: arc not found")
	ErrCostDim         = errors.New("core: cost dimension mismatch")
	ErrInvalidInstance = errors.New("core: invalid instance")
	ErrInvariant       = errors.New("core: internal invariant violated")
	ErrNotImplemented  = errors.New("core: traversal not implemented")
)

// VertexID is a vertex identifier in [0, N).
type VertexID int

// AgentID identifies an agent; agent i is defined by starts[i] and goals[i].
type AgentID int

// Arc is a directed vertex pair, used as key for sparse edge-cost overrides.
type Arc struct {
	From, To VertexID
}

func (a Arc) String() string {
	return fmt.Sprintf("%d->%d", a.From, a.To)
}

// Pos represents a planar position (Z is kept for layered roadmaps).
type Pos struct {
	X, Y, Z float64
}

// Dist returns the euclidean distance between two positions.
func (p Pos) Dist(o Pos) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// CostVec is a vector-valued arc or path cost. Component 0 is traversal time.
type CostVec []float64

// Clone returns an independent copy.
func (c CostVec) Clone() CostVec {
	if c == nil {
		return nil
	}
	out := make(CostVec, len(c))
	copy(out, c)
	return out
}

// Add accumulates o into c, growing c if o has more components.
func (c CostVec) Add(o CostVec) CostVec {
	for len(c) < len(o) {
		c = append(c, 0)
	}
	for i, v := range o {
		c[i] += v
	}
	return c
}

// Primary returns component 0, or 0 for an empty vector.
func (c CostVec) Primary() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

// Weighted combines components with the given weights. Missing weights count as 0.
func (c CostVec) Weighted(w []float64) float64 {
	sum := 0.0
	for i, v := range c {
		if i < len(w) {
			sum += v * w[i]
		}
	}
	return sum
}

// Status is the outcome of a planning run.
type Status int

const (
	StatusSuccess    Status = iota // every agent reached its goal
	StatusTimeout                  // time limit or horizon exceeded, partial plan
	StatusBlocked                  // no progress possible, partial plan
	StatusInfeasible               // at least one goal unreachable, others planned
)

func (s Status) String() string {
	return [...]string{"success", "timeout", "blocked", "infeasible"}[s]
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for st := StatusSuccess; st <= StatusInfeasible; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}
