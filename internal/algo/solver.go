// Package algo implements the LSRP capacity-aware asynchronous planner.
package algo

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// Solver is the interface for planners driven from an instance.
type Solver interface {
	// SolveInstance plans every agent of inst. The returned solution is
	// non-nil whenever err is nil, even for partial results.
	SolveInstance(ctx context.Context, inst *core.Instance) (*core.Solution, error)

	// Name returns the algorithm name.
	Name() string
}

// ErrNotSolved is returned by read-only views before the first Solve.
var ErrNotSolved = errors.New("algo: planner has not been run")

// TimeTolerance for floating-point time comparison.
const TimeTolerance = 0.001

// DefaultDetourAfter is the number of aging steps after which a blocked
// agent may move away from its goal.
const DefaultDetourAfter = 2

// DefaultTimeLimit bounds a run when the caller passes no limit (seconds).
const DefaultTimeLimit = 60.0

// timeEqual compares times with tolerance.
func timeEqual(t1, t2 float64) bool {
	return math.Abs(t1-t2) < TimeTolerance
}

// SwapMode selects how much room a swap needs.
type SwapMode int

const (
	// SwapLenient tolerates the momentary double occupancy of an exchange
	// and enables pass-through swaps.
	SwapLenient SwapMode = iota
	// SwapStrict requires spare capacity on both vertices of an exchange.
	SwapStrict
)

func (m SwapMode) String() string {
	return [...]string{"lenient", "strict"}[m]
}

// DurationFunc returns how long agent takes to traverse u->v.
type DurationFunc func(agent core.AgentID, u, v core.VertexID) float64

// Options configures a planner.
type Options struct {
	// Swap enables the swap protocol.
	Swap     bool
	SwapMode SwapMode

	// Seed drives the tie-break ranking of equally distant successors.
	Seed int64

	// AgingDelta is added to the priority of an agent that failed to move.
	AgingDelta float64
	// DistanceWeightedAging scales the delta by 1 + d/dmax.
	DistanceWeightedAging bool
	// DetourAfter lets an agent that aged this many steps without moving
	// enter a free successor that is not closer to its goal. 0 selects
	// DefaultDetourAfter, negative disables detours.
	DetourAfter int

	// MaxStallRounds ends a run as blocked after that many rounds without
	// a new best total distance to goal. 0 selects 50 + 10 per agent.
	MaxStallRounds int
	// Horizon stops a run once simulated time exceeds it. 0 disables it.
	Horizon float64

	// Durations are per-agent factors on the primary arc cost. A zero
	// entry means the agent has no factor of its own and moves at 1.
	Durations []float64
	// EdgeCosts override the traversal duration of individual arcs.
	EdgeCosts map[core.Arc]float64
	// CostWeights combine arc cost components for distance tables.
	CostWeights []float64
	// Duration replaces the default duration rule when set.
	Duration DurationFunc

	Logger   *zerolog.Logger
	Observer Observer
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		Swap:       true,
		SwapMode:   SwapLenient,
		AgingDelta: 1,
	}
}

// MoveKind tells observers how a state was committed.
type MoveKind int

const (
	MoveStep   MoveKind = iota // free vertex
	MovePush                   // vacated on request of a higher-priority agent
	MoveSwap                   // edge exchange
	MovePass                   // pass-through swap entry
	MoveForced                 // second half of a pass-through swap
	MoveWait
)

func (k MoveKind) String() string {
	return [...]string{"step", "push", "swap", "pass", "forced", "wait"}[k]
}

// Observer is notified of planner decisions. Callbacks run on the planning
// goroutine and must not mutate the graph.
type Observer interface {
	// OnCommit is called for every new state.
	OnCommit(agent core.AgentID, s State, kind MoveKind)

	// OnRound is called after the snapshot of round t is cached.
	OnRound(t float64, g core.Graph, states []State)
}
