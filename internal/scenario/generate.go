package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Params defines parameters for scenario generation.
type Params struct {
	Seed            int64   `yaml:"seed"`
	NumAgents       int     `yaml:"num_agents"`
	GridWidth       int     `yaml:"grid_width"`
	GridHeight      int     `yaml:"grid_height"`
	Neighborhood    int     `yaml:"neighborhood,omitempty"`
	ObstacleDensity float64 `yaml:"obstacle_density"`
	// CapacityDensity is the fraction of free cells given a capacity
	// drawn from [2, MaxCapacity].
	CapacityDensity float64 `yaml:"capacity_density"`
	MaxCapacity     int     `yaml:"max_capacity"`
	// Durations are drawn from [DurationMin, DurationMax] at one decimal;
	// both zero gives every agent duration 1.
	DurationMin float64 `yaml:"duration_min"`
	DurationMax float64 `yaml:"duration_max"`
}

// DefaultParams mirrors the defaults of `lsrp gen`.
func DefaultParams() Params {
	return Params{
		Seed:            42,
		NumAgents:       10,
		GridWidth:       10,
		GridHeight:      10,
		Neighborhood:    4,
		ObstacleDensity: 0.1,
		CapacityDensity: 0.05,
		MaxCapacity:     2,
		DurationMin:     0.1,
		DurationMax:     0.6,
	}
}

// ScalingParams returns a suite of growing instances; the grid side
// scales with the square root of the agent count.
func ScalingParams(base Params) []Params {
	var out []Params
	for _, n := range []int{10, 50, 100, 200, 500} {
		p := base
		p.NumAgents = n
		side := int(math.Ceil(math.Sqrt(float64(n)) * 3))
		if side < 10 {
			side = 10
		}
		p.GridWidth, p.GridHeight = side, side
		out = append(out, p)
	}
	return out
}

// Generate creates a grid scenario. Starts and goals are distinct free
// cells of the largest connected free region, so every agent is feasible.
func Generate(params Params) (*File, error) {
	if params.GridWidth <= 0 || params.GridHeight <= 0 {
		return nil, fmt.Errorf("grid %dx%d: %w", params.GridWidth, params.GridHeight, ErrFormat)
	}
	if params.ObstacleDensity < 0 || params.ObstacleDensity >= 1 {
		return nil, fmt.Errorf("obstacle density %v: %w", params.ObstacleDensity, ErrFormat)
	}
	if params.DurationMin < 0 || params.DurationMax < params.DurationMin {
		return nil, fmt.Errorf("durations [%v, %v]: %w", params.DurationMin, params.DurationMax, ErrFormat)
	}
	rng := rand.New(rand.NewSource(params.Seed))

	w, h := params.GridWidth, params.GridHeight
	blocked := make([]bool, w*h)
	for i := range blocked {
		blocked[i] = rng.Float64() < params.ObstacleDensity
	}
	region := largestRegion(blocked, w, h)
	if len(region) < params.NumAgents {
		return nil, fmt.Errorf("%d agents do not fit %d connected free cells: %w",
			params.NumAgents, len(region), ErrFormat)
	}
	// cells outside the region cannot be reached by anyone
	inRegion := make(map[int]bool, len(region))
	for _, c := range region {
		inRegion[c] = true
	}
	for i := range blocked {
		if !inRegion[i] {
			blocked[i] = true
		}
	}

	f := &File{
		Name:   fmt.Sprintf("lsrp_%d_%dx%d_%d", params.NumAgents, w, h, params.Seed),
		Params: &params,
		Graph: GraphSpec{
			Kind: "grid",
			Grid: &GridSpec{Rows: gridRows(blocked, w, h), Neighborhood: params.Neighborhood},
		},
	}

	starts := rng.Perm(len(region))[:params.NumAgents]
	goals := rng.Perm(len(region))[:params.NumAgents]
	for i := 0; i < params.NumAgents; i++ {
		a := AgentSpec{Start: region[starts[i]], Goal: region[goals[i]]}
		if params.DurationMax > 0 {
			d := round1(params.DurationMin + rng.Float64()*(params.DurationMax-params.DurationMin))
			if d == 0 {
				d = 0.1
			}
			a.Duration = d
		}
		f.Agents = append(f.Agents, a)
	}

	if params.MaxCapacity >= 2 {
		for _, c := range region {
			if rng.Float64() < params.CapacityDensity {
				f.Capacities = append(f.Capacities, CapacitySpec{Vertex: c, Max: 2 + rng.Intn(params.MaxCapacity-1)})
			}
		}
	}
	return f, nil
}

// largestRegion returns the cells of the biggest 4-connected free region in
// ascending order.
func largestRegion(blocked []bool, w, h int) []int {
	label := make([]int, len(blocked))
	var best []int
	next := 1
	for s := range blocked {
		if blocked[s] || label[s] != 0 {
			continue
		}
		region := []int{s}
		label[s] = next
		for q := 0; q < len(region); q++ {
			c := region[q]
			r, col := c/w, c%w
			for _, d := range [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
				nr, nc := r+d[0], col+d[1]
				if nr < 0 || nr >= h || nc < 0 || nc >= w {
					continue
				}
				n := nr*w + nc
				if blocked[n] || label[n] != 0 {
					continue
				}
				label[n] = next
				region = append(region, n)
			}
		}
		if len(region) > len(best) {
			best = region
		}
		next++
	}
	out := make([]int, 0, len(best))
	for c, l := range label {
		if len(best) > 0 && l == label[best[0]] {
			out = append(out, c)
		}
	}
	return out
}

func gridRows(blocked []bool, w, h int) []string {
	rows := make([]string, h)
	for r := 0; r < h; r++ {
		var b strings.Builder
		for c := 0; c < w; c++ {
			if blocked[r*w+c] {
				b.WriteByte('@')
			} else {
				b.WriteByte('.')
			}
		}
		rows[r] = b.String()
	}
	return rows
}
