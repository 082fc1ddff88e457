package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// PlanFile is the exported result of a planning run.
type PlanFile struct {
	Scenario string             `yaml:"scenario"`
	RunID    string             `yaml:"run_id,omitempty"`
	Status   string             `yaml:"status"`
	SoC      float64            `yaml:"soc"`
	Makespan float64            `yaml:"makespan"`
	Stats    map[string]float64 `yaml:"stats,omitempty"`
	Agents   []PlanAgent        `yaml:"agents"`
}

// PlanAgent is one agent's timed path.
type PlanAgent struct {
	ID         int        `yaml:"id"`
	AtGoal     bool       `yaml:"at_goal"`
	Infeasible bool       `yaml:"infeasible,omitempty"`
	Cost       []float64  `yaml:"cost,flow"`
	Path       []Waypoint `yaml:"path"`
}

// Waypoint is a vertex reached at time T.
type Waypoint struct {
	V int     `yaml:"v"`
	T float64 `yaml:"t"`
}

// NewPlanFile encodes sol.
func NewPlanFile(scenario string, sol *core.Solution) *PlanFile {
	pf := &PlanFile{
		Scenario: scenario,
		Status:   sol.Status.String(),
		SoC:      sol.SoC,
		Makespan: sol.Makespan,
		Stats:    sol.Stats,
	}
	infeasible := make(map[core.AgentID]bool, len(sol.Infeasible))
	for _, id := range sol.Infeasible {
		infeasible[id] = true
	}
	for _, id := range sol.AgentIDs() {
		pa := PlanAgent{ID: int(id), AtGoal: sol.AtGoal[id], Infeasible: infeasible[id], Cost: sol.Costs[id]}
		for _, tv := range sol.Paths[id] {
			pa.Path = append(pa.Path, Waypoint{V: int(tv.V), T: tv.T})
		}
		pf.Agents = append(pf.Agents, pa)
	}
	return pf
}

// Solution decodes the plan back into a solution without segments.
func (pf *PlanFile) Solution() (*core.Solution, error) {
	status, err := core.ParseStatus(pf.Status)
	if err != nil {
		return nil, fmt.Errorf("plan status: %w", err)
	}
	sol := core.NewSolution()
	sol.Status = status
	sol.Feasible = status == core.StatusSuccess
	sol.SoC = pf.SoC
	sol.Makespan = pf.Makespan
	for k, v := range pf.Stats {
		sol.Stats[k] = v
	}
	for _, a := range pf.Agents {
		id := core.AgentID(a.ID)
		path := make(core.Path, 0, len(a.Path))
		for _, w := range a.Path {
			path = append(path, core.TimedVertex{V: core.VertexID(w.V), T: w.T})
		}
		sol.Paths[id] = path
		sol.Costs[id] = core.CostVec(a.Cost)
		sol.AtGoal[id] = a.AtGoal
		if a.Infeasible {
			sol.Infeasible = append(sol.Infeasible, id)
		}
	}
	return sol, nil
}

// SavePlan writes pf to path.
func SavePlan(path string, pf *PlanFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating plan directory: %w", err)
	}
	data, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("marshalling plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}

// LoadPlan reads the plan at path.
func LoadPlan(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var pf PlanFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	return &pf, nil
}
