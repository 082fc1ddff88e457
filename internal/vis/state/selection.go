package state

import "github.com/elektrokombinacija/lsrp-capaset/internal/core"

// Selection tracks what the user picked and which overlays are shown.
type Selection struct {
	Agents    map[core.AgentID]bool
	Vertex    core.VertexID
	HasVertex bool

	ShowPaths bool
	ShowLoad  bool
}

// NewSelection creates an empty selection with all overlays on.
func NewSelection() *Selection {
	return &Selection{
		Agents:    make(map[core.AgentID]bool),
		ShowPaths: true,
		ShowLoad:  true,
	}
}

// SelectAgent toggles agent selection; without multi the rest is cleared.
func (s *Selection) SelectAgent(id core.AgentID, multi bool) {
	was := s.Agents[id]
	if !multi {
		s.Clear()
	}
	if was {
		delete(s.Agents, id)
		return
	}
	s.Agents[id] = true
}

// SelectVertex picks v for the info panel.
func (s *Selection) SelectVertex(v core.VertexID) {
	s.Vertex, s.HasVertex = v, true
}

// Clear drops all selections.
func (s *Selection) Clear() {
	for id := range s.Agents {
		delete(s.Agents, id)
	}
	s.HasVertex = false
}

// Highlighted reports whether agent should be drawn emphasized. With no
// selection every agent is.
func (s *Selection) Highlighted(id core.AgentID) bool {
	return len(s.Agents) == 0 || s.Agents[id]
}
