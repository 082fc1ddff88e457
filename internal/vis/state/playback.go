package state

import (
	"sort"
	"time"
)

// eventEps is how close the playhead must be to an event to count as on it.
const eventEps = 1e-6

// PlaybackState manages plan playback timing.
type PlaybackState struct {
	CurrentTime float64 // Current playback time in plan seconds
	MaxTime     float64 // Plan makespan
	Speed       float64 // Playback speed multiplier (1.0 = real-time)
	Playing     bool
	// Events are the sorted times at which some agent reaches a vertex.
	Events []float64

	now        func() time.Time
	lastUpdate time.Time
}

// NewPlaybackState creates a new playback state.
func NewPlaybackState(maxTime float64, events []float64) *PlaybackState {
	return &PlaybackState{
		MaxTime:    maxTime,
		Speed:      1.0,
		Events:     events,
		now:        time.Now,
		lastUpdate: time.Now(),
	}
}

// TogglePlay toggles playback on/off, restarting from zero at the end.
func (p *PlaybackState) TogglePlay() {
	if p.Playing {
		p.Pause()
		return
	}
	if p.CurrentTime >= p.MaxTime {
		p.CurrentTime = 0
	}
	p.Play()
}

// Play starts playback.
func (p *PlaybackState) Play() {
	p.Playing = true
	p.lastUpdate = p.now()
}

// Pause stops playback.
func (p *PlaybackState) Pause() {
	p.Playing = false
}

// Reset rewinds to the beginning.
func (p *PlaybackState) Reset() {
	p.CurrentTime = 0
	p.Playing = false
}

// Advance moves the playhead by the wall time elapsed since the last call.
func (p *PlaybackState) Advance() {
	if !p.Playing {
		return
	}

	now := p.now()
	elapsed := now.Sub(p.lastUpdate).Seconds()
	p.lastUpdate = now

	p.CurrentTime += elapsed * p.Speed
	if p.CurrentTime >= p.MaxTime {
		p.CurrentTime = p.MaxTime
		p.Playing = false
	}
}

// SetTime sets the current playback time, clamped to [0, MaxTime].
func (p *PlaybackState) SetTime(t float64) {
	if t < 0 {
		t = 0
	}
	if t > p.MaxTime {
		t = p.MaxTime
	}
	p.CurrentTime = t
}

// StepForward pauses and jumps to the next event.
func (p *PlaybackState) StepForward() {
	p.Pause()
	i := sort.Search(len(p.Events), func(i int) bool { return p.Events[i] > p.CurrentTime+eventEps })
	if i == len(p.Events) {
		p.SetTime(p.MaxTime)
		return
	}
	p.SetTime(p.Events[i])
}

// StepBack pauses and jumps to the previous event.
func (p *PlaybackState) StepBack() {
	p.Pause()
	i := sort.Search(len(p.Events), func(i int) bool { return p.Events[i] >= p.CurrentTime-eventEps }) - 1
	if i < 0 {
		p.SetTime(0)
		return
	}
	p.SetTime(p.Events[i])
}

// SetSpeed sets the playback speed multiplier, clamped to [0.1, 10].
func (p *PlaybackState) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	if speed > 10 {
		speed = 10
	}
	p.Speed = speed
}

// Progress returns current progress as 0-1.
func (p *PlaybackState) Progress() float64 {
	if p.MaxTime <= 0 {
		return 0
	}
	return p.CurrentTime / p.MaxTime
}
