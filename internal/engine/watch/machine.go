// Package watch turns bursts of file system events into scheduler
// submissions.
package watch

import (
	"slices"
	"time"

	"go.trai.ch/tola/internal/core/domain"
)

// State is the phase of the watch loop.
type State uint8

const (
	// Idle has no pending paths and no armed timer.
	Idle State = iota
	// Debouncing collects paths until the debounce window passes without events.
	Debouncing
	// Building has a submission outstanding. Events are collected for the next one.
	Building
	// Cooldown follows a build. Events are collected but do not arm the timer.
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Building:
		return "building"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// ActionKind says what the driver of a Machine must do next.
type ActionKind uint8

const (
	// ActNone leaves the timer as it is.
	ActNone ActionKind = iota
	// ActArm (re)starts the timer with Action.Delay.
	ActArm
	// ActSubmit hands Action.Paths to the scheduler.
	ActSubmit
)

// Action is the output of one machine transition.
type Action struct {
	Kind  ActionKind
	Delay time.Duration
	Paths []string
}

// Machine is the debounce and cooldown state machine. It holds no timers:
// the caller reports timer expiry and build completion as inputs. A Machine
// is not safe for concurrent use.
type Machine struct {
	state    State
	debounce time.Duration
	cooldown time.Duration
	pending  map[domain.InternedString]struct{}
}

// NewMachine creates an idle machine. A zero cooldown skips the Cooldown state.
func NewMachine(debounce, cooldown time.Duration) *Machine {
	if debounce <= 0 {
		debounce = domain.DefaultDebounce
	}
	return &Machine{
		debounce: debounce,
		cooldown: max(cooldown, 0),
		pending:  make(map[domain.InternedString]struct{}),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Pending returns the number of distinct paths waiting for a submission.
func (m *Machine) Pending() int {
	return len(m.pending)
}

// Event records a changed path.
func (m *Machine) Event(path string) Action {
	m.pending[domain.NewPath(path)] = struct{}{}

	switch m.state {
	case Idle, Debouncing:
		m.state = Debouncing
		return m.arm(m.debounce)
	default:
		return Action{}
	}
}

// TimerFired reports that the last armed timer expired.
func (m *Machine) TimerFired() Action {
	switch m.state {
	case Debouncing:
		if len(m.pending) == 0 {
			m.state = Idle
			return Action{}
		}
		m.state = Building
		return Action{Kind: ActSubmit, Paths: m.drain()}
	case Cooldown:
		return m.settle()
	default:
		return Action{}
	}
}

// BuildDone reports that the outstanding submission returned.
func (m *Machine) BuildDone() Action {
	if m.state != Building {
		return Action{}
	}
	if len(m.pending) > 0 {
		m.state = Debouncing
		return m.arm(m.debounce)
	}
	if m.cooldown == 0 {
		m.state = Idle
		return Action{}
	}
	m.state = Cooldown
	return m.arm(m.cooldown)
}

// settle leaves Cooldown, re-debouncing whatever arrived during it.
func (m *Machine) settle() Action {
	if len(m.pending) > 0 {
		m.state = Debouncing
		return m.arm(m.debounce)
	}
	m.state = Idle
	return Action{}
}

func (m *Machine) arm(d time.Duration) Action {
	return Action{Kind: ActArm, Delay: d}
}

func (m *Machine) drain() []string {
	paths := make([]string, 0, len(m.pending))
	for p := range m.pending {
		paths = append(paths, p.String())
	}
	slices.Sort(paths)
	clear(m.pending)
	return paths
}
