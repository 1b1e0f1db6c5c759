package input

import (
	"time"

	uv "github.com/charmbracelet/ultraviolet"
)

// DefaultHoldTimeout is how long a key may go without a press or repeat
// before a terminal that never reports releases is assumed to have let go.
// It is longer than the usual autorepeat delay.
const DefaultHoldTimeout = 600 * time.Millisecond

// Source collects one frame of input edges from terminal events.
//
// A Source reports edges only: Pressed and Released are true during the frame
// in which the event arrived and false again after EndFrame. Holding a key is
// the consumer's business.
//
// Terminals without the kitty keyboard protocol never send key releases. For
// those, Source synthesizes a release edge once a key has not been seen for
// HoldTimeout. A KeyboardEnhancementsEvent reporting release support turns
// synthesis off.
type Source struct {
	// HoldTimeout bounds synthesized releases. Zero disables synthesis.
	HoldTimeout time.Duration

	pressed  map[KeyID]bool
	released map[KeyID]bool
	lastSeen map[KeyID]time.Time

	reportsReleases bool

	havePointer bool
	pointerX    int
	pointerY    int
	pointerDX   float64
	pointerDY   float64
}

// NewSource creates an empty edge source with the default hold timeout.
func NewSource() *Source {
	return &Source{
		HoldTimeout: DefaultHoldTimeout,
		pressed:     make(map[KeyID]bool),
		released:    make(map[KeyID]bool),
		lastSeen:    make(map[KeyID]time.Time),
	}
}

// HandleEvent records a terminal event received at now. It reports whether
// the event was consumed as input.
func (s *Source) HandleEvent(ev uv.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case uv.KeyPressEvent:
		id := keyIDFor(ev.Key())
		if !ev.IsRepeat {
			s.pressed[id] = true
		}
		s.lastSeen[id] = now
		return true

	case uv.KeyReleaseEvent:
		id := keyIDFor(ev.Key())
		s.released[id] = true
		delete(s.lastSeen, id)
		return true

	case uv.MouseMotionEvent:
		s.movePointer(ev.X, ev.Y)
		return true

	case uv.KeyboardEnhancementsEvent:
		s.reportsReleases = ev.SupportsKeyReleases()
		return true
	}
	return false
}

func (s *Source) movePointer(x, y int) {
	if !s.havePointer {
		// First sample only sets the baseline.
		s.havePointer = true
		s.pointerX, s.pointerY = x, y
		return
	}
	s.pointerDX += float64(x - s.pointerX)
	s.pointerDY += float64(y - s.pointerY)
	s.pointerX, s.pointerY = x, y
}

// ResolveKey maps a key name to its id. See ResolveKeyID.
func (s *Source) ResolveKey(name string) (KeyID, error) {
	return ResolveKeyID(name)
}

// Pressed reports whether id went down during the current frame.
func (s *Source) Pressed(id KeyID) bool {
	return s.pressed[id]
}

// Released reports whether id went up during the current frame.
func (s *Source) Released(id KeyID) bool {
	return s.released[id]
}

// PointerDelta returns the pointer displacement, in terminal cells,
// accumulated during the current frame.
func (s *Source) PointerDelta() (dx, dy float64) {
	return s.pointerDX, s.pointerDY
}

// ReportsReleases reports whether the terminal sends real key releases.
func (s *Source) ReportsReleases() bool {
	return s.reportsReleases
}

// EndFrame discards the current frame's edges and pointer motion. Keys that
// timed out by now are released on the next frame.
func (s *Source) EndFrame(now time.Time) {
	clear(s.pressed)
	clear(s.released)
	s.pointerDX, s.pointerDY = 0, 0

	if s.reportsReleases || s.HoldTimeout <= 0 {
		return
	}
	for id, seen := range s.lastSeen {
		if now.Sub(seen) >= s.HoldTimeout {
			s.released[id] = true
			delete(s.lastSeen, id)
		}
	}
}
