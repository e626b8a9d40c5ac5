package wm

import (
	"webdesk/pkg/geometry"
)

// GestureKind distinguishes drag from resize.
type GestureKind int

const (
	// GestureDrag moves a window by its title bar.
	GestureDrag GestureKind = iota
	// GestureResize resizes a window from one of its eight handles.
	GestureResize
)

// String returns a string representation of the gesture kind.
func (k GestureKind) String() string {
	switch k {
	case GestureDrag:
		return "drag"
	case GestureResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Gesture is a pointer interaction from pointer-down to pointer-up.
// A window has at most one live gesture; starting a new one ends the old one.
type Gesture struct {
	WindowID  string
	Kind      GestureKind
	Direction geometry.Direction

	origin geometry.ResizeOrigin
	last   geometry.Point
	done   bool
}

// Origin returns the window geometry and pointer captured at gesture start.
func (g *Gesture) Origin() geometry.ResizeOrigin {
	return g.origin
}

// BeginDrag starts dragging a window by its title bar and focuses it.
// Maximized windows cannot be dragged.
func (m *Manager) BeginDrag(windowID string, pointer geometry.Point) (*Gesture, error) {
	return m.begin(windowID, GestureDrag, 0, pointer)
}

// BeginResize starts resizing a window from the given handle and focuses it.
// Maximized windows cannot be resized.
func (m *Manager) BeginResize(windowID string, dir geometry.Direction, pointer geometry.Point) (*Gesture, error) {
	if !dir.Valid() {
		return nil, ErrInvalidDirection
	}
	return m.begin(windowID, GestureResize, dir, pointer)
}

func (m *Manager) begin(windowID string, kind GestureKind, dir geometry.Direction, pointer geometry.Point) (*Gesture, error) {
	m.mu.Lock()
	_, w := m.find(windowID)
	if w == nil {
		m.mu.Unlock()
		return nil, ErrWindowNotFound
	}
	if w.IsMaximized {
		m.mu.Unlock()
		return nil, ErrWindowMaximized
	}

	if old, ok := m.gestures[windowID]; ok {
		old.done = true
	}
	g := &Gesture{
		WindowID:  windowID,
		Kind:      kind,
		Direction: dir,
		origin:    geometry.ResizeOrigin{Pointer: pointer, Position: w.Position, Size: w.Size},
		last:      pointer,
	}
	m.gestures[windowID] = g
	changed := m.focusLocked(w)
	m.mu.Unlock()

	if changed {
		m.notify(Event{Type: EventFocused, WindowID: windowID})
	}
	return g, nil
}

// ActiveGesture returns the live gesture of a window, if any.
func (m *Manager) ActiveGesture(windowID string) (*Gesture, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gestures[windowID]
	return g, ok
}

// UpdateGesture applies a pointer-move sample to a live gesture.
func (m *Manager) UpdateGesture(g *Gesture, pointer geometry.Point) error {
	m.mu.Lock()
	if g.done {
		m.mu.Unlock()
		return ErrGestureEnded
	}
	_, w := m.find(g.WindowID)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}
	if w.IsMaximized {
		m.mu.Unlock()
		return ErrWindowMaximized
	}

	switch g.Kind {
	case GestureDrag:
		pos := geometry.Drag(w.Position, g.last, pointer, m.limits)
		m.applyGeometry(w, GeometryUpdate{Position: &pos})
	case GestureResize:
		r := geometry.Resize(g.origin, pointer, g.Direction, m.limits)
		m.applyGeometry(w, GeometryUpdate{Position: &r.Position, Size: &r.Size})
	}
	g.last = pointer
	m.mu.Unlock()

	m.notify(Event{Type: EventGeometry, WindowID: g.WindowID})
	return nil
}

// EndGesture ends a gesture. Ending twice is harmless.
func (m *Manager) EndGesture(g *Gesture) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g.done = true
	if cur, ok := m.gestures[g.WindowID]; ok && cur == g {
		delete(m.gestures, g.WindowID)
	}
}
