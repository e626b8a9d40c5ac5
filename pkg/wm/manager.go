package wm

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"

	"webdesk/pkg/geometry"
)

// BaseZIndex is the z-index counter value before the first window opens.
const BaseZIndex = 10

// Manager owns the collection of open windows. It is the only writer of
// window fields; callers get copies.
type Manager struct {
	mu           sync.RWMutex
	windows      []*Window
	activeWindow string
	topZ         int
	lastGeometry map[string]geometry.Rect
	gestures     map[string]*Gesture
	viewport     geometry.Size
	limits       geometry.Limits
	apps         *AppRegistry
	newID        func() string
	placement    func() geometry.Point

	listenersMu sync.RWMutex
	listeners   map[int]func(Event)
	nextListen  int
}

// Config holds configuration for the window manager.
type Config struct {
	Viewport geometry.Size
	Limits   geometry.Limits
	Apps     *AppRegistry
	// OffsetBase and OffsetRange bound where new windows are placed:
	// each coordinate is OffsetBase + [0, OffsetRange).
	OffsetBase  int
	OffsetRange int
	// NewID and Placement override id generation and window placement.
	NewID     func() string
	Placement func() geometry.Point
}

// NewManager creates a new window manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.Limits == (geometry.Limits{}) {
		cfg.Limits = geometry.DefaultLimits()
	}
	if cfg.Viewport == (geometry.Size{}) {
		cfg.Viewport = geometry.Size{Width: 1920, Height: 1080}
	}
	if cfg.Apps == nil {
		cfg.Apps = NewAppRegistry(DefaultApps()...)
	}
	if cfg.OffsetBase <= 0 {
		cfg.OffsetBase = 50
	}
	if cfg.OffsetRange <= 0 {
		cfg.OffsetRange = 200
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Placement == nil {
		base, span, top := cfg.OffsetBase, cfg.OffsetRange, cfg.Limits.TopBarHeight
		cfg.Placement = func() geometry.Point {
			return geometry.Point{
				X: base + rand.IntN(span),
				Y: max(top, base+rand.IntN(span)),
			}
		}
	}

	return &Manager{
		topZ:         BaseZIndex,
		lastGeometry: make(map[string]geometry.Rect),
		gestures:     make(map[string]*Gesture),
		viewport:     cfg.Viewport,
		limits:       cfg.Limits,
		apps:         cfg.Apps,
		newID:        cfg.NewID,
		placement:    cfg.Placement,
		listeners:    make(map[int]func(Event)),
	}
}

// Apps returns the application registry.
func (m *Manager) Apps() *AppRegistry {
	return m.apps
}

// Limits returns the geometry limits in force.
func (m *Manager) Limits() geometry.Limits {
	return m.limits
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	id := m.nextListen
	m.nextListen++
	m.listeners[id] = fn

	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) notify(ev Event) {
	m.listenersMu.RLock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Manager) find(id string) (int, *Window) {
	for i, w := range m.windows {
		if w.ID == id {
			return i, w
		}
	}
	return -1, nil
}

// highestVisible returns the non-minimized window with the highest z-index,
// ignoring skip.
func (m *Manager) highestVisible(skip string) string {
	best, bestZ := "", 0
	for _, w := range m.windows {
		if w.ID == skip || w.IsMinimized {
			continue
		}
		if best == "" || w.ZIndex > bestZ {
			best, bestZ = w.ID, w.ZIndex
		}
	}
	return best
}

// Open opens a window for appID. Single-instance applications that are
// already open are focused instead and their existing window is returned.
func (m *Manager) Open(appID string, args map[string]any) (Window, error) {
	def, ok := m.apps.Lookup(appID)
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrUnknownApp, appID)
	}

	m.mu.Lock()
	if def.SingleInstance {
		for _, w := range m.windows {
			if w.AppID != appID {
				continue
			}
			changed := m.focusLocked(w)
			out := *w
			m.mu.Unlock()
			if changed {
				m.notify(Event{Type: EventFocused, WindowID: out.ID})
			}
			return out, nil
		}
	}

	m.topZ++
	win := &Window{
		ID:       m.newID(),
		AppID:    appID,
		Title:    windowTitle(def, args),
		Position: m.placement(),
		Size:     def.DefaultSize,
		ZIndex:   m.topZ,
		Args:     args,
	}
	m.windows = append(m.windows, win)
	m.activeWindow = win.ID
	out := *win
	m.mu.Unlock()

	m.notify(Event{Type: EventOpened, WindowID: out.ID})
	return out, nil
}

// windowTitle derives a title from the open arguments. An explicit "title"
// wins; otherwise the name of the "file" argument is used.
func windowTitle(def AppDefinition, args map[string]any) string {
	if t, ok := args["title"].(string); ok && t != "" {
		return t
	}
	name := fileName(args["file"])
	switch {
	case name == "":
		return def.Name
	case def.FileTitle:
		return name
	default:
		return def.Name + " - " + name
	}
}

func fileName(v any) string {
	switch f := v.(type) {
	case interface{ DisplayName() string }:
		return f.DisplayName()
	case map[string]any:
		if s, ok := f["name"].(string); ok {
			return s
		}
	case string:
		return f
	}
	return ""
}

// Focus raises a window to the top of the stack, un-minimizes it and makes it
// the active window.
func (m *Manager) Focus(id string) error {
	m.mu.Lock()
	_, w := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}
	changed := m.focusLocked(w)
	m.mu.Unlock()

	if changed {
		m.notify(Event{Type: EventFocused, WindowID: id})
	}
	return nil
}

func (m *Manager) focusLocked(w *Window) bool {
	if m.activeWindow == w.ID && !w.IsMinimized && w.ZIndex == m.topZ {
		return false
	}
	m.topZ++
	w.ZIndex = m.topZ
	w.IsMinimized = false
	m.activeWindow = w.ID
	return true
}

// Close removes a window. If it was active, the highest remaining visible
// window becomes active.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	i, w := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}
	m.windows = append(m.windows[:i], m.windows[i+1:]...)
	delete(m.lastGeometry, id)
	if g, ok := m.gestures[id]; ok {
		g.done = true
		delete(m.gestures, id)
	}
	if m.activeWindow == id {
		m.activeWindow = m.highestVisible("")
	}
	m.mu.Unlock()

	m.notify(Event{Type: EventClosed, WindowID: id})
	return nil
}

// CloseActive closes the active window, if any.
func (m *Manager) CloseActive() error {
	m.mu.RLock()
	id := m.activeWindow
	m.mu.RUnlock()

	if id == "" {
		return ErrWindowNotFound
	}
	return m.Close(id)
}

// Minimize toggles the minimized flag. Minimizing the active window hands
// activation to the highest remaining visible window; un-minimizing is a focus.
func (m *Manager) Minimize(id string) error {
	m.mu.Lock()
	_, w := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}

	if w.IsMinimized {
		m.focusLocked(w)
		m.mu.Unlock()
		m.notify(Event{Type: EventFocused, WindowID: id})
		return nil
	}

	w.IsMinimized = true
	if m.activeWindow == id {
		m.activeWindow = m.highestVisible(id)
	}
	m.mu.Unlock()

	m.notify(Event{Type: EventMinimized, WindowID: id})
	return nil
}

// ToggleMaximize enters or leaves the maximized state. Entering snapshots the
// stored geometry; leaving restores it when a snapshot exists.
func (m *Manager) ToggleMaximize(id string) error {
	m.mu.Lock()
	_, w := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}

	if !w.IsMaximized {
		m.lastGeometry[id] = w.Rect()
		w.IsMaximized = true
	} else {
		if r, ok := m.lastGeometry[id]; ok {
			w.Position = r.Position
			w.Size = r.Size
			delete(m.lastGeometry, id)
		}
		w.IsMaximized = false
	}
	m.mu.Unlock()

	m.notify(Event{Type: EventMaximized, WindowID: id})
	return nil
}

// UpdateGeometry replaces the provided geometry fields of a window.
func (m *Manager) UpdateGeometry(id string, upd GeometryUpdate) error {
	m.mu.Lock()
	_, w := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}
	m.applyGeometry(w, upd)
	m.mu.Unlock()

	m.notify(Event{Type: EventGeometry, WindowID: id})
	return nil
}

func (m *Manager) applyGeometry(w *Window, upd GeometryUpdate) {
	if upd.Position != nil {
		w.Position = *upd.Position
	}
	if upd.Size != nil {
		w.Size = *upd.Size
	}
}

// SetTitle sets the title of a window.
func (m *Manager) SetTitle(id, title string) error {
	m.mu.Lock()
	_, w := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return ErrWindowNotFound
	}
	w.Title = title
	m.mu.Unlock()

	m.notify(Event{Type: EventGeometry, WindowID: id})
	return nil
}

// Get returns a copy of a window by ID.
func (m *Manager) Get(id string) (Window, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, w := m.find(id)
	if w == nil {
		return Window{}, ErrWindowNotFound
	}
	return *w, nil
}

// Active returns the active window id, or "" when no window is active.
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeWindow
}

// TopZ returns the highest z-index allocated so far.
func (m *Manager) TopZ() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.topZ
}

// Windows returns copies of all windows in paint order, back to front.
func (m *Manager) Windows() []Window {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Window, len(m.windows))
	for i, w := range m.windows {
		out[i] = *w
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Visible returns the windows in the render set, back to front.
func (m *Manager) Visible() []Window {
	all := m.Windows()
	out := all[:0]
	for _, w := range all {
		if !w.IsMinimized {
			out = append(out, w)
		}
	}
	return out
}

// DisplayFrame returns the geometry a window is rendered at. Maximized windows
// fill the viewport below the top bar; their stored geometry is untouched.
func (m *Manager) DisplayFrame(id string) (geometry.Rect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, w := m.find(id)
	if w == nil {
		return geometry.Rect{}, ErrWindowNotFound
	}
	if w.IsMaximized {
		return geometry.Maximized(m.viewport, m.limits), nil
	}
	return w.Rect(), nil
}

// Snapshot returns the window list for persistence.
func (m *Manager) Snapshot() []Window {
	return m.Windows()
}

// Restore replaces the window collection with persisted windows. The z-index
// counter resumes above the highest restored value and no window is active.
func (m *Manager) Restore(windows []Window) {
	m.mu.Lock()
	m.windows = make([]*Window, 0, len(windows))
	m.topZ = BaseZIndex
	seen := make(map[string]bool, len(windows))
	for i := range windows {
		w := windows[i]
		if w.ID == "" || seen[w.ID] {
			continue
		}
		seen[w.ID] = true
		m.windows = append(m.windows, &w)
		m.topZ = max(m.topZ, w.ZIndex)
	}
	m.activeWindow = ""
	m.lastGeometry = make(map[string]geometry.Rect)
	for _, g := range m.gestures {
		g.done = true
	}
	m.gestures = make(map[string]*Gesture)
	m.mu.Unlock()

	m.notify(Event{Type: EventRestored})
}

// SetViewport sets the viewport used for maximized windows.
func (m *Manager) SetViewport(size geometry.Size) {
	m.mu.Lock()
	m.viewport = size
	m.mu.Unlock()

	m.notify(Event{Type: EventGeometry})
}

// Viewport returns the viewport dimensions.
func (m *Manager) Viewport() geometry.Size {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport
}
