package wm

import (
	"errors"

	"webdesk/pkg/geometry"
)

// WindowState is the display state of a window, derived from its flags.
type WindowState int

const (
	// WindowStateNormal indicates the window is open at its stored geometry.
	WindowStateNormal WindowState = iota
	// WindowStateMinimized indicates the window is hidden from the render set.
	WindowStateMinimized
	// WindowStateMaximized indicates the window fills the viewport below the top bar.
	WindowStateMaximized
)

// String returns a string representation of the window state.
func (s WindowState) String() string {
	switch s {
	case WindowStateNormal:
		return "normal"
	case WindowStateMinimized:
		return "minimized"
	case WindowStateMaximized:
		return "maximized"
	default:
		return "unknown"
	}
}

// Window is one open instance of a hosted application.
//
// Args is handed to the hosted view untouched. The manager only reads the
// "title" and "file" keys to derive the window title.
type Window struct {
	ID          string         `json:"id"`
	AppID       string         `json:"appId"`
	Title       string         `json:"title"`
	Position    geometry.Point `json:"position"`
	Size        geometry.Size  `json:"size"`
	ZIndex      int            `json:"zIndex"`
	IsMinimized bool           `json:"isMinimized"`
	IsMaximized bool           `json:"isMaximized"`
	Args        map[string]any `json:"args,omitempty"`
}

// State returns the display state. Minimized wins over maximized.
func (w Window) State() WindowState {
	switch {
	case w.IsMinimized:
		return WindowStateMinimized
	case w.IsMaximized:
		return WindowStateMaximized
	default:
		return WindowStateNormal
	}
}

// Rect returns the stored geometry of the window.
func (w Window) Rect() geometry.Rect {
	return geometry.Rect{Position: w.Position, Size: w.Size}
}

// GeometryUpdate carries the fields replaced by UpdateGeometry. Nil fields are
// left unchanged.
type GeometryUpdate struct {
	Position *geometry.Point `json:"position,omitempty"`
	Size     *geometry.Size  `json:"size,omitempty"`
}

// EventType identifies what changed in the manager.
type EventType string

const (
	EventOpened    EventType = "opened"
	EventClosed    EventType = "closed"
	EventFocused   EventType = "focused"
	EventMinimized EventType = "minimized"
	EventMaximized EventType = "maximized"
	EventGeometry  EventType = "geometry"
	EventRestored  EventType = "restored"
)

// Event is delivered to subscribers after every state change.
type Event struct {
	Type     EventType `json:"type"`
	WindowID string    `json:"windowId,omitempty"`
}

// ErrWindowNotFound is returned when a window is not found.
var ErrWindowNotFound = errors.New("window not found")

// ErrUnknownApp is returned when opening an application that is not registered.
var ErrUnknownApp = errors.New("unknown application")

// ErrWindowMaximized is returned when a gesture starts on a maximized window.
var ErrWindowMaximized = errors.New("window is maximized")

// ErrInvalidDirection is returned for a resize gesture without a valid handle.
var ErrInvalidDirection = errors.New("invalid resize direction")

// ErrGestureEnded is returned when updating a gesture that has already ended.
var ErrGestureEnded = errors.New("gesture has ended")
