package wm

import (
	"errors"
	"testing"

	"webdesk/pkg/geometry"
)

func TestDragGesture(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)

	g, err := mgr.BeginDrag(win.ID, geometry.Point{X: 150, Y: 110})
	if err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if err := mgr.UpdateGesture(g, geometry.Point{X: 160, Y: 115}); err != nil {
		t.Fatalf("UpdateGesture failed: %v", err)
	}
	if err := mgr.UpdateGesture(g, geometry.Point{X: 170, Y: 125}); err != nil {
		t.Fatalf("UpdateGesture failed: %v", err)
	}
	mgr.EndGesture(g)

	got, _ := mgr.Get(win.ID)
	if got.Position != (geometry.Point{X: 120, Y: 115}) {
		t.Errorf("unexpected position after drag: %+v", got.Position)
	}
	if _, ok := mgr.ActiveGesture(win.ID); ok {
		t.Error("expected gesture to be cleared after end")
	}
	if err := mgr.UpdateGesture(g, geometry.Point{X: 0, Y: 0}); !errors.Is(err, ErrGestureEnded) {
		t.Errorf("expected ErrGestureEnded, got %v", err)
	}
}

func TestDragClampsToTopBar(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)

	g, err := mgr.BeginDrag(win.ID, geometry.Point{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if err := mgr.UpdateGesture(g, geometry.Point{X: 0, Y: -500}); err != nil {
		t.Fatalf("UpdateGesture failed: %v", err)
	}

	got, _ := mgr.Get(win.ID)
	if got.Position.Y != geometry.DefaultTopBarHeight {
		t.Errorf("expected y %d, got %d", geometry.DefaultTopBarHeight, got.Position.Y)
	}
}

func TestBeginGestureFocuses(t *testing.T) {
	mgr := newTestManager()
	a := mustOpen(t, mgr, AppTerminal, nil)
	mustOpen(t, mgr, AppBrowser, nil)

	if _, err := mgr.BeginDrag(a.ID, geometry.Point{}); err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if mgr.Active() != a.ID {
		t.Errorf("expected %s to be focused, got %s", a.ID, mgr.Active())
	}
}

func TestGestureRefusedWhileMaximized(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)
	if err := mgr.ToggleMaximize(win.ID); err != nil {
		t.Fatalf("ToggleMaximize failed: %v", err)
	}

	if _, err := mgr.BeginDrag(win.ID, geometry.Point{}); !errors.Is(err, ErrWindowMaximized) {
		t.Errorf("expected ErrWindowMaximized for drag, got %v", err)
	}
	if _, err := mgr.BeginResize(win.ID, geometry.BottomRight, geometry.Point{}); !errors.Is(err, ErrWindowMaximized) {
		t.Errorf("expected ErrWindowMaximized for resize, got %v", err)
	}
}

func TestResizeGestureTopLeftFloor(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)
	size := geometry.Size{Width: 400, Height: 300}
	if err := mgr.UpdateGeometry(win.ID, GeometryUpdate{Size: &size}); err != nil {
		t.Fatalf("UpdateGeometry failed: %v", err)
	}

	g, err := mgr.BeginResize(win.ID, geometry.TopLeft, geometry.Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}
	for _, p := range []geometry.Point{{X: 600, Y: 600}, {X: 1100, Y: 1100}} {
		if err := mgr.UpdateGesture(g, p); err != nil {
			t.Fatalf("UpdateGesture failed: %v", err)
		}
	}

	got, _ := mgr.Get(win.ID)
	if got.Size != (geometry.Size{Width: geometry.DefaultMinWidth, Height: geometry.DefaultMinHeight}) {
		t.Errorf("expected minimum size, got %+v", got.Size)
	}
	if got.Rect().Right() != 500 || got.Rect().Bottom() != 400 {
		t.Errorf("expected bottom-right corner (500,400), got (%d,%d)", got.Rect().Right(), got.Rect().Bottom())
	}
}

func TestBeginResizeInvalidDirection(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)

	if _, err := mgr.BeginResize(win.ID, geometry.EdgeLeft|geometry.EdgeRight, geometry.Point{}); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestGestureOnClosedWindow(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)

	g, err := mgr.BeginDrag(win.ID, geometry.Point{})
	if err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if err := mgr.Close(win.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := mgr.UpdateGesture(g, geometry.Point{X: 10, Y: 10}); !errors.Is(err, ErrGestureEnded) {
		t.Errorf("expected ErrGestureEnded, got %v", err)
	}
}

func TestNewGestureEndsPrevious(t *testing.T) {
	mgr := newTestManager()
	win := mustOpen(t, mgr, AppTerminal, nil)

	first, _ := mgr.BeginDrag(win.ID, geometry.Point{})
	second, err := mgr.BeginResize(win.ID, geometry.Right, geometry.Point{})
	if err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}

	if err := mgr.UpdateGesture(first, geometry.Point{X: 5}); !errors.Is(err, ErrGestureEnded) {
		t.Errorf("expected first gesture ended, got %v", err)
	}
	if cur, ok := mgr.ActiveGesture(win.ID); !ok || cur != second {
		t.Error("expected second gesture to be live")
	}
	mgr.EndGesture(first)
	if _, ok := mgr.ActiveGesture(win.ID); !ok {
		t.Error("ending a stale gesture must not clear the live one")
	}
}
