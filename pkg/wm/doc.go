/*
Package wm provides the window manager of the desktop shell.

The Manager owns every open window: its geometry, z-order, focus and
minimized/maximized flags. It is the only writer of those fields; readers get
copies. Geometry math lives in package geometry.

Z-indices are allocated from a counter that only grows, so the most recently
focused window is always the one with the highest z-index.

Example usage:

	manager := wm.NewManager(wm.Config{Viewport: geometry.Size{Width: 1280, Height: 800}})
	win, err := manager.Open(wm.AppTerminal, nil)
	if err != nil {
		// handle error
	}
	g, _ := manager.BeginDrag(win.ID, geometry.Point{X: 10, Y: 10})
	_ = manager.UpdateGesture(g, geometry.Point{X: 40, Y: 25})
	manager.EndGesture(g)
*/
package wm
