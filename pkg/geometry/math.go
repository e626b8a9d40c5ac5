package geometry

// Drag moves pos by the delta between two consecutive pointer samples.
// The top edge never rises above the top bar.
func Drag(pos, prev, cur Point, lim Limits) Point {
	next := pos.Add(cur.Sub(prev))
	if next.Y < lim.TopBarHeight {
		next.Y = lim.TopBarHeight
	}
	return next
}

// ResizeOrigin is captured once when a resize gesture starts.
type ResizeOrigin struct {
	Pointer  Point `json:"pointer"`
	Position Point `json:"position"`
	Size     Size  `json:"size"`
}

// Rect returns the window rect at the start of the gesture.
func (o ResizeOrigin) Rect() Rect {
	return Rect{Position: o.Position, Size: o.Size}
}

// Resize computes the window rect for a resize gesture from its origin and
// the current pointer. Trailing edges grow the size; leading edges keep the
// opposite edge fixed. Sizes are clamped to the limits and the top edge is
// kept below the top bar.
func Resize(origin ResizeOrigin, pointer Point, dir Direction, lim Limits) Rect {
	delta := pointer.Sub(origin.Pointer)
	out := origin.Rect()

	switch {
	case dir.Has(EdgeRight):
		out.Size.Width = max(lim.MinWidth, origin.Size.Width+delta.X)
	case dir.Has(EdgeLeft):
		right := origin.Position.X + origin.Size.Width
		out.Size.Width = origin.Size.Width - delta.X
		out.Position.X = origin.Position.X + delta.X
		if out.Size.Width < lim.MinWidth {
			out.Size.Width = lim.MinWidth
			out.Position.X = right - lim.MinWidth
		}
	}

	switch {
	case dir.Has(EdgeBottom):
		out.Size.Height = max(lim.MinHeight, origin.Size.Height+delta.Y)
	case dir.Has(EdgeTop):
		bottom := origin.Position.Y + origin.Size.Height
		out.Position.Y = max(lim.TopBarHeight, origin.Position.Y+delta.Y)
		out.Size.Height = bottom - out.Position.Y
		if out.Size.Height < lim.MinHeight {
			out.Size.Height = lim.MinHeight
			// The top bar wins over keeping the bottom edge in place.
			out.Position.Y = max(lim.TopBarHeight, bottom-lim.MinHeight)
		}
	}

	return out
}

// Maximized returns the rect of a maximized window: the full viewport below
// the top bar.
func Maximized(viewport Size, lim Limits) Rect {
	return Rect{
		Position: Point{X: 0, Y: lim.TopBarHeight},
		Size: Size{
			Width:  viewport.Width,
			Height: max(0, viewport.Height-lim.TopBarHeight),
		},
	}
}
