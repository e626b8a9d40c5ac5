package geometry

import "strings"

// Default limits used by the shell chrome.
const (
	// DefaultTopBarHeight is the height of the fixed top menu bar in pixels.
	DefaultTopBarHeight = 28
	// DefaultMinWidth is the smallest width a window may be resized to.
	DefaultMinWidth = 200
	// DefaultMinHeight is the smallest height a window may be resized to.
	DefaultMinHeight = 150
)

// Point is a screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Sub returns the delta p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Size is a width/height pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a positioned size.
type Rect struct {
	Position Point `json:"position"`
	Size     Size  `json:"size"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() int { return r.Position.X + r.Size.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() int { return r.Position.Y + r.Size.Height }

// Contains checks if a point is within the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Position.X && p.X <= r.Right() &&
		p.Y >= r.Position.Y && p.Y <= r.Bottom()
}

// Limits bounds window geometry.
type Limits struct {
	MinWidth     int `json:"min_width"`
	MinHeight    int `json:"min_height"`
	TopBarHeight int `json:"top_bar_height"`
}

// DefaultLimits returns the limits of the stock shell chrome.
func DefaultLimits() Limits {
	return Limits{
		MinWidth:     DefaultMinWidth,
		MinHeight:    DefaultMinHeight,
		TopBarHeight: DefaultTopBarHeight,
	}
}

// Edge is a bit set of window edges.
type Edge uint8

const (
	EdgeTop Edge = 1 << iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// Direction identifies one of the eight resize affordances.
type Direction = Edge

// The eight resize handles.
const (
	Top         Direction = EdgeTop
	Bottom      Direction = EdgeBottom
	Left        Direction = EdgeLeft
	Right       Direction = EdgeRight
	TopLeft     Direction = EdgeTop | EdgeLeft
	TopRight    Direction = EdgeTop | EdgeRight
	BottomLeft  Direction = EdgeBottom | EdgeLeft
	BottomRight Direction = EdgeBottom | EdgeRight
)

// Has reports whether e includes every edge in other.
func (e Edge) Has(other Edge) bool {
	return other != 0 && e&other == other
}

// Valid reports whether the direction is one of the eight handles.
func (e Edge) Valid() bool {
	if e == 0 || e&^(EdgeTop|EdgeBottom|EdgeLeft|EdgeRight) != 0 {
		return false
	}
	if e.Has(EdgeTop|EdgeBottom) || e.Has(EdgeLeft|EdgeRight) {
		return false
	}
	return true
}

// String returns the handle name, e.g. "top-left".
func (e Edge) String() string {
	var parts []string
	if e.Has(EdgeTop) {
		parts = append(parts, "top")
	}
	if e.Has(EdgeBottom) {
		parts = append(parts, "bottom")
	}
	if e.Has(EdgeLeft) {
		parts = append(parts, "left")
	}
	if e.Has(EdgeRight) {
		parts = append(parts, "right")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "-")
}

// ParseDirection parses a handle name such as "bottom-right".
// It returns false for anything that is not one of the eight handles.
func ParseDirection(s string) (Direction, bool) {
	var d Direction
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(s)), "-") {
		switch part {
		case "top":
			d |= EdgeTop
		case "bottom":
			d |= EdgeBottom
		case "left":
			d |= EdgeLeft
		case "right":
			d |= EdgeRight
		default:
			return 0, false
		}
	}
	if !d.Valid() {
		return 0, false
	}
	return d, true
}
