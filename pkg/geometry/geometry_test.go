package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrag_AddsDeltaFromPreviousSample(t *testing.T) {
	lim := DefaultLimits()
	pos := Point{X: 100, Y: 100}

	pos = Drag(pos, Point{X: 10, Y: 10}, Point{X: 15, Y: 20}, lim)
	assert.Equal(t, Point{X: 105, Y: 110}, pos)

	// Second frame uses the previous sample, not the drag origin.
	pos = Drag(pos, Point{X: 15, Y: 20}, Point{X: 16, Y: 21}, lim)
	assert.Equal(t, Point{X: 106, Y: 111}, pos)
}

func TestDrag_ClampsToTopBar(t *testing.T) {
	lim := DefaultLimits()
	pos := Drag(Point{X: 100, Y: 100}, Point{X: 0, Y: 0}, Point{X: 0, Y: -500}, lim)
	assert.Equal(t, DefaultTopBarHeight, pos.Y)
	assert.Equal(t, 100, pos.X)
}

func TestResize_TopLeftShrinkPastFloor(t *testing.T) {
	lim := DefaultLimits()
	origin := ResizeOrigin{
		Pointer:  Point{X: 100, Y: 100},
		Position: Point{X: 100, Y: 100},
		Size:     Size{Width: 400, Height: 300},
	}

	got := Resize(origin, Point{X: 1100, Y: 1100}, TopLeft, lim)

	assert.Equal(t, Size{Width: lim.MinWidth, Height: lim.MinHeight}, got.Size)
	assert.Equal(t, 500, got.Right())
	assert.Equal(t, 400, got.Bottom())
}

func TestResize_TrailingEdges(t *testing.T) {
	lim := DefaultLimits()
	origin := ResizeOrigin{
		Pointer:  Point{X: 500, Y: 400},
		Position: Point{X: 100, Y: 100},
		Size:     Size{Width: 400, Height: 300},
	}

	tests := []struct {
		name    string
		pointer Point
		dir     Direction
		want    Rect
	}{
		{"grow right", Point{X: 550, Y: 400}, Right, Rect{Point{100, 100}, Size{450, 300}}},
		{"grow bottom", Point{X: 500, Y: 460}, Bottom, Rect{Point{100, 100}, Size{400, 360}}},
		{"grow bottom-right", Point{X: 510, Y: 420}, BottomRight, Rect{Point{100, 100}, Size{410, 320}}},
		{"shrink right to floor", Point{X: -500, Y: 400}, Right, Rect{Point{100, 100}, Size{200, 300}}},
		{"shrink bottom to floor", Point{X: 500, Y: -500}, Bottom, Rect{Point{100, 100}, Size{400, 150}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resize(origin, tt.pointer, tt.dir, lim))
		})
	}
}

func TestResize_LeftKeepsRightEdge(t *testing.T) {
	lim := DefaultLimits()
	origin := ResizeOrigin{
		Pointer:  Point{X: 100, Y: 200},
		Position: Point{X: 100, Y: 100},
		Size:     Size{Width: 400, Height: 300},
	}

	grown := Resize(origin, Point{X: 50, Y: 200}, Left, lim)
	assert.Equal(t, Rect{Point{50, 100}, Size{450, 300}}, grown)

	shrunk := Resize(origin, Point{X: 150, Y: 200}, Left, lim)
	assert.Equal(t, Rect{Point{150, 100}, Size{350, 300}}, shrunk)
	assert.Equal(t, 500, shrunk.Right())
}

func TestResize_TopClampsToTopBar(t *testing.T) {
	lim := DefaultLimits()
	origin := ResizeOrigin{
		Pointer:  Point{X: 200, Y: 100},
		Position: Point{X: 100, Y: 100},
		Size:     Size{Width: 400, Height: 300},
	}

	got := Resize(origin, Point{X: 200, Y: -400}, Top, lim)
	assert.Equal(t, lim.TopBarHeight, got.Position.Y)
	assert.Equal(t, 400-lim.TopBarHeight, got.Size.Height)
	assert.Equal(t, 400, got.Bottom())
}

func TestResize_TopFloorNeverCrossesTopBar(t *testing.T) {
	lim := DefaultLimits()
	// Bottom edge sits closer to the top bar than the minimum height allows.
	origin := ResizeOrigin{
		Pointer:  Point{X: 0, Y: 30},
		Position: Point{X: 0, Y: 30},
		Size:     Size{Width: 400, Height: 100},
	}

	got := Resize(origin, Point{X: 0, Y: 60}, Top, lim)
	assert.Equal(t, lim.MinHeight, got.Size.Height)
	assert.Equal(t, lim.TopBarHeight, got.Position.Y)
}

func TestResize_UsesTotalDeltaFromOrigin(t *testing.T) {
	lim := DefaultLimits()
	origin := ResizeOrigin{
		Pointer:  Point{X: 500, Y: 400},
		Position: Point{X: 100, Y: 100},
		Size:     Size{Width: 400, Height: 300},
	}

	// Replaying intermediate samples must not change the final result.
	var last Rect
	for _, p := range []Point{{510, 400}, {530, 400}, {520, 400}} {
		last = Resize(origin, p, Right, lim)
	}
	assert.Equal(t, 420, last.Size.Width)
}

func TestMaximized(t *testing.T) {
	got := Maximized(Size{Width: 1920, Height: 1080}, DefaultLimits())
	assert.Equal(t, Point{X: 0, Y: DefaultTopBarHeight}, got.Position)
	assert.Equal(t, Size{Width: 1920, Height: 1080 - DefaultTopBarHeight}, got.Size)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"top", Top, true},
		{"bottom-right", BottomRight, true},
		{"Top-Left", TopLeft, true},
		{"left-right", 0, false},
		{"middle", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "top-left", TopLeft.String())
	assert.Equal(t, "bottom-right", BottomRight.String())
	assert.Equal(t, "none", Direction(0).String())
}

func TestRectContains(t *testing.T) {
	r := Rect{Position: Point{X: 100, Y: 100}, Size: Size{Width: 200, Height: 150}}

	assert.True(t, r.Contains(Point{X: 150, Y: 175}))
	assert.True(t, r.Contains(Point{X: 300, Y: 250}))
	assert.False(t, r.Contains(Point{X: 99, Y: 100}))
	assert.False(t, r.Contains(Point{X: 100, Y: 251}))
}
