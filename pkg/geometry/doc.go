/*
Package geometry holds the pure window geometry math used by the window manager.

Nothing in this package has state. Every function takes the current geometry,
one or two pointer samples and a set of Limits, and returns the new geometry.
Inputs are never rejected: out-of-range results are clamped instead.

Drag is incremental: each pointer sample is compared to the previous one.

	pos = geometry.Drag(pos, prev, cur, limits)

Resize is computed from the origin of the gesture plus the total delta:

	origin := geometry.ResizeOrigin{Pointer: down, Position: pos, Size: size}
	rect := geometry.Resize(origin, cur, geometry.TopLeft, limits)
*/
package geometry
