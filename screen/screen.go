// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

// Package screen maps pointer positions on a scaled screenshot back to
// the automation engine's native pixel space.
//
// The engine renders screenshots at their natural resolution, but the
// operator views them scaled to fit a display box. Click coordinates
// submitted with an intervention must be expressed in the screenshot's
// original pixel grid, so every pointer event goes through MapClick
// before it reaches the engine.
package screen

import "math"

// Point is a position in pixels. Depending on context it is either a
// viewport position (pointer event) or a natural-space position
// (engine coordinate).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is the on-screen bounding box of the rendered screenshot, in
// viewport pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Size is the natural (untransformed) pixel dimensions of the
// screenshot image.
type Size struct {
	Width  float64
	Height float64
}

// MapClick translates a pointer event at viewport position (clientX,
// clientY) into the screenshot's natural pixel grid.
//
// Results are NOT clamped to the natural bounds: a pointer event
// outside the rendered rectangle maps to an out-of-range coordinate
// and is passed through unchanged. The engine treats out-of-range
// clicks as a no-op, and clamping here would silently turn a bad
// submission into a click on the nearest edge.
func MapClick(clientX, clientY float64, rect Rect, natural Size) Point {
	scaleX := 1.0
	scaleY := 1.0
	if rect.Width > 0 {
		scaleX = natural.Width / rect.Width
	}
	if rect.Height > 0 {
		scaleY = natural.Height / rect.Height
	}
	return Point{
		X: int(math.Round((clientX - rect.Left) * scaleX)),
		Y: int(math.Round((clientY - rect.Top) * scaleY)),
	}
}

// InBounds reports whether p lies within the natural pixel grid. The
// mapper itself never clamps; callers that want to warn on
// out-of-range submissions can check here.
func InBounds(p Point, natural Size) bool {
	return p.X >= 0 && p.Y >= 0 &&
		float64(p.X) < natural.Width && float64(p.Y) < natural.Height
}
