// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package screen

import "testing"

func TestMapClickScalesToNaturalGrid(t *testing.T) {
	t.Parallel()
	rect := Rect{Left: 0, Top: 0, Width: 800, Height: 450}
	natural := Size{Width: 1920, Height: 1080}

	got := MapClick(400, 225, rect, natural)
	want := Point{X: 960, Y: 540}
	if got != want {
		t.Errorf("MapClick = %+v, want %+v", got, want)
	}
}

func TestMapClickOffsetRect(t *testing.T) {
	t.Parallel()
	// Screenshot rendered at 400x300 with the box offset in the
	// viewport. Natural size 1920x1080: scaleX=4.8, scaleY=3.6.
	rect := Rect{Left: 50, Top: 100, Width: 400, Height: 300}
	natural := Size{Width: 1920, Height: 1080}

	got := MapClick(50+200, 100+150, rect, natural)
	want := Point{X: 960, Y: 540}
	if got != want {
		t.Errorf("MapClick = %+v, want %+v", got, want)
	}
}

func TestMapClickRounds(t *testing.T) {
	t.Parallel()
	rect := Rect{Width: 800, Height: 450}
	natural := Size{Width: 1920, Height: 1080}

	// 333 * 2.4 = 799.2 -> 799; 100 * 2.4 = 240.
	got := MapClick(333, 100, rect, natural)
	want := Point{X: 799, Y: 240}
	if got != want {
		t.Errorf("MapClick = %+v, want %+v", got, want)
	}
}

func TestMapClickDoesNotClamp(t *testing.T) {
	t.Parallel()
	rect := Rect{Width: 800, Height: 450}
	natural := Size{Width: 1920, Height: 1080}

	got := MapClick(-10, 500, rect, natural)
	want := Point{X: -24, Y: 1200}
	if got != want {
		t.Errorf("MapClick = %+v, want %+v (out-of-range passes through)", got, want)
	}
	if InBounds(got, natural) {
		t.Error("InBounds reported true for out-of-range point")
	}
}

func TestMapClickZeroRect(t *testing.T) {
	t.Parallel()
	// Degenerate rect (image not laid out yet): scale factors fall
	// back to identity instead of dividing by zero.
	got := MapClick(10, 20, Rect{}, Size{Width: 1920, Height: 1080})
	want := Point{X: 10, Y: 20}
	if got != want {
		t.Errorf("MapClick = %+v, want %+v", got, want)
	}
}

func TestInBounds(t *testing.T) {
	t.Parallel()
	natural := Size{Width: 1920, Height: 1080}
	cases := []struct {
		point Point
		want  bool
	}{
		{Point{0, 0}, true},
		{Point{1919, 1079}, true},
		{Point{1920, 0}, false},
		{Point{0, 1080}, false},
		{Point{-1, 5}, false},
	}
	for _, c := range cases {
		if got := InBounds(c.point, natural); got != c.want {
			t.Errorf("InBounds(%+v) = %v, want %v", c.point, got, c.want)
		}
	}
}
