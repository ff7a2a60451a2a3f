package geo

import (
	"math"
	"testing"
)

func TestAffineXY(t *testing.T) {
	// 30 m cells, top-left corner at (-2356095, 2295045), north-up grid.
	tr := Affine{A: 30, B: 0, C: -2356095, D: 0, E: -30, F: 2295045}

	x, y := tr.XY(0, 0)
	if x != -2356095+15 {
		t.Errorf("expected cell-center x %f, got %f", -2356095+15.0, x)
	}
	if y != 2295045-15 {
		t.Errorf("expected cell-center y %f, got %f", 2295045-15.0, y)
	}

	x2, y2 := tr.XY(10, 3)
	if x2 != x+3*30 {
		t.Errorf("expected x offset by 3 cells, got %f", x2)
	}
	if y2 != y-10*30 {
		t.Errorf("expected y offset by 10 cells, got %f", y2)
	}
}

func TestConusAlbersRoundTrip(t *testing.T) {
	p := NewConusAlbers()

	points := []struct {
		lon, lat float64
	}{
		{-96, 23},           // projection origin
		{-96, 40},           // on the central meridian
		{-120.5, 37.2},      // central California
		{-124.482003, 42.0}, // northwest corner of the CA box
		{-114.131211, 32.6}, // southeast corner of the CA box
		{-75.2, 44.1},       // east coast
	}

	for _, pt := range points {
		x, y := p.Forward(pt.lon, pt.lat)
		lon, lat := p.Inverse(x, y)
		if math.Abs(lon-pt.lon) > 1e-7 {
			t.Errorf("round trip lon for (%f, %f): got %f", pt.lon, pt.lat, lon)
		}
		if math.Abs(lat-pt.lat) > 1e-7 {
			t.Errorf("round trip lat for (%f, %f): got %f", pt.lon, pt.lat, lat)
		}
	}
}

func TestConusAlbersOrientation(t *testing.T) {
	p := NewConusAlbers()

	// Points west of the central meridian project to negative x.
	x, _ := p.Forward(-120, 37)
	if x >= 0 {
		t.Errorf("expected negative x west of central meridian, got %f", x)
	}
	x, _ = p.Forward(-80, 37)
	if x <= 0 {
		t.Errorf("expected positive x east of central meridian, got %f", x)
	}

	// y grows with latitude on the central meridian.
	_, y1 := p.Forward(-96, 30)
	_, y2 := p.Forward(-96, 45)
	if y2 <= y1 {
		t.Errorf("expected y to grow with latitude: %f <= %f", y2, y1)
	}

	// At the origin latitude, y is zero on the central meridian.
	_, y0 := p.Forward(-96, 23)
	if math.Abs(y0) > 1e-6 {
		t.Errorf("expected y ~ 0 at origin, got %f", y0)
	}
}

func TestInverseSlice(t *testing.T) {
	p := NewConusAlbers()

	xs := make([]float64, 0, 3)
	ys := make([]float64, 0, 3)
	want := [][2]float64{{-123.1, 40.2}, {-118.4, 34.0}, {-115.9, 33.1}}
	for _, w := range want {
		x, y := p.Forward(w[0], w[1])
		xs = append(xs, x)
		ys = append(ys, y)
	}

	lons, lats := p.InverseSlice(xs, ys)
	for i, w := range want {
		if math.Abs(lons[i]-w[0]) > 1e-7 || math.Abs(lats[i]-w[1]) > 1e-7 {
			t.Errorf("point %d: got (%f, %f), want (%f, %f)", i, lons[i], lats[i], w[0], w[1])
		}
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{West: -100, East: 100, South: -50, North: 50}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"interior", 0, 0, true},
		{"west edge", -100, 0, true},
		{"east edge", 100, 0, true},
		{"south edge", 0, -50, true},
		{"north edge", 0, 50, true},
		{"northwest corner", -100, 50, true},
		{"southeast corner", 100, -50, true},
		{"west of box", -100.001, 0, false},
		{"east of box", 100.001, 0, false},
		{"south of box", 0, -50.001, false},
		{"north of box", 0, 50.001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%f, %f) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestProjectBounds(t *testing.T) {
	p := NewConusAlbers()
	g := GeoBounds{West: -124.482003, East: -114.131211, South: 32.534156, North: 42.009517}

	b := ProjectBounds(g, p)

	if b.West >= b.East {
		t.Errorf("expected west < east, got %f >= %f", b.West, b.East)
	}
	if b.South >= b.North {
		t.Errorf("expected south < north, got %f >= %f", b.South, b.North)
	}

	// California sits west of the central meridian and north of the
	// projection origin.
	if b.East >= 0 {
		t.Errorf("expected projected box entirely at negative x, east=%f", b.East)
	}
	if b.South <= 0 {
		t.Errorf("expected projected box at positive y, south=%f", b.South)
	}

	// A point well inside California is inside, one in Nevada-ish
	// longitude but same box is too; a point on the east coast is not.
	x, y := p.Forward(-120.5, 37.0)
	if !b.Contains(x, y) {
		t.Error("expected central California point inside projected bounds")
	}
	x, y = p.Forward(-75.0, 40.0)
	if b.Contains(x, y) {
		t.Error("expected east coast point outside projected bounds")
	}
}
