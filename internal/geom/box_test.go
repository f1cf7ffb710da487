package geom

import (
	"math"
	"testing"
)

func TestWidthHeightArea(t *testing.T) {
	tests := []struct {
		name       string
		box        Box
		wantW      int32
		wantH      int32
		wantArea   int64
	}{
		{"unit", Box{XMin: 0, XMax: 0, YMin: 0, YMax: 0}, 1, 1, 1},
		{"square", Box{XMin: 0, XMax: 3, YMin: 0, YMax: 3}, 4, 4, 16},
		{"rect", Box{XMin: -2, XMax: 2, YMin: 1, YMax: 5}, 5, 5, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Width(); got != tt.wantW {
				t.Errorf("Width() = %d, want %d", got, tt.wantW)
			}
			if got := tt.box.Height(); got != tt.wantH {
				t.Errorf("Height() = %d, want %d", got, tt.wantH)
			}
			if got := tt.box.Area(); got != tt.wantArea {
				t.Errorf("Area() = %d, want %d", got, tt.wantArea)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	a := Box{XMin: 0, XMax: 2, YMin: 0, YMax: 2}
	b := Box{XMin: 1, XMax: 5, YMin: -1, YMax: 1}
	want := Box{XMin: 0, XMax: 5, YMin: -1, YMax: 2}
	if got := Union(a, b); got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestExpandClips(t *testing.T) {
	b := Box{XMin: 1, XMax: 2, YMin: 1, YMax: 2}
	got := b.Expand(5, 5, 3, 3)
	want := Box{XMin: 0, XMax: 3, YMin: 0, YMax: 3}
	if got != want {
		t.Errorf("Expand() = %+v, want %+v", got, want)
	}
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want bool
	}{
		{"overlapping", Box{0, 2, 0, 2}, Box{1, 3, 1, 3}, true},
		{"touching edge", Box{0, 2, 0, 2}, Box{2, 4, 2, 4}, true},
		{"disjoint x", Box{0, 1, 0, 1}, Box{5, 6, 0, 1}, false},
		{"disjoint y", Box{0, 1, 0, 1}, Box{0, 1, 5, 6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersects(tt.a, tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIoUIdenticalBoxesIsOne(t *testing.T) {
	b := Box{XMin: 0, XMax: 4, YMin: 0, YMax: 4}
	if got := IoU(b, b); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("IoU(b, b) = %v, want 1.0", got)
	}
}

func TestIoUDisjointIsZero(t *testing.T) {
	a := Box{XMin: 0, XMax: 1, YMin: 0, YMax: 1}
	b := Box{XMin: 10, XMax: 11, YMin: 10, YMax: 11}
	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU(disjoint) = %v, want 0", got)
	}
}

func TestGIoUIdenticalBoxesIsZero(t *testing.T) {
	b := Box{XMin: 0, XMax: 4, YMin: 0, YMax: 4}
	if got := GIoU(b, b); math.Abs(got) > 1e-9 {
		t.Errorf("GIoU(b, b) = %v, want 0", got)
	}
}

func TestGIoUFarApartExceedsOne(t *testing.T) {
	a := Box{XMin: 0, XMax: 1, YMin: 0, YMax: 1}
	b := Box{XMin: 100, XMax: 101, YMin: 100, YMax: 101}
	if got := GIoU(a, b); got <= 1.0 {
		t.Errorf("GIoU(far apart) = %v, want > 1.0", got)
	}
}

func TestFurthestVertex(t *testing.T) {
	b := Box{XMin: 0, XMax: 10, YMin: 0, YMax: 10}
	fx, fy := FurthestVertex(b, 9, 9)
	if fx != 0 || fy != 0 {
		t.Errorf("FurthestVertex() = (%v, %v), want (0, 0)", fx, fy)
	}
}

func TestAroundPoint(t *testing.T) {
	b := AroundPoint(5, 5, 2, 3)
	want := Box{XMin: 3, XMax: 7, YMin: 2, YMax: 8}
	if b != want {
		t.Errorf("AroundPoint() = %+v, want %+v", b, want)
	}
}
