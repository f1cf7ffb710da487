// Package geom provides the integer bounding-box arithmetic shared by the
// k-means net partitioner, the region tree and the RPTT: containment,
// area, and the GIoU-style distance metric used to cluster nets.
package geom

import "math"

// Box is an axis-aligned integer bounding box over device tile
// coordinates, inclusive on both ends (xmin <= xmax, ymin <= ymax).
type Box struct {
	XMin, XMax, YMin, YMax int32
}

// Width returns the box's extent along X, counting both endpoints.
func (b Box) Width() int32 { return b.XMax - b.XMin + 1 }

// Height returns the box's extent along Y, counting both endpoints.
func (b Box) Height() int32 { return b.YMax - b.YMin + 1 }

// Area is the tile-count area of the box.
func (b Box) Area() int64 { return int64(b.Width()) * int64(b.Height()) }

// CenterX returns the box's geometric center along X.
func (b Box) CenterX() float64 { return float64(b.XMin+b.XMax) / 2.0 }

// CenterY returns the box's geometric center along Y.
func (b Box) CenterY() float64 { return float64(b.YMin+b.YMax) / 2.0 }

// ContainsStrict reports whether (x,y) is strictly inside the box on both
// axes, matching the §4.1 accessibility bounding-box test.
func (b Box) ContainsStrict(x, y int32) bool {
	return x > b.XMin && x < b.XMax && y > b.YMin && y < b.YMax
}

// Union returns the smallest box enclosing both a and b.
func Union(a, b Box) Box {
	return Box{
		XMin: min32(a.XMin, b.XMin),
		XMax: max32(a.XMax, b.XMax),
		YMin: min32(a.YMin, b.YMin),
		YMax: max32(a.YMax, b.YMax),
	}
}

// Expand widens the box by xMargin/yMargin on each side, clipped to
// [0, maxX]x[0, maxY].
func (b Box) Expand(xMargin, yMargin, maxX, maxY int32) Box {
	out := Box{
		XMin: b.XMin - xMargin,
		XMax: b.XMax + xMargin,
		YMin: b.YMin - yMargin,
		YMax: b.YMax + yMargin,
	}
	if out.XMin < 0 {
		out.XMin = 0
	}
	if out.YMin < 0 {
		out.YMin = 0
	}
	if out.XMax > maxX {
		out.XMax = maxX
	}
	if out.YMax > maxY {
		out.YMax = maxY
	}
	return out
}

// Intersects reports whether a and b share any tile.
func Intersects(a, b Box) bool {
	return a.XMin <= b.XMax && b.XMin <= a.XMax && a.YMin <= b.YMax && b.YMin <= a.YMax
}

// intersectionArea returns the area shared by a and b, 0 if disjoint.
func intersectionArea(a, b Box) int64 {
	xmin := max32(a.XMin, b.XMin)
	xmax := min32(a.XMax, b.XMax)
	ymin := max32(a.YMin, b.YMin)
	ymax := min32(a.YMax, b.YMax)
	if xmax < xmin || ymax < ymin {
		return 0
	}
	return int64(xmax-xmin+1) * int64(ymax-ymin+1)
}

// IoU is the standard intersection-over-union ratio of two boxes.
func IoU(a, b Box) float64 {
	inter := intersectionArea(a, b)
	uni := a.Area() + b.Area() - inter
	if uni == 0 {
		return 0
	}
	return float64(inter) / float64(uni)
}

// DIoU adds a center-distance penalty to IoU, normalized by the diagonal
// of the smallest enclosing box.
func DIoU(a, b Box) float64 {
	iou := IoU(a, b)
	enc := Union(a, b)
	diag := float64(enc.Width())*float64(enc.Width()) + float64(enc.Height())*float64(enc.Height())
	if diag == 0 {
		return iou
	}
	dx := a.CenterX() - b.CenterX()
	dy := a.CenterY() - b.CenterY()
	centerDist2 := dx*dx + dy*dy
	return iou - centerDist2/diag
}

// GIoU is generalized IoU: 1 - IoU + (enclosingArea - unionArea)/enclosingArea.
// Used as the base distance metric for k-means net clustering (§4.7); smaller
// is closer, 0 when boxes coincide.
func GIoU(a, b Box) float64 {
	iou := IoU(a, b)
	inter := intersectionArea(a, b)
	uni := float64(a.Area() + b.Area() - inter)
	enc := Union(a, b)
	encArea := float64(enc.Area())
	if encArea == 0 {
		return 1 - iou
	}
	return 1 - iou + (encArea-uni)/encArea
}

// Distance is the Euclidean distance between box centers.
func Distance(a, b Box) float64 {
	dx := a.CenterX() - b.CenterX()
	dy := a.CenterY() - b.CenterY()
	return math.Sqrt(dx*dx + dy*dy)
}

// FurthestVertex returns the Chebyshev-style farthest point of box b from
// point (x,y), used by k-means centroid initialization to pick the next
// seed deterministically.
func FurthestVertex(b Box, x, y float64) (float64, float64) {
	fx := float64(b.XMin)
	if math.Abs(float64(b.XMax)-x) > math.Abs(float64(b.XMin)-x) {
		fx = float64(b.XMax)
	}
	fy := float64(b.YMin)
	if math.Abs(float64(b.YMax)-y) > math.Abs(float64(b.YMin)-y) {
		fy = float64(b.YMax)
	}
	return fx, fy
}

// AroundPoint returns a small box of half-width/half-height (hw,hh)
// centered on (x,y), used for k-means centroid seeds.
func AroundPoint(x, y float64, hw, hh int32) Box {
	return Box{
		XMin: int32(x) - hw,
		XMax: int32(x) + hw,
		YMin: int32(y) - hh,
		YMax: int32(y) + hh,
	}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
