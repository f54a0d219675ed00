package layout

import "math"

// Point is a position in canvas-local coordinates.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Size is the extent of a canvas.
type Size struct {
	W, H float64
}

// Empty reports whether s has no drawable area.
func (s Size) Empty() bool { return !(s.W > 0 && s.H > 0) }

// Aspect returns W/H, or 1 for an empty size.
func (s Size) Aspect() float64 {
	if s.Empty() {
		return 1
	}
	return s.W / s.H
}

// Rect is an axis-aligned rectangle. All coordinates are canvas-local floats
// with Y growing downwards.
type Rect struct {
	MinX, MinY float64
	W, H       float64
}

// RectFromSize returns the rectangle at the origin with size s.
func RectFromSize(s Size) Rect { return Rect{W: s.W, H: s.H} }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.MinX + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.MinY + r.H }

// Center returns the center point.
func (r Rect) Center() Point { return Point{r.MinX + r.W/2, r.MinY + r.H/2} }

// Area returns W*H.
func (r Rect) Area() float64 { return r.W * r.H }

// Size returns the extent of r.
func (r Rect) Size() Size { return Size{r.W, r.H} }

// Contains reports whether p lies inside r. The min edges are inclusive and
// the max edges exclusive, so adjacent rectangles never both contain a point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X < r.MaxX() && p.Y >= r.MinY && p.Y < r.MaxY()
}

// Inset shrinks r by d on every side. The result never has negative size.
func (r Rect) Inset(d float64) Rect {
	out := Rect{MinX: r.MinX + d, MinY: r.MinY + d, W: r.W - 2*d, H: r.H - 2*d}
	if out.W < 0 {
		out.MinX, out.W = r.MinX+r.W/2, 0
	}
	if out.H < 0 {
		out.MinY, out.H = r.MinY+r.H/2, 0
	}
	return out
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	r.MinX += d.X
	r.MinY += d.Y
	return r
}

// CenteredAt returns a w×h rectangle centered at c.
func CenteredAt(c Point, w, h float64) Rect {
	return Rect{MinX: c.X - w/2, MinY: c.Y - h/2, W: w, H: h}
}

// Lerp interpolates every edge of r towards s independently by t.
func (r Rect) Lerp(s Rect, t float64) Rect {
	minX := lerp(r.MinX, s.MinX, t)
	minY := lerp(r.MinY, s.MinY, t)
	maxX := lerp(r.MaxX(), s.MaxX(), t)
	maxY := lerp(r.MaxY(), s.MaxY(), t)
	return Rect{MinX: minX, MinY: minY, W: maxX - minX, H: maxY - minY}
}

// Intersects reports whether r and s overlap with positive area.
func (r Rect) Intersects(s Rect) bool {
	return r.MinX < s.MaxX() && s.MinX < r.MaxX() && r.MinY < s.MaxY() && s.MinY < r.MaxY()
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
