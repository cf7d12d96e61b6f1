package mathx

import "math"

// Vec2 is a 2D float64 vector used for positions, velocities and forces.
type Vec2 struct {
	X float64
	Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Neg() Vec2              { return Vec2{-v.X, -v.Y} }
func (v Vec2) Dot(o Vec2) float64     { return v.X*o.X + v.Y*o.Y }
func (v Vec2) LenSq() float64         { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float64           { return math.Sqrt(v.LenSq()) }
func (v Vec2) IsZero() bool           { return v.X == 0 && v.Y == 0 }
func (v Vec2) DistSq(o Vec2) float64  { return v.Sub(o).LenSq() }
func (v Vec2) Dist(o Vec2) float64    { return v.Sub(o).Len() }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// ClampLen limits the vector length to max while preserving direction.
func (v Vec2) ClampLen(max float64) Vec2 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ApproxEqual reports whether a and b differ by less than eps.
func ApproxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}
