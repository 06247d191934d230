package path

import (
	gomath "math"

	"github.com/yohamta/donburi/features/math"
)

// PointType controls how a control point's tangents are interpreted.
type PointType uint8

const (
	// Corner points have zero tangents: the path passes through with a sharp turn.
	Corner PointType = iota
	// Smooth points mirror the in-tangent direction into the out-tangent.
	Smooth
	// BezierCorner points keep independent in and out tangents.
	BezierCorner
)

// ControlPoint is a path vertex. Tangents are offsets relative to Position.
type ControlPoint struct {
	Position   math.Vec2
	InTangent  math.Vec2
	OutTangent math.Vec2
	Type       PointType
}

// Path is a multi-segment cubic Bezier curve.
type Path struct {
	points []ControlPoint
}

// New builds a path, normalizing tangents by point type.
func New(points []ControlPoint) *Path {
	pts := make([]ControlPoint, len(points))
	for i, p := range points {
		switch p.Type {
		case Corner:
			p.InTangent = math.Vec2{}
			p.OutTangent = math.Vec2{}
		case Smooth:
			p.OutTangent = mirror(p.InTangent, p.OutTangent)
		}
		pts[i] = p
	}
	return &Path{points: pts}
}

// SegmentCount returns the number of cubic segments.
func (p *Path) SegmentCount() int {
	return max(len(p.points)-1, 0)
}

// Evaluate returns the position at path parameter t in [0,1].
// t is clamped; NaN is treated as 0. t=1 returns the last point exactly.
func (p *Path) Evaluate(t float64) math.Vec2 {
	if len(p.points) == 0 {
		return math.Vec2{}
	}
	if gomath.IsNaN(t) || t <= 0 {
		return p.points[0].Position
	}
	n := p.SegmentCount()
	if n == 0 || t >= 1 {
		return p.points[len(p.points)-1].Position
	}

	scaled := t * float64(n)
	idx := int(gomath.Floor(scaled))
	if idx >= n {
		idx = n - 1
	}
	local := scaled - float64(idx)

	a, b := p.points[idx], p.points[idx+1]
	return CubicBezier(
		a.Position,
		a.Position.Add(a.OutTangent),
		b.Position.Add(b.InTangent),
		b.Position,
		local,
	)
}

// Transform returns the path rotated by angle (radians, counter-clockwise)
// around the local origin and then translated to origin.
func (p *Path) Transform(origin math.Vec2, angle float64) *Path {
	sin, cos := gomath.Sincos(angle)
	pts := make([]ControlPoint, len(p.points))
	for i, cp := range p.points {
		pts[i] = ControlPoint{
			Position:   rotate(cp.Position, sin, cos).Add(origin),
			InTangent:  rotate(cp.InTangent, sin, cos),
			OutTangent: rotate(cp.OutTangent, sin, cos),
			Type:       cp.Type,
		}
	}
	return &Path{points: pts}
}

// CubicBezier evaluates p0·u³ + 3p1·u²t + 3p2·ut² + p3·t³ with u = 1-t.
func CubicBezier(p0, p1, p2, p3 math.Vec2, t float64) math.Vec2 {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return math.Vec2{
		X: p0.X*b0 + p1.X*b1 + p2.X*b2 + p3.X*b3,
		Y: p0.Y*b0 + p1.Y*b1 + p2.Y*b2 + p3.Y*b3,
	}
}

func rotate(v math.Vec2, sin, cos float64) math.Vec2 {
	return math.Vec2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// mirror points the out-tangent opposite to the in-tangent, keeping the
// out-tangent length when it has one.
func mirror(in, out math.Vec2) math.Vec2 {
	inLen := gomath.Hypot(in.X, in.Y)
	if inLen == 0 {
		return out
	}
	length := gomath.Hypot(out.X, out.Y)
	if length == 0 {
		length = inLen
	}
	scale := -length / inLen
	return math.Vec2{X: in.X * scale, Y: in.Y * scale}
}
