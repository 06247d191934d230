package path

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yohamta/donburi/features/math"
)

func v(x, y float64) math.Vec2 { return math.Vec2{X: x, Y: y} }

func assertVec(t *testing.T, want, got math.Vec2) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
}

func samplePath() *Path {
	return New([]ControlPoint{
		{Position: v(0, 0), OutTangent: v(1, 2), Type: BezierCorner},
		{Position: v(5, 5), InTangent: v(-1, 0), OutTangent: v(3, 3), Type: Smooth},
		{Position: v(10, 0), InTangent: v(0, 2), Type: BezierCorner},
	})
}

func TestEvaluate_Endpoints(t *testing.T) {
	p := samplePath()

	start := p.Evaluate(0)
	end := p.Evaluate(1)

	// exact equality, not approximate
	assert.Equal(t, v(0, 0), start)
	assert.Equal(t, v(10, 0), end)
}

func TestEvaluate_ClampsAndNaN(t *testing.T) {
	p := samplePath()

	assert.Equal(t, v(0, 0), p.Evaluate(-3))
	assert.Equal(t, v(10, 0), p.Evaluate(7))
	assert.Equal(t, v(0, 0), p.Evaluate(gomath.NaN()))
}

func TestEvaluate_SegmentBoundary(t *testing.T) {
	p := samplePath()
	// t=0.5 with two segments lands on the start of segment 1 (the middle point)
	assertVec(t, v(5, 5), p.Evaluate(0.5))
}

func TestEvaluate_NoNaNAcrossRange(t *testing.T) {
	p := samplePath()
	for i := 0; i <= 100; i++ {
		pos := p.Evaluate(float64(i) / 100)
		assert.False(t, gomath.IsNaN(pos.X) || gomath.IsNaN(pos.Y), "t=%d", i)
	}
}

func TestNew_TangentSemantics(t *testing.T) {
	p := New([]ControlPoint{
		{Position: v(0, 0), InTangent: v(1, 1), OutTangent: v(2, 2), Type: Corner},
		{Position: v(1, 0), InTangent: v(-2, 0), OutTangent: v(0, 5), Type: Smooth},
		{Position: v(2, 0), InTangent: v(-1, 0), Type: Smooth},
		{Position: v(3, 0), InTangent: v(0, 1), OutTangent: v(1, 1), Type: BezierCorner},
	})
	pts := p.points

	assert.Equal(t, math.Vec2{}, pts[0].InTangent)
	assert.Equal(t, math.Vec2{}, pts[0].OutTangent)

	// out keeps its length (5) but points opposite the in-tangent
	assertVec(t, v(5, 0), pts[1].OutTangent)

	// zero out-tangent mirrors the in-tangent length too
	assertVec(t, v(1, 0), pts[2].OutTangent)

	assert.Equal(t, v(0, 1), pts[3].InTangent)
	assert.Equal(t, v(1, 1), pts[3].OutTangent)
}

func TestCubicBezier_StraightLine(t *testing.T) {
	got := CubicBezier(v(0, 0), v(0, 0), v(4, 0), v(4, 0), 0.5)
	assertVec(t, v(2, 0), got)
}

func TestSingleSegmentMidpoint(t *testing.T) {
	p := New([]ControlPoint{
		{Position: v(0, 0), Type: Corner},
		{Position: v(4, 0), Type: Corner},
	})
	assertVec(t, v(2, 0), p.Evaluate(0.5))
	assert.Equal(t, 1, p.SegmentCount())
}

func TestTransform_RotatesThenTranslates(t *testing.T) {
	p := New([]ControlPoint{
		{Position: v(0, 0), Type: Corner},
		{Position: v(10, 0), Type: Corner},
	})
	world := p.Transform(v(1, 1), gomath.Pi/2)

	assertVec(t, v(1, 1), world.Evaluate(0))
	assertVec(t, v(1, 11), world.Evaluate(1))
}

func TestEmptyPath(t *testing.T) {
	p := New(nil)
	assert.Equal(t, math.Vec2{}, p.Evaluate(0.5))
	assert.Equal(t, 0, p.SegmentCount())
}
