package smc

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-terrain/internal/physics"
)

var testMaterial = physics.Material{
	Method:   physics.SMC,
	Friction: 0.5,
	Kn:       2e5,
	Gn:       40,
	Kt:       2e5,
}

func newSphere(e *Engine, r, mass float64, pos mgl64.Vec3) physics.BodyHandle {
	h := e.NewBody(physics.BodySpec{
		Identifier: 1,
		Mass:       mass,
		Collide:    true,
		Material:   testMaterial,
		Shapes:     []physics.Shape{{Type: physics.ShapeSphere, Radius: r}},
	})
	e.SetBodyState(h, physics.BodyState{Pos: pos, Rot: mgl64.QuatIdent()})
	return h
}

func TestSphereSettlesOnFloor(t *testing.T) {
	e := New()

	// Неподвижный пол: верхняя грань бокса на z = 0.
	e.NewBody(physics.BodySpec{
		Identifier: -1,
		Fixed:      true,
		Collide:    true,
		Material:   testMaterial,
		Shapes: []physics.Shape{{
			Type:     physics.ShapeBox,
			HalfDims: mgl64.Vec3{0.5, 0.5, 0.1},
			Offset:   mgl64.Vec3{0, 0, -0.1},
		}},
	})
	s := newSphere(e, 0.05, 0.1, mgl64.Vec3{0, 0, 0.06})

	for i := 0; i < 3000; i++ {
		e.Step(1e-4)
	}

	st := e.State(s)
	// Равновесие: центр на высоте радиуса минус статическое
	// проникновение mg/kn.
	assert.InDelta(t, 0.05, st.Pos.Z(), 5e-3)
	assert.Less(t, math.Abs(st.LinVel.Z()), 0.05)
	assert.InDelta(t, 0.3, e.Time(), 1e-9)
}

func TestContactForcesSymmetric(t *testing.T) {
	e := New()
	a := newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 0})
	b := newSphere(e, 0.1, 1, mgl64.Vec3{0.15, 0, 0})

	e.ComputeContactForces()
	require.Equal(t, 1, e.NumContacts())

	fa := e.BodyContactForce(a)
	fb := e.BodyContactForce(b)
	require.NotEqual(t, mgl64.Vec3{}, fa)

	// Третий закон Ньютона: силы равны и противоположны, тело слева
	// выталкивается влево.
	assert.Equal(t, fa, fb.Mul(-1))
	assert.Less(t, fa.X(), 0.0)
	assert.Zero(t, fa.Y())
	assert.Zero(t, fa.Z())
}

func TestBroadphaseBinsHintIgnored(t *testing.T) {
	e := New()
	a := newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 0})
	b := newSphere(e, 0.1, 1, mgl64.Vec3{0.15, 0, 0})

	// Сетка широкой фазы строится по размеру сфер; подсказка о числе
	// ячеек, в том числе вырожденная, на результат не влияет.
	for _, bins := range [][3]int{{0, 0, 0}, {1, 1, 1}, {500, 500, 1}} {
		e.SetBroadphaseBins(bins[0], bins[1], bins[2])
		e.ComputeContactForces()
		assert.Equal(t, 1, e.NumContacts())
		assert.NotEqual(t, e.BodyContactForce(a), e.BodyContactForce(b))
	}
}

func TestFixedPairNoContact(t *testing.T) {
	e := New()
	a := e.NewBody(physics.BodySpec{
		Fixed:    true,
		Collide:  true,
		Material: testMaterial,
		Shapes:   []physics.Shape{{Type: physics.ShapeSphere, Radius: 0.1}},
	})
	b := e.NewBody(physics.BodySpec{
		Fixed:    true,
		Collide:  true,
		Material: testMaterial,
		Shapes:   []physics.Shape{{Type: physics.ShapeSphere, Radius: 0.1}},
	})
	e.SetBodyState(b, physics.BodyState{Pos: mgl64.Vec3{0.1, 0, 0}, Rot: mgl64.QuatIdent()})

	// Пара неподвижных тел не регистрирует контакт, хотя пересечение
	// глубокое.
	e.ComputeContactForces()
	assert.Zero(t, e.NumContacts())
	assert.Equal(t, mgl64.Vec3{}, e.BodyContactForce(a))
	assert.Equal(t, mgl64.Vec3{}, e.BodyContactForce(b))
}

func TestFamilySelfCollisionMasked(t *testing.T) {
	e := New()
	spec := physics.BodySpec{
		Mass:            1,
		Collide:         true,
		Material:        testMaterial,
		Family:          1,
		NoCollideFamily: 1,
		Shapes:          []physics.Shape{{Type: physics.ShapeSphere, Radius: 0.1}},
	}
	e.NewBody(spec)
	b := e.NewBody(spec)
	e.SetBodyState(b, physics.BodyState{Pos: mgl64.Vec3{0.15, 0, 0}, Rot: mgl64.QuatIdent()})

	e.ComputeContactForces()
	assert.Zero(t, e.NumContacts())

	// Тело вне семейства контактирует с обоими.
	c := newSphere(e, 0.1, 1, mgl64.Vec3{0.075, 0.15, 0})
	e.ComputeContactForces()
	assert.Equal(t, 2, e.NumContacts())
	assert.NotEqual(t, mgl64.Vec3{}, e.BodyContactForce(c))
}

func TestSphereTriangleContact(t *testing.T) {
	e := New()
	tri := e.NewBody(physics.BodySpec{
		Mass:     1,
		Collide:  true,
		Material: testMaterial,
		Shapes: []physics.Shape{{
			Type: physics.ShapeTriangle,
			A:    mgl64.Vec3{-2, -2, 0},
			B:    mgl64.Vec3{2, -2, 0},
			C:    mgl64.Vec3{0, 3, 0},
		}},
	})
	e.SetBodyState(tri, physics.BodyState{Rot: mgl64.QuatIdent()})
	s := newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 0.05})

	e.ComputeContactForces()
	require.Equal(t, 1, e.NumContacts())

	fs := e.BodyContactForce(s)
	ft := e.BodyContactForce(tri)
	assert.Greater(t, fs.Z(), 0.0)
	assert.Equal(t, fs, ft.Mul(-1))
}

func TestSetTriangleVerticesMovesContact(t *testing.T) {
	e := New()
	tri := e.NewBody(physics.BodySpec{
		Mass:     1,
		Collide:  true,
		Material: testMaterial,
		Shapes: []physics.Shape{{
			Type: physics.ShapeTriangle,
			A:    mgl64.Vec3{10, 10, 0},
			B:    mgl64.Vec3{11, 10, 0},
			C:    mgl64.Vec3{10, 11, 0},
		}},
	})
	e.SetBodyState(tri, physics.BodyState{Rot: mgl64.QuatIdent()})
	newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 0.05})

	e.ComputeContactForces()
	assert.Zero(t, e.NumContacts())

	// Переписанная грань накрывает сферу.
	e.SetTriangleVertices(tri,
		mgl64.Vec3{-2, -2, 0}, mgl64.Vec3{2, -2, 0}, mgl64.Vec3{0, 3, 0})
	e.ComputeContactForces()
	assert.Equal(t, 1, e.NumContacts())
}

func TestActiveBoundsDeactivate(t *testing.T) {
	e := New()
	e.SetGravity(mgl64.Vec3{})
	e.SetActiveBounds(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})

	s := newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 0})
	e.SetBodyState(s, physics.BodyState{
		Pos:    mgl64.Vec3{0, 0, 0},
		Rot:    mgl64.QuatIdent(),
		LinVel: mgl64.Vec3{100, 0, 0},
	})

	e.Step(0.05) // x = 5, за пределами габарита
	out := e.State(s).Pos

	// Деактивированное тело больше не интегрируется.
	e.Step(0.05)
	assert.Equal(t, out, e.State(s).Pos)
}

func TestWeldHoldsPose(t *testing.T) {
	e := New()
	ground := e.NewBody(physics.BodySpec{Fixed: true})
	b := newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 1})
	e.AddWeld(ground, b)

	for i := 0; i < 100; i++ {
		e.Step(1e-3)
	}

	st := e.State(b)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, st.Pos)
	assert.Equal(t, mgl64.Vec3{}, st.LinVel)
}

func TestUpdateBoxShapeRaisesFloor(t *testing.T) {
	e := New()
	box := e.NewBody(physics.BodySpec{
		Fixed:    true,
		Collide:  true,
		Material: testMaterial,
		Shapes: []physics.Shape{{
			Type:     physics.ShapeBox,
			HalfDims: mgl64.Vec3{1, 1, 0.1},
			Offset:   mgl64.Vec3{0, 0, -0.1},
		}},
	})
	s := newSphere(e, 0.1, 1, mgl64.Vec3{0, 0, 0.5})

	e.ComputeContactForces()
	assert.Zero(t, e.NumContacts())

	// Бокс поднят: верхняя грань на z = 0.45, сфера в контакте.
	e.UpdateBoxShape(box, 0, mgl64.Vec3{1, 1, 0.1}, mgl64.Vec3{0, 0, 0.35})
	e.ComputeContactForces()
	require.Equal(t, 1, e.NumContacts())
	assert.Greater(t, e.BodyContactForce(s).Z(), 0.0)
}
