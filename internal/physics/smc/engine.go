// Package smc - реализация порта physics.Engine на основе податливой
// (penalty) контактной модели: пружина-демпфер по нормали, кулоновское
// ограничение по касательной, полунеявный Эйлер.
package smc

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-terrain/internal/physics"
)

// Параметры контакта по умолчанию. Используются, когда материал пары
// не задает собственную жесткость (метод NSC).
const (
	defaultKn = 2.0e5
	defaultGn = 40.0
	defaultKt = 2.0e5
)

type body struct {
	spec   physics.BodySpec
	st     physics.BodyState
	force  mgl64.Vec3
	active bool
}

// weld фиксирует тело follower в позе, снятой в момент создания связи.
type weld struct {
	follower physics.BodyHandle
	pos      mgl64.Vec3
	rot      mgl64.Quat
}

type Engine struct {
	bodies []*body
	welds  []weld

	gravity mgl64.Vec3
	time    float64

	numContacts int

	boundsMin mgl64.Vec3
	boundsMax mgl64.Vec3
	hasBounds bool
}

var _ physics.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		gravity: mgl64.Vec3{0, 0, -9.81},
	}
}

func (e *Engine) NewBody(spec physics.BodySpec) physics.BodyHandle {
	b := &body{
		spec:   spec,
		st:     physics.BodyState{Rot: mgl64.QuatIdent()},
		active: true,
	}
	e.bodies = append(e.bodies, b)
	return physics.BodyHandle(len(e.bodies) - 1)
}

func (e *Engine) SetBodyState(h physics.BodyHandle, st physics.BodyState) {
	e.bodies[h].st = st
}

func (e *Engine) State(h physics.BodyHandle) physics.BodyState {
	return e.bodies[h].st
}

func (e *Engine) Identifier(h physics.BodyHandle) int {
	return e.bodies[h].spec.Identifier
}

func (e *Engine) NumBodies() int {
	return len(e.bodies)
}

func (e *Engine) SetTriangleVertices(h physics.BodyHandle, a, b, c mgl64.Vec3) {
	sh := &e.bodies[h].spec.Shapes[0]
	sh.A, sh.B, sh.C = a, b, c
}

func (e *Engine) UpdateBoxShape(h physics.BodyHandle, i int, halfDims, offset mgl64.Vec3) {
	sh := &e.bodies[h].spec.Shapes[i]
	sh.HalfDims = halfDims
	sh.Offset = offset
}

func (e *Engine) AddWeld(_, b physics.BodyHandle) {
	st := e.bodies[b].st
	e.welds = append(e.welds, weld{follower: b, pos: st.Pos, rot: st.Rot})
}

func (e *Engine) Time() float64     { return e.time }
func (e *Engine) SetTime(t float64) { e.time = t }

func (e *Engine) SetGravity(g mgl64.Vec3) { e.gravity = g }

// SetBroadphaseBins - подсказка порта о числе ячеек. Этот адаптер
// строит пространственную сетку по диаметру наибольшей сферы (см.
// buildSphereGrid), поэтому подсказка не используется.
func (e *Engine) SetBroadphaseBins(x, y, z int) {}

func (e *Engine) SetActiveBounds(min, max mgl64.Vec3) {
	e.boundsMin, e.boundsMax = min, max
	e.hasBounds = true
}

func (e *Engine) BodyContactForce(h physics.BodyHandle) mgl64.Vec3 {
	return e.bodies[h].force
}

func (e *Engine) NumContacts() int { return e.numContacts }

// Step выполняет один шаг: пересчет контактных сил и полунеявный Эйлер.
func (e *Engine) Step(dt float64) {
	e.ComputeContactForces()

	for _, b := range e.bodies {
		if b.spec.Fixed || !b.active || b.spec.Mass <= 0 {
			continue
		}
		acc := b.force.Mul(1 / b.spec.Mass).Add(e.gravity)
		b.st.LinVel = b.st.LinVel.Add(acc.Mul(dt))
		b.st.Pos = b.st.Pos.Add(b.st.LinVel.Mul(dt))

		// Контактные моменты не накапливаются: вращение частиц
		// интегрируется только по текущей угловой скорости.
		b.st.Rot = integrateRotation(b.st.Rot, b.st.AngVel, dt)
	}

	// Приваренные тела возвращаются в позу, снятую при создании связи.
	for _, w := range e.welds {
		b := e.bodies[w.follower]
		b.st.Pos = w.pos
		b.st.Rot = w.rot
		b.st.LinVel = mgl64.Vec3{}
		b.st.AngVel = mgl64.Vec3{}
	}

	if e.hasBounds {
		for _, b := range e.bodies {
			if !b.active {
				continue
			}
			p := b.st.Pos
			if p.X() < e.boundsMin.X() || p.Y() < e.boundsMin.Y() || p.Z() < e.boundsMin.Z() ||
				p.X() > e.boundsMax.X() || p.Y() > e.boundsMax.Y() || p.Z() > e.boundsMax.Z() {
				b.active = false
			}
		}
	}

	e.time += dt
}

func integrateRotation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	wq := mgl64.Quat{W: 0, V: w}
	dq := wq.Mul(q)
	q.W += 0.5 * dq.W * dt
	q.V = q.V.Add(dq.V.Mul(0.5 * dt))
	if n := q.Norm(); n > 0 {
		q = q.Scale(1 / n)
	}
	return q
}

// ComputeContactForces пересчитывает накопленные контактные силы по
// текущему состоянию всех тел. Пары двух неподвижных тел пропускаются:
// как и в полноценных движках, контакт между ними не регистрируется.
func (e *Engine) ComputeContactForces() {
	for _, b := range e.bodies {
		b.force = mgl64.Vec3{}
	}
	e.numContacts = 0

	grid := e.buildSphereGrid()

	// Сфера-сфера через пространственную сетку.
	for key, cell := range grid.cells {
		for _, nb := range neighborKeys(key) {
			other, ok := grid.cells[nb]
			if !ok {
				continue
			}
			for _, i := range cell {
				for _, j := range other {
					if j <= i && nb == key {
						continue
					}
					if nb != key && j < i {
						continue
					}
					e.contactSphereSphere(i, j)
				}
			}
		}
	}

	// Сферы против боксов и треугольников. Боксов мало (контейнер и
	// платформа), поэтому без сетки.
	for bi, b := range e.bodies {
		if !b.active || !b.spec.Collide {
			continue
		}
		for si := range b.spec.Shapes {
			switch b.spec.Shapes[si].Type {
			case physics.ShapeBox:
				for sj, s := range e.bodies {
					if sj == bi || !s.active || !s.spec.Collide {
						continue
					}
					if len(s.spec.Shapes) == 1 && s.spec.Shapes[0].Type == physics.ShapeSphere {
						e.contactSphereBox(sj, bi, si)
					}
				}
			case physics.ShapeTriangle:
				for _, sj := range grid.query(e.triangleAABB(bi)) {
					if sj != bi {
						e.contactSphereTriangle(sj, bi)
					}
				}
			}
		}
	}
}

// skipPair возвращает true, если контакт между телами не проверяется:
// отключенные коллизии, общее семейство с запретом самоконтакта или
// пара неподвижных тел.
func (e *Engine) skipPair(i, j int) bool {
	a, b := e.bodies[i], e.bodies[j]
	if !a.spec.Collide || !b.spec.Collide || !a.active || !b.active {
		return true
	}
	if a.spec.Fixed && b.spec.Fixed {
		return true
	}
	if a.spec.Family != 0 && a.spec.Family == b.spec.Family &&
		a.spec.NoCollideFamily == a.spec.Family && b.spec.NoCollideFamily == b.spec.Family {
		return true
	}
	return false
}

// applyContact накапливает силу контакта на паре тел: нормальная
// пружина-демпфер и кулоновское трение по касательной. Нормаль n
// направлена от тела j к телу i, delta - глубина проникновения.
func (e *Engine) applyContact(i, j int, n mgl64.Vec3, delta float64) {
	if delta <= 0 {
		return
	}
	a, b := e.bodies[i], e.bodies[j]
	kn, gn, kt, mu := pairParams(a.spec.Material, b.spec.Material)

	vrel := a.st.LinVel.Sub(b.st.LinVel)
	vn := vrel.Dot(n)

	fn := kn*delta - gn*vn
	if fn < 0 {
		fn = 0
	}

	force := n.Mul(fn)

	vt := vrel.Sub(n.Mul(vn))
	if vtLen := vt.Len(); vtLen > 1e-12 {
		ft := math.Min(kt*vtLen, mu*fn)
		force = force.Sub(vt.Mul(ft / vtLen))
	}

	a.force = a.force.Add(force)
	b.force = b.force.Sub(force)
	e.numContacts++
}

// pairParams комбинирует материалы пары. Жесткости усредняются, трение
// берется минимальным; материалы без собственной жесткости (NSC)
// получают значения по умолчанию.
func pairParams(a, b physics.Material) (kn, gn, kt, mu float64) {
	kn = combine(a.Kn, b.Kn, defaultKn)
	gn = combine(a.Gn, b.Gn, defaultGn)
	kt = combine(a.Kt, b.Kt, defaultKt)
	mu = math.Min(a.Friction, b.Friction)
	return
}

func combine(a, b, def float64) float64 {
	switch {
	case a > 0 && b > 0:
		return 0.5 * (a + b)
	case a > 0:
		return a
	case b > 0:
		return b
	default:
		return def
	}
}
