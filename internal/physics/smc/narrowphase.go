package smc

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-terrain/internal/physics"
)

type aabb struct {
	min, max mgl64.Vec3
}

type sphereGrid struct {
	cell      float64
	maxRadius float64
	cells     map[[3]int][]int
	e         *Engine
}

// buildSphereGrid раскладывает все сферические тела по ячейкам
// пространственной сетки. Размер ячейки - диаметр наибольшей сферы.
func (e *Engine) buildSphereGrid() *sphereGrid {
	g := &sphereGrid{cells: make(map[[3]int][]int), e: e}

	for _, b := range e.bodies {
		if !b.active || !b.spec.Collide {
			continue
		}
		if len(b.spec.Shapes) != 1 || b.spec.Shapes[0].Type != physics.ShapeSphere {
			continue
		}
		if r := b.spec.Shapes[0].Radius; r > g.maxRadius {
			g.maxRadius = r
		}
	}

	g.cell = 2 * g.maxRadius
	if g.cell <= 0 {
		g.cell = 1
	}

	for i, b := range e.bodies {
		if !b.active || !b.spec.Collide {
			continue
		}
		if len(b.spec.Shapes) != 1 || b.spec.Shapes[0].Type != physics.ShapeSphere {
			continue
		}
		key := g.keyFor(b.st.Pos)
		g.cells[key] = append(g.cells[key], i)
	}

	return g
}

func (g *sphereGrid) keyFor(p mgl64.Vec3) [3]int {
	return [3]int{
		int(math.Floor(p.X() / g.cell)),
		int(math.Floor(p.Y() / g.cell)),
		int(math.Floor(p.Z() / g.cell)),
	}
}

func neighborKeys(k [3]int) [][3]int {
	keys := make([][3]int, 0, 27)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				keys = append(keys, [3]int{k[0] + dx, k[1] + dy, k[2] + dz})
			}
		}
	}
	return keys
}

// query возвращает индексы сфер, чьи ячейки пересекают bb (расширенный
// на радиус наибольшей сферы).
func (g *sphereGrid) query(bb aabb) []int {
	lo := g.keyFor(bb.min.Sub(mgl64.Vec3{g.maxRadius, g.maxRadius, g.maxRadius}))
	hi := g.keyFor(bb.max.Add(mgl64.Vec3{g.maxRadius, g.maxRadius, g.maxRadius}))

	var out []int
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				out = append(out, g.cells[[3]int{x, y, z}]...)
			}
		}
	}
	return out
}

func (e *Engine) triangleAABB(bi int) aabb {
	b := e.bodies[bi]
	sh := b.spec.Shapes[0]
	va := b.st.Pos.Add(b.st.Rot.Rotate(sh.A))
	vb := b.st.Pos.Add(b.st.Rot.Rotate(sh.B))
	vc := b.st.Pos.Add(b.st.Rot.Rotate(sh.C))
	return aabb{min: vecMin(vecMin(va, vb), vc), max: vecMax(vecMax(va, vb), vc)}
}

func (e *Engine) contactSphereSphere(i, j int) {
	if e.skipPair(i, j) {
		return
	}
	a, b := e.bodies[i], e.bodies[j]
	ra := a.spec.Shapes[0].Radius
	rb := b.spec.Shapes[0].Radius

	d := a.st.Pos.Sub(b.st.Pos)
	dist := d.Len()
	if dist < 1e-12 {
		return
	}
	delta := ra + rb - dist
	if delta <= 0 {
		return
	}
	e.applyContact(i, j, d.Mul(1/dist), delta)
}

// contactSphereBox: сфера si против боксовой формы с индексом shapeIdx
// тела bi. Центр сферы переводится в локальную систему бокса.
func (e *Engine) contactSphereBox(si, bi, shapeIdx int) {
	if e.skipPair(si, bi) {
		return
	}
	s, b := e.bodies[si], e.bodies[bi]
	r := s.spec.Shapes[0].Radius
	sh := b.spec.Shapes[shapeIdx]

	local := b.st.Rot.Conjugate().Rotate(s.st.Pos.Sub(b.st.Pos)).Sub(sh.Offset)

	closest := mgl64.Vec3{
		clamp(local.X(), -sh.HalfDims.X(), sh.HalfDims.X()),
		clamp(local.Y(), -sh.HalfDims.Y(), sh.HalfDims.Y()),
		clamp(local.Z(), -sh.HalfDims.Z(), sh.HalfDims.Z()),
	}

	diff := local.Sub(closest)
	dist := diff.Len()

	var nLocal mgl64.Vec3
	var delta float64

	if dist > 1e-12 {
		// Центр снаружи бокса.
		delta = r - dist
		nLocal = diff.Mul(1 / dist)
	} else {
		// Центр внутри: выталкивание по ближайшей грани.
		best := math.MaxFloat64
		for axis := 0; axis < 3; axis++ {
			depth := sh.HalfDims[axis] - math.Abs(local[axis])
			if depth < best {
				best = depth
				nLocal = mgl64.Vec3{}
				if local[axis] >= 0 {
					nLocal[axis] = 1
				} else {
					nLocal[axis] = -1
				}
			}
		}
		delta = r + best
	}

	if delta <= 0 {
		return
	}
	e.applyContact(si, bi, b.st.Rot.Rotate(nLocal), delta)
}

func (e *Engine) contactSphereTriangle(si, ti int) {
	if e.skipPair(si, ti) {
		return
	}
	s, t := e.bodies[si], e.bodies[ti]
	r := s.spec.Shapes[0].Radius
	sh := t.spec.Shapes[0]

	va := t.st.Pos.Add(t.st.Rot.Rotate(sh.A))
	vb := t.st.Pos.Add(t.st.Rot.Rotate(sh.B))
	vc := t.st.Pos.Add(t.st.Rot.Rotate(sh.C))

	cp := closestPointTriangle(s.st.Pos, va, vb, vc)
	d := s.st.Pos.Sub(cp)
	dist := d.Len()
	delta := r - dist
	if delta <= 0 {
		return
	}

	var n mgl64.Vec3
	if dist > 1e-12 {
		n = d.Mul(1 / dist)
	} else {
		n = vb.Sub(va).Cross(vc.Sub(va))
		if l := n.Len(); l > 1e-12 {
			n = n.Mul(1 / l)
		} else {
			return
		}
	}
	e.applyContact(si, ti, n, delta)
}

// closestPointTriangle - ближайшая к p точка треугольника abc
// (разбор по регионам Вороного).
func closestPointTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()), math.Min(a.Z(), b.Z())}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()), math.Max(a.Z(), b.Z())}
}
