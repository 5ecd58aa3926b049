package cosim

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-terrain/internal/physics"
)

// createNodeProxies создает по сферическому телу на каждую вершину
// сетки шины. Идентификатор тела равен глобальному индексу вершины.
// Все прокси шины попадают в одно семейство коллизий с отключенным
// самоконтактом.
func (n *Node) createNodeProxies(which int) {
	td := &n.tires[which]
	m := n.cfg.MassPN
	r := n.cfg.RadiusPN
	inertia := 0.4 * m * r * r

	for iv := 0; iv < td.numVert; iv++ {
		h := n.engine.NewBody(physics.BodySpec{
			Identifier:      td.startVert + iv,
			Mass:            m,
			Inertia:         mgl64.Vec3{inertia, inertia, inertia},
			Fixed:           n.cfg.FixedProxies,
			Collide:         true,
			Material:        td.materialTire,
			Shapes:          []physics.Shape{{Type: physics.ShapeSphere, Radius: r}},
			Family:          proxyFamily,
			NoCollideFamily: proxyFamily,
		})
		td.proxies = append(td.proxies, proxyBody{body: h, index: iv})
	}
}

// createFaceProxies создает по треугольному телу на каждую грань сетки.
// Вершины формы - заглушки: настоящие координаты приходят на каждом
// шаге синхронизации.
func (n *Node) createFaceProxies(which int) {
	td := &n.tires[which]
	m := n.cfg.MassPF
	// Грубое приближение инерции тонкого треугольника.
	inertia := 1e-3 * m * 0.1

	const l = 0.1
	for it := 0; it < td.numTri; it++ {
		h := n.engine.NewBody(physics.BodySpec{
			Identifier: td.startTri + it,
			Mass:       m,
			Inertia:    mgl64.Vec3{inertia, inertia, inertia},
			Fixed:      n.cfg.FixedProxies,
			Collide:    true,
			Material:   td.materialTire,
			Shapes: []physics.Shape{{
				Type: physics.ShapeTriangle,
				A:    mgl64.Vec3{l, 0, 0},
				B:    mgl64.Vec3{0, l, 0},
				C:    mgl64.Vec3{0, 0, l},
			}},
			Family:          proxyFamily,
			NoCollideFamily: proxyFamily,
		})
		td.proxies = append(td.proxies, proxyBody{body: h, index: it})
	}
}

// updateNodeProxies переносит принятое состояние вершин на прокси:
// позиция и скорость напрямую, ориентация - единичная, угловая
// скорость - нулевая (узловые прокси не несут осмысленного вращения).
func (n *Node) updateNodeProxies(which int) {
	td := &n.tires[which]
	for iv := 0; iv < td.numVert; iv++ {
		n.engine.SetBodyState(td.proxies[iv].body, physics.BodyState{
			Pos:    td.vertexStates[iv].pos,
			Rot:    mgl64.QuatIdent(),
			LinVel: td.vertexStates[iv].vel,
		})
	}
}

// updateFaceProxies пересобирает граневые прокси по текущим вершинам:
// позиция - центроид грани, скорость - среднее скоростей вершин
// (точно для центроидальной системы), контактная форма переписывается
// в локальных координатах.
func (n *Node) updateFaceProxies(which int) {
	td := &n.tires[which]
	for it := 0; it < td.numTri; it++ {
		tri := td.triangles[it]

		pA := td.vertexStates[tri.v[0]].pos
		pB := td.vertexStates[tri.v[1]].pos
		pC := td.vertexStates[tri.v[2]].pos

		pos := pA.Add(pB).Add(pC).Mul(1.0 / 3.0)

		vA := td.vertexStates[tri.v[0]].vel
		vB := td.vertexStates[tri.v[1]].vel
		vC := td.vertexStates[tri.v[2]].vel

		vel := vA.Add(vB).Add(vC).Mul(1.0 / 3.0)

		// TODO: угловая скорость. Точное значение - решение
		// переопределенной системы 9x3 по МНК; пока принята нулевой.
		n.engine.SetBodyState(td.proxies[it].body, physics.BodyState{
			Pos:    pos,
			Rot:    mgl64.QuatIdent(),
			LinVel: vel,
		})

		n.engine.SetTriangleVertices(td.proxies[it].body,
			pA.Sub(pos), pB.Sub(pos), pC.Sub(pos))
	}
}
