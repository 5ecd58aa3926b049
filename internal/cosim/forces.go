package cosim

import (
	"github.com/go-gl/mathgl/mgl64"
)

func isZeroVec(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// forcesNodeProxies собирает контактные силы узловых прокси: сила тела
// отчитывается как есть по индексу его вершины, нулевые силы
// отфильтровываются - размер сообщения пропорционален числу реальных
// контактов.
func (n *Node) forcesNodeProxies(which int) (indices []int32, forces []float64) {
	td := &n.tires[which]
	for iv := 0; iv < td.numVert; iv++ {
		f := n.engine.BodyContactForce(td.proxies[iv].body)
		if isZeroVec(f) {
			continue
		}
		indices = append(indices, int32(td.proxies[iv].index))
		forces = append(forces, f.X(), f.Y(), f.Z())
	}
	return indices, forces
}

// forcesFaceProxies разносит силу каждого граневого прокси по вершинам
// его треугольника. Сила приложена в центроиде, барицентрические
// координаты которого {1/3, 1/3, 1/3}, поэтому каждой вершине достается
// ровно треть; вершина, общая для нескольких граней, накапливает вклады
// всех. Порядок записей результата не определен, каждый индекс
// встречается не более одного раза.
func (n *Node) forcesFaceProxies(which int) (indices []int32, forces []float64) {
	td := &n.tires[which]

	acc := make(map[int]mgl64.Vec3)

	for it := 0; it < td.numTri; it++ {
		f := n.engine.BodyContactForce(td.proxies[it].body)
		if isZeroVec(f) {
			continue
		}

		third := f.Mul(1.0 / 3.0)
		tri := td.triangles[it]
		for _, v := range tri.v {
			acc[v] = acc[v].Add(third)
		}
	}

	for v, f := range acc {
		indices = append(indices, int32(v))
		forces = append(forces, f.X(), f.Y(), f.Z())
	}
	return indices, forces
}

// CalcBarycentricCoords возвращает барицентрические координаты
// (a1, a2, a3) точки p относительно треугольника {v1, v2, v3}.
// Треугольник должен быть невырожденным: знаменатель не проверяется.
//
// Текущий путь извлечения сил использует формулу только в центроиде
// (коэффициенты 1/3); общий вид сохранен как примитив для других точек
// приложения контакта.
func CalcBarycentricCoords(v1, v2, v3, p mgl64.Vec3) mgl64.Vec3 {
	v12 := v2.Sub(v1)
	v13 := v3.Sub(v1)
	v1p := p.Sub(v1)

	d1212 := v12.Dot(v12)
	d1213 := v12.Dot(v13)
	d1313 := v13.Dot(v13)
	d1p12 := v1p.Dot(v12)
	d1p13 := v1p.Dot(v13)

	denom := d1212*d1313 - d1213*d1213

	a2 := (d1313*d1p12 - d1213*d1p13) / denom
	a3 := (d1212*d1p13 - d1213*d1p12) / denom
	a1 := 1 - a2 - a3

	return mgl64.Vec3{a1, a2, a3}
}
