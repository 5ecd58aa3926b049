package cosim

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-terrain/internal/physics"
	"x-terrain/internal/transport"
)

// Initialize выполняет одноразовое рукопожатие: отправляет ранг
// транспортного средства высоту террейна, подгоняет платформу под эту
// высоту и для каждой шины принимает топологию сетки и материал,
// создавая прокси-тела. Состояние прокси задается позже, в Synchronize.
func (n *Node) Initialize() error {
	if err := n.Construct(); err != nil {
		return err
	}

	n.engine.SetTime(0)

	// Данные для начальной установки машины.
	initDim := []float64{n.initHeight, n.cfg.HdimX + 2*n.cfg.HlenX}
	if err := n.conn.SendDoubles(transport.VehicleRank, 0, initDim); err != nil {
		return fmt.Errorf("рукопожатие с машиной: %w", err)
	}
	n.log.Printf("отправлена высота террейна = %g", initDim[0])
	n.log.Printf("отправлена полудлина контейнера = %g", initDim[1])

	n.adjustPlatform()

	// Прием данных шин строго в порядке рангов: глобальные смещения
	// вершин и треугольников продолжаются от предыдущей шины.
	startVert := 0
	startTri := 0

	for which := 0; which < n.cfg.Tires; which++ {
		peer := transport.TireRank(which)
		td := &n.tires[which]

		props, err := n.conn.RecvUints(peer, 0, 2)
		if err != nil {
			return fmt.Errorf("топология шины %d: %w", which, err)
		}
		td.numVert = int(props[0])
		td.numTri = int(props[1])
		td.vertexStates = make([]vertexState, td.numVert)
		td.triangles = make([]triangle, td.numTri)
		td.startVert = startVert
		td.startTri = startTri
		startVert += td.numVert
		startTri += td.numTri

		n.log.Printf("получено: вершин = %d треугольников = %d", td.numVert, td.numTri)

		matProps, err := n.conn.RecvFloats(peer, 0, 8)
		if err != nil {
			return fmt.Errorf("материал шины %d: %w", which, err)
		}
		td.materialTire = physics.MaterialFromProps(n.cfg.Method, [8]float32(matProps))
		n.log.Printf("получен материал шины: трение = %g", td.materialTire.Friction)

		switch n.cfg.Type {
		case Rigid:
			n.createNodeProxies(which)
		case Granular:
			n.createFaceProxies(which)
		}
	}

	return nil
}

// adjustPlatform переписывает бокс платформы так, чтобы его верхняя
// грань оказалась точно на высоте initHeight.
func (n *Node) adjustPlatform() {
	cfg := &n.cfg
	hlenX := cfg.HlenX + cfg.Hthick

	// Нижняя грань бокса, заложенная при построении.
	zmin := (cfg.HdimZ - cfg.Hthick) - (cfg.HdimZ + cfg.Hthick)
	height := n.initHeight - zmin

	n.engine.UpdateBoxShape(n.platform, 0,
		mgl64.Vec3{hlenX, cfg.HdimY, height / 2},
		mgl64.Vec3{-hlenX - cfg.HdimX, 0, zmin + height/2},
	)
}

// Synchronize выполняет обмен одного шага: прием состояния сеток всех
// шин, обновление прокси, один общий пересчет контактных сил и отправка
// вершинных сил каждой шине. Порядок строгий: сначала принимаются и
// применяются все шины, и только потом считаются силы - значения
// отражают одновременную расстановку всех шин на этом шаге.
func (n *Node) Synchronize(stepNumber int, _ float64) error {
	for which := 0; which < n.cfg.Tires; which++ {
		peer := transport.TireRank(which)
		td := &n.tires[which]

		vertData, err := n.conn.RecvDoubles(peer, stepNumber, 2*3*td.numVert)
		if err != nil {
			return fmt.Errorf("вершины шины %d: %w", which, err)
		}
		triData, err := n.conn.RecvInts(peer, stepNumber, 3*td.numTri)
		if err != nil {
			return fmt.Errorf("треугольники шины %d: %w", which, err)
		}

		// Раскладка: сначала все позиции, затем все скорости.
		for iv := 0; iv < td.numVert; iv++ {
			o := 3 * iv
			td.vertexStates[iv].pos = mgl64.Vec3{vertData[o], vertData[o+1], vertData[o+2]}
			o += 3 * td.numVert
			td.vertexStates[iv].vel = mgl64.Vec3{vertData[o], vertData[o+1], vertData[o+2]}
		}

		// Топология приходит каждый шаг, хотя не меняется;
		// перезаписываем для совместимости протокола.
		for it := 0; it < td.numTri; it++ {
			td.triangles[it] = triangle{v: [3]int{
				int(triData[3*it]), int(triData[3*it+1]), int(triData[3*it+2]),
			}}
		}

		switch n.cfg.Type {
		case Rigid:
			n.updateNodeProxies(which)
		case Granular:
			n.updateFaceProxies(which)
		}
	}

	// Один общий пересчет на шаг, для всех шин сразу.
	n.engine.ComputeContactForces()

	msg := fmt.Sprintf("шаг: %d  контактов: %d  [  ", stepNumber, n.engine.NumContacts())

	for which := 0; which < n.cfg.Tires; which++ {
		peer := transport.TireRank(which)

		// На нулевом шаге силы не собираются: контакт против
		// полностью инициализированных прокси еще не посчитан.
		var indices []int32
		var forces []float64
		if stepNumber > 0 {
			switch n.cfg.Type {
			case Rigid:
				indices, forces = n.forcesNodeProxies(which)
			case Granular:
				indices, forces = n.forcesFaceProxies(which)
			}
		}

		if err := n.conn.SendInts(peer, stepNumber, indices); err != nil {
			return fmt.Errorf("индексы для шины %d: %w", which, err)
		}
		if err := n.conn.SendDoubles(peer, stepNumber, forces); err != nil {
			return fmt.Errorf("силы для шины %d: %w", which, err)
		}

		msg += fmt.Sprintf("%d  ", len(indices))
	}

	n.log.Print(msg + "]")
	return nil
}

// Advance продвигает локальную физику на stepSize, дробя интервал на
// подшаги не крупнее внутреннего шага узла: внешняя каденция может быть
// грубее, чем допускает решатель.
func (n *Node) Advance(stepSize float64) {
	start := time.Now()
	t := 0.0
	for t < stepSize {
		h := math.Min(n.cfg.StepSize, stepSize-t)
		n.engine.Step(h)
		t += h
	}
	n.cumSimTime += time.Since(start)
}
