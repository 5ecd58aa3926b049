// Package cosim - узел террейна распределенной косимуляции.
//
// Узел владеет моделью террейна (жесткой или гранулярной), держит
// прокси-тела для сеток удаленных шин и раз в шаг обменивается
// состоянием с рангами шин: принимает вершины и треугольники, двигает
// прокси, шагает физику и возвращает контактные силы, разнесенные по
// вершинам сетки.
//
// Глобальная система координат: Z вверх, X вперед по ходу машины.
package cosim

import (
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-terrain/internal/granular"
	"x-terrain/internal/output"
	"x-terrain/internal/physics"
	"x-terrain/internal/transport"
)

// TerrainType выбирает представление террейна и вид прокси-тел.
type TerrainType int

const (
	// Rigid - жесткое основание; прокси - сферы в вершинах сетки.
	Rigid TerrainType = iota
	// Granular - гранулярный материал; прокси - треугольники граней.
	Granular
)

func (t TerrainType) String() string {
	if t == Rigid {
		return "RIGID"
	}
	return "GRANULAR"
}

const (
	// Имя файла контрольной точки в выходном каталоге.
	CheckpointFilename = "checkpoint.dat"

	// База идентификаторов гранулярных частиц. Тела террейна имеют
	// отрицательные идентификаторы, прокси - неотрицательные меньше базы.
	idGranularBase = 100000

	// Семейство коллизий прокси-тел; самоконтакт внутри семейства
	// отключен, чтобы контакт шины с собой не считался контактом
	// с террейном.
	proxyFamily = 1

	settlingOutputFPS = 100
)

// Config - полные параметры узла. Чистые данные: узел собирается одним
// вызовом NewNode, после которого конфигурация не меняется.
type Config struct {
	Type   TerrainType
	Method physics.ContactMethod
	Tires  int

	// Внутренний шаг интегрирования.
	StepSize float64

	// Каталоги вывода: OutDir - общий (контрольная точка),
	// NodeOutDir - каталог узла (настройки, снимки). Пустая строка
	// отключает соответствующий вывод.
	OutDir     string
	NodeOutDir string

	UseCheckpoint  bool
	SettlingOutput bool

	// Полуразмеры контейнера и полутолщина стенок.
	HdimX, HdimY, HdimZ float64
	Hthick              float64
	// Полудлина стартовой платформы.
	HlenX float64

	// Гранулярный материал.
	RadiusG      float64
	RhoG         float64
	NumLayers    int
	TimeSettling float64
	Seed         int64

	// Прокси-тела: MassPN/RadiusPN - узловые, MassPF - граневые.
	FixedProxies bool
	MassPN       float64
	RadiusPN     float64
	MassPF       float64

	MaterialTerrain physics.Material
}

// DefaultConfig повторяет параметры модели по умолчанию.
func DefaultConfig() Config {
	return Config{
		Type:     Granular,
		Method:   physics.SMC,
		Tires:    1,
		StepSize: 1e-4,

		HdimX:  1.0,
		HdimY:  0.25,
		HdimZ:  0.5,
		Hthick: 0.1,
		HlenX:  0,

		RadiusG:      0.01,
		RhoG:         2000,
		NumLayers:    5,
		TimeSettling: 0.4,

		MassPN:   1,
		RadiusPN: 0.01,
		MassPF:   1,

		MaterialTerrain: physics.Material{
			Method:      physics.SMC,
			Friction:    0.9,
			Restitution: 0.01,
			Kn:          2e5,
			Gn:          40,
			Kt:          2e5,
		},
	}
}

type vertexState struct {
	pos mgl64.Vec3
	vel mgl64.Vec3
}

type triangle struct {
	v [3]int
}

// proxyBody связывает тело движка с индексом вершины (узловые прокси)
// или грани (граневые прокси) исходной сетки.
type proxyBody struct {
	body  physics.BodyHandle
	index int
}

// tireData - состояние одной удаленной шины.
type tireData struct {
	numVert int
	numTri  int

	// Глобальные смещения в сквозной нумерации по всем шинам.
	startVert int
	startTri  int

	vertexStates []vertexState
	triangles    []triangle

	materialTire physics.Material
	proxies      []proxyBody
}

// Node - узел террейна.
type Node struct {
	cfg    Config
	engine physics.Engine
	conn   transport.Conn
	log    *log.Logger

	constructed bool
	platform    physics.BodyHandle

	particlesStart int
	numParticles   int

	initHeight float64

	tires []tireData

	cumSimTime time.Duration
}

// NewNode проверяет конфигурацию и создает узел. Нарушение предусловий
// конфигурации - ошибка программирования, поэтому паника.
func NewNode(cfg Config, engine physics.Engine, conn transport.Conn, logger *log.Logger) *Node {
	if cfg.StepSize <= 0 {
		panic("cosim: шаг интегрирования должен быть положительным")
	}
	if cfg.Tires < 0 {
		panic("cosim: отрицательное число шин")
	}
	if cfg.Type == Granular && (cfg.RadiusG <= 0 || cfg.NumLayers <= 0) {
		panic("cosim: гранулярный террейн требует радиус частиц и число слоев")
	}
	if cfg.MaterialTerrain.Method != cfg.Method {
		panic("cosim: метод материала террейна не совпадает с методом узла")
	}

	logger.Printf("type = %v method = %v use_checkpoint = %v",
		cfg.Type, cfg.Method, cfg.UseCheckpoint)

	return &Node{
		cfg:    cfg,
		engine: engine,
		conn:   conn,
		log:    logger,
		tires:  make([]tireData, cfg.Tires),
	}
}

// InitHeight возвращает высоту поверхности, вычисленную после осадки
// или восстановления контрольной точки.
func (n *Node) InitHeight() float64 { return n.initHeight }

// NumParticles возвращает число сгенерированных частиц.
func (n *Node) NumParticles() int { return n.numParticles }

// CumSimTime возвращает накопленное время, проведенное в физическом
// движке.
func (n *Node) CumSimTime() time.Duration { return n.cumSimTime }

// Construct достраивает механическую систему: платформа, контейнер и,
// для гранулярного террейна, упаковка частиц. Вызывается автоматически
// из Settle и Initialize; повторные вызовы не делают ничего.
func (n *Node) Construct() error {
	if n.constructed {
		return nil
	}
	cfg := &n.cfg

	// Оценка числа ячеек широкой фазы по размеру частиц.
	if cfg.Type == Granular {
		const factor = 2
		binsX := int(math.Ceil(cfg.HdimX/cfg.RadiusG)) / factor
		binsY := int(math.Ceil(cfg.HdimY/cfg.RadiusG)) / factor
		n.engine.SetBroadphaseBins(binsX, binsY, 1)
		n.log.Printf("ячейки широкой фазы: %d x %d x 1", binsX, binsY)
	}

	// Два неподвижных тела не регистрируют взаимный контакт, поэтому
	// при фиксированных прокси платформа (и для жесткого террейна
	// контейнер) делаются свободными и привариваются к опорному телу.
	terrainFixed := !cfg.FixedProxies

	// Стартовая платформа. Ее бокс - гарантированно первая контактная
	// форма тела: к нему позже обращается подгонка высоты.
	hlenX := cfg.HlenX + cfg.Hthick
	n.platform = n.engine.NewBody(physics.BodySpec{
		Identifier: -2,
		Mass:       1000,
		Fixed:      terrainFixed,
		Collide:    true,
		Material:   cfg.MaterialTerrain,
		Shapes: []physics.Shape{{
			Type:     physics.ShapeBox,
			HalfDims: mgl64.Vec3{hlenX, cfg.HdimY, cfg.HdimZ + cfg.Hthick},
			Offset:   mgl64.Vec3{-hlenX - cfg.HdimX, 0, cfg.HdimZ - cfg.Hthick},
		}},
	})

	// Контейнер: дно и три боковые стенки; четвертую (заднюю) стенку
	// дает платформа.
	containerFixed := terrainFixed || cfg.Type == Granular
	container := n.engine.NewBody(physics.BodySpec{
		Identifier: -1,
		Mass:       1000,
		Fixed:      containerFixed,
		Collide:    true,
		Material:   cfg.MaterialTerrain,
		Shapes: []physics.Shape{
			{ // дно
				Type:     physics.ShapeBox,
				HalfDims: mgl64.Vec3{cfg.HdimX, cfg.HdimY, cfg.Hthick},
				Offset:   mgl64.Vec3{0, 0, -cfg.Hthick},
			},
			{ // передняя стенка
				Type:     physics.ShapeBox,
				HalfDims: mgl64.Vec3{cfg.Hthick, cfg.HdimY, cfg.HdimZ + cfg.Hthick},
				Offset:   mgl64.Vec3{cfg.HdimX + cfg.Hthick, 0, cfg.HdimZ - cfg.Hthick},
			},
			{ // левая стенка
				Type:     physics.ShapeBox,
				HalfDims: mgl64.Vec3{cfg.HdimX, cfg.Hthick, cfg.HdimZ + cfg.Hthick},
				Offset:   mgl64.Vec3{0, cfg.HdimY + cfg.Hthick, cfg.HdimZ - cfg.Hthick},
			},
			{ // правая стенка
				Type:     physics.ShapeBox,
				HalfDims: mgl64.Vec3{cfg.HdimX, cfg.Hthick, cfg.HdimZ + cfg.Hthick},
				Offset:   mgl64.Vec3{0, -cfg.HdimY - cfg.Hthick, cfg.HdimZ - cfg.Hthick},
			},
		},
	})

	// Деактивация тел, покинувших консервативный габарит контейнера.
	n.engine.SetActiveBounds(
		mgl64.Vec3{-cfg.HdimX - cfg.Hthick - 2*hlenX, -cfg.HdimY - cfg.Hthick, -cfg.Hthick},
		mgl64.Vec3{cfg.HdimX + cfg.Hthick, cfg.HdimY + cfg.Hthick, 2*cfg.HdimZ + 2},
	)

	if cfg.FixedProxies {
		ground := n.engine.NewBody(physics.BodySpec{
			Identifier: -2,
			Fixed:      true,
			Collide:    false,
		})
		n.engine.AddWeld(ground, n.platform)
		if cfg.Type == Rigid {
			n.engine.AddWeld(ground, container)
		}
	}

	// Число тел, добавленных до частиц: от него отсчитывается
	// состояние частиц при восстановлении контрольной точки.
	n.particlesStart = n.engine.NumBodies()

	if cfg.Type == Granular {
		n.generateParticles()
		n.log.Printf("сгенерировано частиц: %d", n.numParticles)
	}

	if cfg.NodeOutDir != "" {
		if err := n.writeSettings(); err != nil {
			return fmt.Errorf("запись настроек: %w", err)
		}
	}

	n.constructed = true
	return nil
}

// generateParticles укладывает частицы горизонтальными слоями
// Пуассон-диск выборкой, присваивая идентификаторы от idGranularBase
// в порядке генерации.
func (n *Node) generateParticles() {
	cfg := &n.cfg
	r := 1.01 * cfg.RadiusG
	gen := granular.Generator{Spacing: 2 * r, Seed: cfg.Seed}

	mass := cfg.RhoG * 4.0 / 3.0 * math.Pi * math.Pow(cfg.RadiusG, 3)
	inertia := 0.4 * mass * cfg.RadiusG * cfg.RadiusG

	id := idGranularBase
	z := 2 * r
	for il := 0; il < cfg.NumLayers; il++ {
		for _, pos := range gen.Layer(cfg.HdimX-r, cfg.HdimY-r, z) {
			h := n.engine.NewBody(physics.BodySpec{
				Identifier: id,
				Mass:       mass,
				Inertia:    mgl64.Vec3{inertia, inertia, inertia},
				Collide:    true,
				Material:   cfg.MaterialTerrain,
				Shapes:     []physics.Shape{{Type: physics.ShapeSphere, Radius: cfg.RadiusG}},
			})
			n.engine.SetBodyState(h, physics.BodyState{Pos: pos, Rot: mgl64.QuatIdent()})
			id++
			n.numParticles++
		}
		z += 2 * r
	}
}

func (n *Node) writeSettings() error {
	f, err := os.Create(n.cfg.NodeOutDir + "/settings.dat")
	if err != nil {
		return err
	}
	defer f.Close()

	cfg := &n.cfg
	mat := cfg.MaterialTerrain
	s := output.Settings{
		TerrainType:   cfg.Type.String(),
		StepSize:      cfg.StepSize,
		ContactMethod: cfg.Method.String(),

		ContainerX:    2 * cfg.HdimX,
		ContainerY:    2 * cfg.HdimY,
		ContainerZ:    2 * cfg.HdimZ,
		WallThickness: 2 * cfg.Hthick,

		Friction:     mat.Friction,
		Restitution:  mat.Restitution,
		YoungModulus: mat.YoungModulus,
		PoissonRatio: mat.PoissonRatio,
		Kn:           mat.Kn,
		Gn:           mat.Gn,
		Kt:           mat.Kt,
		Gt:           mat.Gt,
		Cohesion:     mat.Cohesion,

		ParticleRadius:  cfg.RadiusG,
		ParticleDensity: cfg.RhoG,
		NumLayers:       cfg.NumLayers,
		NumParticles:    n.numParticles,

		ProxiesFixed: cfg.FixedProxies,
	}
	switch cfg.Type {
	case Rigid:
		s.ProxyMass = cfg.MassPN
		s.ProxyRadius = cfg.RadiusPN
	case Granular:
		s.ProxyMass = cfg.MassPF
	}
	return output.WriteSettings(f, s)
}
