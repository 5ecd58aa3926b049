package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ContactMethod выбирает семейство контактной модели движка.
type ContactMethod int

const (
	// SMC - податливый (penalty) контакт с явной жесткостью/демпфированием
	SMC ContactMethod = iota
	// NSC - жесткий контакт, из параметров материала используются
	// только трение и реституция
	NSC
)

func (m ContactMethod) String() string {
	if m == SMC {
		return "SMC"
	}
	return "NSC"
}

// BodyHandle - идентификатор тела внутри движка. Хэндлы выдаются
// последовательно начиная с нуля, в порядке добавления тел.
type BodyHandle int

// ShapeType тип контактной формы тела.
type ShapeType int

const (
	ShapeSphere ShapeType = iota
	ShapeBox
	ShapeTriangle
)

// Shape описывает одну контактную форму в локальной системе тела.
type Shape struct {
	Type ShapeType

	// Сфера
	Radius float64

	// Бокс: полуразмеры и смещение центра
	HalfDims mgl64.Vec3
	Offset   mgl64.Vec3

	// Треугольник: вершины в локальной системе
	A, B, C mgl64.Vec3
}

// BodySpec - параметры создаваемого тела.
type BodySpec struct {
	// Identifier - пользовательский идентификатор (не хэндл).
	// Отрицательные значения зарезервированы для тел террейна.
	Identifier int
	Mass       float64
	Inertia    mgl64.Vec3
	Fixed      bool
	Collide    bool
	Material   Material
	Shapes     []Shape

	// Family - семейство коллизий; NoCollideFamily отключает проверку
	// контактов с телами указанного семейства (0 - не отключать).
	Family          int
	NoCollideFamily int
}

// BodyState - кинематическое состояние тела.
type BodyState struct {
	Pos    mgl64.Vec3
	Rot    mgl64.Quat
	LinVel mgl64.Vec3
	AngVel mgl64.Vec3
}

// Engine - порт физического движка. Узел косимуляции работает только
// через этот интерфейс; конкретная реализация (см. пакет smc)
// подменяется в тестах моками.
type Engine interface {
	// NewBody добавляет тело и возвращает его хэндл.
	NewBody(spec BodySpec) BodyHandle

	SetBodyState(h BodyHandle, st BodyState)
	State(h BodyHandle) BodyState
	Identifier(h BodyHandle) int
	NumBodies() int

	// SetTriangleVertices переписывает вершины треугольной формы тела
	// (в локальной системе). Тело должно иметь единственную форму
	// типа ShapeTriangle.
	SetTriangleVertices(h BodyHandle, a, b, c mgl64.Vec3)

	// UpdateBoxShape переписывает полуразмеры и смещение боксовой формы
	// с индексом i внутри тела.
	UpdateBoxShape(h BodyHandle, i int, halfDims, offset mgl64.Vec3)

	// AddWeld жестко связывает тело b с телом a в их текущих позах.
	AddWeld(a, b BodyHandle)

	Step(dt float64)
	Time() float64
	SetTime(t float64)

	// ComputeContactForces пересчитывает накопленные контактные силы
	// по текущему состоянию, без шага интегрирования.
	ComputeContactForces()
	BodyContactForce(h BodyHandle) mgl64.Vec3
	NumContacts() int

	SetGravity(g mgl64.Vec3)
	SetBroadphaseBins(x, y, z int)
	SetActiveBounds(min, max mgl64.Vec3)
}
