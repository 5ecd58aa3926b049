// Package transport - порт обмена сообщениями между рангами косимуляции.
// Семантика синхронная и блокирующая: каждый Recv ждет ровно одно
// сообщение от указанного ранга с указанным тегом. Таймаутов и повторов
// нет; несовпадение тега, типа или длины - фатальная ошибка протокола.
package transport

// Нумерация рангов: транспортное средство - 0, шины - 1..N,
// террейн - N+1.
const VehicleRank = 0

// TireRank возвращает ранг i-й шины.
func TireRank(i int) int { return 1 + i }

// TerrainRank возвращает ранг террейна при numTires шинах.
func TerrainRank(numTires int) int { return 1 + numTires }

// Kind - тип полезной нагрузки кадра.
type Kind byte

const (
	KindDoubles Kind = 1
	KindInts    Kind = 2
	KindUints   Kind = 3
	KindFloats  Kind = 4
	KindHello   Kind = 5
	KindAbort   Kind = 6
)

// Conn - соединение ранга со всеми его пирами. Отрицательное n в Recv*
// принимает сообщение любой длины (сторона шины не знает заранее число
// вершин в контакте).
type Conn interface {
	SendDoubles(peer, tag int, data []float64) error
	RecvDoubles(peer, tag, n int) ([]float64, error)

	SendInts(peer, tag int, data []int32) error
	RecvInts(peer, tag, n int) ([]int32, error)

	SendUints(peer, tag int, data []uint32) error
	RecvUints(peer, tag, n int) ([]uint32, error)

	SendFloats(peer, tag int, data []float32) error
	RecvFloats(peer, tag, n int) ([]float32, error)

	// Abort завершает всю распределенную задачу: всем пирам уходит
	// аварийный кадр, после чего процесс завершается с кодом code.
	Abort(code int)

	Close() error
}
