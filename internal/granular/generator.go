// Package granular - генерация упаковки сферических частиц для
// гранулярного террейна: послойный Пуассон-диск (алгоритм Бридсона)
// в горизонтальном прямоугольнике контейнера.
package granular

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const bridsonAttempts = 30

// Generator размещает центры частиц со взаимным расстоянием не меньше
// Spacing. Детерминирован при фиксированном Seed.
type Generator struct {
	Spacing float64
	Seed    int64
}

// Layer возвращает центры частиц одного слоя в прямоугольнике
// [-hdimX, hdimX] x [-hdimY, hdimY] на высоте z.
func (g *Generator) Layer(hdimX, hdimY, z float64) []mgl64.Vec3 {
	rng := rand.New(rand.NewSource(g.Seed + int64(math.Float64bits(z))))

	d := g.Spacing
	cell := d / math.Sqrt2
	nx := int(math.Ceil(2 * hdimX / cell))
	ny := int(math.Ceil(2 * hdimY / cell))
	if nx < 1 || ny < 1 {
		return nil
	}

	// -1 - ячейка пуста, иначе индекс точки.
	grid := make([]int, nx*ny)
	for i := range grid {
		grid[i] = -1
	}
	cellOf := func(p mgl64.Vec2) (int, int) {
		cx := int((p.X() + hdimX) / cell)
		cy := int((p.Y() + hdimY) / cell)
		if cx >= nx {
			cx = nx - 1
		}
		if cy >= ny {
			cy = ny - 1
		}
		return cx, cy
	}

	var points []mgl64.Vec2
	var active []int

	fits := func(p mgl64.Vec2) bool {
		if p.X() < -hdimX || p.X() > hdimX || p.Y() < -hdimY || p.Y() > hdimY {
			return false
		}
		cx, cy := cellOf(p)
		for ix := cx - 2; ix <= cx+2; ix++ {
			for iy := cy - 2; iy <= cy+2; iy++ {
				if ix < 0 || iy < 0 || ix >= nx || iy >= ny {
					continue
				}
				if k := grid[iy*nx+ix]; k >= 0 {
					if points[k].Sub(p).Len() < d {
						return false
					}
				}
			}
		}
		return true
	}

	insert := func(p mgl64.Vec2) {
		cx, cy := cellOf(p)
		grid[cy*nx+cx] = len(points)
		points = append(points, p)
		active = append(active, len(points)-1)
	}

	insert(mgl64.Vec2{
		(2*rng.Float64() - 1) * hdimX,
		(2*rng.Float64() - 1) * hdimY,
	})

	for len(active) > 0 {
		ai := rng.Intn(len(active))
		base := points[active[ai]]

		placed := false
		for k := 0; k < bridsonAttempts; k++ {
			ang := 2 * math.Pi * rng.Float64()
			r := d * (1 + rng.Float64())
			p := mgl64.Vec2{base.X() + r*math.Cos(ang), base.Y() + r*math.Sin(ang)}
			if fits(p) {
				insert(p)
				placed = true
				break
			}
		}
		if !placed {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}

	out := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		out[i] = mgl64.Vec3{p.X(), p.Y(), z}
	}
	return out
}
