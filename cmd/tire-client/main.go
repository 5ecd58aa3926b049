// Демонстрационный контрагент узла террейна: ранг шины или машины.
//
// В режиме шины отправляет тороидальную сетку через рукопожатие, затем
// каждый шаг опускает ее на террейн и печатает пришедшие контактные
// силы. В режиме машины принимает стартовое рукопожатие и выходит.
// Это упражнение протокола, а не модель шины.
package main

import (
	"flag"
	"log"
	"math"
	"os"

	"x-terrain/internal/transport"
	"x-terrain/internal/transport/ws"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:9050", "адрес узла террейна")
		rank    = flag.Int("rank", transport.TireRank(0), "собственный ранг")
		tires   = flag.Int("tires", 1, "число рангов шин в задаче")
		vehicle = flag.Bool("vehicle", false, "работать рангом машины")
		steps   = flag.Int("steps", 100, "число шагов обмена")
		dt      = flag.Float64("dt", 4e-3, "шаг обмена, с")
	)
	flag.Parse()

	prefix := "[TireClient] "
	if *vehicle {
		prefix = "[VehicleClient] "
		*rank = transport.VehicleRank
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags)

	terrain := transport.TerrainRank(*tires)
	conn, err := ws.Dial(*url, *rank, terrain, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer conn.Close()

	if *vehicle {
		initDim, err := conn.RecvDoubles(terrain, 0, 2)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Printf("высота террейна = %g, полудлина контейнера = %g", initDim[0], initDim[1])
		// Машина в этом упражнении больше не участвует, но соединение
		// держим, чтобы не рвать транспорт до конца прогона.
		select {}
	}

	verts, tris := torusMesh(0.2, 0.05, 12, 8)
	nv := len(verts)
	nt := len(tris) / 3
	logger.Printf("сетка: %d вершин, %d треугольников", nv, nt)

	if err := conn.SendUints(terrain, 0, []uint32{uint32(nv), uint32(nt)}); err != nil {
		logger.Fatal(err)
	}
	// трение, реституция, E, nu, Kn, Gn, Kt, Gt
	mat := []float32{0.8, 0.1, 8e5, 0.3, 2e5, 40, 2e5, 20}
	if err := conn.SendFloats(terrain, 0, mat); err != nil {
		logger.Fatal(err)
	}

	// Опускание сетки: центр стартует над поверхностью и едет вниз.
	z0 := 0.5
	vz := -0.1

	for is := 0; is < *steps; is++ {
		z := z0 + vz*float64(is)*(*dt)

		data := make([]float64, 2*3*nv)
		for i, v := range verts {
			data[3*i] = v[0]
			data[3*i+1] = v[1]
			data[3*i+2] = v[2] + z
			data[3*nv+3*i+2] = vz
		}

		if err := conn.SendDoubles(terrain, is, data); err != nil {
			logger.Fatal(err)
		}
		if err := conn.SendInts(terrain, is, tris); err != nil {
			logger.Fatal(err)
		}

		indices, err := conn.RecvInts(terrain, is, -1)
		if err != nil {
			logger.Fatal(err)
		}
		forces, err := conn.RecvDoubles(terrain, is, 3*len(indices))
		if err != nil {
			logger.Fatal(err)
		}

		var fz float64
		for i := range indices {
			fz += forces[3*i+2]
		}
		logger.Printf("шаг %d: вершин в контакте %d, суммарная Fz = %g", is, len(indices), fz)
	}
}

// torusMesh строит тор радиусов R и r (nu x nv сегментов) с центром в
// начале координат; возвращает вершины и индексы треугольников.
func torusMesh(R, r float64, nu, nv int) ([][3]float64, []int32) {
	verts := make([][3]float64, 0, nu*nv)
	for iu := 0; iu < nu; iu++ {
		u := 2 * math.Pi * float64(iu) / float64(nu)
		for iv := 0; iv < nv; iv++ {
			v := 2 * math.Pi * float64(iv) / float64(nv)
			verts = append(verts, [3]float64{
				(R + r*math.Cos(v)) * math.Cos(u),
				(R + r*math.Cos(v)) * math.Sin(u),
				r * math.Sin(v),
			})
		}
	}

	var tris []int32
	idx := func(iu, iv int) int32 {
		return int32(((iu%nu)*nv + iv%nv))
	}
	for iu := 0; iu < nu; iu++ {
		for iv := 0; iv < nv; iv++ {
			a := idx(iu, iv)
			b := idx(iu+1, iv)
			c := idx(iu+1, iv+1)
			d := idx(iu, iv+1)
			tris = append(tris, a, b, c, a, c, d)
		}
	}
	return verts, tris
}
