package granular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerSpacingAndBounds(t *testing.T) {
	g := Generator{Spacing: 0.04, Seed: 1}
	pts := g.Layer(0.2, 0.15, 0.05)
	require.NotEmpty(t, pts)

	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X(), -0.2)
		assert.LessOrEqual(t, p.X(), 0.2)
		assert.GreaterOrEqual(t, p.Y(), -0.15)
		assert.LessOrEqual(t, p.Y(), 0.15)
		assert.Equal(t, 0.05, p.Z())
	}

	// Минимальное взаимное расстояние выдерживается для всех пар.
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			d := pts[i].Sub(pts[j]).Len()
			assert.GreaterOrEqual(t, d, g.Spacing*(1-1e-12),
				"точки %d и %d ближе шага упаковки", i, j)
		}
	}
}

func TestLayerFillsRegion(t *testing.T) {
	g := Generator{Spacing: 0.04, Seed: 1}
	pts := g.Layer(0.2, 0.2, 0.1)

	// Пуассон-диск Бридсона заполняет область плотно: не меньше
	// четверти от числа ячеек квадратной решетки с шагом упаковки.
	minCount := int(0.4 / g.Spacing * 0.4 / g.Spacing / 4)
	assert.GreaterOrEqual(t, len(pts), minCount)
}

func TestLayerDeterministic(t *testing.T) {
	a := Generator{Spacing: 0.05, Seed: 42}
	b := Generator{Spacing: 0.05, Seed: 42}
	assert.Equal(t, a.Layer(0.2, 0.2, 0.07), b.Layer(0.2, 0.2, 0.07))

	// Слои на разных высотах независимы даже при общем зерне.
	assert.NotEqual(t, a.Layer(0.2, 0.2, 0.07), a.Layer(0.2, 0.2, 0.14))
}

func TestLayerDegenerateRegion(t *testing.T) {
	g := Generator{Spacing: 0.5, Seed: 1}
	assert.Empty(t, g.Layer(0, 0, 0.1))
}
