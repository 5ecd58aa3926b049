package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-terrain/internal/cosim"
	"x-terrain/internal/physics"
)

func TestParseExampleFile(t *testing.T) {
	f, err := Parse(ExampleFile)
	require.NoError(t, err)

	assert.Equal(t, "granular", f.Node.Type)
	assert.Equal(t, 4, f.Node.Tires)
	assert.Equal(t, ":9050", f.Transport.Listen)
	assert.Equal(t, 10.0, f.Run.Duration)
	assert.Equal(t, 4e-3, f.Run.SyncStep)
	assert.True(t, f.Run.WriteCheckpoint)

	cfg, err := f.NodeConfig()
	require.NoError(t, err)

	assert.Equal(t, cosim.Granular, cfg.Type)
	assert.Equal(t, physics.SMC, cfg.Method)
	assert.Equal(t, 4, cfg.Tires)
	assert.Equal(t, 1e-4, cfg.StepSize)

	// Полные размеры файла переводятся в полуразмеры узла.
	assert.Equal(t, 1.0, cfg.HdimX)
	assert.Equal(t, 0.25, cfg.HdimY)
	assert.Equal(t, 0.5, cfg.HdimZ)
	assert.Equal(t, 0.1, cfg.Hthick)
	assert.Equal(t, 0.0, cfg.HlenX)

	assert.Equal(t, 0.01, cfg.RadiusG)
	assert.Equal(t, 2000.0, cfg.RhoG)
	assert.Equal(t, 5, cfg.NumLayers)
	assert.Equal(t, 0.4, cfg.TimeSettling)

	assert.Equal(t, 0.9, cfg.MaterialTerrain.Friction)
	assert.Equal(t, 2e5, cfg.MaterialTerrain.Kn)
	assert.Equal(t, physics.SMC, cfg.MaterialTerrain.Method)

	assert.Equal(t, 1.0, cfg.MassPN)
	assert.Equal(t, 1.0, cfg.MassPF)
	assert.False(t, cfg.FixedProxies)
}

func TestNodeConfigRigid(t *testing.T) {
	f, err := Parse("[node]\nType = rigid\nMethod = nsc\n")
	require.NoError(t, err)

	cfg, err := f.NodeConfig()
	require.NoError(t, err)
	assert.Equal(t, cosim.Rigid, cfg.Type)
	assert.Equal(t, physics.NSC, cfg.Method)
	assert.Equal(t, physics.NSC, cfg.MaterialTerrain.Method)
}

func TestNodeConfigUnknownType(t *testing.T) {
	f, err := Parse("[node]\nType = lunar\n")
	require.NoError(t, err)

	_, err = f.NodeConfig()
	require.Error(t, err)
}

func TestNodeConfigDefaults(t *testing.T) {
	f, err := Parse("")
	require.NoError(t, err)

	cfg, err := f.NodeConfig()
	require.NoError(t, err)

	// Пустой файл дает конфигурацию по умолчанию.
	def := cosim.DefaultConfig()
	assert.Equal(t, def.Type, cfg.Type)
	assert.Equal(t, def.StepSize, cfg.StepSize)
	assert.Equal(t, def.HdimX, cfg.HdimX)
	assert.Equal(t, def.RadiusG, cfg.RadiusG)
}
