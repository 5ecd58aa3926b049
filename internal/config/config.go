// Package config - загрузка параметров узла террейна из INI-файла.
package config

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"x-terrain/internal/cosim"
	"x-terrain/internal/physics"
)

const ExampleFile = `[node]

# Тип террейна: rigid | granular
Type = granular
# Контактная модель: smc | nsc
Method = smc
# Число рангов шин
Tires = 4
# Внутренний шаг интегрирования, с
StepSize = 1e-4
# Общий каталог вывода (контрольная точка) и каталог узла
OutDir = out
NodeOutDir = out/terrain
# Стартовать из контрольной точки вместо осадки
UseCheckpoint = false
# Писать снимки частиц во время осадки
SettlingOutput = false

[container]

# Полные размеры контейнера и толщина стенок, м
Length = 2.0
Width = 0.5
Height = 1.0
Thickness = 0.2
# Длина стартовой платформы, м
PlatformLength = 0

[granular]

# Радиус и плотность частиц
Radius = 0.01
Density = 2000
# Число слоев и длительность осадки, с
Layers = 5
SettlingTime = 0.4
# Зерно генератора упаковки
Seed = 0

[material]

Friction = 0.9
Restitution = 0.01
YoungModulus = 8e5
PoissonRatio = 0.3
Kn = 2e5
Gn = 40
Kt = 2e5
Gt = 20
Cohesion = 0

[proxy]

# Масса узлового/граневого прокси и радиус узлового
Mass = 1
Radius = 0.01
Fixed = false

[transport]

# Адрес, который слушает узел террейна
Listen = :9050

[run]

# Длительность косимуляции и каденция обмена, с
Duration = 10
SyncStep = 4e-3
# Частота пофреймового вывода, кадров/с
OutputFPS = 100
# Записать контрольную точку по завершении
WriteCheckpoint = true
`

// File - разобранное содержимое конфигурационного файла.
type File struct {
	Node struct {
		Type           string
		Method         string
		Tires          int
		StepSize       float64
		OutDir         string
		NodeOutDir     string
		UseCheckpoint  bool
		SettlingOutput bool
	}
	Container struct {
		Length         float64
		Width          float64
		Height         float64
		Thickness      float64
		PlatformLength float64
	}
	Granular struct {
		Radius       float64
		Density      float64
		Layers       int
		SettlingTime float64
		Seed         int64
	}
	Material struct {
		Friction     float64
		Restitution  float64
		YoungModulus float64
		PoissonRatio float64
		Kn, Gn       float64
		Kt, Gt       float64
		Cohesion     float64
	}
	Proxy struct {
		Mass   float64
		Radius float64
		Fixed  bool
	}
	Transport struct {
		Listen string
	}
	Run struct {
		Duration        float64
		SyncStep        float64
		OutputFPS       float64
		WriteCheckpoint bool
	}
}

func Load(path string) (*File, error) {
	var f File
	if err := gcfg.ReadFileInto(&f, path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &f, nil
}

func Parse(text string) (*File, error) {
	var f File
	if err := gcfg.ReadStringInto(&f, text); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &f, nil
}

// NodeConfig переводит содержимое файла в конфигурацию узла.
func (f *File) NodeConfig() (cosim.Config, error) {
	cfg := cosim.DefaultConfig()

	switch strings.ToLower(f.Node.Type) {
	case "rigid":
		cfg.Type = cosim.Rigid
	case "granular", "":
		cfg.Type = cosim.Granular
	default:
		return cfg, fmt.Errorf("config: неизвестный тип террейна %q", f.Node.Type)
	}

	switch strings.ToLower(f.Node.Method) {
	case "smc", "":
		cfg.Method = physics.SMC
	case "nsc":
		cfg.Method = physics.NSC
	default:
		return cfg, fmt.Errorf("config: неизвестный метод контакта %q", f.Node.Method)
	}

	if f.Node.Tires > 0 {
		cfg.Tires = f.Node.Tires
	}
	if f.Node.StepSize > 0 {
		cfg.StepSize = f.Node.StepSize
	}
	cfg.OutDir = f.Node.OutDir
	cfg.NodeOutDir = f.Node.NodeOutDir
	cfg.UseCheckpoint = f.Node.UseCheckpoint
	cfg.SettlingOutput = f.Node.SettlingOutput

	if f.Container.Length > 0 {
		cfg.HdimX = f.Container.Length / 2
	}
	if f.Container.Width > 0 {
		cfg.HdimY = f.Container.Width / 2
	}
	if f.Container.Height > 0 {
		cfg.HdimZ = f.Container.Height / 2
	}
	if f.Container.Thickness > 0 {
		cfg.Hthick = f.Container.Thickness / 2
	}
	cfg.HlenX = f.Container.PlatformLength / 2

	if f.Granular.Radius > 0 {
		cfg.RadiusG = f.Granular.Radius
	}
	if f.Granular.Density > 0 {
		cfg.RhoG = f.Granular.Density
	}
	if f.Granular.Layers > 0 {
		cfg.NumLayers = f.Granular.Layers
	}
	if f.Granular.SettlingTime > 0 {
		cfg.TimeSettling = f.Granular.SettlingTime
	}
	cfg.Seed = f.Granular.Seed

	if f.Proxy.Mass > 0 {
		cfg.MassPN = f.Proxy.Mass
		cfg.MassPF = f.Proxy.Mass
	}
	if f.Proxy.Radius > 0 {
		cfg.RadiusPN = f.Proxy.Radius
	}
	cfg.FixedProxies = f.Proxy.Fixed

	cfg.MaterialTerrain = physics.Material{
		Method:       cfg.Method,
		Friction:     f.Material.Friction,
		Restitution:  f.Material.Restitution,
		YoungModulus: f.Material.YoungModulus,
		PoissonRatio: f.Material.PoissonRatio,
		Kn:           f.Material.Kn,
		Gn:           f.Material.Gn,
		Kt:           f.Material.Kt,
		Gt:           f.Material.Gt,
		Cohesion:     f.Material.Cohesion,
	}

	return cfg, nil
}
