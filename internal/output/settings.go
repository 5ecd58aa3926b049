package output

import (
	"fmt"
	"io"
)

// Settings - диагностический дамп параметров узла, записываемый один
// раз при построении системы. Формат свободный, структура повторяет
// порядок разделов файла settings.dat.
type Settings struct {
	TerrainType   string
	StepSize      float64
	ContactMethod string

	ContainerX, ContainerY, ContainerZ float64
	WallThickness                      float64

	Friction    float64
	Restitution float64
	// SMC
	YoungModulus, PoissonRatio float64
	Kn, Gn, Kt, Gt             float64
	// NSC
	Cohesion float64

	ParticleRadius  float64
	ParticleDensity float64
	NumLayers       int
	NumParticles    int

	ProxiesFixed bool
	ProxyMass    float64
	ProxyRadius  float64 // только для узловых прокси
}

func WriteSettings(w io.Writer, s Settings) error {
	yn := func(b bool) string {
		if b {
			return "YES"
		}
		return "NO"
	}

	fmt.Fprintf(w, "Terrain type = %s\n", s.TerrainType)
	fmt.Fprintf(w, "System settings\n")
	fmt.Fprintf(w, "   Integration step size = %g\n", s.StepSize)
	fmt.Fprintf(w, "   Contact method = %s\n", s.ContactMethod)
	fmt.Fprintf(w, "Container dimensions\n")
	fmt.Fprintf(w, "   X = %g  Y = %g  Z = %g\n", s.ContainerX, s.ContainerY, s.ContainerZ)
	fmt.Fprintf(w, "   wall thickness = %g\n", s.WallThickness)
	fmt.Fprintf(w, "Terrain material properties\n")
	fmt.Fprintf(w, "   Coefficient of friction    = %g\n", s.Friction)
	fmt.Fprintf(w, "   Coefficient of restitution = %g\n", s.Restitution)
	if s.ContactMethod == "SMC" {
		fmt.Fprintf(w, "   Young modulus              = %g\n", s.YoungModulus)
		fmt.Fprintf(w, "   Poisson ratio              = %g\n", s.PoissonRatio)
		fmt.Fprintf(w, "   Kn = %g\n", s.Kn)
		fmt.Fprintf(w, "   Gn = %g\n", s.Gn)
		fmt.Fprintf(w, "   Kt = %g\n", s.Kt)
		fmt.Fprintf(w, "   Gt = %g\n", s.Gt)
	} else {
		fmt.Fprintf(w, "   Cohesion force             = %g\n", s.Cohesion)
	}
	fmt.Fprintf(w, "Granular material properties\n")
	fmt.Fprintf(w, "   particle radius  = %g\n", s.ParticleRadius)
	fmt.Fprintf(w, "   particle density = %g\n", s.ParticleDensity)
	fmt.Fprintf(w, "   number layers    = %d\n", s.NumLayers)
	fmt.Fprintf(w, "   number particles = %d\n", s.NumParticles)
	fmt.Fprintf(w, "Proxy body properties\n")
	fmt.Fprintf(w, "   proxies fixed? %s\n", yn(s.ProxiesFixed))
	if s.ProxyRadius > 0 {
		fmt.Fprintf(w, "   proxy radius = %g\n", s.ProxyRadius)
	}
	_, err := fmt.Fprintf(w, "   proxy mass = %g\n", s.ProxyMass)
	return err
}
