package physics

// Material - контактный материал поверхности. Набор осмысленных полей
// зависит от метода: для SMC заполняются упругие и диссипативные
// коэффициенты, для NSC - только трение, реституция и когезия.
type Material struct {
	Method      ContactMethod
	Friction    float64
	Restitution float64

	// SMC
	YoungModulus float64
	PoissonRatio float64
	Kn, Gn       float64
	Kt, Gt       float64

	// NSC
	Cohesion float64
}

// MaterialFromProps собирает материал из 8-элементного вектора свойств
// рукопожатия. Формат фиксирован протоколом независимо от метода:
// для NSC используются только первые два элемента.
func MaterialFromProps(method ContactMethod, props [8]float32) Material {
	switch method {
	case SMC:
		return Material{
			Method:       SMC,
			Friction:     float64(props[0]),
			Restitution:  float64(props[1]),
			YoungModulus: float64(props[2]),
			PoissonRatio: float64(props[3]),
			Kn:           float64(props[4]),
			Gn:           float64(props[5]),
			Kt:           float64(props[6]),
			Gt:           float64(props[7]),
		}
	default:
		return Material{
			Method:      NSC,
			Friction:    float64(props[0]),
			Restitution: float64(props[1]),
		}
	}
}
