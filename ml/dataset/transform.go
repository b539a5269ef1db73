package dataset

import (
	"math"
	"strings"
)

// Transform 字段变换
type Transform int

const (
	TRANSFORM_NONE    Transform = iota // "none"
	TRANSFORM_LOG                      // "log"
	TRANSFORM_SQRT                     // "sqrt"
	TRANSFORM_SQUARE                   // "square"
	TRANSFORM_INVERSE                  // "inverse"
	TRANSFORM_ERROR                    // "ERROR"
)

// floor used by log and inverse to stay finite near zero
const transformFloor = 1e-4

func (t Transform) String() string {
	switch t {
	case TRANSFORM_NONE:
		return "none"
	case TRANSFORM_LOG:
		return "log"
	case TRANSFORM_SQRT:
		return "sqrt"
	case TRANSFORM_SQUARE:
		return "square"
	case TRANSFORM_INVERSE:
		return "inverse"
	default:
		return "ERROR"
	}
}

// GetTransform parses a transform name; "" means none.
func GetTransform(s string) Transform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TRANSFORM_NONE
	case "log":
		return TRANSFORM_LOG
	case "sqrt":
		return TRANSFORM_SQRT
	case "square":
		return TRANSFORM_SQUARE
	case "inverse":
		return TRANSFORM_INVERSE
	default:
		return TRANSFORM_ERROR
	}
}

// Apply maps one value.
//
//	log(x)     = ln(max(x, 1e-4))
//	sqrt(x)    = sqrt(max(x, 0))
//	square(x)  = x²
//	inverse(x) = 1/x, |x| clamped up to 1e-4 keeping its sign
func (t Transform) Apply(x float64) float64 {
	switch t {
	case TRANSFORM_LOG:
		return math.Log(math.Max(x, transformFloor))
	case TRANSFORM_SQRT:
		return math.Sqrt(math.Max(x, 0))
	case TRANSFORM_SQUARE:
		return x * x
	case TRANSFORM_INVERSE:
		if math.Abs(x) < transformFloor {
			x = math.Copysign(transformFloor, x)
		}
		return 1 / x
	default:
		return x
	}
}
