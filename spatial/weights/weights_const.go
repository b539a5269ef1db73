package weights

import "strings"

// Kernel 核函数类型
type Kernel int

const (
	KERNEL_GAUSSIAN    Kernel = iota // "gaussian"
	KERNEL_BISQUARE                  // "bisquare"
	KERNEL_TRICUBE                   // "tricube"
	KERNEL_EXPONENTIAL               // "exponential"
	KERNEL_ERROR                     // "ERROR"
)

func (k Kernel) String() string {
	switch k {
	case KERNEL_GAUSSIAN:
		return "gaussian"
	case KERNEL_BISQUARE:
		return "bisquare"
	case KERNEL_TRICUBE:
		return "tricube"
	case KERNEL_EXPONENTIAL:
		return "exponential"
	default:
		return "ERROR"
	}
}

// GetKernel parses a kernel name, KERNEL_ERROR when unknown.
func GetKernel(s string) Kernel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaussian":
		return KERNEL_GAUSSIAN
	case "bisquare":
		return KERNEL_BISQUARE
	case "tricube":
		return KERNEL_TRICUBE
	case "exponential":
		return KERNEL_EXPONENTIAL
	default:
		return KERNEL_ERROR
	}
}

// Metric 距离度量
type Metric int

const (
	DISTANCE_EUCLIDEAN Metric = iota // "euclidean"
	DISTANCE_MANHATTAN               // "manhattan"
	DISTANCE_HAVERSINE               // "haversine"
	DISTANCE_ERROR                   // "ERROR"
)

func (m Metric) String() string {
	switch m {
	case DISTANCE_EUCLIDEAN:
		return "euclidean"
	case DISTANCE_MANHATTAN:
		return "manhattan"
	case DISTANCE_HAVERSINE:
		return "haversine"
	default:
		return "ERROR"
	}
}

// GetMetric parses a metric name, DISTANCE_ERROR when unknown.
func GetMetric(s string) Metric {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euclidean":
		return DISTANCE_EUCLIDEAN
	case "manhattan":
		return DISTANCE_MANHATTAN
	case "haversine":
		return DISTANCE_HAVERSINE
	default:
		return DISTANCE_ERROR
	}
}
