package weights

import "math"

// KernelWeight converts a distance into a weight for the given bandwidth.
//
//	r = d / bw
//	gaussian    exp(-0.5·r²)
//	bisquare    (1-r²)²
//	tricube     (1-|r|³)³
//	exponential exp(-r)
//
// Every kernel, the gaussian and exponential included, is truncated to 0
// once d > bw. A non-positive bandwidth keeps only exact co-location.
func KernelWeight(k Kernel, d, bw float64) float64 {
	if !(bw > 0) {
		if d == 0 {
			return 1
		}
		return 0
	}
	if d > bw {
		return 0
	}
	r := d / bw
	switch k {
	case KERNEL_GAUSSIAN:
		return math.Exp(-0.5 * r * r)
	case KERNEL_BISQUARE:
		u := 1 - r*r
		return u * u
	case KERNEL_TRICUBE:
		u := 1 - math.Abs(r*r*r)
		return u * u * u
	case KERNEL_EXPONENTIAL:
		return math.Exp(-r)
	default:
		return 0
	}
}
