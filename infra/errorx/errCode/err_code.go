package errCode

// Code 错误码. Codes are grouped: everything except SINGULAR_MATRIX is a
// caller contract violation (invalid argument family).
type Code int

const (
	OK Code = iota
	INVALID_VALUE
	EMPTY_VALUE
	DIMENSION_MISMATCH
	SINGULAR_MATRIX
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case INVALID_VALUE:
		return "invalid value"
	case EMPTY_VALUE:
		return "empty value"
	case DIMENSION_MISMATCH:
		return "dimension mismatch"
	case SINGULAR_MATRIX:
		return "singular matrix"
	default:
		return "unknown"
	}
}

// IsInvalidArgument reports whether the code belongs to the invalid-argument family.
func (c Code) IsInvalidArgument() bool {
	switch c {
	case INVALID_VALUE, EMPTY_VALUE, DIMENSION_MISMATCH:
		return true
	default:
		return false
	}
}
