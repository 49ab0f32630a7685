package histogram

import "math"

// mulOverflows reports whether a*b overflows int for non-negative operands.
func mulOverflows(a, b int) bool {
	return b != 0 && a > math.MaxInt/b
}

// addOverflows reports whether a+b overflows int for non-negative operands.
func addOverflows(a, b int) bool {
	return a > math.MaxInt-b
}
