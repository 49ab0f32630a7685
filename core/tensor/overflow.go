package tensor

import "math"

// mulOverflows reports whether a*b overflows int. Both operands must be
// non-negative, which holds for every sizing computation in this package.
func mulOverflows(a, b int) bool {
	return b != 0 && a > math.MaxInt/b
}

// addOverflows reports whether a+b overflows int for non-negative operands.
func addOverflows(a, b int) bool {
	return a > math.MaxInt-b
}
