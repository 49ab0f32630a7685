package interaction

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BinMapper discretizes one continuous feature into ordinal bins using
// quantile boundaries, so that each bin carries roughly the same number of
// training samples.
type BinMapper struct {
	FeatureIndex  int
	BinBoundaries []float64 // sorted cut points; bin i covers [b[i-1], b[i])
	NumBins       int
}

// NewBinMapper computes quantile bin boundaries for a feature column.
// Duplicate quantiles collapse, so low-cardinality columns get fewer bins;
// a constant column gets a single bin.
func NewBinMapper(featureIndex int, values []float64, maxBins int) *BinMapper {
	if maxBins < 1 {
		maxBins = 1
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	boundaries := make([]float64, 0, maxBins-1)
	for i := 1; i < maxBins; i++ {
		q := stat.Quantile(float64(i)/float64(maxBins), stat.Empirical, sorted, nil)
		if len(boundaries) == 0 || boundaries[len(boundaries)-1] < q {
			boundaries = append(boundaries, q)
		}
	}
	// a boundary at the minimum would leave its lowest bin empty
	for len(boundaries) > 0 && boundaries[0] <= sorted[0] {
		boundaries = boundaries[1:]
	}

	return &BinMapper{
		FeatureIndex:  featureIndex,
		BinBoundaries: boundaries,
		NumBins:       len(boundaries) + 1,
	}
}

// FindBin returns the ordinal bin of a value. Values at or above a cut point
// fall in the bin above it; values outside the training range clamp into the
// outermost bins.
func (m *BinMapper) FindBin(v float64) int {
	return sort.Search(len(m.BinBoundaries), func(i int) bool {
		return v < m.BinBoundaries[i]
	})
}
