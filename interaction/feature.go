// Package interaction scores candidate feature pairs for an explainable
// boosting model: given the model's per-sample gradients, it measures how
// much gain a two-dimensional partition of a feature pair would extract if
// the pair were admitted as an interaction term.
package interaction

import "github.com/ezoic/glassbox/core/tensor"

// MaxDimensions bounds the number of features in a group. It matches the
// tensor dimension limit since admitted terms become tensors.
const MaxDimensions = tensor.MaxDimensions

// FeatureRef is a read-only descriptor of one feature. Features are already
// binned upstream; all the engine needs is the ordinal bin count.
type FeatureRef struct {
	// BinCount is the number of ordinal bins, at least 1. One-bin features
	// carry no information and short-circuit before any arena is sized.
	BinCount int
}

// FeatureGroup is an ordered set of features forming one candidate term.
type FeatureGroup struct {
	// Indexes are positions in the core's feature list, parallel to Refs.
	Indexes []int
	// Refs are the referenced feature descriptors.
	Refs []FeatureRef
	// SignificantDimensions counts features with more than one bin. For
	// interaction candidates this always equals the dimension count, since
	// trivial features are rejected before the group is built.
	SignificantDimensions int
}

// CountDimensions returns the number of features in the group.
func (g *FeatureGroup) CountDimensions() int { return len(g.Refs) }

// BinCounts returns the per-dimension bin counts in group order.
func (g *FeatureGroup) BinCounts() []int {
	counts := make([]int, len(g.Refs))
	for i, ref := range g.Refs {
		counts[i] = ref.BinCount
	}
	return counts
}
