// Package tensor implements the sparse piecewise-constant score tensor used
// by the boosting engine.
//
// A Sparse tensor is a step function over a multidimensional grid of bin
// coordinates. Each dimension carries a sorted list of split coordinates;
// the cells between splits share one score vector. Tensors start out with a
// single slice per dimension and grow as splits are admitted, so a term that
// only ever cuts a feature twice stores three scores instead of one per bin.
package tensor

import (
	"math"

	"github.com/ezoic/glassbox/pkg/errors"
	"github.com/ezoic/glassbox/pkg/log"
)

const (
	// MaxDimensions bounds the number of tensor dimensions.
	MaxDimensions = 64

	// initialSliceCapacity is the per-dimension slice capacity a fresh
	// tensor starts with.
	initialSliceCapacity = 2

	// initialScoreCapacity is the number of cells a fresh score buffer can
	// hold before growing.
	initialScoreCapacity = 2
)

// dimension tracks the live slice count of one tensor dimension plus its
// split buffer. len(splits) is the capacity; only splits[:sliceCount-1] are
// meaningful.
type dimension struct {
	sliceCount int
	splits     []int
}

// Sparse is a mutable multidimensional step function producing a vector of
// scoreCount scores per cell. The zero value is not usable; construct with
// New.
type Sparse struct {
	scoreCount int
	dims       []dimension
	scores     []float64 // len is the capacity; live length is TensorScoreCount
	expanded   bool
}

// New creates a tensor with the given number of dimensions and scores per
// cell. Every dimension starts with a single slice and the first scoreCount
// scores are zero.
func New(dimCount, scoreCount int) (*Sparse, error) {
	if dimCount < 0 || MaxDimensions < dimCount {
		return nil, errors.NewValueError("tensor.New", "dimension count out of range")
	}
	if scoreCount < 1 {
		return nil, errors.NewValueError("tensor.New", "score count must be at least 1")
	}
	if mulOverflows(initialScoreCapacity, scoreCount) {
		return nil, errors.Wrap(errors.ErrOutOfMemory, "tensor.New score capacity")
	}
	t := &Sparse{
		scoreCount: scoreCount,
		dims:       make([]dimension, dimCount),
		scores:     make([]float64, initialScoreCapacity*scoreCount),
	}
	for i := range t.dims {
		t.dims[i].sliceCount = 1
		t.dims[i].splits = make([]int, initialSliceCapacity-1)
	}
	return t, nil
}

// DimCount returns the number of dimensions.
func (t *Sparse) DimCount() int { return len(t.dims) }

// ScoreCount returns the number of scores per cell.
func (t *Sparse) ScoreCount() int { return t.scoreCount }

// Expanded reports whether every bin of every dimension is its own slice.
func (t *Sparse) Expanded() bool { return t.expanded }

// SliceCount returns the live slice count of dimension i.
func (t *Sparse) SliceCount(i int) int { return t.dims[i].sliceCount }

// Splits returns the live split coordinates of dimension i. The slice
// aliases internal storage and is invalidated by any mutating call.
func (t *Sparse) Splits(i int) []int {
	d := &t.dims[i]
	return d.splits[:d.sliceCount-1]
}

// Scores returns the live score buffer in row-major cell order. The slice
// aliases internal storage and is invalidated by any capacity-changing call.
func (t *Sparse) Scores() []float64 {
	return t.scores[:t.TensorScoreCount()]
}

// TensorScoreCount returns the number of live scores:
// scoreCount times the product of all slice counts.
func (t *Sparse) TensorScoreCount() int {
	n := t.scoreCount
	for i := range t.dims {
		n *= t.dims[i].sliceCount
	}
	return n
}

// Reset returns the tensor to a single slice per dimension with zero scores.
// Capacity is retained.
func (t *Sparse) Reset() {
	for i := range t.dims {
		t.dims[i].sliceCount = 1
	}
	for i := 0; i < t.scoreCount; i++ {
		t.scores[i] = 0
	}
	t.expanded = false
}

// SetSliceCount sets the live slice count of dimension iDim, growing the
// split buffer when needed. Growth is geometric so repeated single-split
// admissions amortize. Once a tensor is expanded it is already at its
// maximum partition, so only shrinking is legal.
func (t *Sparse) SetSliceCount(iDim, cSlices int) error {
	d := &t.dims[iDim]
	if len(d.splits)+1 < cSlices {
		cSplits := cSlices - 1
		if addOverflows(cSplits, cSplits>>1) {
			return errors.Wrap(errors.ErrOutOfMemory, "tensor.SetSliceCount split capacity")
		}
		newCapacity := cSplits + cSplits>>1
		log.GetLoggerWithName("tensor").Debug("growing split buffer", "capacity", newCapacity)
		grown := make([]int, newCapacity)
		copy(grown, d.splits)
		d.splits = grown
	}
	d.sliceCount = cSlices
	return nil
}

// ensureScoreCapacity grows the score buffer to hold at least cTensorScores
// floats. The buffer may move; existing contents are preserved.
func (t *Sparse) ensureScoreCapacity(cTensorScores int) error {
	if cTensorScores <= len(t.scores) {
		return nil
	}
	newCapacity := len(t.scores)
	for newCapacity < cTensorScores {
		if mulOverflows(newCapacity, 2) {
			return errors.Wrap(errors.ErrOutOfMemory, "tensor.ensureScoreCapacity")
		}
		newCapacity *= 2
	}
	grown := make([]float64, newCapacity)
	copy(grown, t.scores)
	t.scores = grown
	return nil
}

// Copy makes the tensor an exact copy of rhs: slice counts, splits, scores
// and the expanded flag. Both tensors must share dimension and score counts.
func (t *Sparse) Copy(rhs *Sparse) error {
	if len(t.dims) != len(rhs.dims) {
		return errors.NewDimensionError("tensor.Copy", len(t.dims), len(rhs.dims), 0)
	}
	if t.scoreCount != rhs.scoreCount {
		return errors.NewValueError("tensor.Copy", "score counts differ")
	}

	cTensorScores := t.scoreCount
	for i := range rhs.dims {
		cSlices := rhs.dims[i].sliceCount
		cTensorScores *= cSlices
		if err := t.SetSliceCount(i, cSlices); err != nil {
			return err
		}
		copy(t.dims[i].splits, rhs.dims[i].splits[:cSlices-1])
	}
	if err := t.ensureScoreCapacity(cTensorScores); err != nil {
		return err
	}
	copy(t.scores, rhs.scores[:cTensorScores])
	t.expanded = rhs.expanded
	return nil
}

// MultiplyAndCheckForIssues multiplies every live score by v in place. It
// reports whether any product came out NaN or infinite; such products are
// still written back, since the caller replaces the tensor when the report
// comes back true.
func (t *Sparse) MultiplyAndCheckForIssues(v float64) bool {
	bad := false
	live := t.scores[:t.TensorScoreCount()]
	for i, s := range live {
		val := s * v
		if math.IsNaN(val) || math.IsInf(val, 0) {
			bad = true
		}
		live[i] = val
	}
	return bad
}

// AddExpandedWithBadValueProtection pointwise-adds from into the tensor's
// scores. The tensor must be expanded and from must hold one addend per live
// score. NaN addends count as zero, and sums saturate at the largest finite
// magnitudes instead of overflowing to infinity, so later arithmetic on the
// tensor stays finite.
func (t *Sparse) AddExpandedWithBadValueProtection(from []float64) {
	live := t.scores[:t.TensorScoreCount()]
	for i := range live {
		score := from[i]
		if math.IsNaN(score) {
			score = 0
		}
		score = live[i] + score
		// The comparisons include equality so that a fast-math build cannot
		// fold the clamp away.
		if score <= -math.MaxFloat64 {
			score = -math.MaxFloat64
		}
		if math.MaxFloat64 <= score {
			score = math.MaxFloat64
		}
		live[i] = score
	}
}

// expandStackEntry is the per-dimension cursor used by Expand.
type expandStackEntry struct {
	iSplit     int // one-past-end index into the old splits of this dimension
	iEdge      int // remaining bin coordinate in the expanded dimension
	cNewSlices int
}

// Expand rewrites the tensor so that every bin of every dimension is its own
// slice: sliceCount[d] == binCounts[d] and splits[d][k] == k+1. Scores are
// broadcast so sampling is unchanged. Idempotent once expanded.
//
// Scores are traversed from the last old cell to the first so the write
// cursor, which runs ahead through the enlarged buffer, never overtakes an
// unread source cell. A forward pass would clobber sources before reading
// them.
func (t *Sparse) Expand(binCounts []int) error {
	logger := log.GetLoggerWithName("tensor")
	logger.Trace("entered Expand")

	if t.expanded {
		logger.Trace("exited Expand")
		return nil
	}
	if len(binCounts) != len(t.dims) {
		return errors.NewDimensionError("tensor.Expand", len(t.dims), len(binCounts), 0)
	}

	if len(t.dims) != 0 {
		stack := make([]expandStackEntry, len(t.dims))
		cTensorScores1 := t.scoreCount
		cNewTensorScores := t.scoreCount
		for i := range t.dims {
			cBins := binCounts[i]
			cSlices1 := t.dims[i].sliceCount
			cTensorScores1 *= cSlices1
			if mulOverflows(cNewTensorScores, cBins) {
				return errors.Wrap(errors.ErrOutOfMemory, "tensor.Expand cell count")
			}
			cNewTensorScores *= cBins
			stack[i] = expandStackEntry{
				iSplit:     cSlices1 - 1,
				iEdge:      cBins,
				cNewSlices: cBins,
			}
		}

		// the score buffer may move here, so take it after
		if err := t.ensureScoreCapacity(cNewTensorScores); err != nil {
			return err
		}
		scores := t.scores

		src := cTensorScores1
		top := cNewTensorScores
		for {
			srcMove := src
			topEnd := top - t.scoreCount
			for topEnd != top {
				srcMove--
				top--
				scores[top] = scores[srcMove]
			}

			if top == 0 {
				// final tensor cell written
				break
			}

			mult := t.scoreCount
			for iDim := 0; ; iDim++ {
				entry := &stack[iDim]
				dim := &t.dims[iDim]
				if 0 < entry.iSplit {
					d1 := dim.splits[entry.iSplit-1]
					entry.iEdge--
					if entry.iEdge <= d1 {
						// crossed into the previous slice of this dimension
						entry.iSplit--
						src -= mult
					}
					break
				}
				if 1 < entry.iEdge {
					entry.iEdge--
					break
				}
				// leftmost slice exhausted: rewind this dimension to its last
				// slice and tick the next higher dimension
				src -= mult
				mult *= dim.sliceCount
				src += mult
				entry.iSplit = dim.sliceCount - 1
				entry.iEdge = entry.cNewSlices
			}
		}

		for i := range t.dims {
			cSlices := binCounts[i]
			if cSlices != t.dims[i].sliceCount {
				if err := t.SetSliceCount(i, cSlices); err != nil {
					return err
				}
				splits := t.dims[i].splits
				for iEdge := 1; iEdge < cSlices; iEdge++ {
					splits[iEdge-1] = iEdge
				}
			}
		}
	}
	t.expanded = true

	logger.Trace("exited Expand")
	return nil
}

// addStackEntry is the per-dimension cursor pair used by Add.
type addStackEntry struct {
	iSplit1    int // one-past-end index into this tensor's old splits
	iSplit2    int // one-past-end index into rhs's splits
	cNewSlices int
}

// Add pointwise-adds the step function rhs into the tensor. The resulting
// partition along each dimension is the sorted union of both split sets, so
// the sum samples exactly to sample(t)+sample(rhs) at every coordinate. Both
// tensors must share dimension and score counts.
//
// Like Expand, the score merge runs in reverse over the enlarged buffer;
// source offsets for both sides step by their pre-merge strides.
func (t *Sparse) Add(rhs *Sparse) error {
	if len(t.dims) != len(rhs.dims) {
		return errors.NewDimensionError("tensor.Add", len(t.dims), len(rhs.dims), 0)
	}
	if t.scoreCount != rhs.scoreCount {
		return errors.NewValueError("tensor.Add", "score counts differ")
	}

	if len(t.dims) == 0 {
		for i := 0; i < t.scoreCount; i++ {
			t.scores[i] += rhs.scores[i]
		}
		return nil
	}

	// TODO: specialize the case where both tensors are expanded - the
	// partitions already agree, so a straight pointwise add would do.

	stack := make([]addStackEntry, len(t.dims))

	cTensorScores1 := t.scoreCount
	cTensorScores2 := t.scoreCount
	cNewTensorScores := t.scoreCount

	// count the merged slices per dimension first to size the result;
	// forward order here keeps the split arrays hot for the reverse pass
	for i := range t.dims {
		cSlices1 := t.dims[i].sliceCount
		cSlices2 := rhs.dims[i].sliceCount
		splits1 := t.dims[i].splits
		splits2 := rhs.dims[i].splits

		cTensorScores1 *= cSlices1
		cTensorScores2 *= cSlices2

		n1 := cSlices1 - 1
		n2 := cSlices2 - 1
		i1, i2 := 0, 0
		cNewSingleDimensionSlices := 1
		for {
			if n2 == i2 {
				// check the shorter side first: the accumulating tensor
				// usually carries far more splits than the update
				cNewSingleDimensionSlices += n1 - i1
				break
			}
			if n1 == i1 {
				cNewSingleDimensionSlices += n2 - i2
				break
			}
			cNewSingleDimensionSlices++

			d1 := splits1[i1]
			d2 := splits2[i2]
			if d1 <= d2 {
				i1++
			}
			if d2 <= d1 {
				i2++
			}
		}
		stack[i] = addStackEntry{
			iSplit1:    n1,
			iSplit2:    n2,
			cNewSlices: cNewSingleDimensionSlices,
		}
		if mulOverflows(cNewTensorScores, cNewSingleDimensionSlices) {
			return errors.Wrap(errors.ErrOutOfMemory, "tensor.Add cell count")
		}
		cNewTensorScores *= cNewSingleDimensionSlices
	}

	// the score buffer may move here, so take it after
	if err := t.ensureScoreCapacity(cNewTensorScores); err != nil {
		return err
	}
	scores := t.scores
	rhsScores := rhs.scores

	src1 := cTensorScores1
	src2 := cTensorScores2
	top := cNewTensorScores
	for {
		src1Move := src1
		src2Move := src2
		topEnd := top - t.scoreCount
		for topEnd != top {
			src1Move--
			src2Move--
			top--
			scores[top] = scores[src1Move] + rhsScores[src2Move]
		}

		if top == 0 {
			// final tensor cell written
			break
		}

		mult1 := t.scoreCount
		mult2 := t.scoreCount
		for iDim := 0; ; iDim++ {
			entry := &stack[iDim]
			dim1 := &t.dims[iDim]
			dim2 := &rhs.dims[iDim]
			if 0 < entry.iSplit1 {
				if 0 < entry.iSplit2 {
					d1 := dim1.splits[entry.iSplit1-1]
					d2 := dim2.splits[entry.iSplit2-1]

					if d2 <= d1 {
						entry.iSplit1--
						src1 -= mult1
					}
					if d1 <= d2 {
						entry.iSplit2--
						src2 -= mult2
					}
					break
				}
				entry.iSplit1--
				src1 -= mult1
				break
			}
			if 0 < entry.iSplit2 {
				entry.iSplit2--
				src2 -= mult2
				break
			}
			// both sides exhausted this dimension: rewind to its last slice
			// and tick the next higher dimension
			src1 -= mult1
			src2 -= mult2
			mult1 *= dim1.sliceCount
			mult2 *= dim2.sliceCount
			src1 += mult1
			src2 += mult2
			entry.iSplit1 = dim1.sliceCount - 1
			entry.iSplit2 = dim2.sliceCount - 1
		}
	}

	// now merge the splits themselves, reusing the same reverse two-pointer
	// walk per dimension
	for iDim := range t.dims {
		cNewSlices := stack[iDim].cNewSlices
		cOriginalSlices := t.dims[iDim].sliceCount

		// SetSliceCount may swap the split buffer, so take it after
		if err := t.SetSliceCount(iDim, cNewSlices); err != nil {
			return err
		}
		splits1 := t.dims[iDim].splits
		splits2 := rhs.dims[iDim].splits

		i1 := cOriginalSlices - 1
		i2 := rhs.dims[iDim].sliceCount - 1
		iTop := cNewSlices - 1
		for {
			if i1 == iTop {
				// our own remaining splits are already in place
				break
			}
			if i2 == iTop {
				// rhs owns the remaining merged prefix wholesale
				copy(splits1[:iTop], splits2[:iTop])
				break
			}

			d1 := splits1[i1-1]
			d2 := splits2[i2-1]
			if d2 <= d1 {
				i1--
			}
			if d1 <= d2 {
				i2--
			}

			d := d1
			if d1 <= d2 {
				d = d2
			}
			iTop--
			splits1[iTop] = d
		}
	}
	return nil
}

// IsEqual reports whether two tensors have identical shape, splits and live
// scores.
func (t *Sparse) IsEqual(rhs *Sparse) bool {
	if len(t.dims) != len(rhs.dims) || t.scoreCount != rhs.scoreCount {
		return false
	}

	cTensorScores := t.scoreCount
	for i := range t.dims {
		cSlices := t.dims[i].sliceCount
		if cSlices != rhs.dims[i].sliceCount {
			return false
		}
		cTensorScores *= cSlices
		splits1 := t.dims[i].splits[:cSlices-1]
		splits2 := rhs.dims[i].splits[:cSlices-1]
		for j := range splits1 {
			if splits1[j] != splits2[j] {
				return false
			}
		}
	}

	for i := 0; i < cTensorScores; i++ {
		if t.scores[i] != rhs.scores[i] {
			return false
		}
	}
	return true
}

// Sample returns the score vector of the cell containing the bin coordinate
// coords. The returned slice aliases internal storage.
func (t *Sparse) Sample(coords []int) []float64 {
	offset := 0
	stride := 1
	for i := range t.dims {
		d := &t.dims[i]
		iSlice := 0
		for _, split := range d.splits[:d.sliceCount-1] {
			if coords[i] < split {
				break
			}
			iSlice++
		}
		offset += iSlice * stride
		stride *= d.sliceCount
	}
	offset *= t.scoreCount
	return t.scores[offset : offset+t.scoreCount]
}
