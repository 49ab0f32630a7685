// Package histogram provides the flat bucket arena that interaction queries
// aggregate gradients into, plus the cumulative-totals transform that turns
// per-cell aggregates into corner prefix sums.
//
// A bucket is a fixed-length run of float64s: sample count, total weight,
// then one gradient (and for classification one hessian) per score. All
// buckets live in a single slab addressed by stride, with a trailing
// auxiliary zone that the partitioner uses as scratch. The totals transform
// works in place on the main zone and does not touch the auxiliary zone.
package histogram

import (
	"github.com/ezoic/glassbox/pkg/errors"
)

// Task selects the bucket shape and arithmetic for a query: classification
// buckets carry a hessian per score, regression buckets do not. This is the
// only dispatch between the two layouts.
type Task struct {
	Classification bool
	ScoreCount     int
}

// NewRegressionTask returns the task descriptor for regression targets.
func NewRegressionTask() Task {
	return Task{Classification: false, ScoreCount: 1}
}

// NewClassificationTask returns the task descriptor for a classification
// target with the given number of classes. Binary targets use a single
// score.
func NewClassificationTask(classCount int) Task {
	scoreCount := classCount
	if classCount == 2 {
		scoreCount = 1
	}
	return Task{Classification: true, ScoreCount: scoreCount}
}

// bucket field offsets
const (
	idxCount  = 0
	idxWeight = 1
	header    = 2
)

// auxBucketsForSplitting is the scratch bucket count the two-dimensional
// partitioner needs for its quadrant totals.
const auxBucketsForSplitting = 4

// FloatsPerBucket returns the bucket stride for the task.
func (t Task) FloatsPerBucket() int {
	if t.Classification {
		return header + 2*t.ScoreCount
	}
	return header + t.ScoreCount
}

// GradIndex returns the offset of the gradient sum for a score within a
// bucket.
func (t Task) GradIndex(iScore int) int {
	if t.Classification {
		return header + 2*iScore
	}
	return header + iScore
}

// HessIndex returns the offset of the hessian sum for a score within a
// classification bucket.
func (t Task) HessIndex(iScore int) int {
	return header + 2*iScore + 1
}

// SizeArena computes the bucket layout for a feature group with the given
// per-dimension bin counts: the per-bucket stride, the main-zone bucket
// count (product of bin counts) and the total including the auxiliary zone.
// The auxiliary zone holds max(4, sum of the prefix products of the bin
// counts); the partitioner uses its first 4 buckets as quadrant scratch and
// TotalsBuild, which works in place, uses none of it. Any sizing overflow reports
// ErrOutOfMemory, since the allocation it guards could never be satisfied.
func SizeArena(binCounts []int, task Task) (floatsPerBucket, mainBuckets, totalBuckets int, err error) {
	auxForBuildFastTotals := 0
	mainBuckets = 1
	for _, cBins := range binCounts {
		// one-bin features are filtered upstream; cBins >= 2 keeps
		// auxForBuildFastTotals strictly below mainBuckets so the additions
		// here cannot overflow before the multiplication check catches it
		auxForBuildFastTotals += mainBuckets
		if mulOverflows(mainBuckets, cBins) {
			return 0, 0, 0, errors.Wrap(errors.ErrOutOfMemory, "histogram.SizeArena main buckets")
		}
		mainBuckets *= cBins
	}

	auxBuckets := auxForBuildFastTotals
	if auxBuckets < auxBucketsForSplitting {
		auxBuckets = auxBucketsForSplitting
	}
	if addOverflows(mainBuckets, auxBuckets) {
		return 0, 0, 0, errors.Wrap(errors.ErrOutOfMemory, "histogram.SizeArena total buckets")
	}
	totalBuckets = mainBuckets + auxBuckets

	floatsPerBucket = task.FloatsPerBucket()
	if mulOverflows(floatsPerBucket, totalBuckets) {
		return 0, 0, 0, errors.Wrap(errors.ErrOutOfMemory, "histogram.SizeArena buffer size")
	}
	return floatsPerBucket, mainBuckets, totalBuckets, nil
}

// Arena is the flat bucket buffer for one interaction query. The slab is
// monotone: Size never shrinks it, so a shell can reuse one arena across
// queries without churning allocations.
type Arena struct {
	task            Task
	floatsPerBucket int
	mainBuckets     int
	totalBuckets    int
	slab            []float64
}

// Size lays the arena out for a feature group and zeroes the active
// region. Previous contents are scratch by definition and are discarded.
func (a *Arena) Size(binCounts []int, task Task) error {
	floatsPerBucket, mainBuckets, totalBuckets, err := SizeArena(binCounts, task)
	if err != nil {
		return err
	}
	needed := floatsPerBucket * totalBuckets
	if len(a.slab) < needed {
		a.slab = make([]float64, needed)
	} else {
		active := a.slab[:needed]
		for i := range active {
			active[i] = 0
		}
	}
	a.task = task
	a.floatsPerBucket = floatsPerBucket
	a.mainBuckets = mainBuckets
	a.totalBuckets = totalBuckets
	return nil
}

// Task returns the task descriptor the arena was sized for.
func (a *Arena) Task() Task { return a.task }

// MainBuckets returns the main-zone bucket count.
func (a *Arena) MainBuckets() int { return a.mainBuckets }

// TotalBuckets returns the bucket count including the auxiliary zone.
func (a *Arena) TotalBuckets() int { return a.totalBuckets }

// Bucket returns the i'th bucket's floats. The slice aliases the slab.
func (a *Arena) Bucket(i int) []float64 {
	base := i * a.floatsPerBucket
	return a.slab[base : base+a.floatsPerBucket]
}

// AuxBucket returns the j'th bucket of the auxiliary zone.
func (a *Arena) AuxBucket(j int) []float64 {
	return a.Bucket(a.mainBuckets + j)
}

// Count returns the sample count of bucket i. Counts are stored as floats
// so one slab serves both bucket layouts; they stay exact far beyond any
// realistic sample count.
func (a *Arena) Count(i int) float64 { return a.Bucket(i)[idxCount] }

// Weight returns the total sample weight of bucket i.
func (a *Arena) Weight(i int) float64 { return a.Bucket(i)[idxWeight] }

// Accumulate adds one sample's statistics into bucket i. hessians may be nil
// for regression tasks.
func (a *Arena) Accumulate(i int, weight float64, grads, hessians []float64) {
	b := a.Bucket(i)
	b[idxCount]++
	b[idxWeight] += weight
	t := a.task
	for iScore := 0; iScore < t.ScoreCount; iScore++ {
		b[t.GradIndex(iScore)] += grads[iScore] * weight
		if t.Classification {
			b[t.HessIndex(iScore)] += hessians[iScore] * weight
		}
	}
}

// CopyBucket overwrites bucket dst with bucket src.
func (a *Arena) CopyBucket(dst, src int) {
	copy(a.Bucket(dst), a.Bucket(src))
}

// AddBucket adds bucket src into bucket dst field by field.
func (a *Arena) AddBucket(dst, src int) {
	d, s := a.Bucket(dst), a.Bucket(src)
	for i := range d {
		d[i] += s[i]
	}
}

// SubBucket subtracts bucket src from bucket dst field by field.
func (a *Arena) SubBucket(dst, src int) {
	d, s := a.Bucket(dst), a.Bucket(src)
	for i := range d {
		d[i] -= s[i]
	}
}

// ZeroBucket clears bucket i.
func (a *Arena) ZeroBucket(i int) {
	b := a.Bucket(i)
	for i := range b {
		b[i] = 0
	}
}
