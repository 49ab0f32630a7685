package interaction

import "github.com/ezoic/glassbox/core/histogram"

// aux bucket roles during the two-dimensional sweep
const (
	auxLowLow = iota
	auxHighLow
	auxLowHigh
	auxHighHigh
)

// calcPartialGain is the per-region gain contribution of one score: the
// squared gradient sum over the region weight. No guard against zero or
// pathological weights: overflows surface as infinities and are classified
// by the caller.
func calcPartialGain(sumGrad, sumWeight float64) float64 {
	return sumGrad / sumWeight * sumGrad
}

// PartitionTwoDimensionalInteraction sweeps every cut pair of a
// two-dimensional feature group and returns the best raw gain. The arena
// must hold corner prefix sums (TotalsBuild) for the group; the auxiliary
// zone is used as quadrant scratch. A cut pair is legal when each of its
// four quadrants holds at least minSamplesLeaf samples; with no legal pair
// the raw gain is zero.
//
// With OptionsPure the parent partial gain is subtracted at the end, which
// by design can push the result substantially negative when no legal cut
// existed. NaN and infinities likewise pass through; classification is the
// scorer's job.
func PartitionTwoDimensionalInteraction(a *histogram.Arena, group *FeatureGroup,
	options Options, minSamplesLeaf int) float64 {

	task := a.Task()
	binsX := group.Refs[0].BinCount
	binsY := group.Refs[1].BinCount

	bestGain := 0.0
	for cutX := 0; cutX < binsX-1; cutX++ {
		for cutY := 0; cutY < binsY-1; cutY++ {
			histogram.TotalsSum2(a, binsX, 0, cutX, 0, cutY, auxLowLow)
			histogram.TotalsSum2(a, binsX, cutX+1, binsX-1, 0, cutY, auxHighLow)
			histogram.TotalsSum2(a, binsX, 0, cutX, cutY+1, binsY-1, auxLowHigh)
			histogram.TotalsSum2(a, binsX, cutX+1, binsX-1, cutY+1, binsY-1, auxHighHigh)

			legal := true
			for iAux := auxLowLow; iAux <= auxHighHigh; iAux++ {
				if a.Count(a.MainBuckets()+iAux) < float64(minSamplesLeaf) {
					legal = false
					break
				}
			}
			if !legal {
				continue
			}

			gain := 0.0
			for iAux := auxLowLow; iAux <= auxHighHigh; iAux++ {
				quadrant := a.Bucket(a.MainBuckets() + iAux)
				weight := a.Weight(a.MainBuckets() + iAux)
				for iScore := 0; iScore < task.ScoreCount; iScore++ {
					gain += calcPartialGain(quadrant[task.GradIndex(iScore)], weight)
				}
			}
			if bestGain < gain {
				bestGain = gain
			}
		}
	}

	if options&OptionsPure != 0 {
		// the last corner holds the full-grid totals
		iParent := binsX*binsY - 1
		parent := a.Bucket(iParent)
		parentWeight := a.Weight(iParent)
		for iScore := 0; iScore < task.ScoreCount; iScore++ {
			bestGain -= calcPartialGain(parent[task.GradIndex(iScore)], parentWeight)
		}
	}
	return bestGain
}
