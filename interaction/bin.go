package interaction

import "github.com/ezoic/glassbox/core/histogram"

// BinInteraction fills the arena's main zone from the dataset: every sample
// lands in the bucket addressed by its bin tuple, accumulating count, weight
// and the per-score gradient sums (plus hessians for classification). The
// arena must already be sized and zeroed for the group.
func BinInteraction(a *histogram.Arena, group *FeatureGroup, ds *DataSet) {
	for iSample := 0; iSample < ds.sampleCount; iSample++ {
		iBucket := 0
		stride := 1
		for iDim, iFeature := range group.Indexes {
			iBucket += ds.binCodes[iFeature][iSample] * stride
			stride *= group.Refs[iDim].BinCount
		}
		a.Accumulate(iBucket, ds.weight(iSample),
			ds.sampleGradients(iSample), ds.sampleHessians(iSample))
	}
}
