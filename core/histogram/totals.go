package histogram

// TotalsBuild rewrites the arena's main zone in place from per-cell
// aggregates into inclusive corner prefix sums: after the call, bucket
// (i0,...,iD-1) holds the total over every cell (j0,...,jD-1) with jd <= id
// in all dimensions. Range totals then come out of constant-time
// inclusion-exclusion over at most 2^D corners.
//
// One ascending sweep per dimension suffices: adding bucket[i-stride] into
// bucket[i] folds that dimension's prefix in, and ascending order guarantees
// the source cell has already been folded.
func TotalsBuild(a *Arena, binCounts []int) {
	stride := 1
	for _, cBins := range binCounts {
		for i := 0; i < a.mainBuckets; i++ {
			if (i/stride)%cBins != 0 {
				a.AddBucket(i, i-stride)
			}
		}
		stride *= cBins
	}
}

// TotalsSum2 writes the total of the rectangular cell range
// [x1,x2] x [y1,y2] (inclusive bin coordinates, -1 allowed as an empty lower
// corner) into the auxiliary bucket iAux, reading corner prefix sums
// produced by TotalsBuild. binCountX is the stride of the y coordinate.
func TotalsSum2(a *Arena, binCountX int, x1, x2, y1, y2, iAux int) {
	dst := a.mainBuckets + iAux
	a.CopyBucket(dst, x2+y2*binCountX)
	if 0 <= x1-1 {
		a.SubBucket(dst, (x1-1)+y2*binCountX)
	}
	if 0 <= y1-1 {
		a.SubBucket(dst, x2+(y1-1)*binCountX)
	}
	if 0 <= x1-1 && 0 <= y1-1 {
		a.AddBucket(dst, (x1-1)+(y1-1)*binCountX)
	}
}
