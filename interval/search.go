package interval

import "sort"

// searchEnds returns the index of the first interval in ivs whose End is >=
// pos, or len(ivs) if there is none.  Since ivs is sorted and disjoint, this
// is the only interval which can contain pos, or the one immediately after it.
func searchEnds(ivs []Interval, pos PosType) int {
	return sort.Search(len(ivs), func(i int) bool { return ivs[i].End >= pos })
}

// expsearchEnds is the forward-iteration counterpart of searchEnds.  It checks
// ivs[idx], then ivs[idx + 1], then ivs[idx + 3], then ivs[idx + 7], etc.,
// and finishes with binary search once it has either found an interval ending
// at or after pos or hit the end of the slice.  The result is never smaller
// than idx.
//
// Most records in a position-sorted scan either stay on the current interval
// or move to the next one, so this is almost always a single comparison.
func expsearchEnds(ivs []Interval, pos PosType, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(ivs)
	for idx < endIdx {
		if ivs[idx].End >= pos {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	// This is really just an inlined sort.Search call.  We spell it out since
	// startIdx is usually equal to endIdx.
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if ivs[midIdx].End >= pos {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}
