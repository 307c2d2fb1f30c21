package refregion

import "sort"

// AmbiguousIndex is an overlap-query-only index over the disjoint ranges of
// ambiguous (non-ACGT IUPAC) bytes in a normalized reference sequence. It is
// built once per ReferenceRegion and is immutable thereafter.
//
// Internally this is the same sorted-endpoints representation used by
// interval.EndpointIndex/UnionScanner for BED interval-unions: a flat,
// increasing []int of interval boundaries, where index parity tells you
// whether a position is inside or outside the union. We re-derive the
// (smaller, purpose-built) overlap predicate here rather than depending on
// the BED-oriented interval package, since all we need is "does [s, e)
// overlap any ambiguous range" -- not general interval-union arithmetic.
type AmbiguousIndex struct {
	// endpoints holds alternating start/end boundaries of disjoint, sorted,
	// half-open ambiguous ranges: [endpoints[0], endpoints[1]),
	// [endpoints[2], endpoints[3]), ...
	endpoints []int
}

// BuildAmbiguousIndex scans normalized sequence seq and records the disjoint
// maximal runs of ambiguous bytes.
func BuildAmbiguousIndex(seq []byte) AmbiguousIndex {
	var endpoints []int
	i := 0
	for i < len(seq) {
		if !IsAmbiguous(Base(seq[i])) {
			i++
			continue
		}
		start := i
		for i < len(seq) && IsAmbiguous(Base(seq[i])) {
			i++
		}
		endpoints = append(endpoints, start, i)
	}
	return AmbiguousIndex{endpoints: endpoints}
}

// Overlaps reports whether the half-open range [start, end) intersects any
// ambiguous range recorded in the index.
func (idx AmbiguousIndex) Overlaps(start, end int) bool {
	if start >= end || len(idx.endpoints) == 0 {
		return false
	}
	// Find the first range whose end exceeds start: that's the only candidate
	// range that could overlap [start, end), since ranges are sorted and
	// disjoint.
	i := sort.Search(len(idx.endpoints)/2, func(i int) bool {
		return idx.endpoints[2*i+1] > start
	})
	if i >= len(idx.endpoints)/2 {
		return false
	}
	rangeStart := idx.endpoints[2*i]
	return rangeStart < end
}

// Empty reports whether the index contains no ambiguous ranges at all.
func (idx AmbiguousIndex) Empty() bool { return len(idx.endpoints) == 0 }
