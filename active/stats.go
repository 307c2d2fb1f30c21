package active

import "sort"

// Stats tallies scan-level counters across a driver invocation: regions
// scanned/accepted/rejected by reason, and wildtype regions emitted. Field
// layout and the Merge method follow fusion/stats.go's Stats/Merge pattern
// (plain counter fields, a Merge that adds field by field).
type Stats struct {
	RegionsScanned          int
	RegionsAccepted         int
	RegionsRejectedTooShort int
	RegionsRejectedAmbiguous int
	RegionsRejectedNoHaplotype int
	RegionsRejectedAnchor    int
	PeaksAbandoned           int
	WildtypeRegionsEmitted   int
}

// Merge adds the field values of the two Stats objects and returns the sum.
func (s Stats) Merge(o Stats) Stats {
	s.RegionsScanned += o.RegionsScanned
	s.RegionsAccepted += o.RegionsAccepted
	s.RegionsRejectedTooShort += o.RegionsRejectedTooShort
	s.RegionsRejectedAmbiguous += o.RegionsRejectedAmbiguous
	s.RegionsRejectedNoHaplotype += o.RegionsRejectedNoHaplotype
	s.RegionsRejectedAnchor += o.RegionsRejectedAnchor
	s.PeaksAbandoned += o.PeaksAbandoned
	s.WildtypeRegionsEmitted += o.WildtypeRegionsEmitted
	return s
}

// RegionStats summarizes a count-vector window: min, quartiles, max, and
// sample size, per spec.md section 3's ActiveRegion.RegionStats field.
type RegionStats struct {
	Min, P25, P50, P75, Max uint32
	N                       int
}

// computeRegionStats computes the five-number summary of count[lo:hi].
func computeRegionStats(count []uint32, lo, hi int) RegionStats {
	n := hi - lo
	if n <= 0 {
		return RegionStats{}
	}
	sorted := make([]uint32, n)
	copy(sorted, count[lo:hi])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return RegionStats{
		Min: sorted[0],
		P25: uint32(quantile(sorted, 0.25)),
		P50: uint32(quantile(sorted, 0.50)),
		P75: uint32(quantile(sorted, 0.75)),
		Max: sorted[n-1],
		N:   n,
	}
}

// quantile interpolates the q-th quantile (0<=q<=1) of an ascending-sorted
// slice, per spec.md section 4.2's rule: "the quantile index is
// floor((N-2)*q) with linear interpolation to the next index," where N is
// the count-vector length, so the difference vector holds N-1 entries. The
// index is therefore (len(sorted)-1)*q, which also yields the usual
// percentiles when the same helper computes RegionStats.
func quantile(sorted []uint32, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return float64(sorted[0])
	}
	idx := float64(n-1) * q
	if idx < 0 {
		idx = 0
	}
	lo := int(idx)
	if lo >= n-1 {
		return float64(sorted[n-1])
	}
	frac := idx - float64(lo)
	return float64(sorted[lo])*(1-frac) + float64(sorted[lo+1])*frac
}
