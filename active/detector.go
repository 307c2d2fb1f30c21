// Package active implements ActiveRegionDetector: the dynamic-thresholding
// scan over a CountProfile that finds candidate variant windows in a
// reference region, per spec.md section 4.2. There is no teacher analog
// that scans a reference count vector directly; this file is written in the
// register and control-flow style of fusion/fusion.go's
// inferCandidatePair/inferLongestCombinedSpan (explicit state machine over
// sorted slices, named local consts for thresholds, early break/continue
// cascades, no exceptions), per SPEC_FULL.md section 4.
package active

import (
	"math"

	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/kmer"
	"github.com/grailbio/kestrel/refregion"
)

// HaplotypeChecker decides whether a candidate ActiveRegion, once run
// through KmerAlignmentBuilder/KmerAligner, yields at least one non-
// wildtype haplotype. It is injected rather than imported so this package
// never depends on align/builder (they depend on active instead).
type HaplotypeChecker interface {
	HasHaplotypes(ar *ActiveRegion) bool
}

// Detector implements ActiveRegionDetector.
type Detector struct {
	opts   kestrelcfg.Opts
	weight kestrelcfg.AlignmentWeight
	lambda float64 // -log(expDecayAlpha)/K, the decay-mode recovery rate.
}

// NewDetector builds a Detector from validated configuration.
func NewDetector(opts kestrelcfg.Opts, weight kestrelcfg.AlignmentWeight) *Detector {
	w := weight.Normalize()
	lambda := 0.0
	if opts.ExpDecayMin < 1.0 {
		lambda = -math.Log(opts.ExpDecayAlpha) / float64(opts.KmerLength)
	}
	return &Detector{opts: opts, weight: w, lambda: lambda}
}

// maxGapSize and scanLimit implement spec.md section 4.2's scan-limit rule.
func (d *Detector) maxGapSize() int {
	g := (float64(d.weight.InitScore) + float64(d.weight.GapOpen)) / float64(-d.weight.GapExtend)
	if g < 0 {
		g = 0
	}
	return int(g)
}

func (d *Detector) scanLimit() int {
	k := d.opts.KmerLength
	limit := d.maxGapSize() + int(d.opts.ScanLimitFactor*float64(k))
	if limit < k {
		limit = k
	}
	return limit
}

// diffThreshold computes the effective threshold used by the main loop:
// max(minimumDifference, quantile(|delta count|, differenceQuantile)) - 1,
// per spec.md section 4.2.
func (d *Detector) diffThreshold(count []uint32) int {
	n := len(count)
	if n < 2 {
		return int(d.opts.MinimumDifference) - 1
	}
	deltas := make([]uint32, n-1)
	for i := 1; i < n; i++ {
		deltas[i-1] = absDiff(count[i-1], count[i])
	}
	sortUint32(deltas)
	q := 0.0
	if d.opts.DifferenceQuantile > 0 {
		q = quantile(deltas, d.opts.DifferenceQuantile)
	}
	threshold := float64(d.opts.MinimumDifference)
	if q > threshold {
		threshold = q
	}
	return int(threshold) - 1
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func sortUint32(s []uint32) {
	// Plain in-place insertion sort, used only by diffThreshold;
	// computeRegionStats sorts with the standard library's sort.Slice.
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

// recoveryValue computes the right-scan recovery threshold at distance d
// bases past the anchor, given the anchor-side count countL, per spec.md
// section 4.2's constant/decay mode formulas.
func (d *Detector) recoveryValue(countL uint32, dist int) float64 {
	if d.opts.ExpDecayMin >= 1.0 {
		v := float64(countL) - float64(int(d.opts.MinimumDifference))
		if v < 1 {
			v = 1
		}
		return v
	}
	floor := float64(countL) * d.opts.ExpDecayMin
	if floor < 1 {
		floor = 1
	}
	return floor + (float64(countL)-floor)*math.Exp(-float64(dist)*d.lambda)
}

// Detect runs the full main-loop/right-scan/left-scan/wildtype-emission
// algorithm over one CountProfile.
func (d *Detector) Detect(region *refregion.Region, count []uint32, check HaplotypeChecker) (*ActiveRegionContainer, Stats) {
	var stats Stats
	n := len(count)
	k := d.opts.KmerLength
	threshold := d.diffThreshold(count)
	limit := d.scanLimit()

	var regions []*ActiveRegion
	lastRegionEnd := -1
	i := 1
	for i < n {
		countL := count[i-1]
		countR := count[i]
		delta := int(countL) - int(countR)
		switch {
		case delta > threshold:
			stats.RegionsScanned++
			ar, next, accepted, reason := d.tryRightScan(region, count, i, countL, threshold, limit, k, check)
			if accepted {
				regions = append(regions, ar)
				lastRegionEnd = ar.EndKmerIndex
				stats.RegionsAccepted++
				i = next
				continue
			}
			recordRejection(&stats, reason)
			i++
		case delta < -threshold:
			stats.RegionsScanned++
			ar, next, accepted, reason := d.tryLeftScan(region, count, i, countR, threshold, limit, k, lastRegionEnd, check)
			if accepted {
				regions = append(regions, ar)
				lastRegionEnd = ar.EndKmerIndex
				stats.RegionsAccepted++
				i = next
				continue
			}
			recordRejection(&stats, reason)
			i++
		default:
			i++
		}
	}

	if d.opts.EmitWildtypeActiveRegions {
		regions = d.emitWildtype(region, count, regions, k, &stats)
	}

	return &ActiveRegionContainer{RefRegion: region, Regions: regions, Count: count}, stats
}

type rejectReason int

const (
	rejectNone rejectReason = iota
	rejectTooShort
	rejectAmbiguous
	rejectNoHaplotype
	rejectAnchor
)

func recordRejection(stats *Stats, reason rejectReason) {
	switch reason {
	case rejectTooShort:
		stats.RegionsRejectedTooShort++
	case rejectAmbiguous:
		stats.RegionsRejectedAmbiguous++
	case rejectNoHaplotype:
		stats.RegionsRejectedNoHaplotype++
	case rejectAnchor:
		stats.RegionsRejectedAnchor++
	}
}

// regionKmer reconstructs the actual k-mer bytes at a CountProfile index
// from the region's normalized sequence; CountProfile only stores counts, so
// anchor k-mer values must be re-derived from the backing sequence.
func regionKmer(region *refregion.Region, idx, k int) (kmer.Kmer, bool) {
	if idx < 0 || idx+k > len(region.Sequence) {
		return 0, false
	}
	km := kmer.FromBytes(region.Sequence[idx : idx+k])
	return km, km != kmer.Invalid
}

// finishRegion applies the shared acceptance checks (spec.md section 4.2
// "Region completion"): minimum length, ambiguous-base policy, and the
// haplotype-production check delegated to the injected HaplotypeChecker.
func (d *Detector) finishRegion(region *refregion.Region, ar *ActiveRegion, count []uint32, check HaplotypeChecker) (bool, rejectReason) {
	if ar.Len() < d.opts.KmerLength-1 {
		return false, rejectTooShort
	}
	if !d.opts.CallAmbiguousRegions {
		byteStart := ar.StartKmerIndex
		byteEnd := ar.EndKmerIndex + d.opts.KmerLength
		if region.Ambiguous.Overlaps(byteStart, byteEnd) {
			return false, rejectAmbiguous
		}
	}
	ar.Stats = computeRegionStats(count, ar.StartKmerIndex, ar.EndKmerIndex+1)
	if check != nil && !check.HasHaplotypes(ar) {
		return false, rejectNoHaplotype
	}
	return true, rejectNone
}

// tryRightScan implements the right-scan branch of the main loop (spec.md
// section 4.2). i is the main-loop position whose delta exceeded the
// threshold; the anchor is the k-mer ending at i-1, i.e. StartKmerIndex =
// i-1.
func (d *Detector) tryRightScan(region *refregion.Region, count []uint32, i int, countL uint32, threshold, limit, k int, check HaplotypeChecker) (*ActiveRegion, int, bool, rejectReason) {
	n := len(count)
	j, recovered, abortedIdx, wasAborted := d.scanRight(count, i, countL, limit, k)
	if wasAborted {
		return nil, abortedIdx + 1, false, rejectNone
	}
	if recovered {
		startAnchor, hasStart := regionKmer(region, i-1, k)
		endAnchor, hasEnd := regionKmer(region, j, k)
		ar := &ActiveRegion{
			Region:         region,
			StartKmerIndex: i - 1,
			EndKmerIndex:   j,
			LeftAnchor:     startAnchor,
			HasLeftAnchor:  hasStart,
			RightAnchor:    endAnchor,
			HasRightAnchor: hasEnd,
		}
		ok, reason := d.finishRegion(region, ar, count, check)
		if !ok {
			return nil, i + 1, false, reason
		}
		return ar, j + 1, true, rejectNone
	}

	// Scan reached n without recovery: attempt recoverRightAnchor.
	if !d.opts.RecoverRightAnchor {
		if d.opts.AnchorBothEnds {
			return nil, i + 1, false, rejectAnchor
		}
		return d.buildRightOpenRegion(region, count, i, n, k, check)
	}
	_, found := d.findSharpRisingEdge(count, i+k, threshold)
	runLength := n - i
	if !found && (d.opts.AnchorBothEnds || runLength > limit) {
		return nil, i + 1, false, rejectAnchor
	}
	return d.buildRightOpenRegion(region, count, i, n, k, check)
}

func (d *Detector) buildRightOpenRegion(region *refregion.Region, count []uint32, i, n, k int, check HaplotypeChecker) (*ActiveRegion, int, bool, rejectReason) {
	startAnchor, hasStart := regionKmer(region, i-1, k)
	ar := &ActiveRegion{
		Region:         region,
		StartKmerIndex: i - 1,
		EndKmerIndex:   n - 1,
		RightEnd:       true,
		LeftAnchor:     startAnchor,
		HasLeftAnchor:  hasStart,
	}
	ok, reason := d.finishRegion(region, ar, count, check)
	if !ok {
		return nil, n, false, reason
	}
	return ar, n, true, rejectNone
}

// scanRight extends j from i+1 while count[j] stays below the recovery
// threshold, applying peak detection (spec.md section 4.2). It returns the
// recovered index (recovered=true) or reports that the scan ran off the end
// (recovered=false, wasAborted=false) or was abandoned mid-scan because it
// passed the scan limit or because of excessive peaking (wasAborted=true,
// abortedIdx is the scan's start index i; the main loop resumes just past
// it).
func (d *Detector) scanRight(count []uint32, i int, countL uint32, limit, k int) (j int, recovered bool, abortedIdx int, wasAborted bool) {
	n := len(count)
	peaks := 0
	firstPeak, lastPeak := -1, -1
	lowRun := 0
	lastValley := -1
	j = i + 1
	for j < n {
		if j-i > limit {
			return j, false, i, true
		}
		if float64(count[j]) < d.recoveryValue(countL, j-i) {
			lowRun++
			j++
			continue
		}
		if lowRun >= k {
			lastValley = j - 1
		}
		lowRun = 0
		if d.opts.PeakScanLength <= 0 {
			return j, true, 0, false
		}
		peekLimit := j + d.opts.PeakScanLength
		if peekLimit > n {
			peekLimit = n
		}
		isPeak := false
		for p := j + 1; p < peekLimit; p++ {
			if float64(count[p]) < d.recoveryValue(countL, p-i) {
				isPeak = true
				j = p
				break
			}
		}
		if !isPeak {
			return j, true, 0, false
		}
		peaks++
		if firstPeak < 0 {
			firstPeak = j
		}
		lastPeak = j
		if peaks > 3 {
			spacing := float64(lastPeak-firstPeak) / float64(peaks-1)
			if spacing < float64(k) {
				if lastValley >= 0 {
					return lastValley, true, 0, false
				}
				return i, false, i, true
			}
		}
	}
	return n, false, 0, false
}

// findSharpRisingEdge searches forward from start for the first index j
// where count[j]-count[j-1] > threshold, the recoverRightAnchor fallback of
// spec.md section 4.2.
func (d *Detector) findSharpRisingEdge(count []uint32, start, threshold int) (int, bool) {
	n := len(count)
	for j := start; j < n; j++ {
		if j == 0 {
			continue
		}
		if int(count[j])-int(count[j-1]) > threshold {
			return j, true
		}
	}
	return 0, false
}

// tryLeftScan implements the left-scan branch (spec.md section 4.2),
// symmetric to tryRightScan: the anchor k-mer is at i, and the scan moves j
// leftward from i-1 against countR.
func (d *Detector) tryLeftScan(region *refregion.Region, count []uint32, i int, countR uint32, threshold, limit, k, lastRegionEnd int, check HaplotypeChecker) (*ActiveRegion, int, bool, rejectReason) {
	// Mirror peak check starting at i+1: if a peak is detected immediately
	// to the right of the anchor, the left-scan is skipped entirely (the
	// apparent drop was itself a peak artifact).
	if d.opts.PeakScanLength > 0 {
		peekLimit := i + 1 + d.opts.PeakScanLength
		if peekLimit > len(count) {
			peekLimit = len(count)
		}
		for p := i + 1; p < peekLimit; p++ {
			if float64(count[p]) < d.recoveryValue(countR, p-i) {
				return nil, i + 1, false, rejectNone
			}
		}
	}

	j, recovered := d.scanLeft(count, i, countR, limit, k, lastRegionEnd)
	if recovered {
		endAnchor, hasEnd := regionKmer(region, i, k)
		startAnchor, hasStart := regionKmer(region, j+1, k)
		ar := &ActiveRegion{
			Region:         region,
			StartKmerIndex: j + 1,
			EndKmerIndex:   i,
			LeftAnchor:     startAnchor,
			HasLeftAnchor:  hasStart,
			RightAnchor:    endAnchor,
			HasRightAnchor: hasEnd,
		}
		ok, reason := d.finishRegion(region, ar, count, check)
		if !ok {
			return nil, i + 1, false, reason
		}
		return ar, i + 1, true, rejectNone
	}

	// Stopped by the scan limit before reaching the left end or
	// lastRegionEnd: the scan is abandoned.
	if j > lastRegionEnd {
		return nil, i + 1, false, rejectNone
	}

	// Ran off the left end (j == -1) or hit lastRegionEnd: try
	// recoverRightAnchor (reused for left-anchor recovery per spec.md).
	if d.opts.RecoverRightAnchor && i > limit {
		// A full symmetric recovery pass is not attempted here; spec.md
		// leaves the exact left-side recovery search underspecified, so we
		// fall through to the same anchorBothEnds policy below (Open
		// Question, see DESIGN.md).
	}
	if d.opts.AnchorBothEnds {
		return nil, i + 1, false, rejectAnchor
	}
	endAnchor, hasEnd := regionKmer(region, i, k)
	start := lastRegionEnd + 1
	if start < 0 {
		start = 0
	}
	ar := &ActiveRegion{
		Region:         region,
		StartKmerIndex: start,
		EndKmerIndex:   i,
		LeftEnd:        true,
		RightAnchor:    endAnchor,
		HasRightAnchor: hasEnd,
	}
	ok, reason := d.finishRegion(region, ar, count, check)
	if !ok {
		return nil, i + 1, false, reason
	}
	return ar, i + 1, true, rejectNone
}

func (d *Detector) scanLeft(count []uint32, i int, countR uint32, limit, k, lastRegionEnd int) (j int, recovered bool) {
	lowRun := 0
	j = i - 1
	for j > lastRegionEnd {
		if i-j > limit {
			return j, false
		}
		if float64(count[j]) < d.recoveryValue(countR, i-j) {
			lowRun++
			j--
			continue
		}
		return j, true
	}
	return j, false
}

// emitWildtype fills inter-region gaps of at least K-1 count-vector
// positions with no-variant ActiveRegions, per spec.md section 4.2's
// "Wildtype emission."
func (d *Detector) emitWildtype(region *refregion.Region, count []uint32, regions []*ActiveRegion, k int, stats *Stats) []*ActiveRegion {
	n := len(count)
	var out []*ActiveRegion
	cursor := 0
	appendGap := func(lo, hi int) {
		if hi-lo+1 < k-1 {
			return
		}
		leftAnchor, hasLeft := regionKmer(region, lo, k)
		rightAnchor, hasRight := regionKmer(region, hi, k)
		ar := &ActiveRegion{
			Region:         region,
			StartKmerIndex: lo,
			EndKmerIndex:   hi,
			LeftAnchor:     leftAnchor,
			HasLeftAnchor:  hasLeft,
			RightAnchor:    rightAnchor,
			HasRightAnchor: hasRight,
			Stats:          computeRegionStats(count, lo, hi+1),
		}
		out = append(out, ar)
		stats.WildtypeRegionsEmitted++
	}
	for _, r := range regions {
		if r.StartKmerIndex > cursor {
			appendGap(cursor, r.StartKmerIndex-1)
		}
		out = append(out, r)
		cursor = r.EndKmerIndex + 1
	}
	if cursor < n {
		appendGap(cursor, n-1)
	}
	return out
}
