package haplotype

import (
	"sort"

	"github.com/grailbio/kestrel/align"
)

// rankOf implements spec.md section 4.3's canonical ordering: "mismatch <
// ref-gap < consensus-gap < match" at the first differing position.
func rankOf(t align.OpType) int {
	switch t {
	case align.OpMismatch:
		return 0
	case align.OpGapRef:
		return 1
	case align.OpGapCon:
		return 2
	case align.OpMatch:
		return 3
	default:
		return 4
	}
}

// compareAlignChains orders two run-length-encoded alignment paths by
// spec.md's canonical rule, walking both chains in lock-step (a merge over
// run boundaries, since the two chains may split their runs at different
// positions even when otherwise identical). Returns <0 if a sorts before b,
// 0 if identical, >0 otherwise. A chain that ends before the other (all
// shared runs equal) sorts first, matching fusion.go's sort-callback
// convention of ordering the shorter/simpler record first.
func compareAlignChains(a, b *align.AlignNode) int {
	pa, pb := a, b
	var ra, rb uint32
	if pa != nil {
		ra = pa.N
	}
	if pb != nil {
		rb = pb.N
	}
	for {
		if pa == nil && pb == nil {
			return 0
		}
		if pa == nil {
			return -1
		}
		if pb == nil {
			return 1
		}
		if pa.Type != pb.Type {
			return rankOf(pa.Type) - rankOf(pb.Type)
		}
		step := ra
		if rb < step {
			step = rb
		}
		ra -= step
		rb -= step
		if ra == 0 {
			pa = pa.Next
			if pa != nil {
				ra = pa.N
			}
		}
		if rb == 0 {
			pb = pb.Next
			if pb != nil {
				rb = pb.N
			}
		}
	}
}

// sortCanonical sorts the tied alignment paths in place so the first entry
// is the canonical alignment, per spec.md section 4.3.
func sortCanonical(aligns []*align.AlignNode) {
	sort.SliceStable(aligns, func(i, j int) bool {
		return compareAlignChains(aligns[i], aligns[j]) < 0
	})
}
