// Package haplotype materializes align.AlignmentResult values into
// Haplotype records: trimmed, canonically ordered, immutable views over one
// candidate consensus sequence, per spec.md section 3's Haplotype and
// SPEC_FULL.md section 4's grounding note on fusion/fragment.go.
package haplotype

import (
	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/align"
)

// Haplotype is an immutable record over one candidate consensus sequence:
// its canonically oriented bytes, the active region it was built from, every
// tied alignment path (sorted), the canonical (lowest-sort-key) alignment,
// and the score it peaked at. It carries no region stats over the
// haplotype's own k-mers.
//
// Mirrors fusion/fragment.go's Fragment: a plain immutable record over a
// byte sequence plus derived views, with no behavior beyond accessors.
type Haplotype struct {
	Consensus  []byte
	Region     *active.ActiveRegion
	Alignments []*align.AlignNode
	Canonical  *align.AlignNode
	Score      int32
}

// Materialize converts one align.AlignmentResult into a Haplotype, applying
// the trimming check (spec.md section 4.3: drop results whose consensus
// tail doesn't close on the region's far anchor k-mer, unless that end is
// open) and canonical ordering of the tied alignment paths. It returns
// ok=false if the result should be dropped by the trimming check.
func Materialize(ar *active.ActiveRegion, result align.AlignmentResult, k int) (Haplotype, bool) {
	if !trimOK(ar, result.Consensus, k) {
		return Haplotype{}, false
	}
	consensus := result.Consensus
	aligns := append([]*align.AlignNode(nil), result.Alignments...)
	if ar.LeftEnd {
		// Builder walked in reverse from the right anchor, so both the
		// consensus bytes and the alignment chains are in reversed reference
		// orientation; flip both back to forward before sorting/variant
		// calling, which assume refIndex/conIndex advance left to right.
		consensus = reverseBytes(result.Consensus)
		for i, n := range aligns {
			aligns[i] = reverseChain(n)
		}
	}
	sortCanonical(aligns)
	var canonical *align.AlignNode
	if len(aligns) > 0 {
		canonical = aligns[0]
	}
	return Haplotype{
		Consensus:  consensus,
		Region:     ar,
		Alignments: aligns,
		Canonical:  canonical,
		Score:      result.Score,
	}, true
}

// trimOK applies spec.md section 4.3's haplotype-trimming rule: unless the
// far end of the region is itself open (leftEnd/rightEnd), the consensus's
// tail must match the reference's far anchor k-mer. Builder only ever walks
// in reverse (from the right anchor) when leftEnd is set, and that is
// exactly the case in which the far (left) end has no anchor to check
// against -- so the check only ever applies to the forward, both-ends-
// anchored case.
func trimOK(ar *active.ActiveRegion, consensus []byte, k int) bool {
	if ar.LeftEnd || ar.RightEnd {
		return true
	}
	ref := ar.Region.Sequence[ar.StartKmerIndex : ar.EndKmerIndex+k]
	return align.MatchesFarAnchor(consensus, ref, k)
}

func reverseBytes(s []byte) []byte {
	out := make([]byte, len(s))
	for i, b := range s {
		out[len(s)-1-i] = b
	}
	return out
}

// reverseChain reverses the traversal order of a run-length-encoded
// alignment chain (not the runs' contents), used to flip a reverse-walk
// alignment back into forward reference orientation.
func reverseChain(head *align.AlignNode) *align.AlignNode {
	var prev *align.AlignNode
	for n := head; n != nil; {
		next := n.Next
		n.Next = prev
		prev = n
		n = next
	}
	return prev
}
