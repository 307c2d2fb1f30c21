package refregion

import "github.com/pkg/errors"

// Region is a contiguous slice of a reference sequence with optional
// left/right flanks.
//
// INVARIANT: 0 <= LeftFlank <= RightFlankIndex <= len(Sequence).
// INVARIANT: every byte of Sequence is a normalized IUPAC code (see Normalize).
type Region struct {
	// Sequence is the normalized (uppercase IUPAC) byte sequence of this
	// region, including flanks.
	Sequence []byte
	// LeftFlank is the length of the left flank prefix of Sequence that is
	// context only, not part of the callable region.
	LeftFlank int
	// RightFlankIndex is the index (within Sequence) where the right flank
	// begins; bytes at and after this index are context only.
	RightFlankIndex int
	// Offset is the 1-based reference coordinate of Sequence[0].
	Offset int64
	// Ambiguous indexes the ambiguous sub-ranges of Sequence for overlap
	// queries.
	Ambiguous AmbiguousIndex
}

// Size returns the length of Sequence (flanks included).
func (r *Region) Size() int { return len(r.Sequence) }

// New constructs a Region from a raw (not-yet-normalized) byte sequence,
// normalizing it in place and building the ambiguous-range index.
//
// REQUIRES: 0 <= leftFlank <= rightFlankIndex <= len(seq).
func New(seq []byte, leftFlank, rightFlankIndex int, offset int64) (*Region, error) {
	if leftFlank < 0 || rightFlankIndex < leftFlank || rightFlankIndex > len(seq) {
		return nil, errors.Errorf(
			"invalid flank bounds: leftFlank=%d rightFlankIndex=%d size=%d",
			leftFlank, rightFlankIndex, len(seq))
	}
	if err := NormalizeSeq(seq); err != nil {
		return nil, errors.Wrap(err, "normalizing reference region")
	}
	return &Region{
		Sequence:        seq,
		LeftFlank:       leftFlank,
		RightFlankIndex: rightFlankIndex,
		Offset:          offset,
		Ambiguous:       BuildAmbiguousIndex(seq),
	}, nil
}

// CallableStart and CallableEnd bound the non-flank portion of the region,
// i.e. [CallableStart, CallableEnd) is the callable range within Sequence.
func (r *Region) CallableStart() int { return r.LeftFlank }
func (r *Region) CallableEnd() int   { return r.RightFlankIndex }

// InFlank reports whether position pos (an index into Sequence) falls in
// either flank, i.e. is not part of the callable region.
func (r *Region) InFlank(pos int) bool {
	return pos < r.LeftFlank || pos >= r.RightFlankIndex
}

// RefPos converts a 0-based index into Sequence to a 1-based reference
// coordinate.
func (r *Region) RefPos(seqIndex int) int64 {
	return r.Offset + int64(seqIndex)
}
