package kestrelcfg

import "github.com/pkg/errors"

// AlignmentWeight holds the affine-gap scoring parameters for KmerAligner.
//
// After Normalize, Match > 0, Mismatch < 0, GapExtend < 0, GapOpen <= 0, and
// InitScore >= 0 -- signs are coerced, not rejected, per spec.md section 6.
type AlignmentWeight struct {
	Match     int32
	Mismatch  int32
	GapOpen   int32
	GapExtend int32
	InitScore int32
}

// DefaultWeight mirrors the defaults in spec.md section 4.3: (10, -10, -40,
// -4, 0).
var DefaultWeight = AlignmentWeight{
	Match:     10,
	Mismatch:  -10,
	GapOpen:   -40,
	GapExtend: -4,
	InitScore: 0,
}

// Normalize coerces signs per spec.md section 6: Match's absolute value is
// used (forced positive), Mismatch and GapExtend are forced negative, GapOpen
// is forced non-positive, and InitScore's absolute value is used (forced
// non-negative).
func (w AlignmentWeight) Normalize() AlignmentWeight {
	return AlignmentWeight{
		Match:     absInt32(w.Match),
		Mismatch:  -absInt32(w.Mismatch),
		GapOpen:   -absInt32(w.GapOpen),
		GapExtend: -absInt32(w.GapExtend),
		InitScore: absInt32(w.InitScore),
	}
}

func absInt32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// Validate checks the pre-normalization non-zero rules from spec.md section
// 6: Match, Mismatch, and GapExtend must not be zero (GapOpen and InitScore
// may be).
func (w AlignmentWeight) Validate() error {
	if w.Match == 0 {
		return errors.Errorf("Match weight must be nonzero")
	}
	if w.Mismatch == 0 {
		return errors.Errorf("Mismatch weight must be nonzero")
	}
	if w.GapExtend == 0 {
		return errors.Errorf("GapExtend weight must be nonzero")
	}
	return nil
}

// NewGap is the score of opening and immediately extending a new gap by one
// base: gapOpen + gapExtend.
func (w AlignmentWeight) NewGap() int32 { return w.GapOpen + w.GapExtend }

// Score returns the match/mismatch score for aligning consensus base c
// against reference base r.
func (w AlignmentWeight) Score(c, r byte) int32 {
	if c == r {
		return w.Match
	}
	return w.Mismatch
}
