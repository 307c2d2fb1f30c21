// Package refregion implements Kestrel's reference-sequence data model: the
// normalized IUPAC byte alphabet, and ReferenceRegion, a contiguous slice of
// a reference sequence together with optional flanks and a precomputed index
// of ambiguous sub-ranges.
package refregion

import "github.com/pkg/errors"

// Base is a normalized, uppercase IUPAC nucleotide code.
type Base byte

// Canonical reports whether b is one of the four unambiguous bases.
func (b Base) Canonical() bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}

// byteToBase is the process-wide IUPAC normalization table: it maps any
// input byte to its normalized (uppercase) IUPAC code, or to invalidBase if
// the byte is not a valid IUPAC nucleotide code (this includes gap
// characters such as '-' or '.', which are reference errors per spec).
// Initialized once in init() and treated as an immutable static thereafter.
var byteToBase [256]Base

const invalidBase = Base(0)

func init() {
	iupac := "ACGTRYSWKMBDHVN"
	for _, ch := range iupac {
		byteToBase[byte(ch)] = Base(ch)
		byteToBase[byte(ch)+('a'-'A')] = Base(ch)
	}
}

// Normalize maps ch to its uppercase IUPAC code. ok is false for gap bytes or
// any byte outside the IUPAC alphabet.
func Normalize(ch byte) (b Base, ok bool) {
	b = byteToBase[ch]
	return b, b != invalidBase
}

// NormalizeSeq normalizes every byte of seq in place, returning an error that
// names the offending byte and offset on the first invalid byte found.
func NormalizeSeq(seq []byte) error {
	for i, ch := range seq {
		b, ok := Normalize(ch)
		if !ok {
			return errors.Errorf("invalid reference byte %q at offset %d", ch, i)
		}
		seq[i] = byte(b)
	}
	return nil
}

// IsAmbiguous reports whether b is an IUPAC ambiguity code (i.e. not one of
// A, C, G, T).
func IsAmbiguous(b Base) bool {
	return b != 0 && !Base(b).Canonical()
}
