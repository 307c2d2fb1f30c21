// Package kmer implements Kestrel's packed k-mer representation: a fixed-
// length window of K canonical bases, encoded 2 bits/base into a single
// machine word, plus the shift-in and reverse-complement operations the rest
// of the core relies on.
package kmer

import "github.com/pkg/errors"

// MaxK is the largest k-mer length this implementation supports. A k-mer is
// packed into a single uint64 word (2 bits/base), so K is capped at 32.
const MaxK = 32

// Kmer is a compact 2-bit/base encoding of up to MaxK canonical bases.
// The most recently added base occupies the low 2 bits.
type Kmer uint64

// Invalid is a sentinel returned for k-mers that could not be formed because
// the input contained a non-ACGT base.
const Invalid = Kmer(0xffffffffffffffff)

var (
	baseCode        [256]uint8
	complementCode  [256]uint8
	invalidBaseCode = uint8(255)
)

func init() {
	for i := range baseCode {
		baseCode[i] = invalidBaseCode
		complementCode[i] = invalidBaseCode
	}
	set := func(ch byte, code, compCode uint8) {
		baseCode[ch] = code
		complementCode[ch] = compCode
	}
	set('A', 0, 3)
	set('a', 0, 3)
	set('C', 1, 2)
	set('c', 1, 2)
	set('G', 2, 1)
	set('g', 2, 1)
	set('T', 3, 0)
	set('t', 3, 0)
}

// Util bundles the immutable k-mer configuration shared across a run: the
// k-mer length, minimizer size, minimizer mask, and packed-word mask. It is a
// pure value and is safe to share and copy freely.
type Util struct {
	K             int
	MinimizerSize int
	minimizerMask Kmer
	mask          Kmer // low 2*K bits set
}

// NewUtil creates a Util for the given k-mer length and minimizer size.
//
// REQUIRES: 4 <= k <= MaxK, 0 <= minimizerSize <= k.
func NewUtil(k, minimizerSize int) (Util, error) {
	if k < 4 || k > MaxK {
		return Util{}, errors.Errorf("kmer length %d out of range [4, %d]", k, MaxK)
	}
	if minimizerSize < 0 || minimizerSize > k {
		return Util{}, errors.Errorf("minimizer size %d out of range [0, %d]", minimizerSize, k)
	}
	u := Util{K: k, MinimizerSize: minimizerSize}
	u.mask = mask(k)
	u.minimizerMask = mask(minimizerSize)
	return u, nil
}

func mask(nBases int) Kmer {
	if nBases >= 32 {
		return Kmer(0xffffffffffffffff)
	}
	return (Kmer(1) << uint(2*nBases)) - 1
}

// Mask returns the bitmask covering the low 2*K bits, i.e. the bits that hold
// a full k-mer's worth of bases.
func (u Util) Mask() Kmer { return u.mask }

// AppendRight shifts base b (a 2-bit code produced by Code) onto the
// low-order end of k, dropping the highest base. This is the forward-strand
// "slide the window right by one base" operation.
func AppendRight(k Kmer, mask Kmer, code uint8) Kmer {
	return ((k << 2) | Kmer(code)) & mask
}

// PrependLeft shifts the complement of base code onto the high-order end of a
// reverse-complement accumulator, dropping the lowest base. Used to maintain
// the reverse complement of a forward window incrementally.
func PrependLeft(revComp Kmer, k int, compCode uint8) Kmer {
	shift := uint(k-1) * 2
	return (revComp >> 2) | (Kmer(compCode) << shift)
}

// Code returns the 2-bit code for an ASCII base, and ok=false if ch is not
// one of {A,C,G,T} (case-insensitive).
func Code(ch byte) (code uint8, ok bool) {
	c := baseCode[ch]
	return c, c != invalidBaseCode
}

// ComplementCode returns the 2-bit code for the complement of an ASCII base.
func ComplementCode(ch byte) (code uint8, ok bool) {
	c := complementCode[ch]
	return c, c != invalidBaseCode
}

// FromBytes packs seq (len(seq) <= MaxK, all ACGT) into a Kmer. It returns
// Invalid if seq contains a non-ACGT byte.
func FromBytes(seq []byte) Kmer {
	var k Kmer
	for _, ch := range seq {
		c := baseCode[ch]
		if c == invalidBaseCode {
			return Invalid
		}
		k = (k << 2) | Kmer(c)
	}
	return k
}

// ReverseComplement computes the reverse complement of a k-mer of length k.
func ReverseComplement(kmr Kmer, k int) Kmer {
	var rc Kmer
	x := kmr
	for i := 0; i < k; i++ {
		code := uint8(x & 3)
		x >>= 2
		rc = (rc << 2) | Kmer(3-code)
	}
	return rc
}

// Equal reports whether two k-mers are identical. It exists mainly for
// readability at call sites; Kmer is a plain comparable value.
func Equal(a, b Kmer) bool { return a == b }

// Canonical returns the lexicographically (numerically) smaller of kmr and
// its reverse complement, the strand-independent representative used to key
// count maps.
func Canonical(kmr, revComp Kmer) Kmer {
	if kmr < revComp {
		return kmr
	}
	return revComp
}

// String renders a k-mer of length k back to its ASCII representation.
func (k Kmer) String(nBases int) string {
	buf := make([]byte, nBases)
	const letters = "ACGT"
	x := k
	for i := nBases - 1; i >= 0; i-- {
		buf[i] = letters[x&3]
		x >>= 2
	}
	return string(buf)
}
