package kmer

// AtPos is the k-mer found at one position of a scanned sequence, in both
// orientations.
type AtPos struct {
	// Pos is the 0-based index into the scanned sequence where the k-mer
	// begins.
	Pos int
	// Forward is the k-mer reading the sequence left to right.
	Forward Kmer
	// ReverseComplement is the reverse complement of Forward.
	ReverseComplement Kmer
}

// Canonical returns the strand-independent representative of the pair.
func (a AtPos) Canonical() Kmer { return Canonical(a.Forward, a.ReverseComplement) }

// Kmerizer scans a byte sequence and yields the k-mer (forward and reverse
// complement) at every valid position, skipping and re-seeding around
// non-ACGT bytes. Its two-path structure (a fast incremental shift-in, and a
// slow re-seed after an ambiguous base) mirrors the scan loop used throughout
// this codebase for sliding a fixed window across a sequence.
type Kmerizer struct {
	k    int
	mask Kmer

	seq string
	si  int
	cur AtPos
	ok  bool
}

// NewKmerizer creates a Kmerizer for k-mers of length k.
func NewKmerizer(k int) *Kmerizer {
	return &Kmerizer{k: k, mask: mask(k)}
}

// Reset starts scanning a new sequence from position 0.
func (kz *Kmerizer) Reset(seq string) {
	kz.seq = seq
	kz.si = 0
	kz.ok = false
}

// Scan advances to the next valid k-mer position, returning false when the
// sequence is exhausted.
func (kz *Kmerizer) Scan() bool {
	k := kz.k
	if kz.ok && kz.si+k <= len(kz.seq) {
		nextCh := kz.seq[kz.si+k-1]
		code, good := Code(nextCh)
		if good {
			compCode, _ := ComplementCode(nextCh)
			kz.cur.Pos = kz.si
			kz.cur.Forward = AppendRight(kz.cur.Forward, kz.mask, code)
			kz.cur.ReverseComplement = PrependLeft(kz.cur.ReverseComplement, k, compCode)
			kz.si++
			return true
		}
		// Fall through to the slow path: nextCh is ambiguous.
	}

	for kz.si+k <= len(kz.seq) {
		window := kz.seq[kz.si : kz.si+k]
		fwd := FromBytes([]byte(window))
		if fwd == Invalid {
			kz.si = nextAmbiguousPosition(kz.seq, kz.si) + 1
			continue
		}
		rc := ReverseComplement(fwd, k)
		kz.cur = AtPos{Pos: kz.si, Forward: fwd, ReverseComplement: rc}
		kz.si++
		kz.ok = true
		return true
	}
	kz.ok = false
	return false
}

// Get returns the k-mer found by the most recent successful Scan call.
func (kz *Kmerizer) Get() AtPos { return kz.cur }

func nextAmbiguousPosition(seq string, si int) int {
	for i := si; i < len(seq); i++ {
		if _, ok := Code(seq[i]); !ok {
			return i
		}
	}
	return len(seq)
}
