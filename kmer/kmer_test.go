package kmer

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestFromBytesAndReverseComplement(t *testing.T) {
	k := FromBytes([]byte("ACGT"))
	expect.EQ(t, k.String(4), "ACGT")
	rc := ReverseComplement(k, 4)
	expect.EQ(t, rc.String(4), "ACGT") // ACGT is its own revcomp
}

func TestFromBytesInvalid(t *testing.T) {
	expect.EQ(t, FromBytes([]byte("ACGN")), Invalid)
}

func TestCanonical(t *testing.T) {
	fwd := FromBytes([]byte("AAAC")) // packs to a small integer
	rc := ReverseComplement(fwd, 4)  // GTTT, a larger integer
	expect.EQ(t, Canonical(fwd, rc), fwd)
}

func TestNewUtilValidation(t *testing.T) {
	if _, err := NewUtil(3, 0); err == nil {
		t.Errorf("expected error for k=3")
	}
	if _, err := NewUtil(MaxK+1, 0); err == nil {
		t.Errorf("expected error for k > MaxK")
	}
	u, err := NewUtil(11, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect.EQ(t, u.K, 11)
}

func listKmers(seq string, k int) []AtPos {
	kz := NewKmerizer(k)
	kz.Reset(seq)
	var out []AtPos
	for kz.Scan() {
		out = append(out, kz.Get())
	}
	return out
}

func TestKmerizerBasic(t *testing.T) {
	pos := listKmers("AAAGTTCAGGT", 5)
	expect.EQ(t, len(pos), 7)
	for i, p := range pos {
		expect.EQ(t, p.Pos, i)
		expect.EQ(t, p.Forward, FromBytes([]byte("AAAGTTCAGGT"[i:i+5])))
		expect.EQ(t, p.ReverseComplement, ReverseComplement(p.Forward, 5))
	}
}

func TestKmerizerSkipsAmbiguous(t *testing.T) {
	// The N at index 4 invalidates every 5-mer window touching it (start
	// positions 0..4); scanning should resume cleanly afterward.
	pos := listKmers("AAAANAAAAA", 5)
	for _, p := range pos {
		if p.Pos >= 0 && p.Pos <= 4 {
			t.Errorf("k-mer at position %d overlaps the ambiguous base", p.Pos)
		}
	}
	if len(pos) == 0 {
		t.Errorf("expected at least one valid k-mer after the ambiguous base")
	}
}
