package variant

import (
	"testing"

	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/align"
	"github.com/grailbio/kestrel/haplotype"
	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/refregion"
)

func mustRegion(t *testing.T, seq string, leftFlank, rightFlankIndex int, offset int64) *refregion.Region {
	t.Helper()
	r, err := refregion.New([]byte(seq), leftFlank, rightFlankIndex, offset)
	if err != nil {
		t.Fatalf("refregion.New: %v", err)
	}
	return r
}

func chain(nodes ...*align.AlignNode) *align.AlignNode {
	for i := 0; i < len(nodes)-1; i++ {
		nodes[i].Next = nodes[i+1]
	}
	return nodes[0]
}

func defaultOpts() kestrelcfg.Opts {
	o := kestrelcfg.DefaultOpts
	o.CallAmbiguousVariant = true
	o.RegionRelativePositions = true
	return o
}

func TestCallEmitsSNPsForMismatchRun(t *testing.T) {
	region := mustRegion(t, "ACGTACGTACGT", 0, 12, 1)
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 11}
	h := haplotype.Haplotype{
		Consensus: []byte("ACGTTTGTACGT"),
		Region:    ar,
		Canonical: chain(
			&align.AlignNode{Type: align.OpMatch, N: 4},
			&align.AlignNode{Type: align.OpMismatch, N: 2},
			&align.AlignNode{Type: align.OpMatch, N: 6},
		),
	}
	calls := NewCaller(ar, defaultOpts()).Call(h)
	if len(calls) != 2 {
		t.Fatalf("expected 2 SNP calls, got %d: %+v", len(calls), calls)
	}
	for i, c := range calls {
		if c.Type != SNP {
			t.Fatalf("call %d: expected SNP, got %v", i, c.Type)
		}
	}
	if calls[0].RefPosition != 4 || calls[1].RefPosition != 5 {
		t.Fatalf("unexpected SNP positions: %d, %d", calls[0].RefPosition, calls[1].RefPosition)
	}
	if string(calls[0].RefBases) != "A" || string(calls[0].AltBases) != "T" {
		t.Fatalf("unexpected SNP bases: ref=%s alt=%s", calls[0].RefBases, calls[0].AltBases)
	}
}

func TestCallEmitsInsertionWithLeftAnchorBase(t *testing.T) {
	region := mustRegion(t, "ACGTACGTACGT", 0, 12, 1)
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 11}
	// Consensus inserts "TT" after ref index 3 ('T').
	h := haplotype.Haplotype{
		Consensus: []byte("ACGTTTACGTACGT"),
		Region:    ar,
		Canonical: chain(
			&align.AlignNode{Type: align.OpMatch, N: 4},
			&align.AlignNode{Type: align.OpGapRef, N: 2},
			&align.AlignNode{Type: align.OpMatch, N: 8},
		),
	}
	calls := NewCaller(ar, defaultOpts()).Call(h)
	if len(calls) != 1 {
		t.Fatalf("expected 1 insertion call, got %d: %+v", len(calls), calls)
	}
	c := calls[0]
	if c.Type != INS {
		t.Fatalf("expected INS, got %v", c.Type)
	}
	if c.RefPosition != 3 {
		t.Fatalf("expected left-anchored position 3, got %d", c.RefPosition)
	}
	if string(c.RefBases) != "T" || string(c.AltBases) != "TTT" {
		t.Fatalf("unexpected INS bases: ref=%s alt=%s", c.RefBases, c.AltBases)
	}
}

func TestCallEmitsDeletionWithLeftAnchorBase(t *testing.T) {
	region := mustRegion(t, "ACGTACGTACGT", 0, 12, 1)
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 11}
	// Consensus deletes ref[4:6] ("AC").
	h := haplotype.Haplotype{
		Consensus: []byte("ACGTGTACGT"),
		Region:    ar,
		Canonical: chain(
			&align.AlignNode{Type: align.OpMatch, N: 4},
			&align.AlignNode{Type: align.OpGapCon, N: 2},
			&align.AlignNode{Type: align.OpMatch, N: 6},
		),
	}
	calls := NewCaller(ar, defaultOpts()).Call(h)
	if len(calls) != 1 {
		t.Fatalf("expected 1 deletion call, got %d: %+v", len(calls), calls)
	}
	c := calls[0]
	if c.Type != DEL {
		t.Fatalf("expected DEL, got %v", c.Type)
	}
	if c.RefPosition != 3 {
		t.Fatalf("expected left-anchored position 3, got %d", c.RefPosition)
	}
	if string(c.RefBases) != "TAC" || string(c.AltBases) != "T" {
		t.Fatalf("unexpected DEL bases: ref=%s alt=%s", c.RefBases, c.AltBases)
	}
}

func TestCallDiscardsVariantsInFlank(t *testing.T) {
	// Flank covers [0,4) and [8,12): the mismatch run at index 4..5 is
	// callable, but a mismatch placed inside [0,4) must be dropped.
	region := mustRegion(t, "ACGTACGTACGT", 4, 8, 1)
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 11}
	h := haplotype.Haplotype{
		Consensus: []byte("TCGTACGTACGT"),
		Region:    ar,
		Canonical: chain(
			&align.AlignNode{Type: align.OpMismatch, N: 1},
			&align.AlignNode{Type: align.OpMatch, N: 11},
		),
	}
	calls := NewCaller(ar, defaultOpts()).Call(h)
	if len(calls) != 0 {
		t.Fatalf("expected the flank-resident SNP to be discarded, got %+v", calls)
	}
}

func TestCallDiscardsAmbiguousVariantsWhenDisallowed(t *testing.T) {
	region := mustRegion(t, "ACGTNCGTACGT", 0, 12, 1)
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 11}
	h := haplotype.Haplotype{
		Consensus: []byte("ACGTTCGTACGT"),
		Region:    ar,
		Canonical: chain(
			&align.AlignNode{Type: align.OpMatch, N: 4},
			&align.AlignNode{Type: align.OpMismatch, N: 1},
			&align.AlignNode{Type: align.OpMatch, N: 7},
		),
	}
	opts := defaultOpts()
	opts.CallAmbiguousVariant = false
	calls := NewCaller(ar, opts).Call(h)
	if len(calls) != 0 {
		t.Fatalf("expected the ambiguous-base SNP to be discarded, got %+v", calls)
	}

	opts.CallAmbiguousVariant = true
	calls = NewCaller(ar, opts).Call(h)
	if len(calls) != 1 {
		t.Fatalf("expected the SNP to be emitted once ambiguous calling is allowed, got %+v", calls)
	}
}

func TestCallUsesReferenceCoordinatesWhenNotRegionRelative(t *testing.T) {
	region := mustRegion(t, "ACGTACGTACGT", 0, 12, 1001)
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 11}
	h := haplotype.Haplotype{
		Consensus: []byte("ACGTTCGTACGT"),
		Region:    ar,
		Canonical: chain(
			&align.AlignNode{Type: align.OpMatch, N: 4},
			&align.AlignNode{Type: align.OpMismatch, N: 1},
			&align.AlignNode{Type: align.OpMatch, N: 7},
		),
	}
	opts := defaultOpts()
	opts.RegionRelativePositions = false
	calls := NewCaller(ar, opts).Call(h)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].RefPosition != 1005 {
		t.Fatalf("expected reference-relative position 1005 (offset 1001 + index 4), got %d", calls[0].RefPosition)
	}
}
