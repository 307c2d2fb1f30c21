package align

import (
	"testing"

	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/kmer"
)

func newTestAligner(t *testing.T) *Aligner {
	t.Helper()
	return NewAligner(kestrelcfg.DefaultWeight, 4, 8)
}

func TestInitRejectsShortReference(t *testing.T) {
	a := newTestAligner(t)
	if err := a.Init([]byte("AC"), true, false); err == nil {
		t.Fatal("expected error for reference shorter than k")
	}
}

func TestAddBaseBeforeInitFails(t *testing.T) {
	a := newTestAligner(t)
	if _, err := a.AddBase('A'); err == nil {
		t.Fatal("expected errInitRequired")
	}
}

func TestExactMatchAlignment(t *testing.T) {
	a := newTestAligner(t)
	ref := []byte("ACGTACGT")
	if err := a.Init(ref, true, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, b := range ref[4:] {
		if _, err := a.AddBase(b); err != nil {
			t.Fatalf("AddBase: %v", err)
		}
	}
	score, head := a.MaxScore()
	if head == nil {
		t.Fatal("expected a max-score node")
	}
	wantScore := kestrelcfg.DefaultWeight.Normalize().Match * int32(len(ref))
	if score != wantScore {
		t.Fatalf("score = %d, want %d", score, wantScore)
	}
	results := a.GetHaplotypes(0)
	if len(results) == 0 {
		t.Fatal("expected at least one haplotype result")
	}
	found := false
	for _, res := range results {
		for _, al := range res.Alignments {
			if al.Type == OpMatch && al.Next == nil && int(al.N) == len(ref) {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected a single-run all-match alignment among results")
	}
}

func TestMismatchAlignmentRecordsMismatchRun(t *testing.T) {
	a := newTestAligner(t)
	ref := []byte("ACGTACGT")
	if err := a.Init(ref, true, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	con := []byte("ACGTTCGT") // mismatch at position 4 (A->T)
	for _, b := range con[4:] {
		if _, err := a.AddBase(b); err != nil {
			t.Fatalf("AddBase: %v", err)
		}
	}
	results := a.GetHaplotypes(0)
	sawMismatch := false
	for _, res := range results {
		for _, al := range res.Alignments {
			for n := al; n != nil; n = n.Next {
				if n.Type == OpMismatch {
					sawMismatch = true
				}
			}
		}
	}
	if !sawMismatch {
		t.Fatal("expected a mismatch operation in at least one alignment")
	}
}

func TestSaveRestoreStateRoundTrips(t *testing.T) {
	a := newTestAligner(t)
	ref := []byte("ACGTACGTACGT")
	if err := a.Init(ref, true, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	preLen := len(a.Consensus())
	ok := a.SaveState(kmer.Kmer(0), 'A', 5, map[kmer.Kmer]struct{}{}, 0)
	_ = ok
	if !a.HasSavedStates() {
		t.Fatal("expected a saved state")
	}
	saved, _, err := a.RestoreState()
	if err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if saved == nil {
		t.Fatal("expected non-nil SavedState")
	}
	if len(a.Consensus()) != preLen+1 {
		t.Fatalf("consensus length = %d, want %d", len(a.Consensus()), preLen+1)
	}
	if a.HasSavedStates() {
		t.Fatal("expected stack to be empty after single restore")
	}
}

func TestMatchesFarAnchor(t *testing.T) {
	ref := []byte("ACGTACGT")
	con := []byte("TTTTACGT")
	if !MatchesFarAnchor(con, ref, 4) {
		t.Fatal("expected matching far anchor")
	}
	if MatchesFarAnchor([]byte("TTTTTTTT"), ref, 4) {
		t.Fatal("expected non-matching far anchor to fail")
	}
	if MatchesFarAnchor([]byte("AC"), ref, 4) {
		t.Fatal("expected short consensus to fail")
	}
}

func TestRunLengthEncodeCollapsesRuns(t *testing.T) {
	backward := []OpType{OpMatch, OpMatch, OpMismatch, OpMatch}
	head := runLengthEncode(backward)
	var types []OpType
	var runs []uint32
	for n := head; n != nil; n = n.Next {
		types = append(types, n.Type)
		runs = append(runs, n.N)
	}
	want := []OpType{OpMatch, OpMismatch, OpMatch}
	if len(types) != len(want) {
		t.Fatalf("got %d runs, want %d", len(types), len(want))
	}
	for i, tpe := range want {
		if types[i] != tpe {
			t.Fatalf("run %d type = %v, want %v", i, types[i], tpe)
		}
	}
	if runs[0] != 1 || runs[1] != 1 || runs[2] != 2 {
		t.Fatalf("run lengths = %v, want [1 1 2]", runs)
	}
}
