package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/haplotype"
	"github.com/grailbio/kestrel/refregion"
	"github.com/grailbio/kestrel/variant"
)

func mustRegion(t *testing.T, seq string) *refregion.Region {
	t.Helper()
	r, err := refregion.New([]byte(seq), 0, len(seq), 5)
	if err != nil {
		t.Fatalf("refregion.New: %v", err)
	}
	return r
}

func TestVCFWriterEmitsHeaderOnceThenDataLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewVCFWriter(&buf)
	w.SetSampleName("sample1")
	w.SetReferenceRegion(mustRegion(t, "ACGTACGT"))

	w.WriteVariant(variant.Call{Type: variant.SNP, RefPosition: 12, RefBases: []byte("A"), AltBases: []byte("T")})
	w.WriteVariant(variant.Call{Type: variant.DEL, RefPosition: 15, RefBases: []byte("TAC"), AltBases: []byte("T")})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "#CHROM") != 1 {
		t.Fatalf("expected exactly one header line, got:\n%s", out)
	}
	if !strings.Contains(out, "sample1") {
		t.Fatalf("expected sample name in header, got:\n%s", out)
	}
	if !strings.Contains(out, "12\t.\tA\tT") {
		t.Fatalf("expected the SNP data line to carry its ref/alt bases, got:\n%s", out)
	}
	if !strings.Contains(out, "15\t.\tTAC\tT") {
		t.Fatalf("expected the DEL data line to carry its ref/alt bases, got:\n%s", out)
	}
}

func TestVCFWriterEmitsHeaderOnlyWhenNoVariantsFound(t *testing.T) {
	var buf bytes.Buffer
	w := NewVCFWriter(&buf)
	w.SetSampleName("sample1")
	w.SetReferenceRegion(mustRegion(t, "ACGTACGT"))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "#CHROM") {
		t.Fatalf("expected a header even with zero variants, got:\n%s", out)
	}
}

func TestTextHaplotypeWriterEmitsConsensus(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextHaplotypeWriter(&buf)
	w.SetSampleName("sample1")
	region := mustRegion(t, "ACGTACGTACGT")
	ar := &active.ActiveRegion{Region: region, StartKmerIndex: 0, EndKmerIndex: 7}
	h := haplotype.Haplotype{Consensus: []byte("ACGTACGT"), Region: ar, Score: 42}

	w.WriteHaplotype(h)
	out := buf.String()
	if !strings.Contains(out, "ACGTACGT") {
		t.Fatalf("expected the consensus sequence in the output, got:\n%s", out)
	}
	if !strings.Contains(out, "score=42") {
		t.Fatalf("expected the score in the output, got:\n%s", out)
	}
}
