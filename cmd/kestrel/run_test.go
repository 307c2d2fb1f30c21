package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/kestrel/kestrelcfg"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// kmerCounts emits every overlapping k-mer of seq as a "<kmer>\t1" line,
// the minimal sample-counts file an exact-match reference would produce.
func kmerCounts(seq string, k int) string {
	var b strings.Builder
	for i := 0; i+k <= len(seq); i++ {
		b.WriteString(seq[i : i+k])
		b.WriteString("\t1\n")
	}
	return b.String()
}

func TestRunEndToEndWithExactMatchingSampleEmitsNoVariants(t *testing.T) {
	dir := t.TempDir()
	seq := "ACGTGCATCGTAGCATGCATTAGCACGTGCATCGTAGCATGCATTAGC"
	refPath := filepath.Join(dir, "ref.fa")
	writeFile(t, refPath, ">chr1\n"+seq+"\n")

	countsPath := filepath.Join(dir, "counts.tsv")
	writeFile(t, countsPath, kmerCounts(seq, 8))

	vcfPath := filepath.Join(dir, "out.vcf")
	fl := flags{
		referencePath: refPath,
		countsPath:    countsPath,
		chrom:         "chr1",
		start:         10,
		end:           int64(len(seq)) - 10,
		flank:         5,
		sampleName:    "s1",
		vcfOutputPath: vcfPath,
	}
	opts := kestrelcfg.DefaultOpts
	opts.KmerLength = 8
	// Disable reverse-complement count folding: the hand-built sample-counts
	// file above only records forward-strand occurrences, so folding in
	// whatever a kmer's reverse complement happens to collide with elsewhere
	// in the sequence would make the count vector's flatness (and so the
	// "no variant" expectation) depend on incidental palindromic overlaps.
	opts.CountReverseKmers = false
	weight := kestrelcfg.DefaultWeight

	if err := run(vcontext.Background(), fl, opts, weight); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, err := os.ReadFile(vcfPath)
	if err != nil {
		t.Fatalf("reading VCF output: %v", err)
	}
	if !strings.Contains(string(out), "#CHROM") {
		t.Fatalf("expected a VCF header, got:\n%s", out)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" && !strings.HasPrefix(line, "#") {
			t.Fatalf("expected no variant lines, got %q in:\n%s", line, out)
		}
	}
}

func TestRunRejectsMissingRequiredFlags(t *testing.T) {
	opts := kestrelcfg.DefaultOpts
	weight := kestrelcfg.DefaultWeight
	err := run(vcontext.Background(), flags{}, opts, weight)
	if err == nil {
		t.Fatal("expected an error when -reference/-chrom/-vcf-output are missing")
	}
}
