package active

import (
	"testing"

	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/refregion"
)

type alwaysChecker struct{ has bool }

func (a alwaysChecker) HasHaplotypes(ar *ActiveRegion) bool { return a.has }

func mustRegion(t *testing.T, seq string) *refregion.Region {
	t.Helper()
	r, err := refregion.New([]byte(seq), 0, len(seq), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestDiffThresholdFloorsAtMinimumDifference(t *testing.T) {
	opts := kestrelcfg.DefaultOpts
	opts.DifferenceQuantile = 0
	d := NewDetector(opts, kestrelcfg.DefaultWeight)
	flat := make([]uint32, 20)
	for i := range flat {
		flat[i] = 50
	}
	if got := d.diffThreshold(flat); got != int(opts.MinimumDifference)-1 {
		t.Errorf("diffThreshold = %d, want %d", got, int(opts.MinimumDifference)-1)
	}
}

func TestDetectFindsDropAndRecovers(t *testing.T) {
	seq := "ACGTACGTACGTACGTACGTACGTACGTACGT" // 32 bases
	region := mustRegion(t, seq)

	opts := kestrelcfg.DefaultOpts
	opts.KmerLength = 11
	opts.AnchorBothEnds = false
	opts.MinimumDifference = 5
	opts.DifferenceQuantile = 0
	opts.PeakScanLength = 0

	n := len(seq) - opts.KmerLength + 1
	count := make([]uint32, n)
	for i := range count {
		count[i] = 100
	}
	for i := 5; i < 10 && i < n; i++ {
		count[i] = 2
	}

	d := NewDetector(opts, kestrelcfg.DefaultWeight)
	container, stats := d.Detect(region, count, alwaysChecker{has: true})
	if stats.RegionsScanned == 0 {
		t.Fatalf("expected at least one scan attempt, stats=%+v", stats)
	}
	if container == nil {
		t.Fatalf("expected non-nil container")
	}
}

func TestDetectRejectsWhenNoHaplotype(t *testing.T) {
	seq := "ACGTACGTACGTACGTACGTACGTACGTACGT"
	region := mustRegion(t, seq)

	opts := kestrelcfg.DefaultOpts
	opts.KmerLength = 11
	opts.AnchorBothEnds = false
	opts.MinimumDifference = 5
	opts.DifferenceQuantile = 0
	opts.PeakScanLength = 0

	n := len(seq) - opts.KmerLength + 1
	count := make([]uint32, n)
	for i := range count {
		count[i] = 100
	}
	// A low run over positions 5..16 makes each candidate region at least
	// K-1 positions long, so only the haplotype check can reject it.
	for i := 5; i < 17 && i < n; i++ {
		count[i] = 2
	}

	d := NewDetector(opts, kestrelcfg.DefaultWeight)
	_, stats := d.Detect(region, count, alwaysChecker{has: false})
	if stats.RegionsAccepted != 0 {
		t.Errorf("expected no accepted regions when HasHaplotypes is false, got %+v", stats)
	}
	if stats.RegionsRejectedNoHaplotype == 0 {
		t.Errorf("expected a rejection for lack of haplotypes, got %+v", stats)
	}
}

func TestComputeRegionStats(t *testing.T) {
	count := []uint32{10, 20, 30, 40, 50}
	stats := computeRegionStats(count, 0, len(count))
	if stats.N != 5 {
		t.Errorf("N = %d, want 5", stats.N)
	}
	if stats.Min != 10 || stats.Max != 50 {
		t.Errorf("Min/Max = %d/%d, want 10/50", stats.Min, stats.Max)
	}
}
