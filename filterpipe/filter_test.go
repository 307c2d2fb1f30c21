package filterpipe

import (
	"testing"

	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/variant"
)

func TestMinSpanFilterDropsLowCoverageCalls(t *testing.T) {
	low := variant.Call{Stats: active.RegionStats{N: 1}}
	high := variant.Call{Stats: active.RegionStats{N: 10}}
	f := MinSpanFilter{MinN: 5}

	if _, ok := f.Filter(low); ok {
		t.Fatal("expected the low-coverage call to be dropped")
	}
	if kept, ok := f.Filter(high); !ok || kept.Stats.N != 10 {
		t.Fatalf("expected the high-coverage call to survive unchanged, got %+v, ok=%v", kept, ok)
	}
}

func TestChainShortCircuitsOnFirstDrop(t *testing.T) {
	calls := 0
	neverRuns := FilterFunc(func(v variant.Call) (variant.Call, bool) {
		calls++
		return v, true
	})
	alwaysDrops := FilterFunc(func(v variant.Call) (variant.Call, bool) {
		return variant.Call{}, false
	})
	chain := Chain{alwaysDrops, neverRuns}

	if _, ok := chain.Apply(variant.Call{}); ok {
		t.Fatal("expected the chain to drop the call")
	}
	if calls != 0 {
		t.Fatalf("expected the chain to short-circuit before the second filter, ran it %d times", calls)
	}
}

func TestChainApplyAllKeepsSurvivors(t *testing.T) {
	chain := Chain{MinSpanFilter{MinN: 3}}
	in := []variant.Call{
		{Stats: active.RegionStats{N: 1}},
		{Stats: active.RegionStats{N: 5}},
		{Stats: active.RegionStats{N: 10}},
	}
	out := chain.ApplyAll(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d: %+v", len(out), out)
	}
}
