package countmap

import (
	"testing"

	"github.com/grailbio/kestrel/kmer"
	"github.com/grailbio/testutil/expect"
)

func TestMapGetMissingIsZero(t *testing.T) {
	var m Map
	expect.EQ(t, m.Get(kmer.FromBytes([]byte("ACGT"))), uint32(0))
}

func TestMapLoadAndGet(t *testing.T) {
	a := kmer.FromBytes([]byte("ACGTACGTA"))
	b := kmer.FromBytes([]byte("TTTTTTTTT"))
	c := kmer.FromBytes([]byte("GGGGGGGGG"))

	var m Map
	defer m.Free()
	err := m.Load(KmerCounts{a: 5, b: 120, c: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect.EQ(t, m.Get(a), uint32(5))
	expect.EQ(t, m.Get(b), uint32(120))
	expect.EQ(t, m.Get(c), uint32(0))

	other := kmer.FromBytes([]byte("AAAAAAAAA"))
	expect.EQ(t, m.Get(other), uint32(0))
}

func TestMapLoadManyKmers(t *testing.T) {
	counts := make(KmerCounts)
	for i := 0; i < 5000; i++ {
		counts[kmer.Kmer(i*7+1)] = uint32(i)
	}
	var m Map
	defer m.Free()
	if err := m.Load(counts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k, want := range counts {
		if got := m.Get(k); got != want {
			t.Errorf("Get(%v) = %d, want %d", k, got, want)
		}
	}
}

func TestMapReloadReplacesContents(t *testing.T) {
	a := kmer.FromBytes([]byte("ACGTACGTA"))
	var m Map
	defer m.Free()
	if err := m.Load(KmerCounts{a: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect.EQ(t, m.Get(a), uint32(1))
	if err := m.Load(KmerCounts{a: 9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect.EQ(t, m.Get(a), uint32(9))
}
