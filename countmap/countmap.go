// Package countmap defines the CountMap contract (spec.md section 3: "maps
// a k-mer to an unsigned 32-bit count") and ships one concrete
// implementation, Map, so the rest of Kestrel is testable without a real
// sequencer pipeline feeding it.
package countmap

import "github.com/grailbio/kestrel/kmer"

// CountMap maps a k-mer to the number of times it was observed in a sample.
// Operations used by the core (spec.md section 3): Get, Load, Free. Not
// accessed concurrently by the core -- Load may use internal concurrency,
// but it must quiesce before Get is called.
type CountMap interface {
	// Get returns the observed count for kmer, or 0 if it was never seen.
	Get(k kmer.Kmer) uint32
	// Load populates the map from a sample, replacing any previous contents.
	Load(sample KmerCounts) error
	// Free releases any off-heap resources (mmap'd tables). The CountMap
	// must not be used afterward.
	Free()
}

// KmerCounts is a finalized, deduplicated k-mer -> count table handed to
// CountMap.Load. A sample loader (such as cmd/kestrel's k-mer/count text
// reader) accumulates one of these before handing it to a CountMap
// implementation.
type KmerCounts map[kmer.Kmer]uint32
