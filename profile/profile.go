// Package profile builds a CountProfile: the per-position sample k-mer
// depth vector over a ReferenceRegion that active.ActiveRegionDetector scans
// for variant signal.
package profile

import (
	"github.com/grailbio/kestrel/countmap"
	"github.com/grailbio/kestrel/kmer"
	"github.com/grailbio/kestrel/refregion"
	"github.com/pkg/errors"
)

// KmerSizeExceedsRegion is returned by Build when the region is shorter than
// the configured k-mer length.
var KmerSizeExceedsRegion = errors.New("kmer size exceeds region size")

// Builder constructs CountProfiles for a fixed k-mer length, reusing one
// Kmerizer across calls the way fusion/kmer.go's scan loop is reused across
// reads.
type Builder struct {
	u  kmer.Util
	kz *kmer.Kmerizer
}

// NewBuilder creates a Builder for the given KmerUtil.
func NewBuilder(u kmer.Util) *Builder {
	return &Builder{u: u, kz: kmer.NewKmerizer(u.K)}
}

// Build computes count[i] = C.get(fwd(i)) [+ C.get(rc(i))] for every position
// i in [0, R.Size()-K+1), per spec.md section 4.1. Positions whose k-mer
// window contains an ambiguous reference base are left at zero, matching the
// "zero out pending slots, restart after the ambiguous base" rule: the
// underlying Kmerizer already skips any window containing a non-ACGT byte,
// so those slots are simply never written.
func (b *Builder) Build(r *refregion.Region, c countmap.CountMap, countReverseKmers bool) ([]uint32, error) {
	k := b.u.K
	size := r.Size()
	if size < k {
		return nil, KmerSizeExceedsRegion
	}
	count := make([]uint32, size-k+1)
	b.kz.Reset(string(r.Sequence))
	for b.kz.Scan() {
		at := b.kz.Get()
		v := c.Get(at.Forward)
		if countReverseKmers {
			v += c.Get(at.ReverseComplement)
		}
		count[at.Pos] = v
	}
	return count, nil
}
