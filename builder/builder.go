// Package builder implements KmerAlignmentBuilder: the driver that walks a
// sample's k-mer space, feeding bases into a KmerAligner and branching (via
// save/restore) wherever the count map offers more than one high-count
// extension, per spec.md section 4.4.
//
// Builder's field layout -- config params up top, scratch/temp state below,
// a free-pool-less driver method below that -- follows fusion/stitcher.go's
// Stitcher shape (NewStitcher/Stitch), generalized from "stitch two reads"
// to "walk a branching k-mer graph."
package builder

import (
	"sort"

	"github.com/grailbio/kestrel/align"
	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/countmap"
	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/kmer"
)

// letters maps a 2-bit base code to its ASCII byte, matching kmer.Code's
// assignment (A=0, C=1, G=2, T=3).
var letters = [4]byte{'A', 'C', 'G', 'T'}

// Builder drives align.Aligner across one active region's sample k-mer
// space.
type Builder struct {
	opts   kestrelcfg.Opts
	weight kestrelcfg.AlignmentWeight
	counts countmap.CountMap

	util kmer.Util
	mask kmer.Kmer

	aligner *align.Aligner
}

// NewBuilder creates a Builder for the given configuration and a loaded
// CountMap.
func NewBuilder(opts kestrelcfg.Opts, weight kestrelcfg.AlignmentWeight, counts countmap.CountMap) (*Builder, error) {
	util, err := kmer.NewUtil(opts.KmerLength, 0)
	if err != nil {
		return nil, err
	}
	return &Builder{
		opts:    opts,
		weight:  weight,
		counts:  counts,
		util:    util,
		mask:    util.Mask(),
		aligner: align.NewAligner(weight, opts.KmerLength, opts.MaxAlignerState),
	}, nil
}

// candidate is one of a current k-mer's four one-base extensions.
type candidate struct {
	kmer  kmer.Kmer
	base  byte
	count uint32
}

// extend computes the k-mer reached by adding one base to cur: AppendRight
// on the low-order end when walking forward (the common case, anchored on
// the left), or the symmetric high-order prepend when walking in reverse
// (anchored only on the right, i.e. ActiveRegion.LeftEnd). prependBase
// mirrors kmer.PrependLeft's shift arithmetic without the complement, since
// here the caller has already reversed (not complemented) the reference
// slice handed to the aligner.
func (b *Builder) extend(cur kmer.Kmer, code uint8, forward bool) kmer.Kmer {
	if forward {
		return kmer.AppendRight(cur, b.mask, code)
	}
	return prependBase(cur, b.opts.KmerLength, code)
}

func prependBase(k kmer.Kmer, kLen int, code uint8) kmer.Kmer {
	shift := uint(kLen-1) * 2
	return (k >> 2) | (kmer.Kmer(code) << shift)
}

// candidates forms cur's four one-base extensions, queries the count map
// for each by canonical k-mer, and returns the ones whose count clears
// minDepth, sorted by count descending (spec.md section 4.4 step a, tie-
// break rule in step d: "higher count first").
func (b *Builder) candidates(cur kmer.Kmer, forward bool, minDepth uint32) []candidate {
	k := b.opts.KmerLength
	var out []candidate
	for code := uint8(0); code < 4; code++ {
		next := b.extend(cur, code, forward)
		rc := kmer.ReverseComplement(next, k)
		canon := kmer.Canonical(next, rc)
		count := b.counts.Get(canon)
		if count == 0 || count < minDepth {
			continue
		}
		out = append(out, candidate{kmer: next, base: letters[code], count: count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// minDepthThreshold implements spec.md section 4.4 step a's "depth
// threshold derived from min(stats)/2."
func minDepthThreshold(stats active.RegionStats) uint32 {
	return stats.Min / 2
}
