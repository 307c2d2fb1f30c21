package refregion

import (
	"github.com/grailbio/kestrel/encoding/fasta"
	"github.com/pkg/errors"
)

// Provider implements spec.md section 6's reference region provider
// contract: "produces ReferenceRegion objects with normalized bases and
// precomputed ambiguity index," backed by a parsed FASTA file, per
// SPEC_FULL.md section 6.5. Grounded on encoding/fasta.Fasta (kept as-is
// from the teacher repo) as the byte source; Region's own constructor
// already does the normalization and ambiguity indexing.
type Provider struct {
	fa fasta.Fasta
}

// NewProvider wraps a parsed FASTA file as a Provider.
func NewProvider(fa fasta.Fasta) *Provider {
	return &Provider{fa: fa}
}

// Region returns the Region spanning [start, end) of seqName, with
// leftFlank/rightFlank additional context bytes of surrounding sequence
// included but marked as flank (not callable), per spec.md's flank
// convention. The Region's Offset is the 1-based reference coordinate of
// its first byte, i.e. of the left flank's start after clamping at 0.
func (p *Provider) Region(seqName string, start, end int64, leftFlank, rightFlank int64) (*Region, error) {
	if start < 0 || end <= start {
		return nil, errors.Errorf("invalid region range [%d, %d) for %q", start, end, seqName)
	}
	seqLen, err := p.fa.Len(seqName)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up length of %q", seqName)
	}
	lo := start - leftFlank
	if lo < 0 {
		lo = 0
	}
	hi := end + rightFlank
	if hi > int64(seqLen) {
		hi = int64(seqLen)
	}
	raw, err := p.fa.Get(seqName, uint64(lo), uint64(hi))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q:%d-%d", seqName, lo, hi)
	}
	leftFlankLen := int(start - lo)
	rightFlankIndex := int(end - lo)
	return New([]byte(raw), leftFlankLen, rightFlankIndex, lo+1)
}

// SeqNames returns every sequence name available from the backing FASTA
// file, matching spec.md's "reference region provider" enumeration need
// for CLI flag validation.
func (p *Provider) SeqNames() []string { return p.fa.SeqNames() }
