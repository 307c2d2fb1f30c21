// Package variant implements VariantCaller: the alignment-walk that turns
// one Haplotype's canonical alignment into a stream of VariantCall records,
// per spec.md section 4.5.
//
// Grounded on fusion/fusion.go's DetectFusion walk-and-emit structure
// (iterate ranges, accumulate into typed result records, discard by policy)
// and fusion/position.go's half-open-range Pos/PosRange convention,
// generalized from read-pair coordinates to reference/consensus
// coordinates.
package variant

import (
	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/align"
	"github.com/grailbio/kestrel/haplotype"
	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/refregion"
)

// Type is the kind of variant event, per spec.md section 3.
type Type uint8

const (
	SNP Type = iota
	INS
	DEL
)

func (t Type) String() string {
	switch t {
	case SNP:
		return "SNP"
	case INS:
		return "INS"
	case DEL:
		return "DEL"
	default:
		return "UNKNOWN"
	}
}

// Call is one called variant, per spec.md section 3's VariantCall.
type Call struct {
	Region       *refregion.Region
	Type         Type
	RefPosition  int64
	RefBases     []byte
	AltBases     []byte
	Haplotype    *haplotype.Haplotype
	ActiveRegion *active.ActiveRegion
	Stats        active.RegionStats
}

// Caller walks one ActiveRegion's accepted Haplotypes and emits Calls.
type Caller struct {
	ar   *active.ActiveRegion
	opts kestrelcfg.Opts
}

// NewCaller creates a Caller scoped to one active region.
func NewCaller(ar *active.ActiveRegion, opts kestrelcfg.Opts) *Caller {
	return &Caller{ar: ar, opts: opts}
}

// Call walks h's canonical alignment and returns every VariantCall surviving
// the flank and ambiguous-base discard policies, per spec.md section 4.5.
func (c *Caller) Call(h haplotype.Haplotype) []Call {
	region := c.ar.Region
	ref := region.Sequence
	con := h.Consensus

	refIndex := c.ar.StartKmerIndex
	conIndex := 0
	var out []Call

	for n := h.Canonical; n != nil; n = n.Next {
		count := int(n.N)
		switch n.Type {
		case align.OpMatch:
			refIndex += count
			conIndex += count

		case align.OpMismatch:
			for i := 0; i < count; i++ {
				call, ok := c.buildCall(SNP, refIndex+i, ref[refIndex+i:refIndex+i+1], con[conIndex+i:conIndex+i+1], h)
				if ok {
					out = append(out, call)
				}
			}
			refIndex += count
			conIndex += count

		case align.OpGapRef: // insertion in the consensus.
			if refIndex > 0 && conIndex+count <= len(con) {
				call, ok := c.buildCall(INS, refIndex-1, ref[refIndex-1:refIndex], con[conIndex-1:conIndex+count], h)
				if ok {
					out = append(out, call)
				}
			}
			conIndex += count

		case align.OpGapCon: // deletion from the consensus.
			if refIndex > 0 && refIndex+count <= len(ref) {
				call, ok := c.buildCall(DEL, refIndex-1, ref[refIndex-1:refIndex+count], con[conIndex-1:conIndex], h)
				if ok {
					out = append(out, call)
				}
			}
			refIndex += count
		}
	}
	return out
}

// buildCall applies the flank/ambiguous discard policy (spec.md section
// 4.5) and computes the reported position.
func (c *Caller) buildCall(t Type, refIndex int, refBases, altBases []byte, h haplotype.Haplotype) (Call, bool) {
	region := c.ar.Region
	if region.InFlank(refIndex) {
		return Call{}, false
	}
	if !c.opts.CallAmbiguousVariant && region.Ambiguous.Overlaps(refIndex, refIndex+len(refBases)) {
		return Call{}, false
	}
	pos := int64(refIndex)
	if !c.opts.RegionRelativePositions {
		pos = region.RefPos(refIndex)
	}
	return Call{
		Region:       region,
		Type:         t,
		RefPosition:  pos,
		RefBases:     append([]byte(nil), refBases...),
		AltBases:     append([]byte(nil), altBases...),
		Haplotype:    &h,
		ActiveRegion: c.ar,
		Stats:        c.ar.Stats,
	}, true
}
