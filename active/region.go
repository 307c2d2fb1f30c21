package active

import (
	"github.com/grailbio/kestrel/kmer"
	"github.com/grailbio/kestrel/refregion"
)

// ActiveRegion is an immutable descriptor of a candidate variant window
// within one CountProfile, per spec.md section 3.
type ActiveRegion struct {
	// Region is the originating reference region.
	Region *refregion.Region
	// StartKmerIndex and EndKmerIndex bound the window, inclusive, as
	// indices into the CountProfile count vector.
	StartKmerIndex, EndKmerIndex int
	// LeftEnd and RightEnd are mutually exclusive: set when the region was
	// anchored by running off the corresponding end of the reference
	// instead of recovering a matching anchor k-mer there.
	LeftEnd, RightEnd bool
	// LeftAnchor and RightAnchor are the anchor k-mers, valid unless the
	// corresponding *End flag is set.
	LeftAnchor, RightAnchor       kmer.Kmer
	HasLeftAnchor, HasRightAnchor bool
	// Stats summarizes the count vector over [StartKmerIndex, EndKmerIndex].
	Stats RegionStats
}

// AllowEndDeletion reports whether the aligner may terminate the
// traceback in the reference's gap-in-consensus matrix at this region's
// open end, per spec.md section 4.3's "allowEndDeletion = leftEnd ||
// rightEnd."
func (r *ActiveRegion) AllowEndDeletion() bool { return r.LeftEnd || r.RightEnd }

// Len returns the number of count-vector positions spanned by the region.
func (r *ActiveRegion) Len() int { return r.EndKmerIndex - r.StartKmerIndex + 1 }

// ActiveRegionContainer is the output of ActiveRegionDetector.Detect: every
// region found over one CountProfile, sorted by start position, alongside
// the count vector they were derived from.
type ActiveRegionContainer struct {
	RefRegion *refregion.Region
	Regions   []*ActiveRegion
	Count     []uint32
}
