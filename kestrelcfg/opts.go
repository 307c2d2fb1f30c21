// Package kestrelcfg holds Kestrel's tunable configuration: the active-region
// detector parameters and alignment weights enumerated in the spec, plus
// their validation rules.
package kestrelcfg

import "github.com/pkg/errors"

// Opts holds the active-region detector and driver parameters.
type Opts struct {
	// KmerLength is the k-mer length K used throughout the run.
	KmerLength int

	// MinimumDifference floors |count[i]-count[i+1]| that may trigger a scan.
	MinimumDifference uint32
	// DifferenceQuantile, if > 0, makes the threshold
	// max(MinimumDifference, quantile q of |delta count|).
	DifferenceQuantile float64
	// AnchorBothEnds rejects regions that reach either end of the reference.
	AnchorBothEnds bool
	// CallAmbiguousRegions allows ambiguous reference bases inside a region.
	CallAmbiguousRegions bool
	// PeakScanLength is the lookahead for peak detection; 0 disables it.
	PeakScanLength int
	// ScanLimitFactor caps region length at maxGapSize + factor*K.
	ScanLimitFactor float64
	// ExpDecayMin is the lower asymptotic bound (fraction of anchor count) of
	// the recovery threshold; 1.0 disables decay (constant threshold).
	ExpDecayMin float64
	// ExpDecayAlpha is the decay proportion at K bases from the anchor.
	ExpDecayAlpha float64
	// RecoverRightAnchor falls back to searching for a sharp rising edge when
	// decay fails to recover (reused, per spec, for left-scan recovery too).
	RecoverRightAnchor bool
	// EmitWildtypeActiveRegions emits no-variant regions for gap filling.
	EmitWildtypeActiveRegions bool
	// MaxAlignerState caps the number of saved aligner states before eviction.
	MaxAlignerState int
	// MaxHaplotypes caps the number of haplotypes returned per region. Zero
	// means unbounded.
	MaxHaplotypes int
	// MaxRepeatCount bounds how many times a single k-mer may reappear on a
	// path before the path is abandoned.
	MaxRepeatCount int

	// CountReverseKmers adds the reverse complement's sample count into
	// CountProfile entries.
	CountReverseKmers bool
	// CallAmbiguousVariant allows the variant caller to emit variants touching
	// an ambiguous base.
	CallAmbiguousVariant bool
	// RegionRelativePositions expresses VariantCall positions relative to the
	// ActiveRegion instead of the full reference sequence.
	RegionRelativePositions bool
}

// DefaultOpts mirrors the defaults enumerated in spec.md section 4.2.
var DefaultOpts = Opts{
	KmerLength:                11,
	MinimumDifference:         5,
	DifferenceQuantile:        0.90,
	AnchorBothEnds:            true,
	CallAmbiguousRegions:      true,
	PeakScanLength:            7,
	ScanLimitFactor:           5.0,
	ExpDecayMin:               0.55,
	ExpDecayAlpha:             0.80,
	RecoverRightAnchor:        true,
	EmitWildtypeActiveRegions: false,
	MaxAlignerState:           10,
	MaxHaplotypes:             0,
	MaxRepeatCount:            0,
	CountReverseKmers:         true,
	CallAmbiguousVariant:      true,
	RegionRelativePositions:   false,
}

// Validate checks every rule enumerated in spec.md section 6 ("Tunable
// configuration").
func (o Opts) Validate() error {
	if o.KmerLength < 4 {
		return errors.Errorf("KmerLength must be >= 4, got %d", o.KmerLength)
	}
	if o.KmerLength > 32 {
		return errors.Errorf("KmerLength must be <= 32 (implementation word limit), got %d", o.KmerLength)
	}
	if o.ExpDecayMin < 0 || o.ExpDecayMin > 1 {
		return errors.Errorf("ExpDecayMin must be in [0, 1], got %v", o.ExpDecayMin)
	}
	if o.ExpDecayAlpha <= 0 || o.ExpDecayAlpha >= 1 {
		return errors.Errorf("ExpDecayAlpha must be in (0, 1), got %v", o.ExpDecayAlpha)
	}
	if o.DifferenceQuantile < 0 || o.DifferenceQuantile >= 1 {
		return errors.Errorf("DifferenceQuantile must be in [0, 1), got %v", o.DifferenceQuantile)
	}
	if o.PeakScanLength < 0 {
		return errors.Errorf("PeakScanLength must be >= 0, got %d", o.PeakScanLength)
	}
	if o.ScanLimitFactor < 0 {
		return errors.Errorf("ScanLimitFactor must be >= 0, got %v", o.ScanLimitFactor)
	}
	if o.MaxAlignerState < 1 {
		return errors.Errorf("MaxAlignerState must be >= 1, got %d", o.MaxAlignerState)
	}
	if o.MaxRepeatCount < 0 {
		return errors.Errorf("MaxRepeatCount must be >= 0, got %d", o.MaxRepeatCount)
	}
	return nil
}
