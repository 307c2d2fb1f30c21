package filterpipe

import "github.com/grailbio/kestrel/variant"

// MinSpanFilter drops variants whose originating active region's coverage
// sample size falls below a minimum, grounded on fusion.Opts's
// MinSpan/MinReadSupport threshold filters (postprocess.go's
// FilterByMinSpan): a candidate with too little supporting evidence is
// dropped outright rather than down-weighted.
type MinSpanFilter struct {
	MinN int
}

// Filter implements Filter.
func (f MinSpanFilter) Filter(v variant.Call) (variant.Call, bool) {
	if v.Stats.N < f.MinN {
		return variant.Call{}, false
	}
	return v, true
}
