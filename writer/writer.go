// Package writer implements spec.md section 6's output contracts:
// VariantWriter ("setSampleName, setReferenceRegion, writeVariant(v),
// flush") and HaplotypeWriter ("analogous; receives each accepted
// Haplotype"), grounded on cmd/bio-fusion/main.go's writeFASTA: a plain
// io.Writer.Write of pre-built byte strings, panicking on write error
// rather than threading an error return through every call.
package writer

import (
	"github.com/grailbio/kestrel/haplotype"
	"github.com/grailbio/kestrel/refregion"
	"github.com/grailbio/kestrel/variant"
)

// VariantWriter is the VariantCall output contract of spec.md section 6.
type VariantWriter interface {
	SetSampleName(name string)
	SetReferenceRegion(r *refregion.Region)
	WriteVariant(v variant.Call)
	Flush() error
}

// HaplotypeWriter is the Haplotype output contract of spec.md section 6,
// analogous to VariantWriter but fed accepted Haplotypes instead.
type HaplotypeWriter interface {
	SetSampleName(name string)
	SetReferenceRegion(r *refregion.Region)
	WriteHaplotype(h haplotype.Haplotype)
	Flush() error
}
