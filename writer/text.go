package writer

import (
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/kestrel/haplotype"
	"github.com/grailbio/kestrel/refregion"
)

// TextHaplotypeWriter implements HaplotypeWriter, emitting one
// human-readable line per accepted Haplotype: its region-relative span,
// score, and consensus sequence. Grounded on the same writeFASTA direct-
// Write pattern as VCFWriter.
type TextHaplotypeWriter struct {
	out        io.Writer
	sampleName string
	region     *refregion.Region
}

// NewTextHaplotypeWriter returns a TextHaplotypeWriter over out.
func NewTextHaplotypeWriter(out io.Writer) *TextHaplotypeWriter {
	return &TextHaplotypeWriter{out: out}
}

// SetSampleName implements HaplotypeWriter.
func (w *TextHaplotypeWriter) SetSampleName(name string) { w.sampleName = name }

// SetReferenceRegion implements HaplotypeWriter.
func (w *TextHaplotypeWriter) SetReferenceRegion(r *refregion.Region) { w.region = r }

// WriteHaplotype implements HaplotypeWriter.
func (w *TextHaplotypeWriter) WriteHaplotype(h haplotype.Haplotype) {
	start, end := 0, 0
	if h.Region != nil {
		start, end = h.Region.StartKmerIndex, h.Region.EndKmerIndex
	}
	line := fmt.Sprintf(">%s\t%d-%d\tscore=%d\n%s\n", w.sampleName, start, end, h.Score, h.Consensus)
	if _, err := io.WriteString(w.out, line); err != nil {
		log.Panic(err)
	}
}

// Flush implements HaplotypeWriter. TextHaplotypeWriter writes
// synchronously, so there is never buffered state to release.
func (w *TextHaplotypeWriter) Flush() error { return nil }
