package builder

import (
	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/align"
	"github.com/grailbio/kestrel/kmer"
)

// walkState is the driver's mutable position in sample k-mer space.
type walkState struct {
	cur         kmer.Kmer
	visited     map[kmer.Kmer]struct{}
	repeatCount int
}

// Build drives the aligner across one active region's sample k-mer space
// and returns every tied-maximum haplotype the traversal discovered, per
// spec.md section 4.4.
func (b *Builder) Build(ar *active.ActiveRegion) ([]align.AlignmentResult, error) {
	k := b.opts.KmerLength
	refSeq := ar.Region.Sequence[ar.StartKmerIndex : ar.EndKmerIndex+k]

	forward := !ar.LeftEnd
	ref := refSeq
	anchor := ar.LeftAnchor
	haveAnchor := ar.HasLeftAnchor
	if !forward {
		ref = reverseBytes(refSeq)
		anchor = ar.RightAnchor
		haveAnchor = ar.HasRightAnchor
	}
	if !haveAnchor {
		return nil, nil
	}

	if err := b.aligner.Init(ref, ar.LeftEnd, ar.RightEnd); err != nil {
		return nil, err
	}

	minDepth := minDepthThreshold(ar.Stats)
	state := walkState{cur: anchor, visited: map[kmer.Kmer]struct{}{anchor: {}}}

	for {
		cands := b.candidates(state.cur, forward, minDepth)

		var addedBase bool
		var continueHint bool
		var err error

		switch len(cands) {
		case 0:
			addedBase = false
		case 1:
			continueHint, err = b.aligner.AddBase(cands[0].base)
			if err != nil {
				return nil, err
			}
			addedBase = true
			state.cur = cands[0].kmer
			state.repeatCount = b.markVisited(state.cur, state.visited, state.repeatCount)
		default:
			best := cands[0]
			continueHint, err = b.aligner.AddBase(best.base)
			if err != nil {
				return nil, err
			}
			addedBase = true
			for _, alt := range cands[1:] {
				b.aligner.SaveState(state.cur, alt.base, alt.count, state.visited, state.repeatCount)
			}
			state.cur = best.kmer
			state.repeatCount = b.markVisited(state.cur, state.visited, state.repeatCount)
		}

		viable := addedBase && continueHint && state.repeatCount <= b.opts.MaxRepeatCount
		if viable {
			continue
		}

		ok, err := b.restoreNext(&state, forward)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}

	return b.aligner.GetHaplotypes(b.opts.MaxHaplotypes), nil
}

// restoreNext pops saved states (spec.md section 4.4 steps b and f) until
// one replays with continueHint = true and an acceptable repeat count, or
// the stack is exhausted. It reports false when the path tree is fully
// exhausted.
func (b *Builder) restoreNext(state *walkState, forward bool) (bool, error) {
	for b.aligner.HasSavedStates() {
		saved, continueHint, err := b.aligner.RestoreState()
		if err != nil {
			return false, err
		}
		code, _ := kmer.Code(saved.NextBase)
		state.cur = b.extend(saved.Kmer, code, forward)
		state.visited = saved.Visited
		state.repeatCount = b.markVisited(state.cur, state.visited, saved.RepeatCount)
		if continueHint && state.repeatCount <= b.opts.MaxRepeatCount {
			return true, nil
		}
	}
	return false, nil
}

// markVisited updates the visited set for cur, returning the repeat count
// to carry forward (incremented if cur was already visited), per spec.md
// section 4.4 step e.
func (b *Builder) markVisited(cur kmer.Kmer, visited map[kmer.Kmer]struct{}, repeatCount int) int {
	if _, ok := visited[cur]; ok {
		return repeatCount + 1
	}
	visited[cur] = struct{}{}
	return repeatCount
}

func reverseBytes(s []byte) []byte {
	out := make([]byte, len(s))
	for i, c := range s {
		out[len(s)-1-i] = c
	}
	return out
}

// HasHaplotypes implements active.HaplotypeChecker: it runs the full driver
// over the candidate region and reports whether any resulting alignment
// contains at least one non-match operation (a variant against the
// reference).
func (b *Builder) HasHaplotypes(ar *active.ActiveRegion) bool {
	results, err := b.Build(ar)
	if err != nil {
		return false
	}
	for _, res := range results {
		for _, aln := range res.Alignments {
			for n := aln; n != nil; n = n.Next {
				if n.Type != align.OpMatch {
					return true
				}
			}
		}
	}
	return false
}
