package align

import "github.com/grailbio/kestrel/kmer"

// SavedState is what RestoreState hands back to the driver (builder
// package) so it can resume walking the sample k-mer graph from the
// restored branch point.
type SavedState struct {
	Kmer        kmer.Kmer
	NextBase    byte
	MinDepth    uint32
	Visited     map[kmer.Kmer]struct{}
	RepeatCount int
}

// SaveState pushes the aligner's current column state onto its StateStack,
// per spec.md section 4.3's "State save/restore." It returns false if the
// stack was full and no lower-priority entry could be evicted -- the
// caller (KmerAlignmentBuilder) must abandon this branch instead.
func (a *Aligner) SaveState(nextKmer kmer.Kmer, nextBase byte, minDepth uint32, visited map[kmer.Kmer]struct{}, repeatCount int) bool {
	n := stateStackNode{
		kmer:          nextKmer,
		nextBase:      nextBase,
		consensusSize: len(a.consensus),
		mCol:          sparsify(a.curM),
		irCol:         sparsify(a.curIr),
		icCol:         sparsify(a.curIc),
		maxScore:      a.maxScore,
		maxScoreHead:  a.maxScoreHead,
		minDepth:      minDepth,
		visited:       cloneVisited(visited),
		repeatCount:   repeatCount,
	}
	return a.stack.push(n)
}

// RestoreState pops the most recently saved state, restores the three
// columns (sparse entries overlaid onto an all-ZeroNode column), truncates
// the consensus to the saved size, and replays the stored next base as a
// new AddBase call, per spec.md section 4.3.
func (a *Aligner) RestoreState() (*SavedState, bool, error) {
	n, ok := a.stack.pop()
	if !ok {
		return nil, false, nil
	}
	for i := range a.curM {
		a.curM[i], a.curIr[i], a.curIc[i] = ZeroNode, ZeroNode, ZeroNode
	}
	for _, e := range n.mCol {
		a.curM[e.idx] = e.node
	}
	for _, e := range n.irCol {
		a.curIr[e.idx] = e.node
	}
	for _, e := range n.icCol {
		a.curIc[e.idx] = e.node
	}
	a.consensus = a.consensus[:n.consensusSize]
	a.maxScore = n.maxScore
	a.maxScoreHead = n.maxScoreHead

	continueHint, err := a.AddBase(n.nextBase)
	return &SavedState{Kmer: n.kmer, NextBase: n.nextBase, MinDepth: n.minDepth, Visited: n.visited, RepeatCount: n.repeatCount}, continueHint, err
}

// HasSavedStates reports whether the stack has anything left to restore.
func (a *Aligner) HasSavedStates() bool { return a.stack.Len() > 0 }
