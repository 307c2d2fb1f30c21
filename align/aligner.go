package align

import (
	"github.com/grailbio/kestrel/circular"
	"github.com/grailbio/kestrel/kestrelcfg"
)

// MaxAlignmentScoreNode records a position where the running maximum
// alignment score was achieved, per spec.md section 3. It is a plain
// pointer-linked list (unlike TraceNode, it is not on the hot allocation
// path: at most one new node per addBase call).
type MaxAlignmentScoreNode struct {
	Node            NodeID
	NConsensusBases int
	Next            *MaxAlignmentScoreNode
}

// Aligner implements KmerAligner: local affine-gap DP extended one
// consensus base at a time.
type Aligner struct {
	weight kestrelcfg.AlignmentWeight
	k      int

	arena *arena

	ref              []byte
	l                int // len(ref)
	allowEndDeletion bool
	leftEnd          bool

	curM, nextM   []NodeID
	curIr, nextIr []NodeID
	curIc, nextIc []NodeID

	consensus []byte

	maxScore     int32
	maxScoreHead *MaxAlignmentScoreNode

	stack *StateStack

	initialized bool
}

// NewAligner creates an Aligner for the given scoring weights, k-mer
// length, and maximum saved-state count (spec.md section 4.2's
// maxAlignerState).
func NewAligner(weight kestrelcfg.AlignmentWeight, k, maxAlignerState int) *Aligner {
	return &Aligner{
		weight: weight.Normalize(),
		k:      k,
		arena:  newArena(),
		stack:  newStateStack(maxAlignerState),
	}
}

// Init resets the aligner for a new active region, per spec.md section
// 4.3's "Initialization (per region)." ref is the reference slice spanning
// the active region, oriented so that position 0 is the anchor end (i.e.
// already reversed by the caller when leftEnd is set). The anchor k-mer is
// the first K bytes of ref.
func (a *Aligner) Init(ref []byte, leftEnd, rightEnd bool) error {
	if len(ref) < a.k {
		return errIllegalState("reference slice shorter than k-mer length")
	}
	a.arena.reset()
	a.ref = ref
	a.l = len(ref)
	a.leftEnd = leftEnd
	a.allowEndDeletion = leftEnd || rightEnd
	a.stack.reset()

	a.curM = growNodeSlice(a.curM, a.l+1)
	a.nextM = growNodeSlice(a.nextM, a.l+1)
	a.curIr = growNodeSlice(a.curIr, a.l+1)
	a.nextIr = growNodeSlice(a.nextIr, a.l+1)
	a.curIc = growNodeSlice(a.curIc, a.l+1)
	a.nextIc = growNodeSlice(a.nextIc, a.l+1)
	for i := range a.curM {
		a.curM[i], a.curIr[i], a.curIc[i] = ZeroNode, ZeroNode, ZeroNode
	}

	s0 := a.weight.InitScore
	if s0 <= 0 {
		s0 = a.weight.Match * int32(a.k)
	}
	anchorHead := ZeroNode
	for i := 0; i < a.k; i++ {
		anchorHead = a.arena.alloc(TraceNode{Score: s0, Type: OpMatch, Back: anchorHead})
	}
	// Seed column K-1 of M with the anchor chain.
	a.curM[a.k-1] = anchorHead

	// A gap in the consensus (pure reference advance) may open right after
	// the anchor and keep extending for as long as its score stays
	// positive, since it consumes no consensus bases and so needs no
	// addBase call to reach further reference columns -- spec.md section
	// 4.3's "further gap extensions fill Ic[K+1..] while score remains >0."
	newGap := a.weight.NewGap()
	prev := anchorHead
	score := s0 + newGap
	for i := a.k; i <= a.l && score > 0; i++ {
		node := a.arena.alloc(TraceNode{Score: score, Type: OpGapCon, Back: prev})
		a.curIc[i] = node
		prev = node
		score += a.weight.GapExtend
	}

	a.consensus = a.consensus[:0]
	a.consensus = append(a.consensus, ref[:a.k]...)

	a.maxScore = 0
	a.maxScoreHead = nil
	if a.allowEndDeletion {
		a.updateMaxScore(true, a.l-1, a.curIc, a.k)
	}

	a.initialized = true
	return nil
}

func growNodeSlice(s []NodeID, n int) []NodeID {
	if cap(s) >= n {
		return s[:n]
	}
	newCap := circular.NextExp2(n)
	out := make([]NodeID, n, newCap)
	return out
}

// errIllegalState and errInitRequired are the two failure modes named in
// spec.md section 4.3.
type kestrelError string

func (e kestrelError) Error() string { return string(e) }

func errIllegalState(msg string) error { return kestrelError("illegal state: " + msg) }
func errInitRequired() error           { return kestrelError("init required before addBase") }

// score returns match/mismatch score for consensus base b against
// reference base r.
func (a *Aligner) score(b, r byte) int32 { return a.weight.Score(b, r) }

// updateMaxScore applies spec.md section 4.3 step 4's max-alignment-score
// bookkeeping for one column.
func (a *Aligner) updateMaxScore(ok bool, idx int, col []NodeID, nConsensus int) {
	if !ok || idx < 0 || idx >= len(col) {
		return
	}
	id := col[idx]
	if id == ZeroNode {
		return
	}
	score := a.arena.get(id).Score
	if score <= 0 || score < a.maxScore {
		return
	}
	if score > a.maxScore {
		a.maxScore = score
		a.maxScoreHead = &MaxAlignmentScoreNode{Node: id, NConsensusBases: nConsensus}
		return
	}
	// score == a.maxScore: prepend.
	a.maxScoreHead = &MaxAlignmentScoreNode{Node: id, NConsensusBases: nConsensus, Next: a.maxScoreHead}
}

// AddBase performs spec.md section 4.3's "Add-base step" for consensus base
// b, returning continueHint: false signals that no further base can improve
// the score.
func (a *Aligner) AddBase(b byte) (continueHint bool, err error) {
	if !a.initialized {
		return false, errInitRequired()
	}
	newGap := a.weight.NewGap()

	for i := range a.nextM {
		a.nextM[i], a.nextIr[i], a.nextIc[i] = ZeroNode, ZeroNode, ZeroNode
	}

	// Step 1: next M column.
	for i := 1; i < a.l; i++ {
		s := a.score(b, a.ref[i])
		a.nextM[i] = a.bestOf3(a.curM[i-1], a.curIr[i-1], a.curIc[i-1], s, OpMatchOrMismatch(b, a.ref[i]))
	}
	// Step 2: next Ir column.
	for i := 0; i <= a.l; i++ {
		a.nextIr[i] = a.bestOfGapRef(a.curM[i], a.curIr[i], a.curIc[i], newGap)
	}
	// Step 3: next Ic column (depends on next M and next Ir).
	for i := 1; i <= a.l; i++ {
		a.nextIc[i] = a.bestOfGapCon(a.nextM[i-1], a.nextIr[i-1], a.nextIc[i-1], newGap)
	}

	nConsensus := len(a.consensus) + 1
	maxPotential := a.maxPotentialScore(nConsensus)

	a.updateMaxScore(true, a.l-1, a.nextM, nConsensus)
	if a.allowEndDeletion {
		a.updateMaxScore(true, a.l-1, a.nextIc, nConsensus)
	}

	a.consensus = append(a.consensus, b)
	a.curM, a.nextM = a.nextM, a.curM
	a.curIr, a.nextIr = a.nextIr, a.curIr
	a.curIc, a.nextIc = a.nextIc, a.curIc

	continueHint = maxPotential >= a.maxScore && maxPotential > 0
	return continueHint, nil
}

// OpMatchOrMismatch reports the operation type for aligning consensus base
// b against reference base r.
func OpMatchOrMismatch(b, r byte) OpType {
	if b == r {
		return OpMatch
	}
	return OpMismatch
}

// maxPotentialScore extrapolates the best-case final score reachable from
// here, per spec.md section 4.3 step 6: any current column's score plus the
// remaining columns times the match reward is an upper bound on how much
// better the alignment could still get.
func (a *Aligner) maxPotentialScore(nConsensus int) int32 {
	remaining := int32(a.l - nConsensus)
	if remaining < 0 {
		remaining = 0
	}
	best := int32(0)
	for i := 0; i <= a.l; i++ {
		for _, col := range [][]NodeID{a.curM, a.curIr, a.curIc} {
			if col[i] == ZeroNode {
				continue
			}
			s := a.arena.get(col[i]).Score + remaining*a.weight.Match
			if s > best {
				best = s
			}
		}
	}
	return best
}

// cellCand is one scored predecessor candidate considered while computing a
// DP cell's max, per spec.md section 4.3 steps 1-3.
type cellCand struct {
	id    NodeID
	score int32
}

// bestOf3 computes the next M-column cell: the max over the three
// predecessor columns plus the match/mismatch score, chaining ties into a
// branch list, per spec.md section 4.3 step 1.
func (a *Aligner) bestOf3(m, ir, ic NodeID, s int32, opType OpType) NodeID {
	cands := make([]cellCand, 0, 3)
	if m != ZeroNode {
		cands = append(cands, cellCand{m, a.arena.get(m).Score + s})
	}
	if ir != ZeroNode {
		cands = append(cands, cellCand{ir, a.arena.get(ir).Score + s})
	}
	if ic != ZeroNode {
		cands = append(cands, cellCand{ic, a.arena.get(ic).Score + s})
	}
	return a.bestChain(cands, opType)
}

func (a *Aligner) bestOfGapRef(m, ir, ic NodeID, newGap int32) NodeID {
	cands := make([]cellCand, 0, 3)
	if m != ZeroNode {
		cands = append(cands, cellCand{m, a.arena.get(m).Score + newGap})
	}
	if ir != ZeroNode {
		cands = append(cands, cellCand{ir, a.arena.get(ir).Score + a.weight.GapExtend})
	}
	if ic != ZeroNode {
		cands = append(cands, cellCand{ic, a.arena.get(ic).Score + newGap})
	}
	return a.bestChain(cands, OpGapRef)
}

func (a *Aligner) bestOfGapCon(nextM, nextIr, nextIc NodeID, newGap int32) NodeID {
	cands := make([]cellCand, 0, 3)
	if nextM != ZeroNode {
		cands = append(cands, cellCand{nextM, a.arena.get(nextM).Score + newGap})
	}
	if nextIr != ZeroNode {
		cands = append(cands, cellCand{nextIr, a.arena.get(nextIr).Score + newGap})
	}
	if nextIc != ZeroNode {
		cands = append(cands, cellCand{nextIc, a.arena.get(nextIc).Score + a.weight.GapExtend})
	}
	return a.bestChain(cands, OpGapCon)
}

func (a *Aligner) bestChain(cands []cellCand, opType OpType) NodeID {
	best := int32(0)
	for _, c := range cands {
		if c.score > best {
			best = c.score
		}
	}
	if best <= 0 {
		return ZeroNode
	}
	var head NodeID
	first := true
	for _, c := range cands {
		if c.score != best {
			continue
		}
		if first {
			head = a.arena.alloc(TraceNode{Score: best, Type: opType, Back: c.id})
			first = false
			continue
		}
		alt := a.arena.alloc(TraceNode{Score: best, Type: opType, Back: c.id})
		a.arena.chainBranch(head, alt)
	}
	return head
}

// MaxScore returns the current running maximum alignment score and its
// node list head.
func (a *Aligner) MaxScore() (int32, *MaxAlignmentScoreNode) { return a.maxScore, a.maxScoreHead }

// Consensus returns the consensus bytes accumulated so far.
func (a *Aligner) Consensus() []byte { return a.consensus }

// TrimConsensus truncates the consensus back to n bytes, used by
// restoreState.
func (a *Aligner) TrimConsensus(n int) { a.consensus = a.consensus[:n] }
