package align

import "github.com/grailbio/kestrel/kmer"

// StateID indexes into StateStack.nodes. NoState marks an absent
// predecessor/successor link or an empty stack.
type StateID int32

// NoState is the sentinel "no node" StateID.
const NoState StateID = -1

// sparseEntry is one non-ZeroNode cell of a saved DP column, per spec.md
// section 3's "sparse matrix-column snapshots (non-zero entries only)."
type sparseEntry struct {
	idx  int
	node NodeID
}

// stateStackNode is one saved branch point, per spec.md section 3's
// StateStackNode.
type stateStackNode struct {
	kmer          kmer.Kmer
	nextBase      byte
	consensusSize int
	mCol, irCol, icCol []sparseEntry
	maxScore      int32
	maxScoreHead  *MaxAlignmentScoreNode
	minDepth      uint32
	visited       map[kmer.Kmer]struct{}
	repeatCount   int

	prev, next StateID // doubly linked for O(1) unlink by removeLastMinState.
	inUse      bool
}

// StateStack is the LIFO of saved aligner branch points, per spec.md
// section 3. It is a slice-backed free list with explicit prev/next
// indices rather than a pointer-linked list, so removeLastMinState can
// unlink an arbitrary interior entry in O(1), per SPEC_FULL.md section 3.
type StateStack struct {
	nodes []stateStackNode
	head  StateID // top of stack (most recently pushed).
	free  StateID // free-list head.
	count int
	cap   int
}

func newStateStack(capacity int) *StateStack {
	return &StateStack{head: NoState, free: NoState, cap: capacity}
}

func (s *StateStack) reset() {
	s.nodes = s.nodes[:0]
	s.head = NoState
	s.free = NoState
	s.count = 0
}

// Len reports how many states are currently saved.
func (s *StateStack) Len() int { return s.count }

// push saves node onto the stack, evicting the lowest-minDepth entry below
// newMinDepth if the stack is full, per spec.md section 4.3's
// "removeLastMinState." Returns false if the stack was full and no entry
// could be evicted -- the caller must abandon this save.
func (s *StateStack) push(n stateStackNode) bool {
	if s.count >= s.cap {
		if !s.removeLastMinState(n.minDepth) {
			return false
		}
	}
	var id StateID
	if s.free != NoState {
		id = s.free
		s.free = s.nodes[id].next
		n.prev, n.next, n.inUse = s.head, NoState, true
		s.nodes[id] = n
	} else {
		n.prev, n.next, n.inUse = s.head, NoState, true
		s.nodes = append(s.nodes, n)
		id = StateID(len(s.nodes) - 1)
	}
	if s.head != NoState {
		s.nodes[s.head].next = id
	}
	s.head = id
	s.count++
	return true
}

// pop removes and returns the most recently pushed state.
func (s *StateStack) pop() (stateStackNode, bool) {
	if s.head == NoState {
		return stateStackNode{}, false
	}
	id := s.head
	n := s.nodes[id]
	s.head = n.prev
	if s.head != NoState {
		s.nodes[s.head].next = NoState
	}
	s.nodes[id].inUse = false
	s.nodes[id].next = s.free
	s.free = id
	s.count--
	return n, true
}

// removeLastMinState scans the active entries for the smallest minDepth
// strictly below newMinDepth and unlinks it in O(1) given its prev/next
// indices. Returns false if no such entry exists (the caller must reject
// the pending save).
func (s *StateStack) removeLastMinState(newMinDepth uint32) bool {
	best := NoState
	var bestDepth uint32
	for cur := s.head; cur != NoState; cur = s.nodes[cur].prev {
		n := s.nodes[cur]
		if n.minDepth < newMinDepth && (best == NoState || n.minDepth < bestDepth) {
			best, bestDepth = cur, n.minDepth
		}
	}
	if best == NoState {
		return false
	}
	n := s.nodes[best]
	if n.prev != NoState {
		s.nodes[n.prev].next = n.next
	}
	if n.next != NoState {
		s.nodes[n.next].prev = n.prev
	} else {
		s.head = n.prev
	}
	s.nodes[best].inUse = false
	s.nodes[best].next = s.free
	s.free = best
	s.count--
	return true
}

func sparsify(col []NodeID) []sparseEntry {
	var out []sparseEntry
	for i, id := range col {
		if id != ZeroNode {
			out = append(out, sparseEntry{idx: i, node: id})
		}
	}
	return out
}

func cloneVisited(v map[kmer.Kmer]struct{}) map[kmer.Kmer]struct{} {
	out := make(map[kmer.Kmer]struct{}, len(v))
	for k := range v {
		out[k] = struct{}{}
	}
	return out
}
