package scheduler

import (
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// partitionState is a fold's accumulated value for one partition key (the
// ancestor id at the fold's declared partition level). Combine invocations
// for the same key serialize on mu, matching spec section 4.4's requirement
// that a fold's combiner never run concurrently with itself for one
// partition.
type partitionState struct {
	mu      sync.Mutex
	state   []cty.Value
	started bool
}

// partitionTable indexes a fold node's partition states by the hash of the
// partition-level ancestor id.
type partitionTable struct {
	mu    sync.Mutex
	byKey map[uint64]*partitionState
}

func newPartitionTable() *partitionTable {
	return &partitionTable{byKey: make(map[uint64]*partitionState)}
}

func (t *partitionTable) get(key uint64) *partitionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byKey[key]
	if !ok {
		p = &partitionState{}
		t.byKey[key] = p
	}
	return p
}

// take removes and returns the partition state for key, if any. Used at
// finalize time: once a partition's flush has been observed there is no
// legitimate later combine for the same key, so the entry can be dropped.
func (t *partitionTable) take(key uint64) (*partitionState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byKey[key]
	if ok {
		delete(t.byKey, key)
	}
	return p, ok
}
