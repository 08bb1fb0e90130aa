// Package rotation implements the weighted, pre-shuffled, round-robin
// response selection described in spec §4.3.
package rotation

import (
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
)

// Response is the minimal interface a rotation slot needs: something with a
// positive selection weight. Callers supply the concrete compiled response
// type (engine.CompiledResponse) as T.
type Weighted interface {
	SelectionWeight() int
}

// Rotation is the weighted round-robin slot vector for a single Payload.
// Construction sorts by weight (stable) for deterministic layout, expands
// each entry `weight` times, and shuffles once; Next() then walks the
// shuffled vector via a lock-free atomic cursor.
type Rotation[T Weighted] struct {
	slots  []T
	cursor atomic.Uint64
}

// New builds a Rotation from an unordered sequence of weighted responses.
// Zero-weight responses occupy no slots. An all-zero-weight (or empty)
// input is an EmptyResponseSetError, matching spec §7's EmptyResponseSet.
func New[T Weighted](responses []T, randSource *rand.Rand) (*Rotation[T], error) {
	sorted := make([]T, len(responses))
	copy(sorted, responses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SelectionWeight() < sorted[j].SelectionWeight()
	})

	var slots []T
	for _, r := range sorted {
		for i := 0; i < r.SelectionWeight(); i++ {
			slots = append(slots, r)
		}
	}

	if len(slots) == 0 {
		return nil, ErrEmptyResponseSet
	}

	if randSource == nil {
		randSource = rand.New(rand.NewSource(rand.Int63()))
	}
	randSource.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})

	return &Rotation[T]{slots: slots}, nil
}

// ErrEmptyResponseSet is returned when a Payload's responses carry zero
// total weight.
var ErrEmptyResponseSet = fmt.Errorf("rotation: no responses with positive weight")

// Next atomically fetch-and-updates the cursor with v -> (v+1) mod len and
// returns the slot at the previous value. Two concurrent callers always
// observe distinct indices modulo len(slots); over len(slots) consecutive
// calls every slot is visited exactly once (pigeonhole property).
func (r *Rotation[T]) Next() T {
	n := uint64(len(r.slots))
	prev := r.cursor.Add(1) - 1
	return r.slots[prev%n]
}

// Len reports the total slot count (sum of weights).
func (r *Rotation[T]) Len() int {
	return len(r.slots)
}
