// Package memory holds per-context action outcomes in a bounded store with
// insertion-order eviction and scheduled reward decay.
package memory

import (
	"errors"
	"fmt"

	"github.com/talgya/hindsight/internal/situation"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 1000

// ErrBadCapacity is returned when a store is constructed with capacity <= 0.
var ErrBadCapacity = errors.New("store capacity must be positive")

// ActionValue is the running statistics for one action within one context.
type ActionValue struct {
	Count         int
	Cumulative    float64
	Average       float64 // always Cumulative / Count, recomputed on write
	TerminalCount int
}

// ContextMemory is everything remembered about one discretized situation.
type ContextMemory struct {
	Actions map[situation.ActionKey]*ActionValue

	BestAction situation.ActionKey
	BestValue  float64

	WorstAction situation.ActionKey
	WorstValue  float64

	SuccessRate float64 // fraction of actions with positive average reward
	DeathRate   float64 // fraction of invocations that ended the episode
}

// Store is a bounded map from context key to ContextMemory. Eviction is
// strictly oldest-key-first by insertion order — re-recording under an
// existing key does not refresh its position.
type Store struct {
	capacity int
	memories map[situation.Key]*ContextMemory
	order    []situation.Key // insertion order, head = oldest
}

// NewStore creates a bounded store. Capacity <= 0 is a configuration error.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadCapacity, capacity)
	}
	return &Store{
		capacity: capacity,
		memories: make(map[situation.Key]*ContextMemory),
	}, nil
}

// RecordOutcome folds one (action, reward, terminal) observation into the
// memory for ctx, creating it if needed and evicting the oldest memory when
// the capacity bound is exceeded.
func (s *Store) RecordOutcome(ctx situation.Context, action situation.ActionVector, reward float64, terminal bool) {
	key := situation.EncodeKey(ctx)

	cm, ok := s.memories[key]
	if !ok {
		cm = &ContextMemory{Actions: make(map[situation.ActionKey]*ActionValue)}
		s.memories[key] = cm
		s.order = append(s.order, key)
		s.evictOverflow()
	}

	actionKey := situation.EncodeAction(action)
	av, ok := cm.Actions[actionKey]
	if !ok {
		av = &ActionValue{}
		cm.Actions[actionKey] = av
	}

	av.Count++
	av.Cumulative += reward
	av.Average = av.Cumulative / float64(av.Count)
	if terminal {
		av.TerminalCount++
	}

	cm.refreshStats()
}

// evictOverflow drops oldest keys until the store fits its capacity.
func (s *Store) evictOverflow() {
	for len(s.memories) > s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.memories, oldest)
	}
}

// refreshStats rescans the action values to recompute best/worst action,
// success rate, and death rate. O(actions-per-context), expected small.
func (cm *ContextMemory) refreshStats() {
	first := true
	positive := 0
	invocations := 0
	terminals := 0

	for key, av := range cm.Actions {
		if first || av.Average > cm.BestValue {
			cm.BestAction = key
			cm.BestValue = av.Average
		}
		if first || av.Average < cm.WorstValue {
			cm.WorstAction = key
			cm.WorstValue = av.Average
		}
		first = false

		if av.Average > 0 {
			positive++
		}
		invocations += av.Count
		terminals += av.TerminalCount
	}

	if len(cm.Actions) > 0 {
		cm.SuccessRate = float64(positive) / float64(len(cm.Actions))
	}
	if invocations > 0 {
		cm.DeathRate = float64(terminals) / float64(invocations)
	}
}

// DecayAll shrinks every stored reward magnitude toward zero. Counts are
// untouched, so history keeps its weight in vote denominators.
func (s *Store) DecayAll(factor float64) {
	for _, cm := range s.memories {
		for _, av := range cm.Actions {
			av.Cumulative *= factor
			av.Average *= factor
		}
		cm.refreshStats()
	}
}

// Clear empties the store and its eviction queue. Used on episode reset.
func (s *Store) Clear() {
	s.memories = make(map[situation.Key]*ContextMemory)
	s.order = nil
}

// Len returns the number of stored context memories.
func (s *Store) Len() int {
	return len(s.memories)
}

// Capacity returns the configured bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// Keys returns the stored context keys in insertion order.
func (s *Store) Keys() []situation.Key {
	keys := make([]situation.Key, len(s.order))
	copy(keys, s.order)
	return keys
}

// Get returns the memory for a context key. The returned record is live;
// callers must treat it as read-only.
func (s *Store) Get(key situation.Key) (*ContextMemory, bool) {
	cm, ok := s.memories[key]
	return cm, ok
}
