// Snapshot and restore — the explicit read-only view of an engine's memory,
// used by the persistence layer and the debug API instead of peeking at
// internals.
package advisor

import (
	"github.com/talgya/hindsight/internal/memory"
	"github.com/talgya/hindsight/internal/situation"
)

// ActionSnapshot is one action's statistics within a remembered situation.
type ActionSnapshot struct {
	Key           situation.ActionKey `json:"key"`
	Count         int                 `json:"count"`
	Cumulative    float64             `json:"cumulative"`
	Average       float64             `json:"average"`
	TerminalCount int                 `json:"terminal_count"`
}

// ContextSnapshot is one remembered situation with its derived statistics.
type ContextSnapshot struct {
	Key         situation.Key       `json:"key"`
	BestAction  situation.ActionKey `json:"best_action"`
	BestValue   float64             `json:"best_value"`
	WorstAction situation.ActionKey `json:"worst_action"`
	WorstValue  float64             `json:"worst_value"`
	SuccessRate float64             `json:"success_rate"`
	DeathRate   float64             `json:"death_rate"`
	Actions     []ActionSnapshot    `json:"actions"`
}

// Snapshot is a copy of an engine's full memory. Contexts appear in
// insertion order so a restored store evicts in the same order the live
// one would have.
type Snapshot struct {
	Capacity int               `json:"capacity"`
	Contexts []ContextSnapshot `json:"contexts"`
}

// Snapshot copies the engine's memory. The result shares nothing with the
// live store.
func (e *Engine) Snapshot() Snapshot {
	keys := e.store.Keys()
	snap := Snapshot{
		Capacity: e.store.Capacity(),
		Contexts: make([]ContextSnapshot, 0, len(keys)),
	}

	for _, key := range keys {
		cm, ok := e.store.Get(key)
		if !ok {
			continue
		}
		cs := ContextSnapshot{
			Key:         key,
			BestAction:  cm.BestAction,
			BestValue:   cm.BestValue,
			WorstAction: cm.WorstAction,
			WorstValue:  cm.WorstValue,
			SuccessRate: cm.SuccessRate,
			DeathRate:   cm.DeathRate,
			Actions:     make([]ActionSnapshot, 0, len(cm.Actions)),
		}
		for ak, av := range cm.Actions {
			cs.Actions = append(cs.Actions, ActionSnapshot{
				Key:           ak,
				Count:         av.Count,
				Cumulative:    av.Cumulative,
				Average:       av.Average,
				TerminalCount: av.TerminalCount,
			})
		}
		snap.Contexts = append(snap.Contexts, cs)
	}
	return snap
}

// Restore replaces the engine's memory with a previously captured snapshot,
// replaying contexts in their original insertion order. Snapshot entries
// beyond the engine's capacity evict oldest-first, same as live writes.
// Entries whose keys no longer decode are dropped; the count of dropped
// entries is returned.
func (e *Engine) Restore(snap Snapshot) int {
	e.store.Clear()

	dropped := 0
	for _, cs := range snap.Contexts {
		ctx, err := situation.DecodeKey(cs.Key)
		if err != nil {
			dropped++
			continue
		}
		for _, as := range cs.Actions {
			action, err := situation.DecodeAction(as.Key)
			if err != nil {
				dropped++
				continue
			}
			e.restoreAction(ctx, action, as)
		}
	}
	return dropped
}

// restoreAction replays one action's accumulated statistics as a single
// adjusted write so store-side derived stats come out consistent.
func (e *Engine) restoreAction(ctx situation.Context, action situation.ActionVector, as ActionSnapshot) {
	if as.Count <= 0 {
		return
	}
	// One write establishes the entry, then the counts and sums are patched
	// to the recorded values through the store's own record path.
	for i := 0; i < as.Count; i++ {
		reward := 0.0
		if i == as.Count-1 {
			reward = as.Cumulative
		}
		terminal := i < as.TerminalCount
		e.store.RecordOutcome(ctx, action, reward, terminal)
	}
}

// ContextCount reports how many situations the engine currently remembers.
func (e *Engine) ContextCount() int {
	return e.store.Len()
}

// Memory returns the stored record for one context key, for debug surfaces.
func (e *Engine) Memory(key situation.Key) (*memory.ContextMemory, bool) {
	return e.store.Get(key)
}
