// Package advisor is the agent-facing engine: it records action outcomes
// against the current situation and aggregates the most similar past
// situations into a single recommendation.
package advisor

import (
	"time"

	"github.com/talgya/hindsight/internal/memory"
	"github.com/talgya/hindsight/internal/similarity"
	"github.com/talgya/hindsight/internal/situation"
)

// Config tunes one agent's engine. Zero fields fall back to defaults.
type Config struct {
	Capacity  int     // memory store bound; memory.DefaultCapacity if zero
	TopK      int     // neighbors consulted per suggestion; 3 if zero
	Threshold float64 // minimum similarity for a neighbor to count

	Weights similarity.Weights

	LowSuccess   float64 // success rate below which exploration is urged
	NoveltyBonus float64 // exploration bonus for never-seen situations

	DecayFactor      float64       // reward shrink per decay pass
	DecayEveryWrites int           // decay cadence in writes; 0 disables
	DecayInterval    time.Duration // decay cadence in wall-clock time; 0 disables
}

// DefaultConfig returns the engine tuning used when the caller has no
// opinion. Decay fires on every write, matching the original behavior.
func DefaultConfig() Config {
	return Config{
		Capacity:         memory.DefaultCapacity,
		TopK:             3,
		Threshold:        similarity.DefaultThreshold,
		Weights:          similarity.DefaultWeights(),
		LowSuccess:       0.3,
		NoveltyBonus:     0.3,
		DecayFactor:      memory.DefaultDecayFactor,
		DecayEveryWrites: 1,
	}
}

// Suggestion is the engine's advice for one query. Built fresh per call,
// owned by the caller, discarded after use.
type Suggestion struct {
	Recommended *situation.ActionVector // nil when nothing is worth recommending
	Confidence  float64                 // 0–1

	Avoid         *situation.ActionVector // nil when nothing stands out as bad
	AvoidStrength float64                 // 0–1

	TryNewStrategy   bool
	ExplorationBonus float64
}

// Engine owns one agent's experience memory. It is confined to the owning
// agent's loop — no locking, no goroutines, every call is a bounded
// in-memory computation.
type Engine struct {
	cfg   Config
	store *memory.Store
	decay memory.DecaySchedule
	now   func() time.Time
}

// New builds an engine from cfg, filling unset fields with defaults.
// Fails fast on a non-positive explicit capacity.
func New(cfg Config) (*Engine, error) {
	def := DefaultConfig()
	if cfg.Capacity == 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.TopK == 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Weights == (similarity.Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.LowSuccess == 0 {
		cfg.LowSuccess = def.LowSuccess
	}
	if cfg.NoveltyBonus == 0 {
		cfg.NoveltyBonus = def.NoveltyBonus
	}
	if cfg.DecayFactor == 0 {
		cfg.DecayFactor = def.DecayFactor
	}

	store, err := memory.NewStore(cfg.Capacity)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:   cfg,
		store: store,
		decay: memory.DecaySchedule{
			Factor:      cfg.DecayFactor,
			EveryWrites: cfg.DecayEveryWrites,
			Interval:    cfg.DecayInterval,
		},
		now: time.Now,
	}, nil
}

// RecordOutcome folds one observed (action, reward, terminal) into the
// memory for ctx and runs the decay schedule. The write is visible to the
// very next Suggest call.
func (e *Engine) RecordOutcome(ctx situation.Context, action situation.ActionVector, reward float64, terminal bool) {
	e.store.RecordOutcome(ctx, action, reward, terminal)
	e.decay.NoteWrite(e.store, e.now())
}

// Clear discards all stored experience. Invoked on episode/level reset when
// the remembered world layout no longer applies.
func (e *Engine) Clear() {
	e.store.Clear()
}

// Suggest aggregates the stored best and worst actions of the situations
// most similar to ctx into one recommendation.
func (e *Engine) Suggest(ctx situation.Context) Suggestion {
	matches := similarity.Search(ctx, e.store.Keys(), e.cfg.TopK, e.cfg.Weights, e.cfg.Threshold)

	// Novel situation: nothing comparable on record. Encourage exploration,
	// but less aggressively than a situation known to go badly.
	if len(matches) == 0 {
		return Suggestion{
			TryNewStrategy:   true,
			ExplorationBonus: e.cfg.NoveltyBonus,
		}
	}

	// Similarity-weighted votes over each neighbor's stored best and worst
	// action. Ties resolve to the first key encountered — a tie means
	// near-equal value, so the pick is arbitrary but deterministic.
	bestVotes := make(map[situation.ActionKey]float64)
	worstVotes := make(map[situation.ActionKey]float64)
	var bestOrder, worstOrder []situation.ActionKey
	var successSum float64

	for _, m := range matches {
		cm, ok := e.store.Get(m.Key)
		if !ok {
			continue
		}
		if _, seen := bestVotes[cm.BestAction]; !seen {
			bestOrder = append(bestOrder, cm.BestAction)
		}
		bestVotes[cm.BestAction] += cm.BestValue * m.Score
		if _, seen := worstVotes[cm.WorstAction]; !seen {
			worstOrder = append(worstOrder, cm.WorstAction)
		}
		worstVotes[cm.WorstAction] += cm.WorstValue * m.Score
		successSum += cm.SuccessRate
	}

	n := float64(len(matches))
	var out Suggestion

	if key, vote, ok := pickTop(bestOrder, bestVotes); ok {
		if action, err := situation.DecodeAction(key); err == nil {
			out.Recommended = &action
			out.Confidence = clamp01(vote / n)
		}
	}
	if key, vote, ok := pickBottom(worstOrder, worstVotes); ok {
		if action, err := situation.DecodeAction(key); err == nil {
			out.Avoid = &action
			out.AvoidStrength = clamp01(-vote / n)
		}
	}

	// When everything nearby went badly, the best-known action is still a
	// bad bet — push the caller toward trying something new.
	avgSuccess := successSum / n
	if avgSuccess < e.cfg.LowSuccess {
		out.TryNewStrategy = true
		out.ExplorationBonus = 0.5 * (1.0 - avgSuccess)
	}

	return out
}

// Stats is a read-only summary of the engine for debugging and logging.
type Stats struct {
	Contexts int
	Capacity int
}

// Stats returns coarse store statistics.
func (e *Engine) Stats() Stats {
	return Stats{Contexts: e.store.Len(), Capacity: e.store.Capacity()}
}

func pickTop(order []situation.ActionKey, votes map[situation.ActionKey]float64) (situation.ActionKey, float64, bool) {
	if len(order) == 0 {
		return "", 0, false
	}
	best := order[0]
	for _, key := range order[1:] {
		if votes[key] > votes[best] {
			best = key
		}
	}
	return best, votes[best], true
}

func pickBottom(order []situation.ActionKey, votes map[situation.ActionKey]float64) (situation.ActionKey, float64, bool) {
	if len(order) == 0 {
		return "", 0, false
	}
	worst := order[0]
	for _, key := range order[1:] {
		if votes[key] < votes[worst] {
			worst = key
		}
	}
	return worst, votes[worst], true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
