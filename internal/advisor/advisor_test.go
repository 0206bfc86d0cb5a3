package advisor

import (
	"reflect"
	"testing"

	"github.com/talgya/hindsight/internal/situation"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// noDecay keeps recorded rewards stable so vote math is easy to reason about.
func noDecay() Config {
	cfg := DefaultConfig()
	cfg.DecayEveryWrites = 0
	return cfg
}

func TestSuggest_LearnedAvoidance(t *testing.T) {
	e := newTestEngine(t, noDecay())

	ctx := situation.Context{Health: 0.6, GridX: 2, GridY: 2, NearbyEnemies: 1}
	attack := situation.ActionVector{Interact: situation.InteractAttack, Stance: situation.StanceAggressive}
	flee := situation.ActionVector{Interact: situation.InteractFlee, Move: situation.MoveWest}

	for i := 0; i < 5; i++ {
		e.RecordOutcome(ctx, attack, -5.0, true)
	}
	for i := 0; i < 5; i++ {
		e.RecordOutcome(ctx, flee, 2.0, false)
	}

	s := e.Suggest(ctx)

	if s.Avoid == nil || *s.Avoid != attack {
		t.Fatalf("avoid = %+v, want the attack action", s.Avoid)
	}
	if s.AvoidStrength <= 0 {
		t.Errorf("avoid strength = %v, want > 0", s.AvoidStrength)
	}
	if s.Recommended == nil || *s.Recommended != flee {
		t.Fatalf("recommended = %+v, want the flee action", s.Recommended)
	}
	if s.Confidence <= 0 {
		t.Errorf("confidence = %v, want > 0", s.Confidence)
	}
}

func TestSuggest_NoveltyExploration(t *testing.T) {
	e := newTestEngine(t, noDecay())

	// Seed memory far away so nothing clears the similarity threshold.
	far := situation.Context{Health: 0.1, GridX: 500, GridY: 500, NearbyEnemies: 10}
	e.RecordOutcome(far, situation.ActionVector{}, 1.0, false)

	s := e.Suggest(situation.Context{Health: 0.9, GridX: 0, GridY: 0})

	if !s.TryNewStrategy {
		t.Error("novel situation should urge a new strategy")
	}
	if s.Recommended != nil {
		t.Errorf("novel situation should not recommend, got %+v", s.Recommended)
	}
	if s.ExplorationBonus != DefaultConfig().NoveltyBonus {
		t.Errorf("exploration bonus = %v, want novelty default %v", s.ExplorationBonus, DefaultConfig().NoveltyBonus)
	}
}

func TestSuggest_EmptyStoreIsNovel(t *testing.T) {
	e := newTestEngine(t, noDecay())
	s := e.Suggest(situation.Context{Health: 0.5})
	if !s.TryNewStrategy || s.Recommended != nil || s.Avoid != nil {
		t.Errorf("empty store should take the novelty branch, got %+v", s)
	}
}

func TestSuggest_Deterministic(t *testing.T) {
	e := newTestEngine(t, noDecay())

	base := situation.Context{Health: 0.7, GridX: 1, GridY: 1, NearbyEnemies: 2}
	near := base
	near.GridX = 2
	e.RecordOutcome(base, situation.ActionVector{Move: situation.MoveNorth}, 3.0, false)
	e.RecordOutcome(base, situation.ActionVector{Move: situation.MoveSouth}, -2.0, false)
	e.RecordOutcome(near, situation.ActionVector{Consume: situation.ConsumeEat}, 1.0, false)

	first := e.Suggest(base)
	second := e.Suggest(base)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive suggestions differ:\n first  %+v\n second %+v", first, second)
	}
}

func TestSuggest_LowSuccessUrgesExploration(t *testing.T) {
	e := newTestEngine(t, noDecay())

	ctx := situation.Context{Health: 0.4, GridX: 0, GridY: 0, NearbyEnemies: 3}
	// Every action ever tried here lost reward — success rate 0.
	e.RecordOutcome(ctx, situation.ActionVector{Interact: situation.InteractAttack}, -4.0, false)
	e.RecordOutcome(ctx, situation.ActionVector{Move: situation.MoveNorth}, -1.0, false)

	s := e.Suggest(ctx)

	if !s.TryNewStrategy {
		t.Error("all-negative neighborhood should urge a new strategy")
	}
	// Bonus formula: 0.5 * (1 - avgSuccess) with avgSuccess = 0.
	if s.ExplorationBonus != 0.5 {
		t.Errorf("exploration bonus = %v, want 0.5", s.ExplorationBonus)
	}
	// The known-bad push is stronger than plain novelty.
	if s.ExplorationBonus <= DefaultConfig().NoveltyBonus {
		t.Error("known-bad exploration bonus should exceed the novelty bonus")
	}
}

func TestSuggest_SingleActionContext(t *testing.T) {
	e := newTestEngine(t, noDecay())

	ctx := situation.Context{Health: 0.9, GridX: 3, GridY: 3}
	only := situation.ActionVector{Move: situation.MoveEast}
	e.RecordOutcome(ctx, only, 1.5, false)

	s := e.Suggest(ctx)

	// One recorded action is both best and worst; that is advice, not an error.
	if s.Recommended == nil || *s.Recommended != only {
		t.Fatalf("recommended = %+v, want the only tried action", s.Recommended)
	}
	if s.Avoid == nil || *s.Avoid != only {
		t.Fatalf("avoid = %+v, want the only tried action", s.Avoid)
	}
	// Its value is positive, so the avoid vote is positive and clamps to zero strength.
	if s.AvoidStrength != 0 {
		t.Errorf("avoid strength = %v, want 0 for a positive-value action", s.AvoidStrength)
	}
}

func TestSuggest_ConfidenceClamped(t *testing.T) {
	e := newTestEngine(t, noDecay())

	ctx := situation.Context{Health: 0.8, GridX: 0, GridY: 0}
	big := situation.ActionVector{Move: situation.MoveNorth}
	e.RecordOutcome(ctx, big, 1000.0, false)

	s := e.Suggest(ctx)
	if s.Confidence < 0 || s.Confidence > 1 {
		t.Errorf("confidence %v out of [0,1]", s.Confidence)
	}
	if s.AvoidStrength < 0 || s.AvoidStrength > 1 {
		t.Errorf("avoid strength %v out of [0,1]", s.AvoidStrength)
	}
}

func TestRecordOutcome_VisibleToNextSuggest(t *testing.T) {
	e := newTestEngine(t, noDecay())
	ctx := situation.Context{Health: 0.5, GridX: 1, GridY: 1}
	act := situation.ActionVector{Consume: situation.ConsumeDrink}

	before := e.Suggest(ctx)
	if before.Recommended != nil {
		t.Fatal("expected no recommendation before any writes")
	}

	e.RecordOutcome(ctx, act, 2.0, false)

	after := e.Suggest(ctx)
	if after.Recommended == nil || *after.Recommended != act {
		t.Errorf("write not visible to next suggest: %+v", after.Recommended)
	}
}

func TestClear_ForgetsEverything(t *testing.T) {
	e := newTestEngine(t, noDecay())
	ctx := situation.Context{Health: 0.5}
	e.RecordOutcome(ctx, situation.ActionVector{}, 1.0, false)

	e.Clear()

	if e.ContextCount() != 0 {
		t.Fatalf("context count %d after clear", e.ContextCount())
	}
	if s := e.Suggest(ctx); !s.TryNewStrategy {
		t.Error("cleared engine should treat everything as novel")
	}
}

func TestDefaultDecay_OldExperienceFades(t *testing.T) {
	e := newTestEngine(t, DefaultConfig()) // decay on every write

	ctx := situation.Context{Health: 0.5, GridX: 0, GridY: 0}
	act := situation.ActionVector{Move: situation.MoveNorth}
	e.RecordOutcome(ctx, act, 10.0, false)

	// Unrelated writes elsewhere decay the stored reward each time.
	other := situation.Context{Health: 0.5, GridX: 100, GridY: 100}
	for i := 0; i < 20; i++ {
		e.RecordOutcome(other, act, 0.0, false)
	}

	cm, ok := e.Memory(situation.EncodeKey(ctx))
	if !ok {
		t.Fatal("context memory missing")
	}
	av := cm.Actions[situation.EncodeAction(act)]
	if av.Average >= 10.0*0.95 {
		t.Errorf("average %v should have decayed below %v", av.Average, 10.0*0.95)
	}
	if av.Count != 1 {
		t.Errorf("decay must not change counts: %d", av.Count)
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	e := newTestEngine(t, noDecay())

	ctxA := situation.Context{Health: 0.6, GridX: 0, GridY: 0, NearbyEnemies: 1}
	ctxB := situation.Context{Health: 0.3, GridX: 9, GridY: 9}
	e.RecordOutcome(ctxA, situation.ActionVector{Interact: situation.InteractAttack}, -5.0, true)
	e.RecordOutcome(ctxA, situation.ActionVector{Interact: situation.InteractFlee}, 2.0, false)
	e.RecordOutcome(ctxA, situation.ActionVector{Interact: situation.InteractFlee}, 3.0, false)
	e.RecordOutcome(ctxB, situation.ActionVector{Consume: situation.ConsumeEat}, 1.0, false)

	snap := e.Snapshot()

	restored := newTestEngine(t, noDecay())
	if dropped := restored.Restore(snap); dropped != 0 {
		t.Fatalf("restore dropped %d entries", dropped)
	}

	if restored.ContextCount() != e.ContextCount() {
		t.Fatalf("context count %d after restore, want %d", restored.ContextCount(), e.ContextCount())
	}

	cm, ok := restored.Memory(situation.EncodeKey(ctxA))
	if !ok {
		t.Fatal("ctxA missing after restore")
	}
	flee := situation.EncodeAction(situation.ActionVector{Interact: situation.InteractFlee})
	av := cm.Actions[flee]
	if av == nil || av.Count != 2 || av.Cumulative != 5.0 || av.Average != 2.5 {
		t.Errorf("flee stats after restore: %+v", av)
	}
	if cm.BestAction != flee {
		t.Errorf("best action after restore: %q", cm.BestAction)
	}

	// Suggestions from the restored engine match the original.
	if !reflect.DeepEqual(e.Suggest(ctxA), restored.Suggest(ctxA)) {
		t.Error("restored engine suggests differently than the original")
	}
}

func TestRestore_DropsCorruptEntries(t *testing.T) {
	e := newTestEngine(t, noDecay())
	snap := Snapshot{Contexts: []ContextSnapshot{
		{Key: "garbage", Actions: []ActionSnapshot{{Key: "0:0:0:0:0", Count: 1, Cumulative: 1, Average: 1}}},
		{Key: situation.EncodeKey(situation.Context{Health: 0.5}), Actions: []ActionSnapshot{
			{Key: "0:0:0:0:0", Count: 1, Cumulative: 1, Average: 1},
		}},
	}}

	if dropped := e.Restore(snap); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if e.ContextCount() != 1 {
		t.Errorf("context count = %d, want 1", e.ContextCount())
	}
}
