// Agents — needs-driven creatures whose scripted baseline policy is biased
// or vetoed by their experience engine.
package arena

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/hindsight/internal/advisor"
	"github.com/talgya/hindsight/internal/entropy"
	"github.com/talgya/hindsight/internal/situation"
)

// Agent is one creature in the arena. Each agent owns exactly one engine,
// accessed only from the arena's tick loop.
type Agent struct {
	ID        string
	EpisodeID string

	X, Y float64

	Health float64 // 0.0–1.0
	Hunger float64 // 0.0–1.0 (1 = sated)
	Thirst float64 // 0.0–1.0 (1 = sated)

	HasWeapon bool
	Items     int

	Engine *advisor.Engine

	Alive  bool
	Deaths int
	Kills  int

	// Snapshot state for the current decision interval.
	context     situation.Context
	contextTick uint64
}

// NewAgent creates a live agent at a position with a fresh episode ID.
func NewAgent(n int, x, y float64, engineCfg advisor.Config) (*Agent, error) {
	eng, err := advisor.New(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("agent %d engine: %w", n, err)
	}
	return &Agent{
		ID:        fmt.Sprintf("wolf-%d", n),
		EpisodeID: uuid.NewString(),
		X:         x,
		Y:         y,
		Health:    1.0,
		Hunger:    1.0,
		Thirst:    1.0,
		Engine:    eng,
		Alive:     true,
	}, nil
}

// baselineDecide is the scripted policy: address the most urgent need first.
// The engine's suggestion then biases or vetoes this candidate.
func (a *Agent) baselineDecide(p perception, rng *entropy.Source) situation.ActionVector {
	var act situation.ActionVector

	switch {
	case p.threatsNear > 0 && a.HasWeapon && a.Health > 0.5:
		act.Interact = situation.InteractAttack
		act.Stance = situation.StanceAggressive
	case p.threatsNear > 0:
		act.Interact = situation.InteractFlee
		act.Move = p.awayFromThreat
		act.Stance = situation.StanceAlert
	case a.Thirst < 0.35 && p.onWater:
		act.Consume = situation.ConsumeDrink
	case a.Hunger < 0.35 && p.onFood:
		act.Consume = situation.ConsumeEat
	case a.Thirst < 0.5 || a.Hunger < 0.5:
		// Needs pressing but nothing consumable here — wander for supplies.
		act.Move = randomMove(rng)
	case p.itemsNear > 0:
		act.Interact = situation.InteractPickup
		act.Move = p.towardItem
	default:
		act.Move = randomMove(rng)
	}

	if a.HasWeapon {
		act.Equip = true
	}
	return act
}

// applySuggestion folds the engine's advice into the candidate action:
// strong avoidance vetoes, a confident recommendation overrides, and an
// exploration push randomizes.
func (a *Agent) applySuggestion(candidate situation.ActionVector, s advisor.Suggestion, rng *entropy.Source) situation.ActionVector {
	if s.Avoid != nil && *s.Avoid == candidate && rng.Chance(s.AvoidStrength) {
		// Vetoed. Fall back to the recommendation if there is one, else wander.
		if s.Recommended != nil && *s.Recommended != candidate {
			return *s.Recommended
		}
		return situation.ActionVector{Move: randomMove(rng), Stance: situation.StanceAlert}
	}

	if s.TryNewStrategy && rng.Chance(s.ExplorationBonus) {
		return randomAction(rng)
	}

	if s.Recommended != nil && rng.Chance(s.Confidence) {
		return *s.Recommended
	}

	return candidate
}

func randomMove(rng *entropy.Source) situation.MoveDir {
	return situation.MoveDir(rng.Intn(5))
}

func randomAction(rng *entropy.Source) situation.ActionVector {
	return situation.ActionVector{
		Move:     randomMove(rng),
		Interact: situation.Interact(rng.Intn(4)),
		Consume:  situation.Consume(rng.Intn(3)),
		Equip:    rng.Chance(0.5),
		Stance:   situation.Stance(rng.Intn(3)),
	}
}

// perception is what an agent senses this tick, fed to both the baseline
// policy and the context encoder.
type perception struct {
	threatsNear int
	itemsNear   int
	agentsNear  int

	onFood  bool
	onWater bool

	awayFromThreat situation.MoveDir
	towardItem     situation.MoveDir
}

// liveState converts a perception into the encoder's input reading.
func (a *Agent) liveState(p perception, minuteOfDay int) situation.LiveState {
	return situation.LiveState{
		Health:        a.Health,
		Hunger:        a.Hunger,
		Thirst:        a.Thirst,
		X:             a.X,
		Y:             a.Y,
		NearbyEnemies: p.threatsNear,
		NearbyItems:   p.itemsNear,
		NearbyNPCs:    p.agentsNear,
		HasWeapon:     a.HasWeapon,
		ItemCount:     a.Items,
		MinuteOfDay:   minuteOfDay,
	}
}
