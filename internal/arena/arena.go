// The arena tick loop: perceive, decide, act, settle rewards, learn.
package arena

import (
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/hindsight/internal/advisor"
	"github.com/talgya/hindsight/internal/entropy"
	"github.com/talgya/hindsight/internal/situation"
)

// Config tunes the arena. Zero fields fall back to defaults.
type Config struct {
	Width  int
	Height int
	Seed   int64

	Agents  int
	Threats int
	Items   int

	// UpdateEvery is the number of ticks between context rebuilds — the
	// engine sees a fresh snapshot at most this often, not every tick.
	UpdateEvery uint64
}

// DefaultConfig returns a small but lively arena.
func DefaultConfig() Config {
	return Config{
		Width:       64,
		Height:      64,
		Seed:        42,
		Agents:      4,
		Threats:     6,
		Items:       10,
		UpdateEvery: 10,
	}
}

// Threat is a roaming hostile. Contact damages agents.
type Threat struct {
	X, Y  float64
	Alive bool
}

// Item is a pickup: a weapon or a supply bundle.
type Item struct {
	X, Y   float64
	Weapon bool
	Taken  bool
}

// Arena owns the world, its population, and the tick clock. Step is called
// from one loop and every agent's engine stays confined to it; the mutex
// exists only so the debug API can take consistent read snapshots from its
// own goroutine.
type Arena struct {
	World   *World
	Agents  []*Agent
	Threats []*Threat
	Items   []*Item

	Tick uint64

	mu  sync.Mutex
	cfg Config
	rng *entropy.Source
}

const (
	senseRadius  = 8.0
	threatDamage = 0.15
	hazardScale  = 0.05
	needDecay    = 0.004
)

// New builds an arena and populates it.
func New(cfg Config, engineCfg advisor.Config) (*Arena, error) {
	def := DefaultConfig()
	if cfg.Width == 0 {
		cfg.Width = def.Width
	}
	if cfg.Height == 0 {
		cfg.Height = def.Height
	}
	if cfg.Agents == 0 {
		cfg.Agents = def.Agents
	}
	if cfg.UpdateEvery == 0 {
		cfg.UpdateEvery = def.UpdateEvery
	}

	rng := entropy.NewSource(cfg.Seed)
	world := NewWorld(cfg.Width, cfg.Height, cfg.Seed)

	a := &Arena{
		World: world,
		cfg:   cfg,
		rng:   rng,
	}

	for i := 0; i < cfg.Agents; i++ {
		agent, err := NewAgent(i+1, a.randomX(), a.randomY(), engineCfg)
		if err != nil {
			return nil, err
		}
		a.Agents = append(a.Agents, agent)
	}
	for i := 0; i < cfg.Threats; i++ {
		a.Threats = append(a.Threats, &Threat{X: a.randomX(), Y: a.randomY(), Alive: true})
	}
	for i := 0; i < cfg.Items; i++ {
		a.Items = append(a.Items, &Item{X: a.randomX(), Y: a.randomY(), Weapon: a.rng.Chance(0.3)})
	}

	return a, nil
}

func (a *Arena) randomX() float64 { return float64(a.rng.Intn(a.cfg.Width)) }
func (a *Arena) randomY() float64 { return float64(a.rng.Intn(a.cfg.Height)) }

// MinuteOfDay maps the tick clock onto a 24h day, one tick per minute.
func (a *Arena) MinuteOfDay() int {
	return int(a.Tick % 1440)
}

// Step advances the arena one tick: each agent decides and acts, threats
// roam, needs decay, and every outcome is recorded against the context the
// agent decided under.
func (a *Arena) Step() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Tick++

	for _, agent := range a.Agents {
		if !agent.Alive {
			a.respawn(agent)
			continue
		}

		p := a.perceive(agent)

		// Rebuild the context snapshot once per update interval, not every
		// tick. Decisions between rebuilds reuse the last snapshot.
		if agent.contextTick == 0 || a.Tick-agent.contextTick >= a.cfg.UpdateEvery {
			agent.context = situation.BuildContext(agent.liveState(p, a.MinuteOfDay()))
			agent.contextTick = a.Tick
		}

		candidate := agent.baselineDecide(p, a.rng)
		suggestion := agent.Engine.Suggest(agent.context)
		action := agent.applySuggestion(candidate, suggestion, a.rng)

		reward, terminal := a.execute(agent, action, p)
		agent.Engine.RecordOutcome(agent.context, action, reward, terminal)
	}

	a.moveThreats()
}

// execute applies an action's effects and returns the shaped reward and
// whether the action ended the agent's episode.
func (a *Arena) execute(agent *Agent, action situation.ActionVector, p perception) (float64, bool) {
	healthBefore := agent.Health
	reward := 0.0

	a.applyMove(agent, action.Move)
	gx, gy := int(agent.X), int(agent.Y)

	switch action.Consume {
	case situation.ConsumeEat:
		if a.World.HasFood(gx, gy) {
			agent.Hunger = math.Min(1.0, agent.Hunger+0.3)
			reward += 1.0
		} else {
			reward -= 0.2 // tried to eat bare ground
		}
	case situation.ConsumeDrink:
		if a.World.HasWater(gx, gy) {
			agent.Thirst = math.Min(1.0, agent.Thirst+0.4)
			reward += 1.0
		} else {
			reward -= 0.2
		}
	}

	switch action.Interact {
	case situation.InteractPickup:
		if item := a.itemAt(agent.X, agent.Y); item != nil {
			item.Taken = true
			agent.Items++
			if item.Weapon {
				agent.HasWeapon = true
				reward += 2.0
			} else {
				agent.Hunger = math.Min(1.0, agent.Hunger+0.2)
				reward += 0.5
			}
		}
	case situation.InteractAttack:
		if threat := a.threatNear(agent, 1.5); threat != nil {
			if agent.HasWeapon && action.Equip {
				threat.Alive = false
				agent.Kills++
				reward += 3.0
			} else {
				// Barehanded against a threat: hurt in the exchange.
				agent.Health -= threatDamage
				reward -= 1.0
			}
		}
	case situation.InteractFlee:
		if p.threatsNear > 0 {
			reward += 0.3 // disengaging under threat is usually right
		}
	}

	// Environment settles: hazard ground, threat contact, need decay.
	if hz := a.World.HazardAt(gx, gy); hz > 0 {
		agent.Health -= hz * hazardScale
		reward -= 1.0
	}
	if threat := a.threatNear(agent, 1.0); threat != nil && action.Interact != situation.InteractAttack {
		agent.Health -= threatDamage
	}

	agent.Hunger = math.Max(0, agent.Hunger-needDecay)
	agent.Thirst = math.Max(0, agent.Thirst-needDecay*1.5)
	if agent.Hunger == 0 || agent.Thirst == 0 {
		agent.Health -= 0.01
	}

	// Survival shaping: health change dominates, staying alive pays a trickle.
	reward += (agent.Health - healthBefore) * 10.0
	reward += 0.05

	if agent.Health <= 0 {
		agent.Alive = false
		return reward - 10.0, true
	}
	return reward, false
}

func (a *Arena) applyMove(agent *Agent, dir situation.MoveDir) {
	switch dir {
	case situation.MoveNorth:
		agent.Y--
	case situation.MoveSouth:
		agent.Y++
	case situation.MoveEast:
		agent.X++
	case situation.MoveWest:
		agent.X--
	}
	agent.X, agent.Y = a.World.Clamp(agent.X, agent.Y)
}

// respawn starts a dead agent's next episode. Memory is kept — dying is how
// the engine learns what to avoid.
func (a *Arena) respawn(agent *Agent) {
	agent.Deaths++
	agent.EpisodeID = uuid.NewString()
	agent.X, agent.Y = a.randomX(), a.randomY()
	agent.Health = 1.0
	agent.Hunger = 1.0
	agent.Thirst = 1.0
	agent.HasWeapon = false
	agent.Items = 0
	agent.Alive = true
	agent.contextTick = 0

	slog.Debug("agent respawned", "agent", agent.ID, "episode", agent.EpisodeID, "deaths", agent.Deaths)
}

// Reset starts a new level: terrain layout changes, so remembered experience
// no longer applies and every engine is cleared.
func (a *Arena) Reset(seed int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cfg.Seed = seed
	a.World = NewWorld(a.cfg.Width, a.cfg.Height, seed)
	a.rng = entropy.NewSource(seed)
	a.Tick = 0

	for _, agent := range a.Agents {
		agent.Engine.Clear()
		a.respawn(agent)
		agent.Deaths = 0
		agent.Kills = 0
	}

	slog.Info("arena reset", "seed", seed)
}

func (a *Arena) perceive(agent *Agent) perception {
	var p perception

	var nearestThreat *Threat
	nearestDist := math.MaxFloat64
	for _, t := range a.Threats {
		if !t.Alive {
			continue
		}
		d := dist(agent.X, agent.Y, t.X, t.Y)
		if d <= senseRadius {
			p.threatsNear++
			if d < nearestDist {
				nearestDist = d
				nearestThreat = t
			}
		}
	}
	if nearestThreat != nil {
		p.awayFromThreat = directionAway(agent.X, agent.Y, nearestThreat.X, nearestThreat.Y)
	}

	var nearestItem *Item
	nearestDist = math.MaxFloat64
	for _, it := range a.Items {
		if it.Taken {
			continue
		}
		d := dist(agent.X, agent.Y, it.X, it.Y)
		if d <= senseRadius {
			p.itemsNear++
			if d < nearestDist {
				nearestDist = d
				nearestItem = it
			}
		}
	}
	if nearestItem != nil {
		p.towardItem = directionToward(agent.X, agent.Y, nearestItem.X, nearestItem.Y)
	}

	for _, other := range a.Agents {
		if other != agent && other.Alive && dist(agent.X, agent.Y, other.X, other.Y) <= senseRadius {
			p.agentsNear++
		}
	}

	gx, gy := int(agent.X), int(agent.Y)
	p.onFood = a.World.HasFood(gx, gy)
	p.onWater = a.World.HasWater(gx, gy)

	return p
}

func (a *Arena) moveThreats() {
	for _, t := range a.Threats {
		if !t.Alive {
			continue
		}
		// Drift toward the nearest living agent in range, else wander.
		var target *Agent
		nearest := senseRadius
		for _, agent := range a.Agents {
			if !agent.Alive {
				continue
			}
			if d := dist(t.X, t.Y, agent.X, agent.Y); d < nearest {
				nearest = d
				target = agent
			}
		}
		if target != nil {
			t.X += sign(target.X - t.X)
			t.Y += sign(target.Y - t.Y)
		} else {
			t.X += float64(a.rng.Intn(3) - 1)
			t.Y += float64(a.rng.Intn(3) - 1)
		}
		t.X, t.Y = a.World.Clamp(t.X, t.Y)
	}
}

func (a *Arena) itemAt(x, y float64) *Item {
	for _, it := range a.Items {
		if !it.Taken && dist(x, y, it.X, it.Y) <= 1.0 {
			return it
		}
	}
	return nil
}

func (a *Arena) threatNear(agent *Agent, radius float64) *Threat {
	for _, t := range a.Threats {
		if t.Alive && dist(agent.X, agent.Y, t.X, t.Y) <= radius {
			return t
		}
	}
	return nil
}

func dist(x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	return math.Sqrt(dx*dx + dy*dy)
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func directionAway(fromX, fromY, threatX, threatY float64) situation.MoveDir {
	dx, dy := fromX-threatX, fromY-threatY
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return situation.MoveEast
		}
		return situation.MoveWest
	}
	if dy >= 0 {
		return situation.MoveSouth
	}
	return situation.MoveNorth
}

func directionToward(fromX, fromY, toX, toY float64) situation.MoveDir {
	return directionAway(toX, toY, fromX, fromY)
}
