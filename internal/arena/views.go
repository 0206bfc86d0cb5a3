// Read-only snapshot accessors for the debug API and the run loop's
// periodic saves. Each takes the arena lock so readers on other goroutines
// see consistent state without touching agent engines directly.
package arena

import (
	"github.com/talgya/hindsight/internal/advisor"
)

// Status is a coarse arena summary.
type Status struct {
	Tick        uint64 `json:"tick"`
	MinuteOfDay int    `json:"minute_of_day"`
	Agents      int    `json:"agents"`
	Alive       int    `json:"alive"`
}

// AgentView is one agent's externally visible state.
type AgentView struct {
	ID       string  `json:"id"`
	Episode  string  `json:"episode"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Health   float64 `json:"health"`
	Hunger   float64 `json:"hunger"`
	Thirst   float64 `json:"thirst"`
	Alive    bool    `json:"alive"`
	Deaths   int     `json:"deaths"`
	Kills    int     `json:"kills"`
	Contexts int     `json:"contexts"`
}

// Status returns the current arena summary.
func (a *Arena) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	alive := 0
	for _, agent := range a.Agents {
		if agent.Alive {
			alive++
		}
	}
	return Status{
		Tick:        a.Tick,
		MinuteOfDay: int(a.Tick % 1440),
		Agents:      len(a.Agents),
		Alive:       alive,
	}
}

// AgentViews returns a copy of every agent's visible state.
func (a *Arena) AgentViews() []AgentView {
	a.mu.Lock()
	defer a.mu.Unlock()

	views := make([]AgentView, 0, len(a.Agents))
	for _, agent := range a.Agents {
		views = append(views, AgentView{
			ID:       agent.ID,
			Episode:  agent.EpisodeID,
			X:        agent.X,
			Y:        agent.Y,
			Health:   agent.Health,
			Hunger:   agent.Hunger,
			Thirst:   agent.Thirst,
			Alive:    agent.Alive,
			Deaths:   agent.Deaths,
			Kills:    agent.Kills,
			Contexts: agent.Engine.ContextCount(),
		})
	}
	return views
}

// MemorySnapshot copies one agent's full learned memory. The second return
// is false when the agent is unknown.
func (a *Arena) MemorySnapshot(agentID string) (advisor.Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, agent := range a.Agents {
		if agent.ID == agentID {
			return agent.Engine.Snapshot(), true
		}
	}
	return advisor.Snapshot{}, false
}

// MemorySnapshots copies every agent's memory, keyed by agent ID.
func (a *Arena) MemorySnapshots() map[string]advisor.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snaps := make(map[string]advisor.Snapshot, len(a.Agents))
	for _, agent := range a.Agents {
		snaps[agent.ID] = agent.Engine.Snapshot()
	}
	return snaps
}

// RestoreMemories loads saved snapshots into matching agents' engines.
// Unknown agent IDs are ignored; returns how many engines were restored.
func (a *Arena) RestoreMemories(snaps map[string]advisor.Snapshot) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	restored := 0
	for _, agent := range a.Agents {
		snap, ok := snaps[agent.ID]
		if !ok || len(snap.Contexts) == 0 {
			continue
		}
		agent.Engine.Restore(snap)
		restored++
	}
	return restored
}
