package memory

import "time"

// DefaultDecayFactor is the uniform per-decay shrink applied to all rewards.
const DefaultDecayFactor = 0.95

// DecaySchedule fires DecayAll on a fixed cadence: every N recorded writes,
// a fixed wall-clock interval, or both. The zero value never fires.
//
// The schedule runs synchronously inside the owning agent's calls — it is a
// counter and a clock check, not a goroutine, so the store stays confined to
// one thread.
type DecaySchedule struct {
	Factor      float64       // shrink factor in (0,1); DefaultDecayFactor if zero
	EveryWrites int           // decay after this many writes; 0 disables
	Interval    time.Duration // decay when this much time has passed; 0 disables

	writes    int
	lastDecay time.Time
}

// NoteWrite registers one recorded outcome and applies decay if the write
// cadence or the interval has elapsed.
func (d *DecaySchedule) NoteWrite(s *Store, now time.Time) {
	d.writes++

	due := false
	if d.EveryWrites > 0 && d.writes >= d.EveryWrites {
		due = true
	}
	if d.Interval > 0 {
		if d.lastDecay.IsZero() {
			d.lastDecay = now
		} else if now.Sub(d.lastDecay) >= d.Interval {
			due = true
		}
	}

	if !due {
		return
	}

	factor := d.Factor
	if factor == 0 {
		factor = DefaultDecayFactor
	}
	s.DecayAll(factor)
	d.writes = 0
	d.lastDecay = now
}
