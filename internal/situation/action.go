// Action vectors — the discrete choices an agent makes in one decision tick,
// and their canonical key encoding for per-context statistics.
package situation

import (
	"fmt"
	"strconv"
	"strings"
)

// MoveDir is the movement channel of an action vector.
type MoveDir uint8

const (
	MoveStay MoveDir = iota
	MoveNorth
	MoveSouth
	MoveEast
	MoveWest
)

// Interact is the world-interaction channel.
type Interact uint8

const (
	InteractNone Interact = iota
	InteractPickup
	InteractAttack
	InteractFlee
)

// Consume is the consumption channel.
type Consume uint8

const (
	ConsumeNone Consume = iota
	ConsumeEat
	ConsumeDrink
)

// Stance is the posture channel, biasing how other channels resolve.
type Stance uint8

const (
	StanceCalm Stance = iota
	StanceAlert
	StanceAggressive
)

// ActionVector is the tuple of independent action channels chosen in one
// decision tick.
type ActionVector struct {
	Move     MoveDir
	Interact Interact
	Consume  Consume
	Equip    bool // draw/keep weapon this tick
	Stance   Stance
}

// ActionKey is the canonical comparable encoding of an ActionVector.
type ActionKey string

// EncodeAction packs an action vector into its canonical key.
func EncodeAction(a ActionVector) ActionKey {
	equip := 0
	if a.Equip {
		equip = 1
	}
	return ActionKey(fmt.Sprintf("%d:%d:%d:%d:%d",
		a.Move, a.Interact, a.Consume, equip, a.Stance))
}

// DecodeAction inverts EncodeAction so stored suggestions can be played back.
func DecodeAction(k ActionKey) (ActionVector, error) {
	parts := strings.Split(string(k), ":")
	if len(parts) != 5 {
		return ActionVector{}, fmt.Errorf("%w: %d fields in action %q", ErrMalformedKey, len(parts), k)
	}

	nums := make([]int, 5)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return ActionVector{}, fmt.Errorf("%w: field %d in action %q", ErrMalformedKey, i, k)
		}
		nums[i] = n
	}

	return ActionVector{
		Move:     MoveDir(nums[0]),
		Interact: Interact(nums[1]),
		Consume:  Consume(nums[2]),
		Equip:    nums[3] != 0,
		Stance:   Stance(nums[4]),
	}, nil
}
