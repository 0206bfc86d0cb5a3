package situation

import (
	"errors"
	"testing"
)

func TestBuildContext_Quantization(t *testing.T) {
	live := LiveState{
		Health: 0.73, Hunger: 0.41, Thirst: 0.99,
		X: 17.9, Y: -1.2,
		NearbyEnemies: 2, NearbyItems: 1, NearbyNPCs: 0,
		HasWeapon: true, ItemCount: 5,
		MinuteOfDay: 722,
	}
	c := BuildContext(live)

	if c.GridX != 4 {
		t.Errorf("GridX: expected 4 (17.9/4 floored), got %d", c.GridX)
	}
	if c.GridY != -1 {
		t.Errorf("GridY: expected -1 (-1.2/4 floored), got %d", c.GridY)
	}
	if c.TimeBucket != 144 {
		t.Errorf("TimeBucket: expected 144 (722/5), got %d", c.TimeBucket)
	}
}

func TestBuildContext_ClampsOutOfRange(t *testing.T) {
	c := BuildContext(LiveState{Health: 1.4, Hunger: -0.2, NearbyEnemies: -3, ItemCount: -1})
	if c.Health != 1.0 {
		t.Errorf("Health not clamped: %v", c.Health)
	}
	if c.Hunger != 0.0 {
		t.Errorf("Hunger not clamped: %v", c.Hunger)
	}
	if c.NearbyEnemies != 0 || c.ItemCount != 0 {
		t.Errorf("counts not clamped: enemies=%d items=%d", c.NearbyEnemies, c.ItemCount)
	}
}

func TestKey_RoundTrip(t *testing.T) {
	cases := []Context{
		{Health: 0.73, Hunger: 0.41, Thirst: 0.99, GridX: 4, GridY: -1,
			NearbyEnemies: 2, NearbyItems: 1, HasWeapon: true, ItemCount: 5, TimeBucket: 144},
		{}, // zero context
		{Health: 1.0, Hunger: 1.0, Thirst: 1.0, GridX: -250, GridY: 999,
			NearbyEnemies: 12, NearbyItems: 0, NearbyNPCs: 7, ItemCount: 0, TimeBucket: 287},
		{Health: 0.05, Thirst: 0.049}, // both bucket to different tenths: 0.1 vs 0.0
	}

	for i, c := range cases {
		got, err := DecodeKey(EncodeKey(c))
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if got != c.Discretized() {
			t.Errorf("case %d: round trip mismatch:\n got  %+v\n want %+v", i, got, c.Discretized())
		}
	}
}

func TestKey_SimilarSituationsCollapse(t *testing.T) {
	a := Context{Health: 0.51, GridX: 3, GridY: 3, NearbyEnemies: 1}
	b := Context{Health: 0.54, GridX: 3, GridY: 3, NearbyEnemies: 1}
	if EncodeKey(a) != EncodeKey(b) {
		t.Errorf("near-identical contexts should share a key: %q vs %q", EncodeKey(a), EncodeKey(b))
	}
}

func TestDecodeKey_Malformed(t *testing.T) {
	bad := []Key{
		"",
		"1:2:3",
		"1:2:3:4:5:6:7:8:9:10:11:12",
		"1:2:x:4:5:6:7:8:9:10:11",
	}
	for _, k := range bad {
		if _, err := DecodeKey(k); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("key %q: expected ErrMalformedKey, got %v", k, err)
		}
	}
}

func TestAction_RoundTrip(t *testing.T) {
	cases := []ActionVector{
		{},
		{Move: MoveNorth, Interact: InteractAttack, Consume: ConsumeEat, Equip: true, Stance: StanceAggressive},
		{Move: MoveWest, Consume: ConsumeDrink, Stance: StanceAlert},
	}
	for i, a := range cases {
		got, err := DecodeAction(EncodeAction(a))
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if got != a {
			t.Errorf("case %d: round trip mismatch: got %+v want %+v", i, got, a)
		}
	}
}

func TestDecodeAction_Malformed(t *testing.T) {
	for _, k := range []ActionKey{"", "1:2", "a:0:0:0:0", "1:2:3:4:5:6"} {
		if _, err := DecodeAction(k); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("action key %q: expected ErrMalformedKey, got %v", k, err)
		}
	}
}
