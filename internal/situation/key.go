// Context key encoding — a canonical colon-separated string per discretized
// situation, so near-identical situations collapse to one memory slot.
package situation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Key is a canonical, comparable encoding of a discretized Context.
type Key string

// ErrMalformedKey is returned when a stored key cannot be decoded.
// Callers should drop the entry rather than abort the whole retrieval.
var ErrMalformedKey = errors.New("malformed context key")

const keyFields = 11

// EncodeKey produces the canonical key for a context. Continuous ratios are
// bucketed to tenths; all other fields pass through as-is.
func EncodeKey(c Context) Key {
	weapon := 0
	if c.HasWeapon {
		weapon = 1
	}
	return Key(fmt.Sprintf("%d:%d:%d:%d:%d:%d:%d:%d:%d:%d:%d",
		ratioBucket(c.Health), ratioBucket(c.Hunger), ratioBucket(c.Thirst),
		c.GridX, c.GridY,
		c.NearbyEnemies, c.NearbyItems, c.NearbyNPCs,
		weapon, c.ItemCount, c.TimeBucket,
	))
}

// DecodeKey reconstructs the discretized Context a key was built from.
// It is a left-inverse of EncodeKey over discretized fields:
// DecodeKey(EncodeKey(c)) == c.Discretized().
func DecodeKey(k Key) (Context, error) {
	parts := strings.Split(string(k), ":")
	if len(parts) != keyFields {
		return Context{}, fmt.Errorf("%w: %d fields in %q", ErrMalformedKey, len(parts), k)
	}

	nums := make([]int, keyFields)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Context{}, fmt.Errorf("%w: field %d in %q", ErrMalformedKey, i, k)
		}
		nums[i] = n
	}

	return Context{
		Health:        float64(nums[0]) / 10.0,
		Hunger:        float64(nums[1]) / 10.0,
		Thirst:        float64(nums[2]) / 10.0,
		GridX:         nums[3],
		GridY:         nums[4],
		NearbyEnemies: nums[5],
		NearbyItems:   nums[6],
		NearbyNPCs:    nums[7],
		HasWeapon:     nums[8] != 0,
		ItemCount:     nums[9],
		TimeBucket:    nums[10],
	}, nil
}
