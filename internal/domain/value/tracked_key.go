package value

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"git.appkode.ru/pub/go/failure"

	"price_simulator/pkg/errcodes"
)

// TrackedKey identifies a brand whose price series is simulated.
type TrackedKey string

func (k TrackedKey) String() string {
	return string(k)
}

// KeySet is the closed, ordered set of tracked keys. It is immutable after
// construction.
type KeySet struct {
	keys  []TrackedKey
	index map[TrackedKey]struct{}
}

// NewKeySet builds a key set preserving the given order. Blank and duplicate
// names are rejected.
func NewKeySet(names ...string) (KeySet, error) {
	set := KeySet{
		keys:  make([]TrackedKey, 0, len(names)),
		index: make(map[TrackedKey]struct{}, len(names)),
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return KeySet{}, errors.New("tracked key must not be blank")
		}

		key := TrackedKey(name)
		if _, ok := set.index[key]; ok {
			return KeySet{}, fmt.Errorf("duplicate tracked key %q", name)
		}

		set.index[key] = struct{}{}
		set.keys = append(set.keys, key)
	}

	return set, nil
}

func (s KeySet) Contains(key TrackedKey) bool {
	_, ok := s.index[key]
	return ok
}

// Keys returns a copy of the keys in configuration order.
func (s KeySet) Keys() []TrackedKey {
	return slices.Clone(s.keys)
}

func (s KeySet) Len() int {
	return len(s.keys)
}

// Parse validates raw against the set.
func (s KeySet) Parse(raw string) (TrackedKey, error) {
	key := TrackedKey(raw)
	if !s.Contains(key) {
		return "", failure.NewInvalidArgumentError(
			fmt.Sprintf("unknown tracked key %q", raw),
			failure.WithCode(errcodes.InvalidTrackedKey),
			failure.WithDescription(fmt.Sprintf("%q is not a tracked key", raw)),
		)
	}

	return key, nil
}
