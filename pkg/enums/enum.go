package enums

import (
	"fmt"
	"slices"
)

// Every enum in this package is a string type backed by a closed set of
// values. The helpers below keep membership and parsing uniform.

func member[T ~string](set []T, v T) bool {
	return slices.Contains(set, v)
}

func parse[T ~string](set []T, kind, raw string) (T, error) {
	if v := T(raw); member(set, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
