package designer

import (
	"slices"

	"github.com/google/uuid"
)

// IDGenerator returns a new unique id carrying the given prefix
type IDGenerator func(prefix string) string

// NewID generates ids like "section-1b4e28ba-2fa1-11d2-883f-0016d3cca427"
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Reorder moves the element at from to position to and returns a new slice.
// The input slice is never modified.
func Reorder[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) {
		return nil, &IndexError{Index: from, Len: len(list)}
	}
	if to < 0 || to >= len(list) {
		return nil, &IndexError{Index: to, Len: len(list)}
	}
	item := list[from]
	out := slices.Delete(slices.Clone(list), from, from+1)
	return slices.Insert(out, to, item), nil
}

// swap returns a copy of list with positions i and j exchanged
func swap[T any](list []T, i, j int) []T {
	out := slices.Clone(list)
	out[i], out[j] = out[j], out[i]
	return out
}
