package shared

import (
	"context"
	"fmt"
)

// SequenceAllocator hands out strictly increasing numbers from a named
// counter. Implementations must use a storage-native atomic increment-and-read
// so concurrent callers never receive the same value; gaps are acceptable.
type SequenceAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// FormatSequence renders a sequence value as a zero-padded identifier,
// e.g. FormatSequence("PCN-2026", 42, 5) -> "PCN-2026-00042".
func FormatSequence(prefix string, value int64, width int) string {
	return fmt.Sprintf("%s-%0*d", prefix, width, value)
}
