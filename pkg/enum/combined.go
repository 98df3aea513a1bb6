package enum

import (
	"context"
	"sync"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// CombinedEnumerator runs several enumerators in order and yields each unique
// text (by TextID) at most once.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator wraps the provided enumerators.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs each child enumerator in sequence.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	var mu sync.Mutex
	seen := make(map[types.TextID]bool)

	for _, e := range c.enumerators {
		err := e.Enumerate(ctx, func(text string, id types.TextID, prov types.Provenance) error {
			mu.Lock()
			if seen[id] {
				mu.Unlock()
				return nil
			}
			seen[id] = true
			mu.Unlock()

			return callback(text, id, prov)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
