package pattern

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern is matched (via errors.Is) by every InvalidPatternError.
var ErrInvalidPattern = errors.New("pattern should contain at least one capture group")

// InvalidPatternError reports a pattern whose source has no capturing group,
// so there is nothing to resolve offsets for.
type InvalidPatternError struct {
	Source string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern /%s/: %v", e.Source, ErrInvalidPattern)
}

// Is makes errors.Is(err, ErrInvalidPattern) true.
func (e *InvalidPatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}
