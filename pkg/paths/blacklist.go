package paths

import (
	"regexp"

	"github.com/pkg/errors"
)

// Blacklist is a compiled set of exclusion patterns. A path is blacklisted if
// any pattern matches from the beginning of the path. Matching is
// case-insensitive. A nil Blacklist matches nothing.
type Blacklist struct {
	// patterns are the compiled exclusion patterns.
	patterns []*regexp.Regexp
}

// CompileBlacklist compiles the specified exclusion patterns into a
// Blacklist.
func CompileBlacklist(patterns []string) (*Blacklist, error) {
	result := &Blacklist{}
	for _, pattern := range patterns {
		// Anchor the pattern at the beginning of the path and make matching
		// case-insensitive. Patterns carrying their own anchor remain valid
		// inside the group.
		compiled, err := regexp.Compile("(?i)^(?:" + pattern + ")")
		if err != nil {
			return nil, errors.Wrapf(err, "invalid blacklist pattern %q", pattern)
		}
		result.patterns = append(result.patterns, compiled)
	}
	return result, nil
}

// Match checks whether the specified relative path is blacklisted.
func (b *Blacklist) Match(path string) bool {
	if b == nil {
		return false
	}
	for _, pattern := range b.patterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}
