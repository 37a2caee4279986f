// Package paths provides validation and matching helpers for the relative
// paths that identify index entries.
package paths

import (
	"path/filepath"
	"strings"
)

// Root is the relative path of the virtual root of a base path.
const Root = "."

// ValidateInternal validates a user-supplied path against the specified base
// path. The path is trimmed of surrounding whitespace and separators, joined
// with the base, and canonicalised. It is valid only if the canonical form is
// still inside the base. On success, the canonical relative path is returned,
// with Root representing the base itself.
func ValidateInternal(base, path string) (string, bool) {
	// Reject empty and whitespace-only input.
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", false
	}

	// Strip leading and trailing separators. A path that reduces to nothing
	// (e.g. "/") addresses the virtual root.
	trimmed = strings.Trim(trimmed, string(filepath.Separator))
	if trimmed == "" {
		return Root, true
	}

	// Join with the base path, which also canonicalises any "." and ".."
	// components, and verify containment.
	joined := filepath.Join(base, trimmed)
	if joined == base {
		return Root, true
	}
	if !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return "", false
	}

	// Convert back to a relative path.
	rel, err := filepath.Rel(base, joined)
	if err != nil {
		return "", false
	}
	return rel, true
}

// ValidateExternal validates an absolute path supplied for transfer sources.
// The path is trimmed and canonicalised, but no containment check is
// performed.
func ValidateExternal(path string) (string, bool) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || !filepath.IsAbs(trimmed) {
		return "", false
	}
	return filepath.Clean(trimmed), true
}

// CommonAncestor computes the longest shared prefix of the specified paths,
// split on the path separator. It returns an empty string when the paths
// share no leading components.
func CommonAncestor(candidates ...string) string {
	if len(candidates) == 0 {
		return ""
	}

	// Split every path into components.
	separator := string(filepath.Separator)
	split := make([][]string, len(candidates))
	for i, candidate := range candidates {
		split[i] = strings.Split(strings.Trim(candidate, separator), separator)
	}

	// Walk components while all paths agree.
	var shared []string
	for depth := 0; ; depth++ {
		if depth >= len(split[0]) {
			break
		}
		component := split[0][depth]
		agreed := true
		for _, components := range split[1:] {
			if depth >= len(components) || components[depth] != component {
				agreed = false
				break
			}
		}
		if !agreed {
			break
		}
		shared = append(shared, component)
	}

	// Done.
	return strings.Join(shared, separator)
}
