package paths

import (
	"testing"
)

// TestValidateInternal tests path validation against a base path.
func TestValidateInternal(t *testing.T) {
	// Define test cases.
	testCases := []struct {
		path     string
		expected string
		valid    bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"/", Root, true},
		{"///", Root, true},
		{".", Root, true},
		{"foo", "foo", true},
		{"/foo", "foo", true},
		{"foo/", "foo", true},
		{"/foo/bar", "foo/bar", true},
		{"foo/./bar", "foo/bar", true},
		{"foo/../bar", "bar", true},
		{"..", "", false},
		{"../foo", "", false},
		{"foo/../../bar", "", false},
		{"  /foo/bar  ", "foo/bar", true},
	}

	// Process test cases.
	for _, testCase := range testCases {
		result, ok := ValidateInternal("/srv/content", testCase.path)
		if ok != testCase.valid {
			t.Errorf("validity mismatch for %q: %t != %t", testCase.path, ok, testCase.valid)
		} else if ok && result != testCase.expected {
			t.Errorf("result mismatch for %q: %q != %q", testCase.path, result, testCase.expected)
		}
	}
}

// TestValidateExternal tests validation of transfer source paths.
func TestValidateExternal(t *testing.T) {
	// Define test cases.
	testCases := []struct {
		path     string
		expected string
		valid    bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"relative/path", "", false},
		{"/downloads/file", "/downloads/file", true},
		{"/downloads//file/", "/downloads/file", true},
		{"  /downloads/file  ", "/downloads/file", true},
	}

	// Process test cases.
	for _, testCase := range testCases {
		result, ok := ValidateExternal(testCase.path)
		if ok != testCase.valid {
			t.Errorf("validity mismatch for %q: %t != %t", testCase.path, ok, testCase.valid)
		} else if ok && result != testCase.expected {
			t.Errorf("result mismatch for %q: %q != %q", testCase.path, result, testCase.expected)
		}
	}
}

// TestCommonAncestor tests shared prefix computation.
func TestCommonAncestor(t *testing.T) {
	// Define test cases.
	testCases := []struct {
		candidates []string
		expected   string
	}{
		{nil, ""},
		{[]string{"foo/bar"}, "foo/bar"},
		{[]string{"foo/bar", "foo/baz"}, "foo"},
		{[]string{"foo/bar/one", "foo/bar/two"}, "foo/bar"},
		{[]string{"foo/bar", "qux/baz"}, ""},
		{[]string{"foo", "foo/bar"}, "foo"},
	}

	// Process test cases.
	for _, testCase := range testCases {
		if result := CommonAncestor(testCase.candidates...); result != testCase.expected {
			t.Errorf(
				"ancestor mismatch for %v: %q != %q",
				testCase.candidates, result, testCase.expected,
			)
		}
	}
}

// TestBlacklist tests exclusion pattern compilation and matching.
func TestBlacklist(t *testing.T) {
	// Compile a blacklist.
	blacklist, err := CompileBlacklist([]string{`\.tmp`, `cache/`})
	if err != nil {
		t.Fatal("unable to compile blacklist:", err)
	}

	// Define test cases.
	testCases := []struct {
		path     string
		expected bool
	}{
		{".tmp", true},
		{".tmp/scratch", true},
		{".TMP", true},
		{"cache/pages", true},
		{"content/page", false},
		{"nested/.tmp", false},
	}

	// Process test cases.
	for _, testCase := range testCases {
		if result := blacklist.Match(testCase.path); result != testCase.expected {
			t.Errorf("match mismatch for %q: %t != %t", testCase.path, result, testCase.expected)
		}
	}
}

// TestBlacklistInvalidPattern tests that invalid patterns are rejected.
func TestBlacklistInvalidPattern(t *testing.T) {
	if _, err := CompileBlacklist([]string{"("}); err == nil {
		t.Fatal("invalid pattern accepted")
	}
}

// TestBlacklistNil tests that a nil blacklist matches nothing.
func TestBlacklistNil(t *testing.T) {
	var blacklist *Blacklist
	if blacklist.Match("anything") {
		t.Error("nil blacklist matched")
	}
}
