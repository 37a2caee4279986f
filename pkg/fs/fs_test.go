package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestTimestampRoundTrip tests that timestamp conversion is exact at
// microsecond granularity.
func TestTimestampRoundTrip(t *testing.T) {
	// Define test cases.
	testCases := []time.Time{
		time.Unix(0, 0),
		time.Unix(1456221596, 0),
		time.Unix(1456221596, 123456000),
		time.Unix(1456221596, 999999000),
		time.Date(2038, 1, 19, 3, 14, 7, 0, time.UTC),
	}

	// Process test cases.
	for _, testCase := range testCases {
		restored := FromTimestamp(Timestamp(testCase))
		if restored.UnixMicro() != testCase.UnixMicro() {
			t.Errorf("round trip mismatch: %v != %v", restored, testCase)
		}
	}
}

// TestEqual tests full object equality.
func TestEqual(t *testing.T) {
	createDate := time.Unix(1456221596, 123456000)
	modifyDate := time.Unix(1456221600, 654321000)
	file := NewFile("/srv/content", "docs/readme", 42, createDate, modifyDate)

	// An identical object compares equal.
	if !file.Equal(NewFile("/srv/content", "docs/readme", 42, createDate, modifyDate)) {
		t.Error("identical objects compared unequal")
	}

	// Sub-microsecond differences are invisible.
	if !file.Equal(NewFile("/srv/content", "docs/readme", 42, createDate.Add(time.Nanosecond), modifyDate)) {
		t.Error("sub-microsecond difference detected")
	}

	// Any other field difference breaks equality.
	if file.Equal(nil) {
		t.Error("object compared equal to nil")
	}
	if file.Equal(NewFile("/srv/content", "docs/other", 42, createDate, modifyDate)) {
		t.Error("different paths compared equal")
	}
	if file.Equal(NewFile("/srv/content", "docs/readme", 43, createDate, modifyDate)) {
		t.Error("different sizes compared equal")
	}
	if file.Equal(NewFile("/srv/content", "docs/readme", 42, createDate.Add(time.Millisecond), modifyDate)) {
		t.Error("different creation dates compared equal")
	}
	if file.Equal(NewDirectory("/srv/content", "docs/readme", createDate, modifyDate)) {
		t.Error("file compared equal to directory")
	}
}

// TestChanged tests modification detection, which ignores creation dates.
func TestChanged(t *testing.T) {
	createDate := time.Unix(1456221596, 0)
	modifyDate := time.Unix(1456221600, 0)
	file := NewFile("/srv/content", "docs/readme", 42, createDate, modifyDate)

	// Creation date differences alone don't register as changes.
	if file.Changed(NewFile("/srv/content", "docs/readme", 42, createDate.Add(time.Hour), modifyDate)) {
		t.Error("creation date difference registered as change")
	}

	// Size and modification date differences do.
	if !file.Changed(NewFile("/srv/content", "docs/readme", 43, createDate, modifyDate)) {
		t.Error("size difference not registered as change")
	}
	if !file.Changed(NewFile("/srv/content", "docs/readme", 42, createDate, modifyDate.Add(time.Second))) {
		t.Error("modification date difference not registered as change")
	}
	if !file.Changed(nil) {
		t.Error("nil comparison not registered as change")
	}
}

// TestFromPath tests object materialisation from disk.
func TestFromPath(t *testing.T) {
	// Create a file fixture.
	basePath := t.TempDir()
	if err := os.MkdirAll(filepath.Join(basePath, "docs"), 0700); err != nil {
		t.Fatal("unable to create directory:", err)
	}
	if err := os.WriteFile(filepath.Join(basePath, "docs", "readme"), []byte("hello"), 0600); err != nil {
		t.Fatal("unable to create file:", err)
	}

	// Materialise the file.
	file, err := FromPath(basePath, "docs/readme")
	if err != nil {
		t.Fatal("unable to materialise file:", err)
	}
	if !file.IsFile() {
		t.Error("file materialised as directory")
	}
	if file.Size != 5 {
		t.Error("unexpected file size:", file.Size)
	}
	if file.Name != "readme" {
		t.Error("unexpected file name:", file.Name)
	}
	if file.Path() != filepath.Join(basePath, "docs", "readme") {
		t.Error("unexpected file path:", file.Path())
	}
	if file.Type() != TypeFile {
		t.Error("unexpected file type:", file.Type())
	}

	// Materialise the directory.
	directory, err := FromPath(basePath, "docs")
	if err != nil {
		t.Fatal("unable to materialise directory:", err)
	}
	if !directory.IsDir() {
		t.Error("directory materialised as file")
	}
	if directory.Size != 0 {
		t.Error("directory carries a size:", directory.Size)
	}
	if directory.Type() != TypeDirectory {
		t.Error("unexpected directory type:", directory.Type())
	}

	// Missing entries produce errors.
	if _, err := FromPath(basePath, "missing"); err == nil {
		t.Error("missing entry materialised")
	}
}
