package logging

// Level controls which messages a logger emits. Levels are ordered from
// silent to most verbose; a logger at a given level emits messages at that
// level and below.
type Level uint

const (
	// LevelDisabled suppresses all output.
	LevelDisabled Level = iota
	// LevelError emits only errors.
	LevelError
	// LevelWarn adds non-fatal problems.
	LevelWarn
	// LevelInfo adds routine operational messages. This is the default level.
	LevelInfo
	// LevelDebug adds detail useful when diagnosing daemon behavior.
	LevelDebug
	// LevelTrace adds per-request and per-entry detail.
	LevelTrace
)

// levelNames maps levels (by value) to the names accepted in the
// configuration file.
var levelNames = []string{"disabled", "error", "warn", "info", "debug", "trace"}

// NameToLevel parses a level name. The second return value indicates whether
// the name was recognized.
func NameToLevel(name string) (Level, bool) {
	for value, candidate := range levelNames {
		if candidate == name {
			return Level(value), true
		}
	}
	return LevelDisabled, false
}

// String returns the level's configuration file name.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}
