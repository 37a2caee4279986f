package logging

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"

	"gopkg.in/natefinch/lumberjack.v2"
)

// currentLevel is the level at and below which messages are emitted. It is
// guarded by stateLock.
var currentLevel = LevelInfo

// stateLock guards currentLevel and the output configuration.
var stateLock sync.RWMutex

// levelTags maps levels to the colorized tags used on console output. Color
// output is automatically disabled by the color package when standard error
// is not a terminal.
var levelTags = map[Level]string{
	LevelError: color.RedString("ERR"),
	LevelWarn:  color.YellowString("WRN"),
	LevelInfo:  color.GreenString("INF"),
	LevelDebug: color.CyanString("DBG"),
	LevelTrace: color.WhiteString("TRC"),
}

// SetLevel sets the global logging level.
func SetLevel(level Level) {
	stateLock.Lock()
	defer stateLock.Unlock()
	currentLevel = level
}

// CurrentLevel returns the global logging level.
func CurrentLevel() Level {
	stateLock.RLock()
	defer stateLock.RUnlock()
	return currentLevel
}

// RotationOptions control the rotation behavior of file-based log output.
type RotationOptions struct {
	// MaximumSize is the maximum size of the log file (in megabytes) before
	// rotation occurs. A value of 0 uses the rotation backend's default.
	MaximumSize int
	// MaximumBackups is the maximum number of rotated files to retain.
	MaximumBackups int
	// MaximumAge is the maximum number of days to retain rotated files.
	MaximumAge int
}

// ConfigureFile redirects log output to the specified file path with the
// specified rotation options. An empty path leaves output on standard error.
func ConfigureFile(path string, options RotationOptions) {
	stateLock.Lock()
	defer stateLock.Unlock()
	if path == "" {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    options.MaximumSize,
		MaxBackups: options.MaximumBackups,
		MaxAge:     options.MaximumAge,
	})
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It is designed to use the
// standard logger provided by the log package, so it respects any flags set
// for that logger. It is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
}

// RootLogger is the root logger from which all other loggers derive.
var RootLogger = &Logger{}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		prefix: prefix,
	}
}

// output is the internal logging method.
func (l *Logger) output(level Level, line string) {
	if tag, ok := levelTags[level]; ok {
		line = tag + " " + line
	}
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(4, line)
}

// log emits a message at the specified level if that level is active.
func (l *Logger) log(level Level, v ...interface{}) {
	if l != nil && level <= CurrentLevel() {
		l.output(level, fmt.Sprint(v...))
	}
}

// logf emits a formatted message at the specified level if that level is
// active.
func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if l != nil && level <= CurrentLevel() {
		l.output(level, fmt.Sprintf(format, v...))
	}
}

// Error logs a fatal error with semantics equivalent to fmt.Print.
func (l *Logger) Error(v ...interface{}) {
	l.log(LevelError, v...)
}

// Errorf logs a fatal error with semantics equivalent to fmt.Printf.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(LevelError, format, v...)
}

// Warn logs a non-fatal error with semantics equivalent to fmt.Print.
func (l *Logger) Warn(v ...interface{}) {
	l.log(LevelWarn, v...)
}

// Warnf logs a non-fatal error with semantics equivalent to fmt.Printf.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(LevelWarn, format, v...)
}

// Info logs basic execution information with semantics equivalent to
// fmt.Print.
func (l *Logger) Info(v ...interface{}) {
	l.log(LevelInfo, v...)
}

// Infof logs basic execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(LevelInfo, format, v...)
}

// Debug logs advanced execution information with semantics equivalent to
// fmt.Print.
func (l *Logger) Debug(v ...interface{}) {
	l.log(LevelDebug, v...)
}

// Debugf logs advanced execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(LevelDebug, format, v...)
}

// Trace logs low-level execution information with semantics equivalent to
// fmt.Print.
func (l *Logger) Trace(v ...interface{}) {
	l.log(LevelTrace, v...)
}

// Tracef logs low-level execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Tracef(format string, v ...interface{}) {
	l.logf(LevelTrace, format, v...)
}
