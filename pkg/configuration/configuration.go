package configuration

import (
	"os"

	"github.com/pkg/errors"

	"gopkg.in/yaml.v3"
)

// FSAL holds the daemon's primary settings.
type FSAL struct {
	// Socket is the path of the Unix domain socket to bind.
	Socket string `yaml:"socket"`
	// BasePaths is the ordered list of base directories to index. The last
	// entry is the default transfer destination.
	BasePaths []string `yaml:"basepaths"`
	// Blacklist is a list of regular expression patterns. Paths matching any
	// pattern from the beginning are excluded from the index.
	Blacklist []string `yaml:"blacklist"`
	// Watch enables the fsnotify-based live watcher.
	Watch bool `yaml:"watch"`
}

// Bundles configures bundle delivery handling.
type Bundles struct {
	// BundlesDir is the sub-directory under each base path that receives
	// bundle archives.
	BundlesDir string `yaml:"bundles_dir"`
	// BundlesExts is the allow-list of bundle file extensions.
	BundlesExts []string `yaml:"bundles_exts"`
}

// ONDD configures the external notification source.
type ONDD struct {
	// Socket is the IPC socket of the notification source. An empty value
	// disables the listener.
	Socket string `yaml:"socket"`
}

// Database configures the index database.
type Database struct {
	// Backend names the database backend. Only "sqlite" is supported.
	Backend string `yaml:"backend"`
	// Name is the database name. For the sqlite backend this is the database
	// file path.
	Name string `yaml:"name"`
	// Host, Port, User, and Password are accepted for parity with networked
	// backends and ignored by sqlite.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Logging configures log output.
type Logging struct {
	// Level is the log level name ("disabled" through "trace").
	Level string `yaml:"level"`
	// File is the log file path. An empty value logs to standard error.
	File string `yaml:"file"`
	// MaxSize is the maximum log file size in megabytes before rotation.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is the maximum number of rotated log files to retain.
	MaxBackups int `yaml:"max_backups"`
	// MaxAge is the maximum number of days to retain rotated log files.
	MaxAge int `yaml:"max_age"`
}

// Configuration is the top-level daemon configuration.
type Configuration struct {
	FSAL     FSAL     `yaml:"fsal"`
	Bundles  Bundles  `yaml:"bundles"`
	ONDD     ONDD     `yaml:"ondd"`
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
}

// defaults returns a configuration populated with default values. Nothing in
// this structure is modified for keys absent from the configuration file.
func defaults() *Configuration {
	result := &Configuration{}
	result.FSAL.Socket = "/var/run/fsal.socket"
	result.Bundles.BundlesDir = "bundles"
	result.Bundles.BundlesExts = []string{"zip"}
	result.Database.Backend = "sqlite"
	result.Database.Name = "fsal.db"
	result.Logging.Level = "info"
	return result
}

// Load loads the configuration file at the specified path and populates a
// Configuration structure, applying defaults for unspecified values.
func Load(path string) (*Configuration, error) {
	// Start from defaults.
	result := defaults()

	// Grab the file contents.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load configuration file")
	}

	// Perform the unmarshaling.
	if err := yaml.Unmarshal(data, result); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal configuration")
	}

	// Validate what we can this early.
	if len(result.FSAL.BasePaths) == 0 {
		return nil, errors.New("no base paths configured")
	}

	// Success.
	return result, nil
}
