package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/codec"
)

const (
	// ConfigFileName is the preferred configuration file.
	ConfigFileName = "democrat.yaml"

	// DefaultPort is the default inspect server port.
	DefaultPort = 7070

	// DefaultHost is the default inspect server host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where the Prometheus endpoint is mounted.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the Prometheus metric namespace.
	DefaultNamespace = "democrat"

	// DefaultTree is the demo tree served when none is named.
	DefaultTree = "app"
)

// FileNames lists the configuration files Load looks for, in order.
var FileNames = []string{"democrat.yaml", "democrat.yml", "democrat.json"}

// Config represents the complete democrat configuration.
type Config struct {
	// Server contains inspect server configuration.
	Server ServerConfig `json:"server" yaml:"server"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Codec contains serialization defaults.
	Codec CodecConfig `json:"codec" yaml:"codec"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// Demo configures the store run by `democrat serve`.
	Demo DemoConfig `json:"demo" yaml:"demo"`

	// Archive configures snapshot archiving.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains inspect server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// AllowAnyOrigin disables the same-origin check on websocket upgrades.
	AllowAnyOrigin bool `json:"allowAnyOrigin,omitempty" yaml:"allowAnyOrigin,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled mounts the scrape endpoint and records store metrics.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the scrape endpoint path.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// CodecConfig contains serialization settings.
type CodecConfig struct {
	// Format is the default format for snapshots and patches.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// DemoConfig selects the demo tree served by the CLI.
type DemoConfig struct {
	// Tree is the demo tree name.
	Tree string `json:"tree,omitempty" yaml:"tree,omitempty"`

	// Drive is the interval between scripted steps (e.g., "2s"). Empty
	// disables driving.
	Drive string `json:"drive,omitempty" yaml:"drive,omitempty"`
}

// ArchiveConfig contains snapshot archive settings.
type ArchiveConfig struct {
	// Location is a directory, a file:// URL or an s3://bucket/prefix URL.
	// Empty disables archiving.
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	// Keep is how many snapshots and patch batches to retain per store.
	// Zero keeps everything.
	Keep int `json:"keep,omitempty" yaml:"keep,omitempty"`

	// Restore starts `democrat serve` from the newest archived snapshot.
	Restore bool `json:"restore,omitempty" yaml:"restore,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
		Codec: CodecConfig{
			Format: string(codec.FormatJSON),
		},
		Log: LogConfig{
			Level: "info",
		},
		Demo: DemoConfig{
			Tree: DefaultTree,
		},
	}
}

// Load reads configuration from the first of FileNames found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("DEM023").
		WithDetail("No democrat.yaml or democrat.json found in " + dir)
}

// LoadOrDefault is Load, falling back to New when dir has no config file.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Code == "DEM023" {
			return New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. Files ending
// in .json are parsed as JSON, everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("DEM023").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("DEM020").Wrap(err)
	}

	cfg := New()
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("DEM020").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func formatName(path string) string {
	if isJSON(path) {
		return "JSON"
	}
	return "YAML"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as JSON when the
// path ends in .json and as YAML otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("DEM020").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("DEM025").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Codec.Format == "" {
		c.Codec.Format = string(codec.FormatJSON)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Demo.Tree == "" {
		c.Demo.Tree = DefaultTree
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("DEM024").
			WithDetail("server.port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("DEM024").
			WithDetail("metrics.path must start with /, got " + strconv.Quote(c.Metrics.Path))
	}
	if _, err := codec.ParseFormat(c.Codec.Format); err != nil {
		return errors.New("DEM021").
			WithDetail("codec.format is " + strconv.Quote(c.Codec.Format))
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("DEM024").
			WithDetail("log.level: " + err.Error()).
			WithSuggestion("Use one of: debug, info, warn, error.")
	}
	if _, err := c.DriveInterval(); err != nil {
		return errors.New("DEM024").
			WithDetail("demo.drive: " + err.Error())
	}
	if c.Archive.Keep < 0 {
		return errors.New("DEM024").
			WithDetail("archive.keep must not be negative")
	}
	if c.Archive.Restore && c.Archive.Location == "" {
		return errors.New("DEM024").
			WithDetail("archive.restore needs archive.location")
	}
	return nil
}

// Address returns the host:port the inspect server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the base URL of the inspect server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// Format returns the parsed codec format.
func (c *Config) Format() codec.Format {
	f, err := codec.ParseFormat(c.Codec.Format)
	if err != nil {
		return codec.FormatJSON
	}
	return f
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// DriveInterval returns the parsed demo.drive interval, zero when unset.
func (c *Config) DriveInterval() (time.Duration, error) {
	if c.Demo.Drive == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Demo.Drive)
}
