// Package config loads vtable settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/viper"

	"vtable"
)

// Config is the whole application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Table  TableConfig  `mapstructure:"table" yaml:"table"`
	Source SourceConfig `mapstructure:"source" yaml:"source"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	DebugWindow bool   `mapstructure:"debug_window" yaml:"debug_window"`
}

// TableConfig is the geometry of the table in terminal lines and cells.
type TableConfig struct {
	Title          string         `mapstructure:"title" yaml:"title"`
	RowHeight      float64        `mapstructure:"row_height" yaml:"row_height"`
	ViewportHeight float64        `mapstructure:"viewport_height" yaml:"viewport_height"` // 0 fits the terminal
	BufferSize     int            `mapstructure:"buffer_size" yaml:"buffer_size"`
	Quiescence     time.Duration  `mapstructure:"quiescence" yaml:"quiescence"`
	NarrowBelow    int            `mapstructure:"narrow_below" yaml:"narrow_below"`
	WheelLines     int            `mapstructure:"wheel_lines" yaml:"wheel_lines"`
	Columns        []ColumnConfig `mapstructure:"columns" yaml:"columns"`
}

// ColumnConfig declares one column. Format takes the presets understood by
// vtable.ParseFormat.
type ColumnConfig struct {
	Key      string  `mapstructure:"key" yaml:"key"`
	Label    string  `mapstructure:"label" yaml:"label"`
	Width    float64 `mapstructure:"width" yaml:"width"`
	MinWidth float64 `mapstructure:"min_width" yaml:"min_width"`
	Format   string  `mapstructure:"format" yaml:"format"`
}

// SourceKind names a data layer implementation.
type SourceKind string

const (
	SourceHTTP      SourceKind = "http"
	SourceFile      SourceKind = "file"
	SourcePostgres  SourceKind = "postgres"
	SourceSynthetic SourceKind = "synthetic"
)

// SourceConfig selects and tunes the data layer.
type SourceConfig struct {
	Kind          SourceKind    `mapstructure:"kind" yaml:"kind"`
	URL           string        `mapstructure:"url" yaml:"url"`
	Limit         int           `mapstructure:"limit" yaml:"limit"`
	PageSize      int           `mapstructure:"page_size" yaml:"page_size"`
	Concurrency   int           `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimit     float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Path          string        `mapstructure:"path" yaml:"path"`
	Watch         bool          `mapstructure:"watch" yaml:"watch"`
	DSN           string        `mapstructure:"dsn" yaml:"-"`
	Query         string        `mapstructure:"query" yaml:"query"`
	SyntheticRows int           `mapstructure:"synthetic_rows" yaml:"synthetic_rows"`
}

// defaultColumns is the users listing: id, names, email, age, gender, phone.
var defaultColumns = []map[string]any{
	{"key": "id", "label": "ID", "width": 6},
	{"key": "firstName", "label": "Name", "width": 12},
	{"key": "lastName", "label": "Last Name", "width": 12},
	{"key": "email", "label": "Email", "width": 24, "min_width": 12},
	{"key": "age", "label": "Age", "width": 5, "format": "right"},
	{"key": "gender", "label": "Gender", "width": 8},
	{"key": "phone", "label": "Phone Number", "width": 16},
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "vtable")
	v.SetDefault("logger.log_file", "vtable.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.debug_window", false)

	// -- Table --
	v.SetDefault("table.title", "Users")
	v.SetDefault("table.row_height", 1)
	v.SetDefault("table.viewport_height", 0)
	v.SetDefault("table.buffer_size", vtable.DefaultBufferSize)
	v.SetDefault("table.quiescence", vtable.DefaultQuiescence)
	v.SetDefault("table.narrow_below", vtable.DefaultNarrowBelow)
	v.SetDefault("table.wheel_lines", 3)
	v.SetDefault("table.columns", defaultColumns)

	// -- Source --
	v.SetDefault("source.kind", string(SourceHTTP))
	v.SetDefault("source.url", "https://dummyjson.com/users")
	v.SetDefault("source.limit", 200)
	v.SetDefault("source.page_size", 50)
	v.SetDefault("source.concurrency", 4)
	v.SetDefault("source.rate_limit", 10)
	v.SetDefault("source.timeout", "15s")
	v.SetDefault("source.watch", false)
	v.SetDefault("source.query", "SELECT * FROM users ORDER BY id")
	v.SetDefault("source.synthetic_rows", 100_000)
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewDefaultConfig returns the configuration produced by defaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("failed to load default config: %v", err))
	}
	return cfg
}

// Validate fails fast on geometry the engine can't work with and on
// incomplete source settings.
func (c *Config) Validate() error {
	if rh := c.Table.RowHeight; rh != math.Trunc(rh) {
		return fmt.Errorf("table.row_height: %w: got %v", vtable.ErrFractionalRowHeight, rh)
	}
	if c.Table.ViewportHeight < 0 {
		return fmt.Errorf("table.viewport_height: %w", vtable.ErrInvalidViewportHeight)
	}
	if err := c.EngineConfig(24).Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if _, err := c.Columns(); err != nil {
		return fmt.Errorf("table.columns: %w", err)
	}
	return c.Source.Validate()
}

// Validate checks the settings of the selected source kind.
func (s SourceConfig) Validate() error {
	switch s.Kind {
	case SourceHTTP:
		if s.URL == "" {
			return errors.New("source.url is required for the http source")
		}
		if s.PageSize <= 0 || s.Concurrency <= 0 {
			return errors.New("source.page_size and source.concurrency must be positive")
		}
	case SourceFile:
		if s.Path == "" {
			return errors.New("source.path is required for the file source")
		}
	case SourcePostgres:
		if s.DSN == "" || s.Query == "" {
			return errors.New("source.dsn and source.query are required for the postgres source")
		}
	case SourceSynthetic:
		if s.SyntheticRows < 0 {
			return errors.New("source.synthetic_rows must not be negative")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", s.Kind)
	}
	return nil
}

// EngineConfig converts the table settings to engine geometry. fitHeight is
// used when the viewport is sized to the terminal.
func (c *Config) EngineConfig(fitHeight float64) vtable.Config {
	vh := c.Table.ViewportHeight
	if vh == 0 {
		vh = fitHeight
	}
	return vtable.Config{
		RowHeight:      c.Table.RowHeight,
		ViewportHeight: vh,
		BufferSize:     c.Table.BufferSize,
		Quiescence:     c.Table.Quiescence,
	}
}

// Columns builds the display columns, applying format presets.
func (c *Config) Columns() ([]vtable.Column, error) {
	cols := make([]vtable.Column, 0, len(c.Table.Columns))
	for _, cc := range c.Table.Columns {
		opt, err := vtable.ParseFormat(cc.Format)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", cc.Key, err)
		}
		label := cc.Label
		if label == "" {
			label = cc.Key
		}
		cols = append(cols, vtable.NewColumn(cc.Key, label, cc.Width, opt, vtable.MinWidth(cc.MinWidth)))
	}
	if err := vtable.ValidateColumns(cols); err != nil {
		return nil, err
	}
	return cols, nil
}
