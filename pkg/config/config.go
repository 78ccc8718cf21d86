// Package config provides configuration management for reqdocx
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/interfaces"
)

// EnvPrefix prefixes every environment override, e.g. REQDOCX_PARSER_ITEM_INFIX.
const EnvPrefix = "REQDOCX"

// DefaultMaxFileSize bounds accepted documents.
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// BaseConfig provides validation shared by all configuration sections
type BaseConfig struct {
	mu        sync.RWMutex
	validator *validator.Validate
}

// NewBaseConfig creates a new base configuration
func NewBaseConfig() *BaseConfig {
	return &BaseConfig{
		validator: validator.New(),
	}
}

func (c *BaseConfig) validate(target interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := c.validator
	if v == nil {
		v = validator.New()
	}
	return v.Struct(target)
}

// ParserConfig configures requirement extraction
type ParserConfig struct {
	ItemInfix      string   `mapstructure:"item_infix" yaml:"item_infix" json:"item_infix" validate:"required"`
	ExtraKnownKeys []string `mapstructure:"extra_known_keys" yaml:"extra_known_keys,omitempty" json:"extra_known_keys,omitempty"`
	StartAnchors   []string `mapstructure:"start_anchors" yaml:"start_anchors" json:"start_anchors" validate:"min=1,dive,required"`
	EndAnchors     []string `mapstructure:"end_anchors" yaml:"end_anchors" json:"end_anchors" validate:"min=1,dive,required"`
	DebugDump      bool     `mapstructure:"debug_dump" yaml:"debug_dump" json:"debug_dump"`
	MaxFileSize    int64    `mapstructure:"max_file_size" yaml:"max_file_size" json:"max_file_size" validate:"gt=0"`
}

// NewParserConfig returns the settings of a standard "All Data" export
func NewParserConfig() ParserConfig {
	anchors := alldata.DefaultAnchors()
	return ParserConfig{
		ItemInfix:    alldata.DefaultItemInfix,
		StartAnchors: anchors.Start,
		EndAnchors:   anchors.End,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// Options converts the section into parser options
func (p ParserConfig) Options(log interfaces.Logger) alldata.Options {
	return alldata.Options{
		KnownKeys:    alldata.DefaultKnownKeys().With(p.ExtraKnownKeys...),
		StartAnchors: p.StartAnchors,
		EndAnchors:   p.EndAnchors,
		ItemInfix:    p.ItemInfix,
		DebugDump:    p.DebugDump,
		Logger:       log,
	}
}

// LogConfig configures logging
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

// NewLogConfig creates a new logging configuration
func NewLogConfig() LogConfig {
	return LogConfig{Level: "info"}
}

// StoreConfig configures the parse-run database
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" json:"path" validate:"required_if=Enabled true"`
	Debug   bool   `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig() StoreConfig {
	return StoreConfig{
		Enabled: false,
		Path:    "reqdocx.db",
	}
}

// APIConfig represents API server configuration
type APIConfig struct {
	Host          string        `mapstructure:"host" yaml:"host" json:"host" validate:"required"`
	Port          int           `mapstructure:"port" yaml:"port" json:"port" validate:"required,gt=0,lt=65536"`
	CORSEnabled   bool          `mapstructure:"cors_enabled" yaml:"cors_enabled" json:"cors_enabled"`
	CORSOrigins   []string      `mapstructure:"cors_origins" yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxUploadSize int64         `mapstructure:"max_upload_size" yaml:"max_upload_size" json:"max_upload_size" validate:"gt=0"`
	Mode          string        `mapstructure:"mode" yaml:"mode" json:"mode" validate:"oneof=debug release test"`
}

// NewAPIConfig creates a new API configuration
func NewAPIConfig() APIConfig {
	return APIConfig{
		Host:          "localhost",
		Port:          8000,
		CORSEnabled:   true,
		CORSOrigins:   []string{"*"},
		Timeout:       30 * time.Second,
		MaxUploadSize: DefaultMaxFileSize,
		Mode:          "release",
	}
}

// Address returns host:port
func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// ExportConfig configures report rendering
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=json yaml csv md html"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
	Title  string `mapstructure:"title" yaml:"title" json:"title"`
}

// NewExportConfig creates a new export configuration
func NewExportConfig() ExportConfig {
	return ExportConfig{
		Format: "json",
		Pretty: true,
		Title:  "Requirements",
	}
}

// AppConfig is the complete application configuration
type AppConfig struct {
	BaseConfig `mapstructure:"-" yaml:"-" json:"-"`
	Parser     ParserConfig `mapstructure:"parser" yaml:"parser" json:"parser"`
	Log        LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
	Store      StoreConfig  `mapstructure:"store" yaml:"store" json:"store"`
	API        APIConfig    `mapstructure:"api" yaml:"api" json:"api"`
	Export     ExportConfig `mapstructure:"export" yaml:"export" json:"export"`
}

// NewAppConfig creates a configuration populated with defaults
func NewAppConfig() *AppConfig {
	return &AppConfig{
		BaseConfig: BaseConfig{validator: validator.New()},
		Parser:     NewParserConfig(),
		Log:        NewLogConfig(),
		Store:      NewStoreConfig(),
		API:        NewAPIConfig(),
		Export:     NewExportConfig(),
	}
}

// Validate validates the configuration
func (c *AppConfig) Validate() error {
	if err := c.validate(c); err != nil {
		return errors.NewConfigInvalidError("invalid configuration", err)
	}
	return nil
}

// Load reads path (YAML or JSON, optional) over the defaults, then applies
// REQDOCX_* environment overrides and validates the result.
func Load(path string) (*AppConfig, error) {
	v := LoadFromEnv(EnvPrefix)
	setViperDefaults(v, "", NewAppConfig())

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NewConfigNotFoundError(path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigInvalidError("failed to read config file", err)
		}
	}

	// decode into empty slices so shorter lists replace the defaults
	cfg := &AppConfig{BaseConfig: BaseConfig{validator: validator.New()}}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigInvalidError("failed to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, or JSON for a .json path
func (c *AppConfig) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError("failed to create directory", err)
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to marshal config: %v", err))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewFileError("failed to write config", err)
	}
	return nil
}

// setViperDefaults registers every field of config under its mapstructure
// key so that environment overrides reach Unmarshal.
func setViperDefaults(v *viper.Viper, prefix string, config interface{}) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanInterface() {
			continue
		}

		tagName := strings.Split(fieldType.Tag.Get("mapstructure"), ",")[0]
		if tagName == "" {
			tagName = strings.ToLower(fieldType.Name)
		}
		if tagName == "-" {
			continue
		}

		key := tagName
		if prefix != "" {
			key = prefix + "." + tagName
		}

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Time{}) {
			setViperDefaults(v, key, field.Interface())
			continue
		}
		v.SetDefault(key, field.Interface())
	}
}

// ConfigManager implements the configuration manager interface
type ConfigManager struct {
	config map[string]interface{}
	mu     sync.RWMutex
	viper  *viper.Viper
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() interfaces.ConfigManager {
	return &ConfigManager{
		config: make(map[string]interface{}),
		viper:  viper.New(),
	}
}

// Load loads configuration from a file
func (cm *ConfigManager) Load(ctx context.Context, path string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.viper.SetConfigFile(path)

	if err := cm.viper.ReadInConfig(); err != nil {
		return errors.NewConfigInvalidError("failed to read config file", err)
	}

	cm.config = cm.viper.AllSettings()
	return nil
}

// Get retrieves a configuration value
func (cm *ConfigManager) Get(key string) interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.viper.Get(key)
}

// Set sets a configuration value
func (cm *ConfigManager) Set(key string, value interface{}) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.viper.Set(key, value)
	cm.config[key] = value
	return nil
}

// Save saves configuration to a file
func (cm *ConfigManager) Save(ctx context.Context, path string) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.viper.WriteConfigAs(path)
}

// Watch reports every top-level setting to callback whenever the loaded file
// changes
func (cm *ConfigManager) Watch(ctx context.Context, callback func(key string, value interface{})) error {
	cm.viper.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cm.viper.AllSettings()
		snapshot := make(map[string]interface{}, len(cm.config))
		for key, value := range cm.config {
			snapshot[key] = value
		}
		cm.mu.Unlock()

		for key, value := range snapshot {
			callback(key, value)
		}
	})
	cm.viper.WatchConfig()

	return nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}
