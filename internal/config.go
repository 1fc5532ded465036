package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lectern/internal/citation"
	"github.com/starford/lectern/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Library   LibraryConfig     `yaml:"library"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Citations CitationsConfig   `yaml:"citations"`
	Import    ImportConfig      `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Citations.Validate(); err != nil {
		return err
	}
	return c.Import.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LibraryConfig holds the path to the directory of imported source files.
type LibraryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// CitationsConfig bounds alias matching and the alias cache.
type CitationsConfig struct {
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	MaxPatternLength   int           `yaml:"max_pattern_length"`
	MaxMatchesPerAlias int           `yaml:"max_matches_per_alias"`
}

// Validate validates the citations configuration.
func (c *CitationsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxPatternLength, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxMatchesPerAlias, validation.Required, validation.Min(1)),
	)
}

// Limits converts the configuration to matcher limits.
func (c *CitationsConfig) Limits() citation.Limits {
	return citation.Limits{
		MaxPatternLength:   c.MaxPatternLength,
		MaxMatchesPerAlias: c.MaxMatchesPerAlias,
	}
}

// ImportConfig holds document import settings.
type ImportConfig struct {
	DefaultSourceType models.SourceType `yaml:"default_source_type"`
	MaxUploadBytes    int64             `yaml:"max_upload_bytes"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	if c.DefaultSourceType == "" {
		c.DefaultSourceType = models.SourceGeneric
	}
	if !c.DefaultSourceType.Valid() {
		return fmt.Errorf("import: unknown default_source_type %q", c.DefaultSourceType)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Library: LibraryConfig{
			Path: "./library",
		},
		SQLite: SQLiteConfig{
			Path: "./lectern.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Citations: CitationsConfig{
			CacheTTL:           5 * time.Second,
			MaxPatternLength:   512,
			MaxMatchesPerAlias: 1000,
		},
		Import: ImportConfig{
			DefaultSourceType: models.SourceGeneric,
			MaxUploadBytes:    32 << 20,
		},
	}
}
