package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mindatlas/internal/guard"
	"github.com/starford/mindatlas/internal/storage"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Backend BackendConfig     `yaml:"backend"`
	Auth    AuthConfig        `yaml:"auth"`
	CORS    CORSConfig        `yaml:"cors"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	return c.Auth.Validate()
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

// StorageConfig selects the durable key/value backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = storage.DriverFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(storage.DriverFile, storage.DriverSQLite, storage.DriverRedis, storage.DriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver == storage.DriverFile || c.Driver == storage.DriverSQLite, validation.Required)),
		validation.Field(&c.RedisURL, validation.When(c.Driver == storage.DriverRedis, validation.Required)),
	)
}

// Options converts the section into storage.Open options.
func (c *StorageConfig) Options() storage.Options {
	return storage.Options{
		Driver:      c.Driver,
		Path:        c.Path,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}

// BackendConfig points at the REST backend that issues tokens.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds session and route-guard configuration.
//
// VerifySecret is optional: when empty, tokens are decoded without checking
// their signature, trusting the backend that issued them.
type AuthConfig struct {
	VerifySecret string          `yaml:"verify_secret"`
	LoginPath    string          `yaml:"login_path"`
	AdminPath    string          `yaml:"admin_path"`
	HomePath     string          `yaml:"home_path"`
	LogoutPath   string          `yaml:"logout_path"`
	LoginRate    LoginRateConfig `yaml:"login_rate"`
}

// LoginRateConfig bounds login and registration attempts.
type LoginRateConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LoginPath, validation.Required),
		validation.Field(&c.AdminPath, validation.Required),
		validation.Field(&c.HomePath, validation.Required),
		validation.Field(&c.LogoutPath, validation.Required),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.LoginRate.PerSecond < 0 || c.LoginRate.Burst < 0 {
		return fmt.Errorf("auth: login_rate must not be negative")
	}
	if c.LoginRate.PerSecond > 0 && c.LoginRate.Burst == 0 {
		return fmt.Errorf("auth: login_rate.burst is required when per_second is set")
	}
	return nil
}

// Paths returns the guard destinations.
func (c *AuthConfig) Paths() guard.Paths {
	return guard.Paths{
		Login:  c.LoginPath,
		Admin:  c.AdminPath,
		Home:   c.HomePath,
		Logout: c.LogoutPath,
	}
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	paths := guard.DefaultPaths()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: storage.DriverFile,
			Path:   "./data",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8081",
			Timeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			LoginPath:  paths.Login,
			AdminPath:  paths.Admin,
			HomePath:   paths.Home,
			LogoutPath: paths.Logout,
			LoginRate: LoginRateConfig{
				PerSecond: 1,
				Burst:     5,
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}
