package internal

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/go-homedir"

	"github.com/starford/anchor/internal/launcher"
	"github.com/starford/anchor/internal/window"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Storage   StorageConfig     `yaml:"storage"`
	Index     IndexConfig       `yaml:"index"`
	Popover   PopoverConfig     `yaml:"popover"`
	Dashboard DashboardConfig   `yaml:"dashboard"`
	Launcher  LauncherConfig    `yaml:"launcher"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Index.Validate(c.Storage.DataDir); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Popover.Validate(); err != nil {
		return fmt.Errorf("popover: %w", err)
	}
	if err := c.Dashboard.Validate(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return c.Auth.Validate()
}

// WindowConfig converts the popover and dashboard sections into coordinator
// settings.
func (c *Config) WindowConfig() window.Config {
	return window.Config{
		PopoverSize:   window.Size{Width: c.Popover.Width, Height: c.Popover.Height},
		DashboardSize: window.Size{Width: c.Dashboard.Width, Height: c.Dashboard.Height},
		Gap:           c.Popover.Gap,
		ScreenMargin:  c.Popover.ScreenMargin,
		TopOffset:     c.Popover.TopOffset,
		ClampToScreen: c.Popover.ClampToScreen,
		ReopenGuard:   c.Popover.ReopenGuard,
	}
}

// LauncherConfig converts the launcher section.
func (c *Config) LauncherConfig() launcher.Config {
	return launcher.Config{Editor: c.Launcher.Editor, Terminal: c.Launcher.Terminal}
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
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig locates the reference data file.
type StorageConfig struct {
	DataDir  string `yaml:"data_dir"`
	FileName string `yaml:"file_name"`
	Watch    bool   `yaml:"watch"`
}

// Validate expands a leading ~ in DataDir and validates the section.
func (c *StorageConfig) Validate() error {
	dir, err := homedir.Expand(c.DataDir)
	if err != nil {
		return fmt.Errorf("expand data_dir: %w", err)
	}
	c.DataDir = dir
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.FileName, validation.Required, validation.By(plainFileName)),
	)
}

// DataFile returns the full path of the data file.
func (c *StorageConfig) DataFile() string {
	return filepath.Join(c.DataDir, c.FileName)
}

func plainFileName(value any) error {
	name, _ := value.(string)
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("must be a file name without directories")
	}
	return nil
}

// IndexConfig controls the SQLite search index.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate defaults Path to index.db inside dataDir.
func (c *IndexConfig) Validate(dataDir string) error {
	if !c.Enabled {
		return nil
	}
	if c.Path == "" {
		c.Path = filepath.Join(dataDir, "index.db")
		return nil
	}
	p, err := homedir.Expand(c.Path)
	if err != nil {
		return fmt.Errorf("expand path: %w", err)
	}
	c.Path = p
	return nil
}

// PopoverConfig holds popover size and placement settings.
type PopoverConfig struct {
	Width         float64       `yaml:"width"`
	Height        float64       `yaml:"height"`
	Gap           float64       `yaml:"gap"`
	ScreenMargin  float64       `yaml:"screen_margin"`
	TopOffset     float64       `yaml:"top_offset"`
	ClampToScreen bool          `yaml:"clamp_to_screen"`
	ReopenGuard   time.Duration `yaml:"reopen_guard"`
}

// Validate validates the popover configuration.
func (c *PopoverConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Gap, validation.Min(0.0)),
		validation.Field(&c.ScreenMargin, validation.Min(0.0)),
		validation.Field(&c.TopOffset, validation.Min(0.0)),
		validation.Field(&c.ReopenGuard, validation.Min(time.Duration(0))),
	)
}

// DashboardConfig holds the dashboard window size.
type DashboardConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Validate validates the dashboard configuration.
func (c *DashboardConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(1.0)),
	)
}

// LauncherConfig names the programs used to open references.
// An empty Editor falls back to $EDITOR, then "code".
type LauncherConfig struct {
	Editor   string `yaml:"editor"`
	Terminal string `yaml:"terminal"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	w := window.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 7420,
			},
		},
		Storage: StorageConfig{
			DataDir:  defaultDataDir(),
			FileName: "data.json",
			Watch:    true,
		},
		Index: IndexConfig{
			Enabled: true,
		},
		Popover: PopoverConfig{
			Width:         w.PopoverSize.Width,
			Height:        w.PopoverSize.Height,
			Gap:           w.Gap,
			ScreenMargin:  w.ScreenMargin,
			TopOffset:     w.TopOffset,
			ClampToScreen: w.ClampToScreen,
			ReopenGuard:   w.ReopenGuard,
		},
		Dashboard: DashboardConfig{
			Width:  w.DashboardSize.Width,
			Height: w.DashboardSize.Height,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("~", ".config", "Anchor")
	}
	return filepath.Join(dir, "Anchor")
}
