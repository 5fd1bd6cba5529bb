// Package config holds the viewer configuration: built-in defaults overlaid by an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-portal/common"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// End colour sources for the portal end-colour control.
const (
	EndColorFromStart = "start"
	EndColorFromEnd   = "end"
)

// Config is the top-level configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Assets   AssetsConfig   `yaml:"assets"`
	Scene    SceneConfig    `yaml:"scene"`
	Camera   CameraConfig   `yaml:"camera"`
	Loader   LoaderConfig   `yaml:"loader"`
	Shaders  ShadersConfig  `yaml:"shaders"`
	Debug    DebugConfig    `yaml:"debug"`
	Log      LogConfig      `yaml:"log"`
	Profiler ProfilerConfig `yaml:"profiler"`
}

// WindowConfig contains window and surface settings.
type WindowConfig struct {
	Title         string  `yaml:"title"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	VSync         bool    `yaml:"vsync"`
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"`
	// FrameLimit caps the loop in frames per second; 0 leaves pacing to the present mode.
	FrameLimit float64 `yaml:"frame_limit"`
}

// AssetsConfig names the asset files, relative to Root.
type AssetsConfig struct {
	Root        string `yaml:"root"`
	Texture     string `yaml:"texture"`
	Model       string `yaml:"model"`
	DecoderPath string `yaml:"decoder_path"`
	Shaders     string `yaml:"shaders"`
}

// SceneConfig contains the initial look of the scene.
type SceneConfig struct {
	Fireflies        int     `yaml:"fireflies"`
	FireflySize      float32 `yaml:"firefly_size"`
	ClearColor       string  `yaml:"clear_color"`
	PortalColorStart string  `yaml:"portal_color_start"`
	PortalColorEnd   string  `yaml:"portal_color_end"`
	PoleLightColor   string  `yaml:"pole_light_color"`
	// EndColorSource selects which debug field feeds the portal end-colour uniform ("start" or "end").
	EndColorSource string `yaml:"end_color_source"`
}

// CameraConfig contains the perspective camera and orbit settings.
type CameraConfig struct {
	FovDegrees float32    `yaml:"fov"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
	Position   [3]float32 `yaml:"position"`
	Damping    float32    `yaml:"damping"`
}

// LoaderConfig sizes the background asset-loading worker pool.
type LoaderConfig struct {
	Workers     int           `yaml:"workers"`
	QueueSize   int           `yaml:"queue_size"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// ShadersConfig controls shader hot reload.
type ShadersConfig struct {
	HotReload bool `yaml:"hot_reload"`
}

// DebugConfig controls the HTTP/websocket debug panel. It is on by default and bound to
// loopback, so the controls are reachable at http://127.0.0.1:8090 on every run.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ProfilerConfig controls periodic FPS and memory logging.
type ProfilerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - *Config: a fresh default configuration
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:         "Portal",
			Width:         1280,
			Height:        720,
			VSync:         true,
			MaxPixelRatio: 2,
		},
		Assets: AssetsConfig{
			Root:        "assets",
			Texture:     "baked.jpg",
			Model:       "portal.glb",
			DecoderPath: "draco/",
			Shaders:     "shaders",
		},
		Scene: SceneConfig{
			Fireflies:        150,
			FireflySize:      100,
			ClearColor:       "#5f4545",
			PortalColorStart: "#000000",
			PortalColorEnd:   "#ffffff",
			PoleLightColor:   "#ffffe5",
			EndColorSource:   EndColorFromStart,
		},
		Camera: CameraConfig{
			FovDegrees: 45,
			Near:       0.1,
			Far:        100,
			Position:   [3]float32{4, 2, 4},
			Damping:    0.05,
		},
		Loader: LoaderConfig{
			Workers:     2,
			QueueSize:   8,
			IdleTimeout: 5 * time.Second,
		},
		Debug: DebugConfig{
			Enabled: true,
			Listen:  "127.0.0.1:8090",
		},
		Log: LogConfig{
			Level: "info",
		},
		Profiler: ProfilerConfig{
			Interval: 5 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// An empty path returns the defaults.
//
// Parameters:
//   - path: the YAML file to read, or ""
//
// Returns:
//   - *Config: the merged configuration
//   - error: read, parse or validation error
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and formats.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig, or nil
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.FrameLimit < 0 {
		return invalid("window.frame_limit %v must not be negative", c.Window.FrameLimit)
	}
	if c.Window.MaxPixelRatio <= 0 {
		return invalid("window.max_pixel_ratio %v must be positive", c.Window.MaxPixelRatio)
	}
	if c.Scene.Fireflies <= 0 {
		return invalid("scene.fireflies %d must be positive", c.Scene.Fireflies)
	}
	if c.Scene.FireflySize < 1 || c.Scene.FireflySize > 400 {
		return invalid("scene.firefly_size %v out of range [1, 400]", c.Scene.FireflySize)
	}
	for name, v := range map[string]string{
		"scene.clear_color":        c.Scene.ClearColor,
		"scene.portal_color_start": c.Scene.PortalColorStart,
		"scene.portal_color_end":   c.Scene.PortalColorEnd,
		"scene.pole_light_color":   c.Scene.PoleLightColor,
	} {
		if _, err := common.ParseHexColor(v); err != nil {
			return invalid("%s: %v", name, err)
		}
	}
	if c.Scene.EndColorSource != EndColorFromStart && c.Scene.EndColorSource != EndColorFromEnd {
		return invalid("scene.end_color_source %q must be %q or %q", c.Scene.EndColorSource, EndColorFromStart, EndColorFromEnd)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return invalid("camera clip planes near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return invalid("camera.fov %v out of range (0, 180)", c.Camera.FovDegrees)
	}
	if c.Camera.Damping <= 0 || c.Camera.Damping > 1 {
		return invalid("camera.damping %v out of range (0, 1]", c.Camera.Damping)
	}
	if c.Loader.Workers <= 0 || c.Loader.QueueSize <= 0 {
		return invalid("loader workers=%d queue_size=%d must be positive", c.Loader.Workers, c.Loader.QueueSize)
	}
	if c.Debug.Enabled && c.Debug.Listen == "" {
		return invalid("debug.listen is required when the debug panel is enabled")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	return nil
}

// AssetPath joins an asset name onto the asset root.
//
// Parameters:
//   - name: path relative to Assets.Root
//
// Returns:
//   - string: the joined path
func (c *Config) AssetPath(name string) string {
	return filepath.Join(c.Assets.Root, name)
}
