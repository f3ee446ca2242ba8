// Package config provides the JSON configuration file for the tracker.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blob-tracker/pkg/colorutil"
	"blob-tracker/pkg/geometry"
)

const (
	appDir     = "blob-tracker"
	configFile = "config.json"
)

// Config holds every tunable of the live tracker.
type Config struct {
	Capture   CaptureConfig   `json:"capture"`
	Detection DetectionConfig `json:"detection"`
	Screen    ScreenConfig    `json:"screen"`
	Display   DisplayConfig   `json:"display"`

	// TargetFractions places the calibration targets as fractions of the
	// screen size.
	TargetFractions [3]geometry.Point2D `json:"target_fractions"`

	// Keys maps a single key to a command name. Keys not listed reset the
	// background.
	Keys map[string]string `json:"keys,omitempty"`

	// CalibrationFile is loaded at startup when present and written by the
	// save-calibration command.
	CalibrationFile string `json:"calibration_file,omitempty"`
}

// CaptureConfig describes the camera source.
type CaptureConfig struct {
	// Device is a camera index ("0") or a video file path.
	Device string  `json:"device"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
	FlipX  bool    `json:"flip_x"`
	FlipY  bool    `json:"flip_y"`
}

// DetectionConfig tunes blob detection.
type DetectionConfig struct {
	Threshold float64 `json:"threshold"`
	MinArea   float64 `json:"min_area"`
}

// ScreenConfig is the output display size.
type ScreenConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
}

// DisplayConfig holds overlay art direction.
type DisplayConfig struct {
	// BackgroundColors are "#RRGGBB" values cycled by cycle-background.
	BackgroundColors []string `json:"background_colors"`
	StrokeColor      string   `json:"stroke_color"`
	StrokeWidth      int      `json:"stroke_width"`
	TargetDiameter   float64  `json:"target_diameter"`
	MarkerDiameter   float64  `json:"marker_diameter"`
}

// Default returns the configuration the tracker runs with when no file
// exists.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Device: "0",
			Width:  320,
			Height: 240,
			FPS:    90,
			FlipX:  true,
			FlipY:  false,
		},
		Detection: DetectionConfig{
			Threshold: 0.075,
			MinArea:   4,
		},
		Screen: ScreenConfig{
			Width:      1280,
			Height:     1024,
			Fullscreen: true,
		},
		Display: DisplayConfig{
			BackgroundColors: []string{"#FFFFFF", "#000000"},
			StrokeColor:      "#FF0000",
			StrokeWidth:      3,
			TargetDiameter:   40,
			MarkerDiameter:   40,
		},
		TargetFractions: [3]geometry.Point2D{
			{X: 0.10, Y: 0.90},
			{X: 0.10, Y: 0.10},
			{X: 0.90, Y: 0.10},
		},
		Keys: DefaultKeys(),
	}
}

// DefaultKeys returns the default key bindings.
func DefaultKeys() map[string]string {
	return map[string]string{
		"1": "select-target-1",
		"2": "select-target-2",
		"3": "select-target-3",
		"b": "cycle-background",
		"c": "uncalibrate",
		"s": "save-calibration",
		"q": "quit",
	}
}

// DefaultPath returns ~/.config/blob-tracker/config.json, or the platform
// equivalent.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, appDir, configFile)
}

// DefaultCalibrationPath returns the calibration file next to the default
// config file.
func DefaultCalibrationPath() string {
	return filepath.Join(filepath.Dir(DefaultPath()), "calibration.json")
}

// Load reads the config at path. A missing file yields Default(); fields
// absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges and color syntax.
func (c *Config) Validate() error {
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("invalid capture size %dx%d", c.Capture.Width, c.Capture.Height)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Detection.Threshold <= 0 || c.Detection.Threshold > 1 {
		return fmt.Errorf("threshold %g outside (0, 1]", c.Detection.Threshold)
	}
	if len(c.Display.BackgroundColors) == 0 {
		return errors.New("no background colors")
	}
	for _, s := range append([]string{c.Display.StrokeColor}, c.Display.BackgroundColors...) {
		if _, err := colorutil.ParseHex(s); err != nil {
			return err
		}
	}
	for k := range c.Keys {
		if len([]rune(k)) != 1 {
			return fmt.Errorf("key binding %q must be a single character", k)
		}
	}
	return nil
}

// WithThreshold returns a copy of the config with a different blob threshold.
func (c Config) WithThreshold(threshold float64) *Config {
	c.Detection.Threshold = threshold
	return &c
}

// WithCaptureSize returns a copy of the config with a different capture size.
func (c Config) WithCaptureSize(width, height int) *Config {
	c.Capture.Width = width
	c.Capture.Height = height
	return &c
}

// WithScreenSize returns a copy of the config with a different screen size.
func (c Config) WithScreenSize(width, height int) *Config {
	c.Screen.Width = width
	c.Screen.Height = height
	return &c
}
