package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 320, cfg.Capture.Width)
	assert.Equal(t, 240, cfg.Capture.Height)
	assert.Equal(t, 0.075, cfg.Detection.Threshold)
	assert.True(t, cfg.Capture.FlipX)
	assert.False(t, cfg.Capture.FlipY)
	assert.Equal(t, "select-target-2", cfg.Keys["2"])
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"detection": {"threshold": 0.2}, "keys": {"x": "quit"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Detection.Threshold)
	assert.Equal(t, 1280, cfg.Screen.Width)
	assert.Equal(t, "quit", cfg.Keys["x"])
	assert.Equal(t, "uncalibrate", cfg.Keys["c"])
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default().WithThreshold(0.1).WithScreenSize(800, 600)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":     `{`,
		"threshold":  `{"detection": {"threshold": 2}}`,
		"capture":    `{"capture": {"width": 0}}`,
		"color":      `{"display": {"background_colors": ["nope"]}}`,
		"no colors":  `{"display": {"background_colors": []}}`,
		"long key":   `{"keys": {"ab": "quit"}}`,
		"screen":     `{"screen": {"height": -1}}`,
		"stroke hex": `{"display": {"stroke_color": "#12"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWithBuildersCopy(t *testing.T) {
	base := Default()
	changed := base.WithCaptureSize(640, 480)
	assert.Equal(t, 320, base.Capture.Width)
	assert.Equal(t, 640, changed.Capture.Width)
	assert.Equal(t, 480, changed.Capture.Height)
}

func TestDefaultPaths(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(DefaultPath()))
	assert.Equal(t, filepath.Dir(DefaultPath()), filepath.Dir(DefaultCalibrationPath()))
}
