package capture

import (
	"path/filepath"
	"testing"

	"blob-tracker/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestOpenRejectsUnknownDevice(t *testing.T) {
	_, err := Open(config.CaptureConfig{Device: filepath.Join(t.TempDir(), "missing"), Width: 32, Height: 24})
	assert.Error(t, err)
}
