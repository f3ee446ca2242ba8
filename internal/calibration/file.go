package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileVersion is the current calibration file format version.
const fileVersion = 1

// File is the on-disk form of a solved calibration.
type File struct {
	Version      int          `json:"version"`
	Saved        time.Time    `json:"saved"`
	Targets      Targets      `json:"targets"`
	Samples      Samples      `json:"samples"`
	Coefficients Coefficients `json:"coefficients"`
}

// Save writes a calibrated state to path as indented JSON.
func Save(path string, s *State) error {
	coeffs, ok := s.Coefficients()
	if !ok {
		return errors.New("calibration: nothing to save, not calibrated")
	}

	f := File{
		Version:      fileVersion,
		Saved:        time.Now(),
		Targets:      s.Targets(),
		Samples:      s.SolvedSamples(),
		Coefficients: coeffs,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a calibration file and returns a calibrated state.
// The stored coefficients are re-derived from the stored samples and must
// agree, so a hand-edited file cannot silently drift.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse calibration %s: %w", path, err)
	}
	if f.Version != fileVersion {
		return nil, fmt.Errorf("calibration %s: unsupported version %d", path, f.Version)
	}

	coeffs, err := Solve(f.Samples, f.Targets)
	if err != nil {
		return nil, fmt.Errorf("calibration %s: %w", path, err)
	}
	if r := Residual(f.Coefficients, f.Samples, f.Targets); r > 1e-3 {
		return nil, fmt.Errorf("calibration %s: stored coefficients off by %.3g px", path, r)
	}

	s := NewState(f.Targets)
	s.Restore(f.Samples, coeffs)
	return s, nil
}
