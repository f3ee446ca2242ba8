// Command difftest differences a frame against a background image and
// reports the blobs found, optionally mapped through a saved calibration.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"blob-tracker/internal/background"
	"blob-tracker/internal/blob"
	"blob-tracker/internal/calibration"
	"blob-tracker/internal/frame"
)

func main() {
	bgPath := flag.String("bg", "", "Background image (PNG/JPEG/TIFF)")
	framePath := flag.String("frame", "", "Frame image (PNG/JPEG/TIFF)")
	threshold := flag.Float64("threshold", blob.DefaultThreshold, "Blob threshold 0-1")
	minArea := flag.Float64("min-area", blob.DefaultContourParams().MinArea, "Minimum blob area in pixels")
	calibPath := flag.String("calibration", "", "Calibration file for screen mapping")
	diffOut := flag.String("diff", "", "Write the difference image to this PNG")
	flag.Parse()

	if *bgPath == "" || *framePath == "" {
		fmt.Println("Usage: difftest -bg <background> -frame <frame> [-threshold 0.075] [-calibration file] [-diff out.png]")
		os.Exit(1)
	}

	params := blob.DefaultContourParams().WithThreshold(*threshold)
	params.MinArea = *minArea

	if err := run(*bgPath, *framePath, params, *calibPath, *diffOut); err != nil {
		fmt.Fprintf(os.Stderr, "difftest: %v\n", err)
		os.Exit(1)
	}
}

func run(bgPath, framePath string, params blob.ContourParams, calibPath, diffOut string) error {
	bg, err := frame.LoadImage(bgPath)
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}
	cur, err := frame.LoadImage(framePath)
	if err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	fmt.Printf("Loaded %dx%d frames\n", cur.Width, cur.Height)

	diff := frame.NewBuffer(cur.Width, cur.Height)
	if err := background.Diff(cur, bg, diff); err != nil {
		return err
	}

	if diffOut != "" {
		if err := writePNG(diffOut, diff); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", diffOut)
	}

	blobs, err := blob.NewContourDetector(params).Detect(diff)
	if err != nil {
		return err
	}

	var calib *calibration.State
	if calibPath != "" {
		calib, err = calibration.Load(calibPath)
		if err != nil {
			return err
		}
	}

	fmt.Printf("\n=== %d blobs (threshold %.3f) ===\n", len(blobs), params.Threshold)
	for i, b := range blobs {
		raw := b.RawCenter(cur.Width, cur.Height)
		line := fmt.Sprintf("  %d: box (%.3f,%.3f)-(%.3f,%.3f) raw (%.1f, %.1f)",
			i+1, b.XMin, b.YMin, b.XMax, b.YMax, raw.X, raw.Y)
		if calib != nil {
			if s, ok := calib.Map(raw); ok {
				line += fmt.Sprintf(" screen (%.1f, %.1f)", s.X, s.Y)
			}
		}
		fmt.Println(line)
	}
	return nil
}

func writePNG(path string, b *frame.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, b.ToRGBA()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
