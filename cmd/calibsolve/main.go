// Command calibsolve solves the camera-to-screen calibration from three
// raw/target correspondences given on the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"blob-tracker/internal/calibration"
	"blob-tracker/pkg/geometry"
)

func main() {
	raw := flag.String("raw", "", "Three raw camera points: x1,y1;x2,y2;x3,y3")
	targets := flag.String("targets", "", "Three screen targets: x1,y1;x2,y2;x3,y3 (default: inset targets for -screen)")
	screen := flag.String("screen", "1280x1024", "Screen size used for default targets")
	mapPts := flag.String("map", "", "Extra raw points to map: x,y;x,y;...")
	out := flag.String("o", "", "Write the calibration to this file")
	flag.Parse()

	if *raw == "" {
		fmt.Println("Usage: calibsolve -raw x1,y1;x2,y2;x3,y3 [-targets ...|-screen WxH] [-map x,y;...] [-o file]")
		os.Exit(1)
	}

	if err := run(*raw, *targets, *screen, *mapPts, *out); err != nil {
		fmt.Fprintf(os.Stderr, "calibsolve: %v\n", err)
		os.Exit(1)
	}
}

func run(rawArg, targetsArg, screenArg, mapArg, out string) error {
	rawPts, err := parsePoints(rawArg)
	if err != nil {
		return fmt.Errorf("-raw: %w", err)
	}
	if len(rawPts) != calibration.NumTargets {
		return fmt.Errorf("-raw: need %d points, got %d", calibration.NumTargets, len(rawPts))
	}

	var tg calibration.Targets
	if targetsArg != "" {
		pts, err := parsePoints(targetsArg)
		if err != nil {
			return fmt.Errorf("-targets: %w", err)
		}
		if len(pts) != calibration.NumTargets {
			return fmt.Errorf("-targets: need %d points, got %d", calibration.NumTargets, len(pts))
		}
		copy(tg[:], pts)
	} else {
		w, h, err := parseSize(screenArg)
		if err != nil {
			return fmt.Errorf("-screen: %w", err)
		}
		tg = calibration.DefaultTargets(w, h)
	}

	state := calibration.NewState(tg)
	samples := calibration.NewSamples()
	for i, p := range rawPts {
		samples.Set(i, p)
	}
	coeffs, err := calibration.Solve(samples, tg)
	if err != nil {
		return err
	}
	state.Restore(samples, coeffs)

	fmt.Printf("Targets:\n")
	for i, t := range tg {
		fmt.Printf("  %d: raw (%.2f, %.2f) -> screen (%.2f, %.2f)\n", i+1, rawPts[i].X, rawPts[i].Y, t.X, t.Y)
	}
	fmt.Printf("\nCoefficients:\n")
	fmt.Printf("  screenX = %.6f*x + %.6f*y + %.6f\n", coeffs.AlphaX, coeffs.BetaX, coeffs.DeltaX)
	fmt.Printf("  screenY = %.6f*x + %.6f*y + %.6f\n", coeffs.AlphaY, coeffs.BetaY, coeffs.DeltaY)
	fmt.Printf("  residual: %.3g px\n", calibration.Residual(coeffs, samples, tg))

	if mapArg != "" {
		pts, err := parsePoints(mapArg)
		if err != nil {
			return fmt.Errorf("-map: %w", err)
		}
		fmt.Printf("\nMapped:\n")
		for _, p := range pts {
			s := coeffs.Map(p)
			fmt.Printf("  (%.2f, %.2f) -> (%.2f, %.2f)\n", p.X, p.Y, s.X, s.Y)
		}
	}

	if out != "" {
		if err := calibration.Save(out, state); err != nil {
			return err
		}
		fmt.Printf("\nSaved %s\n", out)
	}
	return nil
}

// parsePoints parses "x,y;x,y;..." into points.
func parsePoints(s string) ([]geometry.Point2D, error) {
	var pts []geometry.Point2D
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("point %q: want x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", pair, err)
		}
		pts = append(pts, geometry.NewPoint2D(x, y))
	}
	return pts, nil
}

// parseSize parses "WxH".
func parseSize(s string) (float64, float64, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}
