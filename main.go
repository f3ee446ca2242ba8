// Package main provides the entry point for the live blob tracker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blob-tracker/internal/blob"
	"blob-tracker/internal/calibration"
	"blob-tracker/internal/capture"
	"blob-tracker/internal/config"
	"blob-tracker/internal/render"
	"blob-tracker/internal/tracker"
	"blob-tracker/internal/version"
	"blob-tracker/pkg/colorutil"

	"gocv.io/x/gocv"
)

const (
	appTitle = "Blob Tracker"
	keyEsc   = 27
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file")
	device := flag.String("device", "", "Camera index or video file (overrides config)")
	threshold := flag.Float64("threshold", 0, "Blob threshold 0-1 (overrides config)")
	calibPath := flag.String("calibration", "", "Calibration file to load and save (overrides config)")
	captureSize := flag.String("size", "", "Capture size WxH (overrides config)")
	screenSize := flag.String("screen", "", "Screen size WxH (overrides config)")
	windowed := flag.Bool("windowed", false, "Do not open the display fullscreen")
	debug := flag.Bool("debug", false, "Log per-frame detail")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s %s", appTitle, version.String())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	if *device != "" {
		cfg.Capture.Device = *device
	}
	if *threshold > 0 {
		cfg = cfg.WithThreshold(*threshold)
	}
	if *captureSize != "" {
		w, h, err := parseSize(*captureSize)
		if err != nil {
			log.Fatalf("-size: %v", err)
		}
		cfg = cfg.WithCaptureSize(w, h)
	}
	if *screenSize != "" {
		w, h, err := parseSize(*screenSize)
		if err != nil {
			log.Fatalf("-screen: %v", err)
		}
		cfg = cfg.WithScreenSize(w, h)
	}
	if *calibPath != "" {
		cfg.CalibrationFile = *calibPath
	}
	if cfg.CalibrationFile == "" {
		cfg.CalibrationFile = config.DefaultCalibrationPath()
	}
	if *windowed {
		cfg.Screen.Fullscreen = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	// Operator messages come from tracker events; the tracker's own
	// structured log is only enabled for debugging.
	if *debug {
		tracker.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(cfg, *configPath); err != nil {
		log.Printf("Exiting: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string) error {
	keys, err := tracker.NewKeyMap(cfg.Keys)
	if err != nil {
		return fmt.Errorf("%w (commands: %s)", err, strings.Join(tracker.CommandNames(), ", "))
	}

	bgColors := make([]color.RGBA, 0, len(cfg.Display.BackgroundColors))
	for _, s := range cfg.Display.BackgroundColors {
		c, err := colorutil.ParseHex(s)
		if err != nil {
			return err
		}
		bgColors = append(bgColors, c)
	}

	params := blob.DefaultContourParams().WithThreshold(cfg.Detection.Threshold)
	params.MinArea = cfg.Detection.MinArea
	detector := blob.NewContourDetector(params)

	calib := loadCalibration(cfg)

	cam, err := capture.Open(cfg.Capture)
	if err != nil {
		// No retry: the operator has to fix the device and restart.
		return err
	}
	defer cam.Close()

	opts, err := render.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	renderer, err := render.New(opts)
	if err != nil {
		return err
	}
	defer renderer.Close()

	window := gocv.NewWindow(appTitle)
	defer window.Close()
	if cfg.Screen.Fullscreen {
		window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
	}

	watcher := config.NewWatcher(configPath, 2*time.Second)
	watcher.OnChange(func(c *config.Config) {
		log.Printf("Config reload: threshold %.3f", c.Detection.Threshold)
		detector.SetThreshold(c.Detection.Threshold)
	})
	watcher.OnError(func(err error) {
		log.Printf("Config reload failed: %v", err)
	})
	watcher.Start()
	defer watcher.Stop()

	tr := tracker.New(tracker.Options{
		FrameWidth:       cfg.Capture.Width,
		FrameHeight:      cfg.Capture.Height,
		BackgroundColors: bgColors,
		CalibrationFile:  cfg.CalibrationFile,
	}, detector, calib)
	defer tr.Close()
	reportEvents(tr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tr.Run(ctx, cam, func(res *tracker.Result) error {
		window.IMShow(renderer.Draw(cam.Mat(), res))
		key := window.WaitKey(1)
		switch {
		case key < 0:
		case key&0xFF == keyEsc:
			tr.Send(tracker.CmdQuit)
		default:
			tr.Send(keys.Resolve(rune(key & 0xFF)))
		}
		return nil
	})
	if errors.Is(err, tracker.ErrStopped) || errors.Is(err, context.Canceled) || errors.Is(err, capture.ErrEndOfStream) {
		log.Println("Stopped")
		return nil
	}
	return err
}

// loadCalibration restores a saved calibration when the file exists and
// otherwise starts uncalibrated with the configured targets.
func loadCalibration(cfg *config.Config) *calibration.State {
	targets := calibration.TargetsFromFractions(float64(cfg.Screen.Width), float64(cfg.Screen.Height), cfg.TargetFractions)

	s, err := calibration.Load(cfg.CalibrationFile)
	switch {
	case err == nil && s.Targets() == targets:
		log.Printf("Calibration: loaded %s", cfg.CalibrationFile)
		return s
	case err == nil:
		log.Printf("Calibration: %s was made for different targets, ignoring", cfg.CalibrationFile)
	case !errors.Is(err, os.ErrNotExist):
		log.Printf("Calibration: %v", err)
	}
	return calibration.NewState(targets)
}

// reportEvents logs calibration progress for the operator.
func reportEvents(tr *tracker.Tracker) {
	tr.On(tracker.EventBackgroundReset, func(tracker.Event) {
		log.Println("Background: reference captured")
	})
	tr.On(tracker.EventSampleCaptured, func(e tracker.Event) {
		log.Printf("Calibration: target %d at (%.1f, %.1f)", e.Capture.Target, e.Capture.Raw.X, e.Capture.Raw.Y)
	})
	tr.On(tracker.EventCalibrated, func(tracker.Event) {
		log.Println("Calibration: solved")
	})
	tr.On(tracker.EventCalibrationFailed, func(e tracker.Event) {
		log.Printf("Calibration: %v, recapture a target", e.Err)
	})
	tr.On(tracker.EventUncalibrated, func(tracker.Event) {
		log.Println("Calibration: cleared")
	})
	tr.On(tracker.EventCalibrationSaved, func(tracker.Event) {
		log.Println("Calibration: saved")
	})
	tr.On(tracker.EventSaveFailed, func(e tracker.Event) {
		log.Printf("Calibration: save failed: %v", e.Err)
	})
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return w, h, nil
}
