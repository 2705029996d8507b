// Command bombread classifies and reads one module or widget region of a bomb
// screenshot, or of every new screenshot written to a directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/capture"
	"bomb-vision/internal/config"
	bombimage "bomb-vision/internal/image"
	"bomb-vision/internal/metrics"
	"bomb-vision/internal/modules"
	"bomb-vision/internal/overlay"
	"bomb-vision/internal/perception"
	"bomb-vision/internal/version"
	"bomb-vision/internal/widgets"
	"bomb-vision/pkg/geometry"
	"bomb-vision/pkg/logger"
)

type options struct {
	quad      string
	widget    bool
	reader    string
	overlay   string
	rectified string
}

func main() {
	imagePath := flag.String("image", "", "Path to a screenshot (PNG, JPEG or TIFF)")
	watchDir := flag.String("watch", "", "Directory to poll for new screenshots")
	configPath := flag.String("config", "", "YAML config file (default $BOMB_CONFIG)")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	var opts options
	flag.StringVar(&opts.quad, "quad", "", "Region corners x,y for TL,TR,BL,BR (default whole image)")
	flag.BoolVar(&opts.widget, "widget", false, "Read a widget instead of a module")
	flag.StringVar(&opts.reader, "reader", "", "Skip classification and use this reader")
	flag.StringVar(&opts.overlay, "overlay", "", "Write an annotated copy of the screenshot here")
	flag.StringVar(&opts.rectified, "rectified", "", "Write the annotated rectified region here")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bombread %s\n", version.String())
		return
	}
	if (*imagePath == "") == (*watchDir == "") {
		fmt.Println("Usage: bombread -image <path> | -watch <dir> [-quad x,y,...] [-widget] [-reader Name] [-overlay out.png] [-rectified rect.png] [-config bomb.yaml]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	log := logger.Named("bombread")
	log.Debug("starting", logger.String("version", version.String()))

	bundle, err := assets.Open(cfg.AssetsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load assets: %v\n", err)
		os.Exit(1)
	}

	m := metrics.NewManager()
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, m, log)
	}

	engine := perception.NewEngine(modules.All(bundle), widgets.All(bundle),
		perception.WithInterpolation(cfg.InterpolationMode()),
		perception.WithWidgetThreshold(cfg.WidgetThreshold),
		perception.WithLogger(logger.Named("engine")),
		perception.WithObserver(m))

	if opts.overlay == "" && cfg.OverlayDir != "" {
		opts.overlay = cfg.OverlayDir
	}

	if *imagePath != "" {
		shot, err := bombimage.Load(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load screenshot: %v\n", err)
			os.Exit(1)
		}
		if err := process(engine, shot, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Read failed (%s): %v\n", perception.KindOf(err), err)
			os.Exit(1)
		}
		return
	}

	src := capture.NewSource(*watchDir,
		capture.WithInterval(cfg.WatchInterval),
		capture.WithMaxDistance(cfg.FrameHashDistance),
		capture.WithLogger(logger.Named("capture")),
		capture.WithObserver(m))
	log.Info("watching", logger.String("dir", *watchDir), logger.Any("interval", cfg.WatchInterval))
	err = src.Run(ctx, func(shot *bombimage.Screenshot) error {
		if err := process(engine, shot, opts); err != nil {
			// A geometry or decode failure only affects this frame.
			log.Warn("read failed", logger.String("path", shot.Path),
				logger.String("kind", perception.KindOf(err).String()), logger.Error(err))
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string, m *metrics.Manager, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", logger.Error(err))
		}
	}()
	log.Info("serving metrics", logger.String("addr", addr))
}

// process classifies (unless a reader is forced), reads and prints one region.
func process(engine *perception.Engine, shot *bombimage.Screenshot, opts options) error {
	quad := geometry.QuadFromRect(geometry.RectFromImage(shot.Image.Bounds()))
	if opts.quad != "" {
		q, err := parseQuad(opts.quad)
		if err != nil {
			return err
		}
		quad = q
	}

	fmt.Printf("Screenshot: %s (%dx%d)\n", filepath.Base(shot.Path), shot.Width(), shot.Height())
	fmt.Printf("Lighting: %s\n", engine.LightsState(shot))

	var (
		reader     perception.Reader
		confidence float64
		err        error
	)
	switch {
	case opts.reader != "":
		var k perception.Kind
		if k, err = perception.ParseKind(opts.reader); err == nil {
			reader, err = engine.Reader(k)
		}
	case opts.widget:
		reader, confidence, err = engine.ClassifyWidget(shot, quad)
	default:
		reader, confidence, err = engine.Classify(shot, quad)
	}
	if err != nil {
		return err
	}
	if reader == nil {
		fmt.Println("Reader: none (blank slot or no match)")
		return nil
	}
	fmt.Printf("Reader: %s (%s, confidence %.2f)\n", reader.Name(), reader.FrameType(), confidence)

	var dbg *overlay.Canvas
	if opts.overlay != "" || opts.rectified != "" {
		dbg = overlay.New()
	}
	res, err := engine.Read(shot, quad, reader, dbg)
	if err != nil {
		return err
	}
	fmt.Printf("Result: %s\n", res)

	if reader.FrameType() == perception.Solvable {
		state, err := engine.ModuleLightState(shot, quad)
		if err != nil {
			return err
		}
		fmt.Printf("Status light: %s\n", state)
	}

	if opts.rectified != "" {
		if err := writeRectified(engine, shot, quad, dbg, opts.rectified); err != nil {
			return err
		}
	}
	if opts.overlay != "" {
		return writeOverlay(engine, shot, quad, dbg, opts.overlay)
	}
	return nil
}

// writeOverlay writes to path, or into path when it names a directory.
func writeOverlay(engine *perception.Engine, shot *bombimage.Screenshot, quad geometry.Quad, dbg *overlay.Canvas, path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name := strings.TrimSuffix(filepath.Base(shot.Path), filepath.Ext(shot.Path))
		if name == "" {
			name = "frame"
		}
		path = filepath.Join(path, name+"-overlay.png")
	}
	screen := engine.ScreenOverlay(quad, dbg)
	if err := overlay.WriteFile(path, shot.Image, screen); err != nil {
		return err
	}
	fmt.Printf("Overlay: %s (%d annotations)\n", path, screen.Len())
	return nil
}

// writeRectified renders the rectified region with its annotations in
// rectified coordinates.
func writeRectified(engine *perception.Engine, shot *bombimage.Screenshot, quad geometry.Quad, dbg *overlay.Canvas, path string) error {
	img, err := engine.Rectify(shot, quad)
	if err != nil {
		return err
	}
	opts := overlay.DefaultRenderOptions()
	opts.Dim = 0
	if err := overlay.Save(path, overlay.Render(img, dbg, opts)); err != nil {
		return err
	}
	fmt.Printf("Rectified: %s\n", path)
	return nil
}
