package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"climateglobe/assets"
	"climateglobe/config"
	"climateglobe/core"
	"climateglobe/feed"
	"climateglobe/globe"
	"climateglobe/observability"
	"climateglobe/rendering"
	"climateglobe/server"
)

// backend is a window that draws frames; the implementation is picked by
// build tag.
type backend interface {
	Uploader() rendering.TextureUploader
	SetInput(in rendering.Interaction)
	Render(f rendering.Frame)
	PollEvents()
	ShouldClose() bool
	SetTitle(title string)
	Terminate()
}

type flags struct {
	settings    string
	dotenv      string
	region      string
	temperature string
	width       int
	height      int
	addr        string
	offline     bool
	noServer    bool
	feed        bool
}

func main() {
	runtime.LockOSThread()

	var f flags
	flag.StringVar(&f.settings, "config", "settings.json", "Settings file (skipped when missing)")
	flag.StringVar(&f.dotenv, "env", ".env", "Dotenv file with CLIMATEGLOBE_* overrides")
	flag.StringVar(&f.region, "region", "", "Region to highlight at startup")
	flag.StringVar(&f.temperature, "temperature", "", "Temperature delta for the startup region, e.g. 2.6")
	flag.IntVar(&f.width, "width", 0, "Window width")
	flag.IntVar(&f.height, "height", 0, "Window height")
	flag.StringVar(&f.addr, "addr", "", "Control server address")
	flag.BoolVar(&f.offline, "offline", false, "Use placeholder textures instead of loading the base maps")
	flag.BoolVar(&f.noServer, "no-server", false, "Disable the control server")
	flag.BoolVar(&f.feed, "feed", false, "Consume region metrics from Kafka")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "climateglobe: %v\n", err)
		os.Exit(1)
	}
}

func loadSettings(f flags) (config.Settings, error) {
	s, err := config.Load(f.settings, f.dotenv)
	if err != nil {
		return config.Settings{}, err
	}
	if f.region != "" {
		s.Globe.Region = f.region
	}
	if f.temperature != "" {
		if s.Globe.Metrics == nil {
			s.Globe.Metrics = map[string]core.MetricSet{}
		}
		m := s.Globe.Metrics[s.Globe.Region]
		m.Temperature = f.temperature
		s.Globe.Metrics[s.Globe.Region] = m
	}
	if f.width > 0 {
		s.Window.Width = f.width
	}
	if f.height > 0 {
		s.Window.Height = f.height
	}
	if f.addr != "" {
		s.Server.Addr = f.addr
	}
	if f.offline {
		s.Assets.Paths = assets.Paths{}
	}
	if f.noServer {
		s.Server.Enabled = false
	}
	if f.feed {
		s.Feed.Enabled = true
	}
	return s, s.Validate()
}

func run(f flags) error {
	settings, err := loadSettings(f)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger := observability.NewLogger(settings.Logging.Level, settings.Logging.Format)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	fmt.Println("=== Climate Globe ===")
	fmt.Printf("Backend: %s\n", backendName)
	fmt.Printf("Window: %dx%d\n", settings.Window.Width, settings.Window.Height)
	fmt.Printf("Region: %s\n", settings.InitialRegion())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := assets.NewLoader(assets.Options{
		MaxSize:  settings.Assets.MaxSize,
		Fallback: settings.Assets.Fallback,
		Logger:   logger,
	})
	images, err := loader.LoadBase(ctx, settings.Assets.Paths)
	if err != nil {
		return fmt.Errorf("load textures: %w", err)
	}

	camera := rendering.NewCamera(settings.CameraSettings())
	view, err := newBackend(settings, camera, logger)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer view.Terminate()

	base, err := rendering.UploadBase(view.Uploader(), images)
	if err != nil {
		return fmt.Errorf("upload textures: %w", err)
	}
	defer rendering.ReleaseBase(view.Uploader(), base)

	clock := clockwork.NewRealClock()
	region := settings.InitialRegion()
	seed := settings.SeedMetrics()
	ctrl, err := globe.NewController(globe.Options{
		Uploader:     view.Uploader(),
		Base:         base,
		Camera:       camera,
		RotationRate: settings.Globe.RotationRate,
		Clock:        clock,
		Initial:      globe.Selection{Region: region, Metrics: seed[region]},
		Seed:         seed,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("compose overlay: %w", err)
	}
	defer ctrl.Close()
	view.SetInput(ctrl)

	if settings.Server.Enabled {
		srv := server.NewServer(server.Options{
			Addr:     settings.Server.Addr,
			Globe:    ctrl,
			Gatherer: registry,
			Metrics:  metrics,
			Logger:   logger,
		})
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if settings.Feed.Enabled {
		src := feed.NewKafkaSource(feed.Config{
			Brokers: settings.Feed.Brokers,
			Topic:   settings.Feed.Topic,
			GroupID: settings.Feed.GroupID,
			Select:  settings.Feed.Select,
		}, ctrl, metrics, logger)
		feedCtx, cancelFeed := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := src.Run(feedCtx); err != nil {
				logger.Error("metric feed error", "error", err)
			}
		}()
		defer func() {
			cancelFeed()
			<-done
			if err := src.Close(); err != nil {
				logger.Warn("close metric feed", "error", err)
			}
		}()
	}

	fmt.Println("\nControls:")
	fmt.Println("  Click: Select the region under the pointer")
	fmt.Println("  Tab / Shift+Tab: Cycle regions")
	fmt.Println("  G: Clear the highlight")
	fmt.Println("  A: Toggle auto-rotate")
	fmt.Println("  F1: Toggle legend")
	fmt.Println("  Mouse: Click and drag to orbit")
	fmt.Println("  Scroll: Zoom in/out")
	fmt.Println("  ESC: Exit")
	if settings.Server.Enabled {
		fmt.Printf("  HTTP: http://%s/state, ws://%s/ws\n", settings.Server.Addr, settings.Server.Addr)
	}

	frameCount := 0
	lastFPSTime := clock.Now()
	for !view.ShouldClose() && ctx.Err() == nil {
		view.PollEvents()
		view.Render(ctrl.Frame())

		frameCount++
		if elapsed := clock.Since(lastFPSTime); elapsed >= time.Second {
			fps := float64(frameCount) / elapsed.Seconds()
			snap := ctrl.Snapshot()
			view.SetTitle(fmt.Sprintf("%s | %s | %.0f FPS", settings.Window.Title, snap.Region, fps))
			frameCount = 0
			lastFPSTime = clock.Now()
		}
	}

	fmt.Println("\nShutting down...")
	return nil
}
