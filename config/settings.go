// Package config loads climate globe settings from defaults, an optional
// settings.json, an optional .env file and CLIMATEGLOBE_* variables, in that
// order of increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"climateglobe/assets"
	"climateglobe/core"
	"climateglobe/rendering"
)

// EnvPrefix starts every environment override
const EnvPrefix = "CLIMATEGLOBE_"

type Settings struct {
	Window  WindowSettings  `json:"window"`
	Globe   GlobeSettings   `json:"globe"`
	Camera  CameraSettings  `json:"camera"`
	Assets  AssetSettings   `json:"assets"`
	Server  ServerSettings  `json:"server"`
	Feed    FeedSettings    `json:"feed"`
	Logging LoggingSettings `json:"logging"`
}

type WindowSettings struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Title      string `json:"title"`
	VSync      bool   `json:"vsync"`
	ShowLegend bool   `json:"showLegend"`
}

type GlobeSettings struct {
	// Region is highlighted at startup; Global highlights nothing
	Region       string                    `json:"region"`
	Metrics      map[string]core.MetricSet `json:"metrics"`
	RotationRate float64                   `json:"rotationRate"`
	Segments     int                       `json:"segments"`
}

type CameraSettings struct {
	Distance        float64 `json:"distance"`
	MinDistance     float64 `json:"minDistance"`
	MaxDistance     float64 `json:"maxDistance"`
	FOV             float64 `json:"fov"`
	AutoRotate      bool    `json:"autoRotate"`
	AutoRotateSpeed float64 `json:"autoRotateSpeed"`
}

type AssetSettings struct {
	assets.Paths
	MaxSize  int  `json:"maxSize"`
	Fallback bool `json:"fallback"`
}

type ServerSettings struct {
	Enabled           bool   `json:"enabled"`
	Addr              string `json:"addr"`
	ShutdownTimeoutMs int    `json:"shutdownTimeoutMs"`
}

type FeedSettings struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	GroupID string   `json:"groupId"`
	Select  bool     `json:"select"`
}

type LoggingSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the stock configuration: the stock globe constants, a
// local control server and no metric feed.
func Default() Settings {
	cam := rendering.DefaultCameraSettings()
	return Settings{
		Window: WindowSettings{
			Width:      1280,
			Height:     800,
			Title:      "Climate Globe",
			VSync:      true,
			ShowLegend: true,
		},
		Globe: GlobeSettings{
			Region:       string(core.Global),
			Metrics:      map[string]core.MetricSet{},
			RotationRate: 0.05,
			Segments:     64,
		},
		Camera: CameraSettings{
			Distance:        cam.Distance,
			MinDistance:     cam.MinDistance,
			MaxDistance:     cam.MaxDistance,
			FOV:             cam.FOV,
			AutoRotate:      cam.AutoRotate,
			AutoRotateSpeed: cam.AutoRotateSpeed,
		},
		Assets: AssetSettings{
			Paths:   assets.DefaultPaths(),
			MaxSize: assets.DefaultMaxSize,
		},
		Server: ServerSettings{
			Enabled:           true,
			Addr:              "127.0.0.1:8080",
			ShutdownTimeoutMs: 5000,
		},
		Feed: FeedSettings{
			Brokers: []string{"localhost:9092"},
			Topic:   "climate-metrics",
			GroupID: "climate-globe",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds settings from defaults, then path (skipped when missing),
// then dotenv (skipped when missing), then the process environment.
func Load(path, dotenv string) (Settings, error) {
	s := Default()

	if path != "" {
		if err := s.mergeFile(path); err != nil {
			return Settings{}, err
		}
	}

	if dotenv != "" {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) mergeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open settings: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(s); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from CLIMATEGLOBE_* variables
func (s *Settings) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.int("WINDOW_WIDTH", &s.Window.Width)
	e.int("WINDOW_HEIGHT", &s.Window.Height)
	e.str("WINDOW_TITLE", &s.Window.Title)
	e.bool("VSYNC", &s.Window.VSync)
	e.bool("SHOW_LEGEND", &s.Window.ShowLegend)

	e.str("REGION", &s.Globe.Region)
	e.float("ROTATION_RATE", &s.Globe.RotationRate)
	e.int("SEGMENTS", &s.Globe.Segments)

	e.float("CAMERA_DISTANCE", &s.Camera.Distance)
	e.bool("AUTO_ROTATE", &s.Camera.AutoRotate)

	e.str("DIFFUSE_MAP", &s.Assets.Diffuse)
	e.str("BUMP_MAP", &s.Assets.Bump)
	e.str("SPECULAR_MAP", &s.Assets.Specular)
	e.str("CLOUDS_MAP", &s.Assets.Clouds)
	e.int("TEXTURE_MAX_SIZE", &s.Assets.MaxSize)
	e.bool("TEXTURE_FALLBACK", &s.Assets.Fallback)

	e.bool("SERVER_ENABLED", &s.Server.Enabled)
	e.str("HTTP_ADDR", &s.Server.Addr)
	e.int("SHUTDOWN_TIMEOUT_MS", &s.Server.ShutdownTimeoutMs)

	e.bool("FEED_ENABLED", &s.Feed.Enabled)
	e.list("KAFKA_BROKERS", &s.Feed.Brokers)
	e.str("KAFKA_TOPIC", &s.Feed.Topic)
	e.str("KAFKA_GROUP_ID", &s.Feed.GroupID)
	e.bool("FEED_SELECT", &s.Feed.Select)

	e.str("LOG_LEVEL", &s.Logging.Level)
	e.str("LOG_FORMAT", &s.Logging.Format)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = n
}

func (e *envReader) float(name string, dst *float64) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = f
}

func (e *envReader) bool(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = b
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// Validate rejects settings the app cannot start with
func (s Settings) Validate() error {
	var errs []error
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", s.Window.Width, s.Window.Height))
	}
	if s.Globe.RotationRate < 0 {
		errs = append(errs, errors.New("rotation rate must not be negative"))
	}
	if s.Globe.Segments < 3 {
		errs = append(errs, fmt.Errorf("segments %d must be at least 3", s.Globe.Segments))
	}
	if s.Camera.MinDistance <= rendering.GlobeRadius {
		errs = append(errs, fmt.Errorf("camera min distance %.2f must be outside the globe", s.Camera.MinDistance))
	}
	if s.Camera.MaxDistance < s.Camera.MinDistance {
		errs = append(errs, errors.New("camera max distance is below min distance"))
	}
	if s.Server.Enabled && s.Server.Addr == "" {
		errs = append(errs, errors.New("server enabled without an address"))
	}
	if s.Feed.Enabled {
		if len(s.Feed.Brokers) == 0 {
			errs = append(errs, errors.New("feed enabled without brokers"))
		}
		if s.Feed.Topic == "" {
			errs = append(errs, errors.New("feed enabled without a topic"))
		}
	}
	return errors.Join(errs...)
}

// InitialRegion returns the configured startup region
func (s Settings) InitialRegion() core.RegionID {
	if s.Globe.Region == "" {
		return core.Global
	}
	return core.RegionID(s.Globe.Region)
}

// SeedMetrics converts the configured metric table to region keys
func (s Settings) SeedMetrics() map[core.RegionID]core.MetricSet {
	out := make(map[core.RegionID]core.MetricSet, len(s.Globe.Metrics))
	for id, m := range s.Globe.Metrics {
		out[core.RegionID(id)] = m
	}
	return out
}

// CameraSettings converts the camera section for the renderer
func (s Settings) CameraSettings() rendering.CameraSettings {
	c := rendering.DefaultCameraSettings()
	c.Distance = s.Camera.Distance
	c.MinDistance = s.Camera.MinDistance
	c.MaxDistance = s.Camera.MaxDistance
	c.FOV = s.Camera.FOV
	c.AutoRotate = s.Camera.AutoRotate
	c.AutoRotateSpeed = s.Camera.AutoRotateSpeed
	return c
}

// ShutdownTimeout is how long the server gets to drain
func (s Settings) ShutdownTimeout() time.Duration {
	if s.Server.ShutdownTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.Server.ShutdownTimeoutMs) * time.Millisecond
}
