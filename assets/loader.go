// Package assets loads the base Earth textures from disk or over HTTP.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"climateglobe/rendering"
)

// Earth texture set published with the three.js examples
const (
	DefaultDiffuseURL  = "https://threejs.org/examples/textures/planets/earth_atmos_2048.jpg"
	DefaultBumpURL     = "https://threejs.org/examples/textures/planets/earth_normal_2048.jpg"
	DefaultSpecularURL = "https://threejs.org/examples/textures/planets/earth_specular_2048.jpg"
	DefaultCloudsURL   = "https://threejs.org/examples/textures/planets/earth_clouds_1024.png"
)

// DefaultMaxSize caps the longest side of a loaded texture
const DefaultMaxSize = 4096

const maxDownloadBytes = 64 << 20

// Kind names one of the four base maps
type Kind string

const (
	Diffuse  Kind = "diffuse"
	Bump     Kind = "bump"
	Specular Kind = "specular"
	Clouds   Kind = "clouds"
)

// Paths locates each base map. A value is a file path or an http(s) URL;
// empty means use the built-in placeholder.
type Paths struct {
	Diffuse  string `json:"diffuse"`
	Bump     string `json:"bump"`
	Specular string `json:"specular"`
	Clouds   string `json:"clouds"`
}

// DefaultPaths points at the published texture set
func DefaultPaths() Paths {
	return Paths{
		Diffuse:  DefaultDiffuseURL,
		Bump:     DefaultBumpURL,
		Specular: DefaultSpecularURL,
		Clouds:   DefaultCloudsURL,
	}
}

func (p Paths) get(k Kind) string {
	switch k {
	case Diffuse:
		return p.Diffuse
	case Bump:
		return p.Bump
	case Specular:
		return p.Specular
	default:
		return p.Clouds
	}
}

// Options configures a Loader
type Options struct {
	Client  *http.Client
	MaxSize int
	// Fallback substitutes a placeholder when a map fails to load instead
	// of returning the error.
	Fallback  bool
	UserAgent string
	Logger    *slog.Logger
}

// Loader decodes base textures into RGBA buffers
type Loader struct {
	client    *http.Client
	maxSize   int
	fallback  bool
	userAgent string
	logger    *slog.Logger
}

// NewLoader creates a loader
func NewLoader(opts Options) *Loader {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "climateglobe"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{
		client:    opts.Client,
		maxSize:   opts.MaxSize,
		fallback:  opts.Fallback,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

// LoadBase loads all four maps concurrently
func (l *Loader) LoadBase(ctx context.Context, paths Paths) (rendering.BaseImages, error) {
	kinds := [...]Kind{Diffuse, Bump, Specular, Clouds}
	var out [len(kinds)]*image.RGBA

	g, ctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			img, err := l.loadKind(ctx, k, paths.get(k))
			if err != nil {
				return err
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rendering.BaseImages{}, err
	}
	return rendering.BaseImages{Diffuse: out[0], Bump: out[1], Specular: out[2], Clouds: out[3]}, nil
}

func (l *Loader) loadKind(ctx context.Context, k Kind, ref string) (*image.RGBA, error) {
	if ref == "" {
		l.logger.Info("using placeholder texture", "map", k)
		return Placeholder(k), nil
	}
	start := time.Now()
	img, err := l.Load(ctx, ref)
	if err != nil {
		if l.fallback && ctx.Err() == nil {
			l.logger.Warn("texture load failed, using placeholder", "map", k, "source", ref, "error", err)
			return Placeholder(k), nil
		}
		return nil, fmt.Errorf("load %s map: %w", k, err)
	}
	b := img.Bounds()
	l.logger.Info("texture loaded", "map", k, "source", ref, "width", b.Dx(), "height", b.Dy(), "took", time.Since(start))
	return img, nil
}

// Load decodes one image from a file path or http(s) URL and returns it as
// RGBA, scaled down when its longest side exceeds the loader's limit.
func (l *Loader) Load(ctx context.Context, ref string) (*image.RGBA, error) {
	rc, err := l.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	l.logger.Debug("texture decoded", "source", ref, "format", format)
	return Fit(ToRGBA(img), l.maxSize), nil
}

var errBadStatus = errors.New("unexpected HTTP status")

func (l *Loader) open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		f, err := os.Open(ref)
		if err != nil {
			return nil, fmt.Errorf("open texture: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %w: %s", ref, errBadStatus, resp.Status)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxDownloadBytes), resp.Body}, nil
}

// ToRGBA returns img as *image.RGBA with a zero origin, converting only
// when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Fit scales img down so neither side exceeds maxSize, keeping the aspect
// ratio. Smaller images are returned unchanged.
func Fit(img *image.RGBA, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Placeholder sizes keep the 2:1 equirectangular aspect
const (
	placeholderW = 256
	placeholderH = 128
)

var (
	oceanBlue = color.RGBA{R: 22, G: 58, B: 110, A: 255}
	flatBump  = color.RGBA{R: 128, G: 128, B: 255, A: 255}
	matte     = color.RGBA{A: 255}
)

// Placeholder returns a small stand-in for a base map: a plain ocean for
// the diffuse map, a flat normal map, a matte specular map and an empty
// cloud layer.
func Placeholder(k Kind) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, placeholderW, placeholderH))
	var c color.Color
	switch k {
	case Diffuse:
		c = oceanBlue
	case Bump:
		c = flatBump
	case Specular:
		c = matte
	default:
		return img
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}
