//go:build !raylib

package main

import (
	"log/slog"

	"climateglobe/config"
	"climateglobe/rendering"
	"climateglobe/rendering/opengl"
)

const backendName = "opengl"

func newBackend(s config.Settings, camera *rendering.Camera, logger *slog.Logger) (backend, error) {
	r, err := opengl.NewGlobeRenderer(opengl.Options{
		Width:      s.Window.Width,
		Height:     s.Window.Height,
		Title:      s.Window.Title,
		VSync:      s.Window.VSync,
		Segments:   s.Globe.Segments,
		ShowLegend: s.Window.ShowLegend,
		Camera:     camera,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
