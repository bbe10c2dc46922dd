//go:build raylib

package main

import (
	"log/slog"

	"climateglobe/config"
	"climateglobe/rendering"
	rlbackend "climateglobe/rendering/raylib"
)

const backendName = "raylib"

func newBackend(s config.Settings, camera *rendering.Camera, logger *slog.Logger) (backend, error) {
	r, err := rlbackend.NewGlobeRenderer(rlbackend.Options{
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
