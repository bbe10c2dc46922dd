package core

import (
	"image"
)

// Reference canvas for the climate overlay. Every region bound and every
// overlay buffer is expressed in this equirectangular pixel space.
const (
	OverlayWidth  = 2048
	OverlayHeight = 1024
)

// RegionID names a highlightable region on the overlay canvas
type RegionID string

// Global is the sentinel region meaning "no highlight"
const Global RegionID = "Global"

// MetricSet is the display data supplied for the selected region.
// Values are kept as text; only Temperature is parsed.
type MetricSet struct {
	Temperature   string `json:"temperature"`
	Precipitation string `json:"precipitation"`
	SeaLevel      string `json:"seaLevel"`
	ExtremeEvents string `json:"extremeEvents"`
}

// Bounds is a rectangle in overlay pixel space
type Bounds struct {
	X, Y int
	W, H int
}

// Rect returns the bounds as an image rectangle
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Center returns the geometric center of the rectangle
func (b Bounds) Center() (float64, float64) {
	return float64(b.X) + float64(b.W)/2, float64(b.Y) + float64(b.H)/2
}

// Area returns w*h
func (b Bounds) Area() int {
	return b.W * b.H
}

// Contains reports whether pixel (x, y) lies inside the rectangle
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}
