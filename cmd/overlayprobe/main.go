// Command overlayprobe checks the region table against the globe mapping
// without opening a window, and can write the overlay for a selection to a
// PNG file.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"

	"climateglobe/core"
	"climateglobe/rendering"
)

func main() {
	var (
		region      = flag.String("region", "", "Region to rasterize")
		temperature = flag.String("temperature", "", "Temperature delta for the region, e.g. 2.6")
		out         = flag.String("out", "", "Write the overlay PNG here")
	)
	flag.Parse()

	fmt.Println("=== Overlay Coordinate Check ===")
	fmt.Println()

	failures := 0
	for _, id := range core.RegionIDs() {
		b, _ := core.LookupRegion(id)
		nw, se := core.BoundsGeographic(b)
		cx, cy := b.Center()
		center := core.PixelToGeographic(cx, cy)

		// Round trip through the sphere the way picking does
		x, y, z := core.GeographicToSphere(center, rendering.GlobeRadius)
		u, v := core.SphereUV(x, y, z)
		px, py := core.UVToPixel(u, v)
		hit, _ := core.RegionAt(px, py)

		status := "ok"
		if !b.Contains(px, py) {
			status = "MISS"
			failures++
		}

		fmt.Printf("%s:\n", id)
		fmt.Printf("  Pixels: x=%d..%d y=%d..%d\n", b.X, b.X+b.W, b.Y, b.Y+b.H)
		fmt.Printf("  Geographic: %.1f°N %.1f°E to %.1f°N %.1f°E\n", nw.Lat, nw.Lon, se.Lat, se.Lon)
		fmt.Printf("  Center pick: (%d, %d) -> %s [%s]\n", px, py, hit, status)
	}

	fmt.Println()
	fmt.Println("Tiers:")
	for _, t := range []string{"0.4", "1.0", "1.5", "2.0", "2.6"} {
		s := core.ColorForText(t)
		fmt.Printf("  %-4s -> %-8s fill=#%02x%02x%02x a=%d\n", t, s.Tier, s.Fill.R, s.Fill.G, s.Fill.B, s.Fill.A)
	}

	if *out != "" {
		id := core.RegionID(*region)
		if id == "" {
			id = core.Global
		}
		img := core.Rasterize(id, core.MetricSet{Temperature: *temperature})
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			log.Fatalf("Failed to encode overlay: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write %s: %v", *out, err)
		}
		fmt.Printf("\nWrote %s overlay (%s) to %s\n", id, core.ColorForText(*temperature).Tier, *out)
	}

	if failures > 0 {
		fmt.Printf("\n%d region centers did not map back onto their region\n", failures)
		os.Exit(1)
	}
}
