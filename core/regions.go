package core

// Registered regions in display order
var regionOrder = []RegionID{
	"North America",
	"Europe",
	"Asia",
	"Africa",
	"South America",
	"Oceania",
}

// regionTable maps each region to its rectangle on the reference canvas.
// It is never written after package init.
var regionTable = map[RegionID]Bounds{
	"North America": {X: 400, Y: 100, W: 600, H: 300},
	"Europe":        {X: 900, Y: 100, W: 300, H: 200},
	"Asia":          {X: 1200, Y: 100, W: 500, H: 400},
	"Africa":        {X: 900, Y: 300, W: 300, H: 400},
	"South America": {X: 600, Y: 400, W: 300, H: 400},
	"Oceania":       {X: 1400, Y: 500, W: 400, H: 300},
}

// LookupRegion returns the overlay bounds for a region.
// Global and unknown identifiers report false; callers draw nothing.
func LookupRegion(id RegionID) (Bounds, bool) {
	b, ok := regionTable[id]
	return b, ok
}

// RegionIDs returns the registered regions in display order
func RegionIDs() []RegionID {
	ids := make([]RegionID, len(regionOrder))
	copy(ids, regionOrder)
	return ids
}

// RegionAt finds the region whose rectangle contains pixel (x, y).
// Rectangles overlap (Europe sits inside North America's box), so the
// smallest containing rectangle wins; ties go to display order.
func RegionAt(x, y int) (RegionID, bool) {
	var (
		best     RegionID
		bestArea int
		found    bool
	)
	for _, id := range regionOrder {
		b := regionTable[id]
		if !b.Contains(x, y) {
			continue
		}
		if !found || b.Area() < bestArea {
			best, bestArea, found = id, b.Area(), true
		}
	}
	return best, found
}
