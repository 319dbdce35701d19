// Package fade tracks which page regions have scrolled into view.
//
// Visibility is a one-way latch: a region becomes visible once its top edge
// is above the viewport height minus an offset, and stays visible. The host
// (a browser, or anything that can measure the page) reports layouts through
// a Source; the engine never queries the page itself.
package fade

// DefaultOffset is how far above the bottom of the viewport a region's top
// must be before it is revealed.
const DefaultOffset = 60

// Revealed reports whether a region with the given top offset is within the
// reveal threshold of a viewport of the given height.
func Revealed(top, viewportHeight, offset float64) bool {
	return top < viewportHeight-offset
}

// Layout is a measurement of the page at one instant.
type Layout interface {
	ViewportHeight() float64
	// Top returns the region's top edge relative to the viewport.
	Top(id string) (float64, bool)
}

// Snapshot is a Layout reported by the host.
type Snapshot struct {
	Viewport float64            `json:"viewport"`
	Tops     map[string]float64 `json:"tops"`
}

func (s Snapshot) ViewportHeight() float64 { return s.Viewport }

func (s Snapshot) Top(id string) (float64, bool) {
	top, ok := s.Tops[id]
	return top, ok
}
