package model

// Rect is a viewport-relative rectangle as reported by getBoundingClientRect.
type Rect struct {
	X, Y, Width, Height float64
}

// ScrollOffset is the document scroll position at measurement time.
type ScrollOffset struct {
	X, Y float64
}

// BoundingBox is an element's rendered extent in page-absolute CSS pixels
// (after scroll offset, before device pixel ratio).
type BoundingBox struct {
	X      float64 `yaml:"x"      json:"x"`
	Y      float64 `yaml:"y"      json:"y"`
	Width  float64 `yaml:"width"  json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// ToPageBox converts a viewport-relative rect to page-absolute coordinates.
func ToPageBox(r Rect, scroll ScrollOffset) BoundingBox {
	return BoundingBox{
		X:      r.X + scroll.X,
		Y:      r.Y + scroll.Y,
		Width:  r.Width,
		Height: r.Height,
	}
}

// IsZero reports whether the box cannot be visualized.
func (b BoundingBox) IsZero() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Bounds returns the box as [x, y, w, h] rounded to whole pixels.
func (b BoundingBox) Bounds() [4]int {
	return [4]int{round(b.X), round(b.Y), round(b.Width), round(b.Height)}
}

func round(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
