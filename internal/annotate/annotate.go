// Package annotate overlays problematic element boxes on a page screenshot.
package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/a11y-lens/internal/model"
)

// ErrDegraded wraps decode and encode failures. The caller still gets the
// original screenshot.
var ErrDegraded = errors.New("annotation degraded")

// LabelMode controls what is drawn inside each badge.
type LabelMode int

const (
	// LabelMark draws "!".
	LabelMark LabelMode = iota
	// LabelIndex draws the element's 1-based position in the list, so the
	// picture can be matched against the report.
	LabelIndex
)

const (
	badgeSize   = 20
	borderWidth = 2
	glyphWidth  = 7 // basicfont.Face7x13
	glyphHeight = 13
	glyphAscent = 11
)

// Fill and border alphas (0.3 and 0.8 of 255).
const (
	fillAlpha   = 77
	borderAlpha = 204
)

var textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// PriorityColor returns the opaque base color for p.
func PriorityColor(p model.Priority) color.RGBA {
	switch p {
	case model.PriorityHigh:
		return color.RGBA{R: 220, G: 38, B: 38, A: 255}
	case model.PriorityMedium:
		return color.RGBA{R: 245, G: 158, B: 11, A: 255}
	default:
		return color.RGBA{R: 34, G: 197, B: 94, A: 255}
	}
}

// Annotate draws every element onto a copy of img. The result always has
// the same bounds as img; shapes outside the image are clipped.
func Annotate(img image.Image, elements []model.ProblematicElement) *image.RGBA {
	return AnnotateWithMode(img, elements, LabelMark)
}

// AnnotateWithMode is like Annotate but allows choosing the badge label.
func AnnotateWithMode(img image.Image, elements []model.ProblematicElement, mode LabelMode) *image.RGBA {
	rgba := ToRGBA(img)
	for i, el := range elements {
		label := "!"
		if mode == LabelIndex {
			label = strconv.Itoa(i + 1)
		}
		drawElement(rgba, el, label)
	}
	return rgba
}

// AnnotatePNG decodes a PNG, annotates it and re-encodes it. On failure it
// returns data unchanged with an error wrapping ErrDegraded.
func AnnotatePNG(data []byte, elements []model.ProblematicElement, mode LabelMode) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return data, fmt.Errorf("%w: decode screenshot: %w", ErrDegraded, err)
	}
	out := AnnotateWithMode(img, elements, mode)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return data, fmt.Errorf("%w: encode screenshot: %w", ErrDegraded, err)
	}
	return buf.Bytes(), nil
}

// ToRGBA converts any image to RGBA, preserving its bounds.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

func drawElement(img *image.RGBA, el model.ProblematicElement, label string) {
	b := el.BoundingBox.Bounds()
	x, y, w, h := b[0], b[1], b[2], b[3]
	if w <= 0 || h <= 0 {
		return
	}
	base := PriorityColor(el.Priority)
	box := image.Rect(x, y, x+w, y+h).Add(img.Bounds().Min)

	// Fill the interior only so border pixels are not blended twice.
	blend(img, box.Inset(borderWidth), withAlpha(base, fillAlpha))
	drawBorder(img, box, withAlpha(base, borderAlpha))
	drawBadge(img, box.Min, base, label)
}

// blend composites a translucent color over r, clipped to the image.
func blend(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// drawBorder strokes a borderWidth frame inside r.
func drawBorder(img *image.RGBA, r image.Rectangle, c color.Color) {
	bw := min(borderWidth, r.Dx(), r.Dy())
	top := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+bw)
	bottom := image.Rect(r.Min.X, r.Max.Y-bw, r.Max.X, r.Max.Y)
	left := image.Rect(r.Min.X, r.Min.Y+bw, r.Min.X+bw, r.Max.Y-bw)
	right := image.Rect(r.Max.X-bw, r.Min.Y+bw, r.Max.X, r.Max.Y-bw)

	blend(img, top, c)
	if r.Dy() > bw {
		blend(img, bottom, c)
	}
	blend(img, left, c)
	if r.Dx() > bw {
		blend(img, right, c)
	}
}

// badgeRect places the badge above the box's top-left corner, moving it
// inside the image when there is no room.
func badgeRect(bounds image.Rectangle, corner image.Point, width int) image.Rectangle {
	x := corner.X
	y := corner.Y - badgeSize
	if y < bounds.Min.Y {
		y = corner.Y
	}
	if x+width > bounds.Max.X {
		x = bounds.Max.X - width
	}
	if y+badgeSize > bounds.Max.Y {
		y = bounds.Max.Y - badgeSize
	}
	x = max(x, bounds.Min.X)
	y = max(y, bounds.Min.Y)
	return image.Rect(x, y, x+width, y+badgeSize).Intersect(bounds)
}

func drawBadge(img *image.RGBA, corner image.Point, c color.RGBA, label string) {
	width := max(badgeSize, len(label)*glyphWidth+6)
	r := badgeRect(img.Bounds(), corner, width)
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)

	tx := r.Min.X + (r.Dx()-len(label)*glyphWidth)/2
	baseline := r.Min.Y + (badgeSize-glyphHeight)/2 + glyphAscent
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(tx, baseline),
	}
	d.DrawString(label)
}
