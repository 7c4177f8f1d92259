package merge

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Rect01 is a crop rectangle normalized to [0,1] of the source size.
type Rect01 struct {
	X, Y, W, H float64
}

// clamp forces the rectangle into [0,1] bounds. Out-of-range crops are
// forgiven rather than rejected so interactive editing stays usable.
func (r Rect01) clamp() Rect01 {
	r.X = math.Max(0, math.Min(r.X, 1))
	r.Y = math.Max(0, math.Min(r.Y, 1))
	r.W = math.Max(0, math.Min(r.W, 1-r.X))
	r.H = math.Max(0, math.Min(r.H, 1-r.Y))
	return r
}

func (r Rect01) empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Transform describes the per-image adjustments applied before an
// image is placed into its slot. The zero value is the identity.
type Transform struct {
	Rotate       int // clockwise degrees, one of 0, 90, 180, 270
	FlipH, FlipV bool
	Brightness   float64 // percent, -100..100
	Contrast     float64 // percent, -100..100
	Crop         *Rect01
}

// EffectiveSize reports the source dimensions after crop and rotation,
// which is what layout sizing must see. A 90 or 270 degree rotation
// swaps width and height.
func (t Transform) EffectiveSize(w, h int) (int, int) {
	if t.Crop != nil {
		c := t.Crop.clamp()
		if !c.empty() {
			w = int(c.W * float64(w))
			h = int(c.H * float64(h))
		}
	}
	if t.Rotate == 90 || t.Rotate == 270 {
		w, h = h, w
	}
	return w, h
}

// applyGeometry runs the geometric part of the pipeline: crop, rotate,
// flip, in that order. Color adjustment happens later, at render
// resolution.
func (t Transform) applyGeometry(src image.Image) *image.NRGBA {
	out := imaging.Clone(src)

	if t.Crop != nil {
		c := t.Crop.clamp()
		if !c.empty() {
			b := src.Bounds()
			x := int(c.X * float64(b.Dx()))
			y := int(c.Y * float64(b.Dy()))
			w := int(c.W * float64(b.Dx()))
			h := int(c.H * float64(b.Dy()))
			out = imaging.Crop(out, image.Rect(x, y, x+w, y+h))
		}
	}

	switch t.Rotate {
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	}

	if t.FlipH {
		out = imaging.FlipH(out)
	}
	if t.FlipV {
		out = imaging.FlipV(out)
	}

	return out
}

// adjustColor applies brightness then contrast. Brightness is a flat
// multiplicative factor (100+b)/100 per channel; contrast rescales the
// channel range around mid-gray.
func (t Transform) adjustColor(img *image.NRGBA) *image.NRGBA {
	out := img
	if t.Brightness != 0 {
		factor := (100 + clampPercent(t.Brightness)) / 100
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			c.R = clampByte(float64(c.R) * factor)
			c.G = clampByte(float64(c.G) * factor)
			c.B = clampByte(float64(c.B) * factor)
			return c
		})
	}
	if t.Contrast != 0 {
		out = imaging.AdjustContrast(out, clampPercent(t.Contrast))
	}
	return out
}

func clampPercent(v float64) float64 {
	return math.Max(-100, math.Min(v, 100))
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
