// Package merge composes several source images into one output canvas
// according to a small set of grid layouts. The same code path serves
// interactive one-shot merges and batch pipelines, so every computation
// here is deterministic and free of shared state.
package merge

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Mode selects how a source is scaled into its slot.
type Mode int

const (
	// ModeFit preserves aspect ratio and centers inside the slot.
	ModeFit Mode = iota
	// ModeStretch fills the slot exactly, ignoring aspect ratio.
	ModeStretch
)

// DefaultQuality is used for JPEG and WebP output when no quality is
// given.
const DefaultQuality = 92

// Options configures a single merge invocation.
type Options struct {
	Layout     Layout
	Width      int // 0 means derived or default
	Height     int // 0 means derived or default
	Background color.NRGBA
	Mode       Mode
	Gap        int
	Quality    int
}

// Result is a freshly allocated output surface. It never aliases any
// input pixels.
type Result struct {
	Image  *image.NRGBA
	Width  int
	Height int
}

// Merge composes srcs into one image. transforms is parallel to srcs;
// a nil or short slice means identity for the remaining images. Slots
// beyond len(srcs) keep the background color, sources beyond the slot
// count are ignored.
func Merge(srcs []image.Image, transforms []Transform, opts Options) (*Result, error) {
	if opts.Layout == nil {
		opts.Layout = Split{}
	}

	n := min(len(srcs), opts.Layout.SlotCount())
	sizes := make([]image.Point, n)
	for i := 0; i < n; i++ {
		b := srcs[i].Bounds()
		w, h := transformAt(transforms, i).EffectiveSize(b.Dx(), b.Dy())
		sizes[i] = image.Pt(w, h)
	}

	geom, err := resolveGeometry(opts.Layout, sizes, opts)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(geom.width, geom.height, opts.Background)

	for i := 0; i < n && i < len(geom.slots); i++ {
		slot := geom.slots[i]
		tr := transformAt(transforms, i)

		img := tr.applyGeometry(srcs[i])

		var p Placement
		if opts.Mode == ModeStretch {
			p = stretch(slot.Dx(), slot.Dy())
		} else {
			p = Fit(img.Bounds().Dx(), img.Bounds().Dy(), slot.Dx(), slot.Dy())
		}

		scaled := imaging.Resize(img, p.W, p.H, imaging.Lanczos)
		scaled = tr.adjustColor(scaled)

		canvas = imaging.Paste(canvas, scaled, image.Pt(slot.Min.X+p.OffsetX, slot.Min.Y+p.OffsetY))
	}

	return &Result{Image: canvas, Width: geom.width, Height: geom.height}, nil
}

func transformAt(transforms []Transform, i int) Transform {
	if i < len(transforms) {
		return transforms[i]
	}
	return Transform{}
}
