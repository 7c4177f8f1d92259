package merge

import (
	"errors"
	"image"
	"math"
)

const defaultCanvasSize = 3000

// ErrInsufficientImages is returned when fewer images are supplied than
// the layout requires.
var ErrInsufficientImages = errors.New("not enough images for layout")

// Layout selects how slots are arranged on the output canvas.
type Layout interface {
	// SlotCount is the number of slots the layout produces.
	SlotCount() int
}

// Split places two images side by side in one row.
type Split struct{}

// Mixed places two images on top and one full-width image below.
type Mixed struct{}

// Grid2x2 places four images in equal quadrants.
type Grid2x2 struct{}

// CustomGrid places Rows*Cols images in a uniform grid.
type CustomGrid struct {
	Rows, Cols int
}

func (Split) SlotCount() int        { return 2 }
func (Mixed) SlotCount() int        { return 3 }
func (Grid2x2) SlotCount() int      { return 4 }
func (g CustomGrid) SlotCount() int { return g.Rows * g.Cols }

// geometry is the resolved canvas size plus the slot rectangles, in
// slot order.
type geometry struct {
	width, height int
	slots         []image.Rectangle
}

// resolveGeometry computes the canvas dimensions and slot rectangles
// for a layout. sizes are the effective source dimensions after crop
// and rotation, in slot order; only Split consults them.
func resolveGeometry(l Layout, sizes []image.Point, opts Options) (geometry, error) {
	switch v := l.(type) {
	case Split:
		return resolveSplit(sizes, opts)
	case Mixed:
		g := fixedCanvas(opts)
		hw := (g.width - opts.Gap) / 2
		hh := (g.height - opts.Gap) / 2
		g.slots = []image.Rectangle{
			rect(0, 0, hw, hh),
			rect(hw+opts.Gap, 0, hw, hh),
			rect(0, hh+opts.Gap, g.width, hh),
		}
		return g, nil
	case Grid2x2:
		g := fixedCanvas(opts)
		hw := (g.width - opts.Gap) / 2
		hh := (g.height - opts.Gap) / 2
		g.slots = []image.Rectangle{
			rect(0, 0, hw, hh),
			rect(hw+opts.Gap, 0, hw, hh),
			rect(0, hh+opts.Gap, hw, hh),
			rect(hw+opts.Gap, hh+opts.Gap, hw, hh),
		}
		return g, nil
	case CustomGrid:
		if v.Rows < 1 || v.Cols < 1 {
			return geometry{}, errors.New("custom grid needs at least one row and column")
		}
		g := fixedCanvas(opts)
		cellW := float64(g.width-(v.Cols-1)*opts.Gap) / float64(v.Cols)
		cellH := float64(g.height-(v.Rows-1)*opts.Gap) / float64(v.Rows)
		for r := 0; r < v.Rows; r++ {
			for c := 0; c < v.Cols; c++ {
				g.slots = append(g.slots, rect(
					round(float64(c)*(cellW+float64(opts.Gap))),
					round(float64(r)*(cellH+float64(opts.Gap))),
					round(cellW),
					round(cellH),
				))
			}
		}
		return g, nil
	default:
		return geometry{}, errors.New("unknown layout")
	}
}

// resolveSplit derives the canvas size for the side-by-side layout.
// When only one dimension is given the other is derived from the two
// source sizes, each side rounded independently.
func resolveSplit(sizes []image.Point, opts Options) (geometry, error) {
	if len(sizes) < 2 {
		return geometry{}, ErrInsufficientImages
	}

	w0, h0 := float64(sizes[0].X), float64(sizes[0].Y)
	w1, h1 := float64(sizes[1].X), float64(sizes[1].Y)
	gap := float64(opts.Gap)

	var outW, outH int
	switch {
	case opts.Width > 0 && opts.Height > 0:
		outW, outH = opts.Width, opts.Height
	case opts.Width > 0:
		hw := (float64(opts.Width) - gap) / 2
		outW = opts.Width
		outH = round(math.Max(h0*hw/w0, h1*hw/w1))
	case opts.Height > 0:
		outH = opts.Height
		outW = round(w0*float64(opts.Height)/h0) + round(w1*float64(opts.Height)/h1) + opts.Gap
	default:
		th := math.Max(h0, h1)
		outH = int(th)
		outW = round(w0*th/h0) + round(w1*th/h1) + opts.Gap
	}

	halfW := round(float64(outW-opts.Gap) / 2)
	return geometry{
		width:  outW,
		height: outH,
		slots: []image.Rectangle{
			rect(0, 0, halfW, outH),
			rect(halfW+opts.Gap, 0, outW-halfW-opts.Gap, outH),
		},
	}, nil
}

func fixedCanvas(opts Options) geometry {
	g := geometry{width: defaultCanvasSize, height: defaultCanvasSize}
	if opts.Width > 0 {
		g.width = opts.Width
	}
	if opts.Height > 0 {
		g.height = opts.Height
	}
	return g
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

func round(v float64) int {
	return int(math.Round(v))
}
