package merge

import "math"

// Placement is a scaled size plus the offset that centers it inside a
// target box.
type Placement struct {
	W, H             int
	OffsetX, OffsetY int
}

// Fit scales srcW x srcH to fit inside targetW x targetH preserving
// aspect ratio and centers the result.
func Fit(srcW, srcH, targetW, targetH int) Placement {
	scale := math.Min(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
	w := round(float64(srcW) * scale)
	h := round(float64(srcH) * scale)
	return Placement{
		W:       w,
		H:       h,
		OffsetX: round(float64(targetW-w) / 2),
		OffsetY: round(float64(targetH-h) / 2),
	}
}

// stretch fills the target box exactly, ignoring aspect ratio.
func stretch(targetW, targetH int) Placement {
	return Placement{W: targetW, H: targetH}
}
