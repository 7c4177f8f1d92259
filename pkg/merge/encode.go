package merge

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
)

// Format identifies an output codec.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatWebP
)

// ErrEncodeFailure is returned when the codec produced no bytes.
var ErrEncodeFailure = errors.New("encoding produced no output")

// FormatForPath picks the output format from a file extension. Unknown
// extensions fall back to PNG.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".webp":
		return FormatWebP
	default:
		return FormatPNG
	}
}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatWebP:
		return "webp"
	default:
		return "png"
	}
}

// Encode serializes img in the given format. quality applies to JPEG
// and WebP only; values outside [1,100] fall back to DefaultQuality.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	buf := &bytes.Buffer{}
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = webp.Encode(buf, img, &webp.Options{Quality: float32(quality)})
	default:
		err = png.Encode(buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	if buf.Len() == 0 {
		return nil, ErrEncodeFailure
	}

	return buf.Bytes(), nil
}
