package merge

import (
	"image/color"
	"testing"

	"github.com/matryer/is"
)

func TestParseHexColor(t *testing.T) {
	is := is.New(t)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	c, err := ParseHexColor("#fff")
	is.NoErr(err)
	is.Equal(c, white)

	c, err = ParseHexColor("ffffff")
	is.NoErr(err)
	is.Equal(c, white)

	c, err = ParseHexColor("#1a2b3c")
	is.NoErr(err)
	is.Equal(c, color.NRGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff})

	_, err = ParseHexColor("nope")
	is.True(err != nil)

	_, err = ParseHexColor("#12345")
	is.True(err != nil)
}
