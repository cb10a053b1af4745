package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/namelens/dentalnames/internal/core/naming"
)

// Swatch geometry in pixels.
const (
	SwatchWidth  = 600
	SwatchHeight = 240

	swatchMargin = 20
	swatchGap    = 15
	swatchTileY  = 56
	swatchTile   = 125
)

// ParseHexColor parses #RGB or #RRGGBB.
func ParseHexColor(value string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", value)
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}

// RenderSwatch draws the palette of a brand kit as a PNG: the name in the
// foreground color on the background color, then one labelled tile per color.
func RenderSwatch(w io.Writer, name string, p naming.ColorPalette) error {
	img, err := SwatchImage(name, p)
	if err != nil {
		return err
	}
	return EncodePNG(w, img)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SwatchImage builds the swatch without encoding it.
func SwatchImage(name string, p naming.ColorPalette) (*image.RGBA, error) {
	roles := []struct {
		label string
		hex   string
	}{
		{"primary", p.Primary},
		{"accent", p.Accent},
		{"background", p.Background},
		{"foreground", p.Foreground},
	}

	colors := make([]color.RGBA, len(roles))
	for i, role := range roles {
		c, err := ParseHexColor(role.hex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", role.label, err)
		}
		colors[i] = c
	}
	background, foreground := colors[2], colors[3]

	img := image.NewRGBA(image.Rect(0, 0, SwatchWidth, SwatchHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	drawLabel(img, swatchMargin, 32, strings.TrimSpace(name), foreground)

	for i, role := range roles {
		x := swatchMargin + i*(swatchTile+swatchGap)
		tile := image.Rect(x, swatchTileY, x+swatchTile, swatchTileY+swatchTile)
		// Outline keeps a tile visible when it matches the background.
		draw.Draw(img, tile.Inset(-1), image.NewUniform(foreground), image.Point{}, draw.Src)
		draw.Draw(img, tile, image.NewUniform(colors[i]), image.Point{}, draw.Src)

		labelY := swatchTileY + swatchTile + 20
		drawLabel(img, x, labelY, role.label, foreground)
		drawLabel(img, x, labelY+16, strings.ToUpper(role.hex), foreground)
	}
	return img, nil
}

func drawLabel(img draw.Image, x, y int, label string, c color.Color) {
	if label == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}
