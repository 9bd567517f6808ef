package thumbnail

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const maxTitleLines = 4

// textLayer is one pass of the stroke/shadow/fill triple draw.
type textLayer struct {
	dx, dy int
	color  color.Color
}

var (
	strokeColor     = color.NRGBA{A: 255}
	textShadowColor = color.NRGBA{A: 130}

	titleLayers = []textLayer{
		{dx: -3, dy: -3, color: strokeColor},
		{dx: 2, dy: 2, color: textShadowColor},
		{dx: 0, dy: 0, color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	}
	viewsLayers = []textLayer{
		{dx: -2, dy: -2, color: strokeColor},
		{dx: 1, dy: 1, color: textShadowColor},
		{dx: 0, dy: 0, color: color.NRGBA{R: 230, G: 230, B: 230, A: 230}},
	}
	watermarkLayers = []textLayer{
		{dx: -2, dy: -2, color: strokeColor},
		{dx: 1, dy: 1, color: textShadowColor},
		{dx: 0, dy: 0, color: color.NRGBA{R: 210, G: 210, B: 210, A: 190}},
	}
)

// wrapTitle packs words greedily into lines no wider than maxWidth.
// Words past the fourth line are dropped.
func wrapTitle(title string, maxWidth int, face font.Face) []string {
	limit := fixed.I(maxWidth)
	var (
		lines []string
		cur   []string
		curW  fixed.Int26_6
	)
	for _, word := range strings.Fields(title) {
		w := font.MeasureString(face, word+" ")
		if curW+w > limit && len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
			cur = []string{word}
			curW = w
		} else {
			cur = append(cur, word)
			curW += w
		}
		if len(lines) >= maxTitleLines {
			break
		}
	}
	if len(cur) > 0 && len(lines) < maxTitleLines {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

// drawLayered draws s with its top-left corner at (x, y) once per layer.
func drawLayered(dst draw.Image, face font.Face, s string, x, y int, layers []textLayer) {
	ascent := face.Metrics().Ascent
	for _, l := range layers {
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(l.color),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(x + l.dx),
				Y: fixed.I(y+l.dy) + ascent,
			},
		}
		d.DrawString(s)
	}
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Round()
}

// centerOffset returns floor((avail-width)/2).
func centerOffset(avail, width int) int {
	d := avail - width
	if d < 0 && d%2 != 0 {
		return d/2 - 1
	}
	return d / 2
}
