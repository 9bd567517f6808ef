package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"musicthumb/internal/models"
)

const (
	CanvasWidth  = 1320
	CanvasHeight = 760
	CircleSize   = 560
	AvatarSize   = 120

	circleLeft = 80
	avatarX    = 28
	avatarY    = 16

	// Visual tuning values.
	backgroundBlur       = 22.0
	backgroundBrightness = 0.88
	backgroundContrast   = 1.05
	gradientFalloff      = 0.25
	shadowBlur           = 35.0
	shadowPad            = 50
	shadowAlpha          = 100
	dominantSample       = 60
	dominantAlphaMin     = 150

	titleSize       = 52
	viewsSize       = 32
	watermarkSize   = 28
	titleLineHeight = 58
	infoGap         = 80
	infoRightMargin = 70
	watermarkRight  = 30
	watermarkBottom = 5
	titleNudge      = 8
	viewsGap        = 8
)

// FallbackColor is the dominant color of artwork with no opaque pixels.
var FallbackColor = color.NRGBA{R: 40, G: 40, B: 80, A: 255}

// Compositor draws the "now playing" card. It holds no per-render state.
type Compositor struct {
	fonts     *Fonts
	watermark string
}

func NewCompositor(fonts *Fonts, watermark string) *Compositor {
	return &Compositor{fonts: fonts, watermark: watermark}
}

// Render composes the final opaque CanvasWidth x CanvasHeight image. avatar may be nil.
func (c *Compositor) Render(art image.Image, meta models.VideoMetadata, avatar image.Image) (out *image.NRGBA, err error) {
	const op = "thumbnail.Render"

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = stageErr(RenderFailed, op, fmt.Errorf("panic: %v", r))
		}
	}()

	if art == nil || art.Bounds().Empty() {
		return nil, stageErr(RenderFailed, op, errors.New("empty artwork"))
	}

	canvas := gradient(CanvasWidth, CanvasHeight, dominantColor(art))
	canvas = imaging.Overlay(canvas, background(art), image.Pt(0, 0), 1.0)

	x, y := circleLeft, (CanvasHeight-CircleSize)/2
	canvas = imaging.Overlay(canvas, dropShadow(CircleSize), image.Pt(x-shadowPad, y-shadowPad), 1.0)
	canvas = imaging.Overlay(canvas, circleCrop(art, CircleSize), image.Pt(x, y), 1.0)

	if avatar != nil {
		canvas = imaging.Overlay(canvas, avatar, image.Pt(avatarX, avatarY), 1.0)
	}

	c.drawText(canvas, meta.WithDefaults(), y)

	return flatten(canvas), nil
}

// dominantColor returns the most frequent color among sufficiently opaque
// pixels of a 60x60 sample. Ties go to the color seen first.
func dominantColor(img image.Image) color.NRGBA {
	small := imaging.Resize(img, dominantSample, dominantSample, imaging.CatmullRom)

	counts := make(map[color.NRGBA]int)
	var order []color.NRGBA
	for i := 0; i+3 < len(small.Pix); i += 4 {
		p := color.NRGBA{R: small.Pix[i], G: small.Pix[i+1], B: small.Pix[i+2], A: small.Pix[i+3]}
		if p.A < dominantAlphaMin {
			continue
		}
		if counts[p] == 0 {
			order = append(order, p)
		}
		counts[p]++
	}
	if len(order) == 0 {
		return FallbackColor
	}

	best := order[0]
	for _, p := range order[1:] {
		if counts[p] > counts[best] {
			best = p
		}
	}
	return color.NRGBA{R: best.R, G: best.G, B: best.B, A: 255}
}

// gradient fills a w x h image darkening linearly from c at the top to 75% of c at the bottom.
func gradient(w, h int, c color.NRGBA) *image.NRGBA {
	img := imaging.New(w, h, c)
	for y := 0; y < h; y++ {
		f := 1 - gradientFalloff*float64(y)/float64(h)
		row := color.NRGBA{
			R: uint8(float64(c.R) * f),
			G: uint8(float64(c.G) * f),
			B: uint8(float64(c.B) * f),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, row)
		}
	}
	return img
}

func background(art image.Image) *image.NRGBA {
	bg := resizeFit(art, CanvasWidth, CanvasHeight)
	bg = imaging.Blur(bg, backgroundBlur)
	bg = scaleBrightness(bg, backgroundBrightness)
	return scaleContrast(bg, backgroundContrast)
}

// resizeFit scales img to fit inside w x h keeping its aspect ratio, upscaling if needed.
func resizeFit(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	r := math.Min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	nw := max(1, int(float64(b.Dx())*r))
	nh := max(1, int(float64(b.Dy())*r))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

func scaleBrightness(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampChannel(float64(c.R) * factor),
			G: clampChannel(float64(c.G) * factor),
			B: clampChannel(float64(c.B) * factor),
			A: c.A,
		}
	})
}

// scaleContrast pushes every channel away from the image's mean luminance.
func scaleContrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := math.Floor(meanLuminance(img) + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampChannel(mean + (float64(c.R)-mean)*factor),
			G: clampChannel(mean + (float64(c.G)-mean)*factor),
			B: clampChannel(mean + (float64(c.B)-mean)*factor),
			A: c.A,
		}
	})
}

func meanLuminance(img *image.NRGBA) float64 {
	var sum float64
	n := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		sum += float64(int(img.Pix[i])*299+int(img.Pix[i+1])*587+int(img.Pix[i+2])*114) / 1000
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clampChannel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// circleCrop cover-fits img to size x size and clips it to the inscribed circle.
func circleCrop(img image.Image, size int) image.Image {
	filled := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	return clipCircle(filled, size)
}

func clipCircle(img image.Image, size int) image.Image {
	r := float64(size) / 2
	dc := gg.NewContext(size, size)
	dc.DrawCircle(r, r, r)
	dc.Clip()
	dc.DrawImage(img, 0, 0)
	return dc.Image()
}

// dropShadow is a soft dark disc of the given diameter, padded by shadowPad on every side.
func dropShadow(size int) *image.NRGBA {
	side := size + 2*shadowPad
	dc := gg.NewContext(side, side)
	dc.SetRGBA255(0, 0, 0, shadowAlpha)
	dc.DrawCircle(float64(side)/2, float64(side)/2, float64(size)/2)
	dc.Fill()
	return imaging.Blur(dc.Image(), shadowBlur)
}

func (c *Compositor) drawText(canvas *image.NRGBA, meta models.VideoMetadata, circleTop int) {
	infoX := circleLeft + CircleSize + infoGap
	maxW := CanvasWidth - infoX - infoRightMargin

	titleFace := c.fonts.Face(Bold, titleSize)
	lines := wrapTitle(meta.Title, maxW, titleFace)
	totalH := len(lines) * titleLineHeight
	ty := circleTop + (CircleSize-totalH)/2 + titleNudge
	for i, line := range lines {
		tx := infoX + centerOffset(maxW, textWidth(titleFace, line))
		drawLayered(canvas, titleFace, line, tx, ty+i*titleLineHeight, titleLayers)
	}

	viewsFace := c.fonts.Face(Regular, viewsSize)
	views := FormatViews(meta.ViewCount) + " views"
	vx := infoX + centerOffset(maxW, textWidth(viewsFace, views))
	drawLayered(canvas, viewsFace, views, vx, ty+totalH+viewsGap, viewsLayers)

	if c.watermark == "" {
		return
	}
	waterFace := c.fonts.Face(Italic, watermarkSize)
	m := waterFace.Metrics()
	wx := CanvasWidth - textWidth(waterFace, c.watermark) - watermarkRight
	wy := CanvasHeight - (m.Ascent + m.Descent).Ceil() - watermarkBottom
	drawLayered(canvas, waterFace, c.watermark, wx, wy, watermarkLayers)
}

// flatten drops the alpha channel.
func flatten(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
