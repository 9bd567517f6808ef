package thumbnail

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

type FontStyle int

const (
	Bold FontStyle = iota
	Regular
	Italic
)

var fontFiles = map[FontStyle]string{
	Bold:    "GoNotoCurrent-Bold.ttf",
	Regular: "GoNotoCurrent-Regular.ttf",
	Italic:  "GoNotoCurrent-Italic.ttf",
}

var embeddedFonts = map[FontStyle][]byte{
	Bold:    gobold.TTF,
	Regular: goregular.TTF,
	Italic:  goitalic.TTF,
}

// Fonts loads the optional font files from a directory. A missing or broken
// file degrades to the embedded Go font of the same style, never to an error.
type Fonts struct {
	dir string
	log *logrus.Entry

	mu     sync.Mutex
	parsed map[FontStyle]*truetype.Font
}

func NewFonts(dir string, log *logrus.Entry) *Fonts {
	return &Fonts{
		dir:    dir,
		log:    log,
		parsed: make(map[FontStyle]*truetype.Font),
	}
}

// Face returns a face of the given style and point size.
func (f *Fonts) Face(style FontStyle, size float64) font.Face {
	ttf := f.load(style)
	if ttf == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (f *Fonts) load(style FontStyle) *truetype.Font {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ttf, ok := f.parsed[style]; ok {
		return ttf
	}
	ttf := f.parse(style)
	f.parsed[style] = ttf
	return ttf
}

func (f *Fonts) parse(style FontStyle) *truetype.Font {
	path := filepath.Join(f.dir, fontFiles[style])
	data, err := os.ReadFile(path)
	if err == nil {
		ttf, err := freetype.ParseFont(data)
		if err == nil {
			return ttf
		}
		f.log.WithError(err).WithField("path", path).Warn("unparseable font, using embedded face")
	} else {
		f.log.WithField("path", path).Debug("font file not found, using embedded face")
	}

	ttf, err := freetype.ParseFont(embeddedFonts[style])
	if err != nil {
		f.log.WithError(err).Error("embedded font parse failed, using basic face")
		return nil
	}
	return ttf
}
