package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
)

// DefaultFontPath is the bundled Hangul-capable font.
const DefaultFontPath = "fonts/Pretendard-Bold.ttf"

var (
	fontOnce       sync.Once
	fontRegistered bool
)

// RegisterFont makes the TrueType/OpenType font at path the default for
// every plot created afterwards. Only the first call has an effect. It
// returns false, keeping gonum's default fonts, when the font is missing or
// unreadable.
func RegisterFont(path string) bool {
	fontOnce.Do(func() {
		fontRegistered = registerFont(path)
	})
	return fontRegistered
}

func registerFont(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Font not found, using default fonts")
		return false
	}
	ttf, err := opentype.Parse(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Font unreadable, using default fonts")
		return false
	}

	typeface := font.Typeface(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	fnt := font.Font{Typeface: typeface}
	font.DefaultCache.Add(font.Collection{{Font: fnt, Face: ttf}})
	plot.DefaultFont = fnt

	log.Info().Str("typeface", string(typeface)).Msg("Font registered")
	return true
}
