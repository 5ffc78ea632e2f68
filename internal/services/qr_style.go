package services

import (
	"image/color"
	"strings"

	"github.com/makingtheimpact/blnk-icu/internal/models"
)

// StyleConfig selects the module shape and colouring of a rendered QR code.
type StyleConfig = models.QRStyle

// Module drawer styles.
const (
	StyleSquare     = "square"
	StyleGapped     = "gapped"
	StyleCircle     = "circle"
	StyleRounded    = "rounded"
	StyleVertical   = "vertical"
	StyleHorizontal = "horizontal"
)

// Colour mask types.
const (
	ColorSolid      = "solid"
	ColorRadial     = "radial"
	ColorSquare     = "square"
	ColorHorizontal = "horizontal"
	ColorVertical   = "vertical"
)

const (
	defaultFrontColor  = "#000000"
	defaultBackColor   = "#FFFFFF"
	defaultCenterColor = "#000000"
	defaultEdgeColor   = "#000000"
)

var (
	validStyles     = []string{StyleSquare, StyleGapped, StyleCircle, StyleRounded, StyleVertical, StyleHorizontal}
	validColorTypes = []string{ColorSolid, ColorRadial, ColorSquare, ColorHorizontal, ColorVertical}
)

// Styles returns the accepted module drawer names.
func Styles() []string {
	return append([]string(nil), validStyles...)
}

// ColorTypes returns the accepted colour mask names.
func ColorTypes() []string {
	return append([]string(nil), validColorTypes...)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// ValidateStyleConfig sanitizes cfg. It never rejects input: unknown styles,
// unknown colour types and colours without a leading '#' are replaced by
// their defaults, so the result is always renderable.
func ValidateStyleConfig(cfg StyleConfig) StyleConfig {
	out := cfg
	if !contains(validStyles, out.Style) {
		out.Style = StyleSquare
	}
	if !contains(validColorTypes, out.ColorType) {
		out.ColorType = ColorSolid
	}
	out.FrontColor = sanitizeColor(out.FrontColor, defaultFrontColor)
	out.BackColor = sanitizeColor(out.BackColor, defaultBackColor)
	out.CenterColor = sanitizeColor(out.CenterColor, defaultCenterColor)
	out.EdgeColor = sanitizeColor(out.EdgeColor, defaultEdgeColor)
	return out
}

func sanitizeColor(value, def string) string {
	if !strings.HasPrefix(value, "#") {
		return def
	}
	return value
}

// parseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA. Anything else yields def.
func parseHexColor(s string, def color.NRGBA) color.NRGBA {
	s = strings.TrimPrefix(s, "#")

	digits := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		v, ok := hexDigit(s[i])
		if !ok {
			return def
		}
		digits[i] = v
	}

	switch len(digits) {
	case 3:
		return color.NRGBA{R: digits[0] * 17, G: digits[1] * 17, B: digits[2] * 17, A: 255}
	case 6:
		return color.NRGBA{R: digits[0]<<4 | digits[1], G: digits[2]<<4 | digits[3], B: digits[4]<<4 | digits[5], A: 255}
	case 8:
		return color.NRGBA{R: digits[0]<<4 | digits[1], G: digits[2]<<4 | digits[3], B: digits[4]<<4 | digits[5], A: digits[6]<<4 | digits[7]}
	default:
		return def
	}
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// fieldColor parses value and falls back to the field default def.
func fieldColor(value, def string) color.NRGBA {
	return parseHexColor(value, parseHexColor(def, color.NRGBA{A: 255}))
}
