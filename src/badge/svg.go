package badge

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/sofmeright/appforge/src/version"
)

const (
	badgeHeight = 20
	textPadding = 10
	labelColor  = "#555"
)

// geometry is the measured layout of one badge, in pixels.
type geometry struct {
	labelWidth int
	valueWidth int
}

func (g geometry) total() int       { return g.labelWidth + g.valueWidth }
func (g geometry) labelCenter() int { return g.labelWidth / 2 }
func (g geometry) valueCenter() int { return g.labelWidth + g.valueWidth/2 }

func (e *Engine) measure(b Badge) geometry {
	width := func(s string) int {
		return int(math.Round(e.metrics.TextWidth(s))) + textPadding
	}
	return geometry{labelWidth: width(b.Label), valueWidth: width(b.Value)}
}

// renderSVG draws a flat two-tone badge: grey label, colored value, with the
// measuring font embedded so viewers render the same widths.
func (e *Engine) renderSVG(b Badge) string {
	g := e.measure(b)
	label, value := xmlEscape(b.Label), xmlEscape(b.Value)
	family := e.metrics.FontName()

	var s strings.Builder
	fmt.Fprintf(&s, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" role="img" aria-label="%s: %s">`,
		g.total(), badgeHeight, label, value)
	fmt.Fprintf(&s, `<!-- %s -->`, version.UserAgent())
	fmt.Fprintf(&s, `<title>%s: %s</title>`, label, value)

	s.WriteString(`<defs>`)
	fmt.Fprintf(&s, `<style type="text/css">%s</style>`, fontFaceCSS(family, e.metrics.FontData()))
	s.WriteString(`<linearGradient id="shine" x2="0" y2="100%"><stop offset="0" stop-color="#bbb" stop-opacity=".1"/><stop offset="1" stop-opacity=".1"/></linearGradient>`)
	fmt.Fprintf(&s, `<clipPath id="round"><rect width="%d" height="%d" rx="3" fill="#fff"/></clipPath>`, g.total(), badgeHeight)
	s.WriteString(`</defs>`)

	s.WriteString(`<g clip-path="url(#round)">`)
	fmt.Fprintf(&s, `<rect width="%d" height="%d" fill="%s"/>`, g.labelWidth, badgeHeight, labelColor)
	fmt.Fprintf(&s, `<rect x="%d" width="%d" height="%d" fill="%s"/>`, g.labelWidth, g.valueWidth, badgeHeight, xmlEscape(b.Color))
	fmt.Fprintf(&s, `<rect width="%d" height="%d" fill="url(#shine)"/>`, g.total(), badgeHeight)
	s.WriteString(`</g>`)

	fmt.Fprintf(&s, `<g fill="#fff" text-anchor="middle" font-family="%s" font-size="%g">`,
		xmlEscape(fmt.Sprintf("'%s',Verdana,Geneva,sans-serif", family)), e.metrics.FontSize())
	writeShadowedText(&s, g.labelCenter(), label)
	writeShadowedText(&s, g.valueCenter(), value)
	s.WriteString(`</g></svg>`)
	return s.String()
}

// writeShadowedText writes text with a 1px dark drop shadow beneath it.
func writeShadowedText(s *strings.Builder, x int, text string) {
	fmt.Fprintf(s, `<text x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>`, x, text)
	fmt.Fprintf(s, `<text x="%d" y="14">%s</text>`, x, text)
}

// fontFaceCSS returns an @font-face rule with the font inlined as base64.
func fontFaceCSS(name string, data []byte) string {
	format, cssFormat := "ttf", "truetype"
	if detectFontFormat(data) == "otf" {
		format, cssFormat = "otf", "opentype"
	}
	return fmt.Sprintf(`@font-face{font-family:'%s';src:url(data:font/%s;base64,%s) format('%s')}`,
		name, format, base64.StdEncoding.EncodeToString(data), cssFormat)
}

// detectFontFormat reports "otf" for CFF fonts (magic "OTTO"), else "ttf".
func detectFontFormat(data []byte) string {
	if len(data) >= 4 && string(data[:4]) == "OTTO" {
		return "otf"
	}
	return "ttf"
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
