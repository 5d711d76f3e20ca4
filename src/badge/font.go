// Package badge renders SVG status badges for resolved build descriptors,
// measuring text with a real font so widths match what browsers draw.
package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// FontMetrics is a parsed font plus the advance of every printable ASCII
// glyph at one size. Other runes are measured at the average advance.
type FontMetrics struct {
	family   string
	size     float64
	data     []byte
	advances [127]float64
	average  float64
}

// LoadFont parses a TTF/OTF and measures it at size points (72 DPI, so
// points are pixels).
func LoadFont(name string, data []byte, size float64) (*FontMetrics, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font %s: size must be > 0, got %g", name, size)
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", name, err)
	}

	var buf sfnt.Buffer
	m := &FontMetrics{family: name, size: size, data: data}
	if family, err := f.Name(&buf, sfnt.NameIDFamily); err == nil && family != "" {
		m.family = family
	}

	ppem := fixed.Int26_6(size * 64)
	var sum float64
	var n int
	for r := rune(' '); r <= '~'; r++ {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			continue
		}
		adv, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		m.advances[r] = float64(adv) / 64
		sum += m.advances[r]
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("font %s has no printable ASCII glyphs", name)
	}
	m.average = sum / float64(n)
	return m, nil
}

// DefaultFont returns the Go Regular face bundled with x/image.
func DefaultFont(size float64) (*FontMetrics, error) {
	return LoadFont("Go", goregular.TTF, size)
}

// LoadFontFile loads a TTF/OTF from disk, named after the file stem.
func LoadFontFile(path string, size float64) (*FontMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font file %s: %w", path, err)
	}
	return LoadFont(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), data, size)
}

// TextWidth returns the rendered width of s in pixels.
func (m *FontMetrics) TextWidth(s string) float64 {
	var w float64
	for _, r := range s {
		if r >= 0 && int(r) < len(m.advances) && m.advances[r] > 0 {
			w += m.advances[r]
		} else {
			w += m.average
		}
	}
	return w
}

func (m *FontMetrics) FontData() []byte  { return m.data }
func (m *FontMetrics) FontName() string  { return m.family }
func (m *FontMetrics) FontSize() float64 { return m.size }
