package badge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/appforge/src/descriptor"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	m, err := DefaultFont(11)
	require.NoError(t, err)
	return New(m)
}

func TestDefaultFontMeasures(t *testing.T) {
	m, err := DefaultFont(11)
	require.NoError(t, err)

	assert.NotEmpty(t, m.FontName())
	assert.Equal(t, 11.0, m.FontSize())
	assert.NotEmpty(t, m.FontData())
	assert.Greater(t, m.TextWidth("release"), m.TextWidth("debug"))
	assert.Zero(t, m.TextWidth(""))
}

func TestLoadFontRejectsGarbage(t *testing.T) {
	_, err := LoadFont("junk", []byte("not a font"), 11)
	require.Error(t, err)

	_, err = DefaultFont(0)
	require.Error(t, err)
}

func TestLoadFontFileMissing(t *testing.T) {
	_, err := LoadFontFile(filepath.Join(t.TempDir(), "nope.ttf"), 11)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading font file")
}

func TestGenerateEscapesAndEmbeds(t *testing.T) {
	svg := testEngine(t).Generate(Badge{Label: "a<b", Value: "x&y", Color: "#4c1"})

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, "a&lt;b")
	assert.Contains(t, svg, "x&amp;y")
	assert.Contains(t, svg, `fill="#4c1"`)
	assert.Contains(t, svg, "font/ttf;base64,")
	assert.Contains(t, svg, "format('truetype')")
	assert.NotContains(t, svg, "a<b")
}

func TestWithColorOverrides(t *testing.T) {
	svg := testEngine(t).WithColor("#007ec6").Generate(Badge{Label: "signing", Value: "debug", Color: "#dfb317"})
	assert.Contains(t, svg, `fill="#007ec6"`)
	assert.NotContains(t, svg, "#dfb317")
}

func TestForDescriptor(t *testing.T) {
	d := descriptor.BuildDescriptor{
		MinPlatformVersion:    23,
		TargetPlatformVersion: 34,
		VersionCode:           3,
		VersionName:           "1.2.0",
		SigningConfigRef:      descriptor.SigningRelease,
	}

	got := ForDescriptor(d)
	require.Len(t, got, 3)
	assert.Equal(t, "1.2.0 (3)", got[0].Value)
	assert.Equal(t, "23-34", got[1].Value)
	assert.Equal(t, "#4c1", got[2].Color)

	d.ToolchainVersion = "25.1.8937393.0"
	d.SigningConfigRef = descriptor.SigningDebug
	got = ForDescriptor(d)
	require.Len(t, got, 4)
	assert.Equal(t, "#dfb317", got[2].Color)
	assert.Equal(t, "toolchain", got[3].Name)
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badges")
	paths, err := testEngine(t).WriteAll(dir, []Badge{Failed()})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "version.svg")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "invalid")
	assert.Contains(t, string(data), "#e05d44")
}

func TestDetectFontFormat(t *testing.T) {
	assert.Equal(t, "otf", detectFontFormat([]byte("OTTO....")))
	assert.Equal(t, "ttf", detectFontFormat([]byte{0, 1, 0, 0}))
	assert.Equal(t, "ttf", detectFontFormat(nil))
}
