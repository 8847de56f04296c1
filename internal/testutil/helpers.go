// Package testutil provides test helpers shared by the summitforms packages.
package testutil

import (
	"bytes"
	"embed"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err, "failed to write temp file: %s", filename)
	return path
}

// LoadFixture loads a test fixture by name.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := fixturesFS.ReadFile("fixtures/" + name)
	require.NoError(t, err, "failed to load fixture: %s", name)
	return data
}

// WriteFixtureToDir copies a fixture into dir and returns its path.
func WriteFixtureToDir(t testing.TB, dir, fixtureName string) string {
	t.Helper()
	return WriteTempFile(t, dir, fixtureName, string(LoadFixture(t, fixtureName)))
}

// PNG encodes a w×h gradient. Every pixel differs, so the encoding does not
// compress away and larger images really are larger.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
