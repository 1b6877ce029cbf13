package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeFitsWithinHeight(t *testing.T) {
	p := NewLogoProcessor(50)
	out, err := p.Normalize("/uploads/logo.png", pngBytes(t, 400, 200))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Height)
	assert.Equal(t, 100, cfg.Width)
}

func TestNormalizeDoesNotUpscale(t *testing.T) {
	p := NewLogoProcessor(96)
	out, err := p.Normalize("logo.png", pngBytes(t, 40, 20))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestNormalizeRejectsVectorAndGarbage(t *testing.T) {
	p := NewLogoProcessor(96)

	_, err := p.Normalize("/logo.svg?v=2", []byte("anything"))
	assert.ErrorIs(t, err, ErrUnsupportedLogo)

	_, err = p.Normalize("/logo", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	assert.ErrorIs(t, err, ErrUnsupportedLogo)

	_, err = p.Normalize("/logo.png", []byte("not an image"))
	assert.Error(t, err)

	_, err = p.Normalize("/logo.png", nil)
	assert.Error(t, err)
}
