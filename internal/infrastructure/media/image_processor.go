// Package media normalizes vendor brand images for the storefront chrome.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedLogo is returned for formats that are served as-is (SVG).
var ErrUnsupportedLogo = errors.New("unsupported logo format")

// LogoProcessor scales logos to the header height and re-encodes as WebP.
type LogoProcessor struct {
	maxHeight int
	quality   float32
}

func NewLogoProcessor(maxHeight int) *LogoProcessor {
	if maxHeight <= 0 {
		maxHeight = 96
	}
	return &LogoProcessor{maxHeight: maxHeight, quality: 90}
}

// IsVector reports whether the source should bypass rasterization.
func IsVector(source string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(strings.SplitN(source, "?", 2)[0]), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// Normalize decodes data (PNG, JPEG, GIF or WebP), fits it within
// maxHeight x 4*maxHeight and returns WebP bytes. Images already smaller
// than the box are not upscaled.
func (p *LogoProcessor) Normalize(source string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty logo data")
	}
	if IsVector(source, data) {
		return nil, ErrUnsupportedLogo
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	bounds := img.Bounds()
	var out image.Image = img
	if bounds.Dy() > p.maxHeight || bounds.Dx() > 4*p.maxHeight {
		out = imaging.Fit(img, 4*p.maxHeight, p.maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, out, &webp.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return buf.Bytes(), nil
}
