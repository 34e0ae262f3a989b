package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	startQuality = 85
	minQuality   = 35
	qualityStep  = 10
)

// ErrTooLarge is returned when an image stays above the byte ceiling even at
// the lowest quality.
var ErrTooLarge = errors.New("image exceeds size limit at minimum quality")

// PrepareJPEG re-encodes any decodable image as a JPEG that fits within
// maxDim on both sides, lowering quality until it is at most maxBytes.
func PrepareJPEG(data []byte, maxDim, maxBytes int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if maxDim > 0 && (bounds.Dx() > maxDim || bounds.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	img = flatten(img)

	var buf bytes.Buffer
	for quality := startQuality; quality >= minQuality; quality -= qualityStep {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		if maxBytes <= 0 || buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, buf.Len())
}

// flatten composites transparent images onto white; JPEG has no alpha and
// transparent pixels would otherwise turn black.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
