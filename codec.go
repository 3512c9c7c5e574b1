package webrender

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	_ "image/gif" // register GIF decoding for image.Decode

	_ "golang.org/x/image/webp" // register WEBP decoding for image.Decode
)

// imageCodec is the codec collaborator consumed by the Fitter: one decode,
// then re-encode-at-quality and resize-then-encode steps.
type imageCodec interface {
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image, format string, quality int) ([]byte, error)
	Resize(img image.Image, width, height int) image.Image
}

// Compile-time interface check
var _ imageCodec = (*stdCodec)(nil)

// stdCodec encodes JPEG/PNG with the standard library and WEBP with
// chai2010/webp (the standard library has no WEBP encoder).
type stdCodec struct{}

// Decode decodes image bytes into pixels. JPEG, PNG, WEBP and GIF inputs are
// recognized.
func (stdCodec) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}

// Encode re-encodes pixels in the given format. JPEG and WEBP honor quality
// directly. PNG has no true quality knob, so quality maps to a
// compression-effort level: on average lower quality still means fewer bytes,
// but that is not guaranteed.
func (stdCodec) Encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encoding jpeg: %w", err)
		}
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: pngCompressionLevel(quality)}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding png: %w", err)
		}
	case FormatWEBP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("encoding webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	return buf.Bytes(), nil
}

// pngCompressionLevel maps a 0-100 quality to a png.CompressionLevel.
func pngCompressionLevel(quality int) png.CompressionLevel {
	switch {
	case quality < 50:
		return png.BestCompression
	case quality < 90:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}

// Resize scales pixels to the exact target dimensions.
func (stdCodec) Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
