// Package proofimg normalizes payment-proof uploads: decode, cap the width,
// re-encode as a compact JPEG. Storage then holds one predictable format
// regardless of what the visitor's phone produced.
package proofimg

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // accepted upload formats
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// MaxWidth is the pixel ceiling for stored proofs.
	MaxWidth = 1280
	// Quality is the JPEG encode quality for stored proofs.
	Quality = 65
)

// Normalize decodes raw image bytes, scales anything wider than MaxWidth
// down preserving aspect ratio, and re-encodes as JPEG.
func Normalize(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth {
		ratio := float64(MaxWidth) / float64(bounds.Dx())
		height := int(float64(bounds.Dy()) * ratio)
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode proof: %w", err)
	}
	return out.Bytes(), nil
}
