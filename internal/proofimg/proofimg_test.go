package proofimg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode normalized: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("normalized format = %q, want jpeg", format)
	}
	return cfg.Width, cfg.Height
}

func TestNormalize_SmallImageKeepsSize(t *testing.T) {
	out, err := Normalize(encodePNG(t, 320, 240))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 320 || h != 240 {
		t.Errorf("size = %dx%d, want 320x240", w, h)
	}
}

func TestNormalize_WideImageScaledDown(t *testing.T) {
	out, err := Normalize(encodePNG(t, 2560, 1440))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != MaxWidth {
		t.Errorf("width = %d, want %d", w, MaxWidth)
	}
	if h != 720 {
		t.Errorf("height = %d, want 720", h)
	}
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not an image at all")); err == nil {
		t.Error("expected decode error")
	}
}
