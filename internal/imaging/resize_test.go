package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngFile(t *testing.T, w, h int) *File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return &File{Name: "fixture.png", MIME: "image/png", Data: buf.Bytes()}
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestResizePassThroughWithinBounds(t *testing.T) {
	file := pngFile(t, 80, 60)
	got, err := Resize(file, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got.Data, file.Data) || got.MIME != "image/png" {
		t.Fatalf("within-bounds image must be returned unchanged")
	}
}

func TestResizeScalesLongerEdge(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		max   int
		wantW int
		wantH int
	}{
		{"landscape", 200, 100, 100, 100, 50},
		{"portrait", 100, 200, 100, 50, 100},
		{"square", 300, 300, 100, 100, 100},
		{"extreme ratio floors at one", 400, 2, 100, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resize(pngFile(t, tt.w, tt.h), tt.max)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MIME != "image/jpeg" {
				t.Fatalf("resized output should be jpeg, got %q", got.MIME)
			}
			w, h := decodeDims(t, got.Data)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResizeRenamesToJPEG(t *testing.T) {
	got, err := Resize(pngFile(t, 200, 200), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "fixture.jpg" {
		t.Fatalf("got name %q", got.Name)
	}
}

func TestResizeRejectsBadInput(t *testing.T) {
	if _, err := Resize(nil, 100); err == nil {
		t.Fatalf("nil file should fail")
	}
	if _, err := Resize(&File{Name: "x", MIME: "image/png", Data: []byte("not an image")}, 100); err == nil {
		t.Fatalf("undecodable data should fail")
	}
	if _, err := Resize(pngFile(t, 10, 10), 0); err == nil {
		t.Fatalf("non-positive max dimension should fail")
	}
}
