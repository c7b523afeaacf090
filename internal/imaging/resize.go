package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"
)

// JPEG re-encode quality for downscaled uploads.
const resizeQuality = 90

// Resize decodes the image and, when either dimension exceeds maxDimension,
// scales it proportionally so the longer edge equals maxDimension, then
// re-encodes as JPEG. Images already within bounds are returned unchanged,
// byte for byte. Aspect ratio is always preserved.
func Resize(file *File, maxDimension int) (*File, error) {
	if file.IsZero() {
		return nil, fmt.Errorf("imaging: empty file")
	}
	if maxDimension <= 0 {
		return nil, fmt.Errorf("imaging: max dimension must be positive, got %d", maxDimension)
	}

	src, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %q: %w", file.Name, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDimension && height <= maxDimension {
		return file, nil
	}

	var newW, newH int
	if width >= height {
		newW = maxDimension
		newH = int(float64(height) * float64(maxDimension) / float64(width))
	} else {
		newH = maxDimension
		newW = int(float64(width) * float64(maxDimension) / float64(height))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	scaled := scaleBilinear(src, newW, newH)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: resizeQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode %q: %w", file.Name, err)
	}

	return &File{
		Name: jpegName(file.Name),
		MIME: "image/jpeg",
		Data: buf.Bytes(),
	}, nil
}

func scaleBilinear(src image.Image, newW, newH int) *image.RGBA {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))

	xRatio := float64(srcW) / float64(newW)
	yRatio := float64(srcH) / float64(newH)

	for y := 0; y < newH; y++ {
		sy := (float64(y) + 0.5) * yRatio
		y0 := int(sy - 0.5)
		y1 := y0 + 1
		fy := sy - 0.5 - float64(y0)
		y0 = clampInt(y0, 0, srcH-1)
		y1 = clampInt(y1, 0, srcH-1)
		for x := 0; x < newW; x++ {
			sx := (float64(x) + 0.5) * xRatio
			x0 := int(sx - 0.5)
			x1 := x0 + 1
			fx := sx - 0.5 - float64(x0)
			x0 = clampInt(x0, 0, srcW-1)
			x1 = clampInt(x1, 0, srcW-1)

			r00, g00, b00, a00 := src.At(bounds.Min.X+x0, bounds.Min.Y+y0).RGBA()
			r10, g10, b10, a10 := src.At(bounds.Min.X+x1, bounds.Min.Y+y0).RGBA()
			r01, g01, b01, a01 := src.At(bounds.Min.X+x0, bounds.Min.Y+y1).RGBA()
			r11, g11, b11, a11 := src.At(bounds.Min.X+x1, bounds.Min.Y+y1).RGBA()

			idx := dst.PixOffset(x, y)
			dst.Pix[idx+0] = lerp2(r00, r10, r01, r11, fx, fy)
			dst.Pix[idx+1] = lerp2(g00, g10, g01, g11, fx, fy)
			dst.Pix[idx+2] = lerp2(b00, b10, b01, b11, fx, fy)
			dst.Pix[idx+3] = lerp2(a00, a10, a01, a11, fx, fy)
		}
	}
	return dst
}

func lerp2(v00, v10, v01, v11 uint32, fx, fy float64) uint8 {
	top := float64(v00)*(1-fx) + float64(v10)*fx
	bottom := float64(v01)*(1-fx) + float64(v11)*fx
	return uint8(uint32(top*(1-fy)+bottom*fy) >> 8)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func jpegName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload.jpg"
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return name[:idx] + ".jpg"
	}
	return name + ".jpg"
}
