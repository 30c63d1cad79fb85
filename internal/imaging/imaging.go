// Package imaging provides the image decode/crop/encode operations used to
// prepare passport scans for OCR and MRZ reading.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Region is a crop rectangle with coordinates expressed as fractions of the
// image width and height, in [0, 1].
type Region struct {
	X0, Y0, X1, Y1 float64
}

// Valid reports whether the region is within bounds and non-degenerate.
func (r Region) Valid() bool {
	return r.X0 >= 0 && r.Y0 >= 0 && r.X1 <= 1 && r.Y1 <= 1 && r.X0 < r.X1 && r.Y0 < r.Y1
}

// Decode decodes image bytes in any registered format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeFile reads and decodes the image at path.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return Decode(data)
}

// CropFraction returns the sub-image covered by the fractional region.
// Pixel coordinates are truncated, matching integer pixel math elsewhere in
// the pipeline.
func CropFraction(img image.Image, r Region) (image.Image, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid crop region %+v", r)
	}

	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	rect := image.Rect(
		bounds.Min.X+int(r.X0*w),
		bounds.Min.Y+int(r.Y0*h),
		bounds.Min.X+int(r.X1*w),
		bounds.Min.Y+int(r.Y1*h),
	).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop region %+v is empty for bounds %v", r, bounds)
	}

	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect), nil
	}

	// Decoders without SubImage support get a pixel copy instead.
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}

// EncodePNG encodes the image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// CropToPNG decodes data, crops the fractional region and re-encodes as PNG.
func CropToPNG(data []byte, r Region) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	cropped, err := CropFraction(img, r)
	if err != nil {
		return nil, err
	}
	return EncodePNG(cropped)
}
