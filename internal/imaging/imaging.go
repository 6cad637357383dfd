// Package imaging decodes downloaded image bytes and prepares them for
// display or for writing to disk.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	// Additional formats served by image hosts
	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode tags bytes that are not a decodable raster image.
var ErrDecode = goerr.NewTag("decode")

// Decode detects the format from content and decodes the image.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to decode image",
			goerr.T(ErrDecode), goerr.V("bytes", len(data)))
	}
	return img, format, nil
}

// ToNRGBA converts img to a non-premultiplied RGBA buffer whose bounds start at 0,0.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ResizeExact scales img to exactly width x height with Lanczos3
// resampling. The aspect ratio is not preserved.
func ResizeExact(img image.Image, width, height uint) image.Image {
	b := img.Bounds()
	if uint(b.Dx()) == width && uint(b.Dy()) == height {
		return img
	}
	return resize.Resize(width, height, img, resize.Lanczos3)
}

// EncodeJPEG writes img as JPEG. quality outside 1..100 falls back to the
// encoder default.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
