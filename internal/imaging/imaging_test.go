package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"codeberg.org/snonux/waldl/internal/imaging"
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
	gt.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, format, err := imaging.Decode(pngBytes(t, 8, 4))
	gt.NoError(t, err)
	gt.Equal(t, format, "png")
	gt.Equal(t, img.Bounds().Dx(), 8)
	gt.Equal(t, img.Bounds().Dy(), 4)
}

func TestDecode_Invalid(t *testing.T) {
	_, _, err := imaging.Decode([]byte("<html>not an image</html>"))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, imaging.ErrDecode))
}

func TestToNRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 16, 13))
	src.Set(10, 10, color.RGBA{R: 255, A: 255})

	dst := imaging.ToNRGBA(src)
	gt.Equal(t, dst.Bounds(), image.Rect(0, 0, 6, 3))
	gt.Equal(t, len(dst.Pix), 6*3*4)

	r, _, _, a := dst.At(0, 0).RGBA()
	gt.Equal(t, r>>8, uint32(255))
	gt.Equal(t, a>>8, uint32(255))
}

func TestResizeExact(t *testing.T) {
	img, _, err := imaging.Decode(pngBytes(t, 16, 16))
	gt.NoError(t, err)

	resized := imaging.ResizeExact(img, 32, 9)
	gt.Equal(t, resized.Bounds().Dx(), 32)
	gt.Equal(t, resized.Bounds().Dy(), 9)

	same := imaging.ResizeExact(img, 16, 16)
	gt.Equal(t, same.Bounds().Dx(), 16)
}

func TestEncodeJPEG(t *testing.T) {
	img, _, err := imaging.Decode(pngBytes(t, 5, 5))
	gt.NoError(t, err)

	for _, quality := range []int{0, 50, 101} {
		var buf bytes.Buffer
		gt.NoError(t, imaging.EncodeJPEG(&buf, img, quality))

		decoded, err := jpeg.Decode(&buf)
		gt.NoError(t, err)
		gt.Equal(t, decoded.Bounds().Dx(), 5)
	}
}
