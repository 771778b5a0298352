package imagery

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when an image file decodes to nothing.
var ErrEmptyImage = errors.New("image is empty")

// Image is a loaded source image together with its sample points.
type Image struct {
	Path   string
	Pixels *image.RGBA
	Points []Point
}

// Load decodes the image at path and resizes it to the given width, keeping
// the aspect ratio. A non-positive width keeps the original size.
func Load(path string, width int) (*image.RGBA, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("load %s: %w", path, ErrEmptyImage)
	}

	if width > 0 && width != mat.Cols() {
		height := int(math.Round(float64(mat.Rows()) * float64(width) / float64(mat.Cols())))
		if height < 1 {
			height = 1
		}

		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		resized.CopyTo(&mat)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}

	return ToRGBA(img), nil
}

// ToRGBA returns img as an *image.RGBA with bounds starting at the origin,
// converting when necessary.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// LoadImage loads path at the given width and samples it with stride.
func LoadImage(path string, width, stride int) (*Image, error) {
	pixels, err := Load(path, width)
	if err != nil {
		return nil, err
	}

	return &Image{
		Path:   path,
		Pixels: pixels,
		Points: Sample(pixels, stride),
	}, nil
}
