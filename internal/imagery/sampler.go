// Package imagery loads the source images of the sketch and samples them
// into the grid of points the particle field is seeded from.
package imagery

import (
	"image"
	"image/color"
)

// DefaultStride is the pixel spacing between adjacent sample points.
const DefaultStride = 20

// Radius range a sample's brightness is mapped onto.
const (
	MinRadius = 5.0
	MaxRadius = 7.0
)

// Point is one grid-sampled pixel.
type Point struct {
	X      int
	Y      int
	Color  color.RGBA
	Radius float64
}

// Sample reads one pixel every stride pixels in both axes and returns a point
// for each, row by row. A W x H image yields ceil(W/stride) * ceil(H/stride)
// points. Non-positive strides use DefaultStride.
func Sample(img *image.RGBA, stride int) []Point {
	if img == nil {
		return nil
	}
	if stride <= 0 {
		stride = DefaultStride
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cols := (w + stride - 1) / stride
	rows := (h + stride - 1) / stride

	points := make([]Point, 0, cols*rows)
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			c := color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
			points = append(points, Point{
				X:      x,
				Y:      y,
				Color:  c,
				Radius: Radius(Brightness(c)),
			})
		}
	}

	return points
}

// Brightness is the unweighted mean of the color channels. Alpha is ignored.
func Brightness(c color.RGBA) float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}

// Radius maps a brightness in [0,255] linearly onto [MinRadius,MaxRadius].
func Radius(brightness float64) float64 {
	return MinRadius + brightness/255*(MaxRadius-MinRadius)
}
