package output

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/sam-annotator/pkg/types"
)

// classPalette assigns a stable color per class id, cycling when the batch
// has more objects than colors.
var classPalette = []color.NRGBA{
	{0, 255, 0, 255},
	{255, 204, 0, 255},
	{0, 170, 255, 255},
	{255, 0, 0, 255},
	{255, 0, 255, 255},
	{0, 255, 255, 255},
}

// RenderOverlay draws each mask's contour polygon onto a copy of the source
// image, colored by class id.
func RenderOverlay(img image.Image, masks []types.MaskRecord) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h)))) // ~0.4% of min side

	for _, mask := range masks {
		c := classPalette[mask.ClassID%len(classPalette)]
		drawContour(nrgba, mask.Contour, w, h, c, stroke)
	}
	return nrgba
}

// drawContour draws the closed polygon of normalized vertices.
func drawContour(img *image.NRGBA, contour [][2]float64, w, h int, c color.NRGBA, stroke int) {
	if len(contour) < 2 {
		return
	}
	for i := range contour {
		p0 := contour[i]
		p1 := contour[(i+1)%len(contour)]
		x0 := int(clamp(p0[0], 0, 1)*float64(w) + 0.5)
		y0 := int(clamp(p0[1], 0, 1)*float64(h) + 0.5)
		x1 := int(clamp(p1[0], 0, 1)*float64(w) + 0.5)
		y1 := int(clamp(p1[1], 0, 1)*float64(h) + 0.5)
		for s := 0; s < stroke; s++ {
			drawLine(img, x0+s, y0, x1+s, y1, c)
		}
	}
}

// drawLine draws a straight segment using DDA interpolation.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := x1 - x0
	dy := y1 - y0
	steps := maxInt(absInt(dx), absInt(dy))
	if steps == 0 {
		setPixel(img, x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		setPixel(img, x, y, c)
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() || y < 0 || y >= img.Bounds().Dy() {
		return
	}
	i := y*img.Stride + x*4
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

// Helper functions
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
