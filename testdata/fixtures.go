// Package testdata builds synthetic camera frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Card is one card drawn onto a synthetic table frame.
type Card struct {
	Label string
	// Box is x1, y1, x2, y2 in frame pixels.
	Box [4]int
}

// TableCards are the cards TableFrame draws: two hole cards for each of two players.
var TableCards = []Card{
	{Label: "AS", Box: [4]int{100, 400, 220, 570}},
	{Label: "KH", Box: [4]int{240, 400, 360, 570}},
	{Label: "10D", Box: [4]int{860, 400, 980, 570}},
	{Label: "2C", Box: [4]int{1000, 400, 1120, 570}},
}

var (
	felt  = gocv.NewScalar(40, 110, 30, 0)
	white = color.RGBA{R: 245, G: 245, B: 245}
)

// TableFrame returns a green table of the given size with TableCards drawn as filled
// white rectangles. The caller closes the Mat.
func TableFrame(width, height int) *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(felt, height, width, gocv.MatTypeCV8UC3)
	for _, c := range TableCards {
		gocv.Rectangle(&mat, image.Rect(c.Box[0], c.Box[1], c.Box[2], c.Box[3]), white, -1)
	}
	return &mat
}

// TableSequence returns n copies of TableFrame for cameras that replay frames.
func TableSequence(width, height, n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = TableFrame(width, height)
	}
	return frames
}
