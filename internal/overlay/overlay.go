// Package overlay maps detection boxes from source-frame pixels onto a display surface.
package overlay

import "github.com/ayusman/cardsight/internal/recognition"

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is a box positioned on the display surface.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is a mapped detection ready to draw.
type Box struct {
	Card       string  `json:"card"`
	Confidence float64 `json:"confidence"`
	Rect       Rect    `json:"rect"`
}

// Map stretches bbox from src space into dst space. The axes scale independently,
// the same way the video element stretches the frame. An invalid src yields a zero Rect.
func Map(bbox recognition.BBox, src, dst Size) Rect {
	if !src.Valid() {
		return Rect{}
	}

	sx := dst.Width / src.Width
	sy := dst.Height / src.Height

	return Rect{
		Left:   bbox[0] * sx,
		Top:    bbox[1] * sy,
		Width:  bbox.Width() * sx,
		Height: bbox.Height() * sy,
	}
}

// MapAll maps every detection. Scale factors are derived on every call; nothing is cached
// so a resized display is honoured on the next render.
func MapAll(detections []recognition.Detection, src, dst Size) []Box {
	boxes := make([]Box, 0, len(detections))
	for _, d := range detections {
		boxes = append(boxes, Box{
			Card:       d.Card,
			Confidence: d.Confidence,
			Rect:       Map(d.BBox, src, dst),
		})
	}
	return boxes
}
