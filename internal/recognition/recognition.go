// Package recognition defines the contract with the external card-recognition service
// and an HTTP client that speaks its JSON protocol.
package recognition

import (
	"context"
	"errors"
)

var (
	// ErrTransport covers network failures, non-2xx statuses and malformed responses.
	ErrTransport = errors.New("recognition transport failure")

	// ErrBackendRejected is returned when the service answers with success=false.
	ErrBackendRejected = errors.New("recognition backend rejected frame")
)

// BBox is a bounding box [x1, y1, x2, y2] in source-image pixel coordinates.
type BBox [4]float64

// Width returns x2 - x1.
func (b BBox) Width() float64 { return b[2] - b[0] }

// Height returns y2 - y1.
func (b BBox) Height() float64 { return b[3] - b[1] }

// Detection is a single recognized card. It is never mutated after decoding.
type Detection struct {
	Card       string  `json:"card"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// HandGroup is the service's per-player grouping of detections.
type HandGroup struct {
	PlayerID int         `json:"player_id"`
	Cards    []Detection `json:"cards"`
}

// Request is one frame submitted for recognition.
type Request struct {
	// Image is a base64 data URI, e.g. "data:image/jpeg;base64,...".
	Image      string
	NumPlayers int
}

// Response is a successful recognition result. Hands is nil when the service
// did not group detections by player.
type Response struct {
	Detections []Detection
	Hands      []HandGroup
}

// Recognizer is implemented by clients of the recognition service.
type Recognizer interface {
	// Recognize submits one frame. Failures wrap ErrTransport or ErrBackendRejected.
	Recognize(ctx context.Context, req *Request) (*Response, error)

	// Health reports whether the service is reachable.
	Health(ctx context.Context) error
}
