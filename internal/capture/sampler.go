package capture

import (
	"context"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality matches the 0.8 quality the browser canvas encoder used.
const DefaultJPEGQuality = 80

// CameraSampler grabs frames from a Camera and encodes them as JPEG data URIs.
type CameraSampler struct {
	camera  Camera
	quality int
	now     func() time.Time
}

// NewCameraSampler creates a sampler over camera. Quality outside 1..100 falls back to DefaultJPEGQuality.
func NewCameraSampler(camera Camera, quality int) *CameraSampler {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &CameraSampler{
		camera:  camera,
		quality: quality,
		now:     time.Now,
	}
}

// Open acquires the underlying camera.
func (s *CameraSampler) Open() error {
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return nil
}

// Close releases the underlying camera.
func (s *CameraSampler) Close() error {
	return s.camera.Close()
}

// IsOpen reports whether the camera is running.
func (s *CameraSampler) IsOpen() bool {
	return s.camera.IsOpen()
}

// Camera returns the wrapped camera, shared with the preview stream.
func (s *CameraSampler) Camera() Camera {
	return s.camera
}

// Sample reads one frame and encodes it.
func (s *CameraSampler) Sample(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{int(gocv.IMWriteJpegQuality), s.quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return &Snapshot{
		DataURI:    EncodeDataURI(buf.GetBytes()),
		Width:      frame.Cols(),
		Height:     frame.Rows(),
		CapturedAt: s.now(),
	}, nil
}
