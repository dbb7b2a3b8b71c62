package capture

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StaticSampler is a Source and FrameSampler that returns a fixed snapshot.
// It needs no camera and is used by session and server tests.
type StaticSampler struct {
	mu        sync.Mutex
	open      bool
	openErr   error
	sampleErr error
	width     int
	height    int
	samples   int
}

// NewStaticSampler creates a sampler reporting frames of the given size.
func NewStaticSampler(width, height int) *StaticSampler {
	return &StaticSampler{width: width, height: height}
}

// SetOpenError makes the next Open calls fail with ErrSourceUnavailable wrapping err.
func (s *StaticSampler) SetOpenError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// SetSampleError makes Sample fail with err.
func (s *StaticSampler) SetSampleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleErr = err
}

func (s *StaticSampler) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return errors.Join(ErrSourceUnavailable, s.openErr)
	}
	s.open = true
	return nil
}

func (s *StaticSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

func (s *StaticSampler) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *StaticSampler) Sample(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrCameraNotOpen
	}
	if s.sampleErr != nil {
		return nil, s.sampleErr
	}
	s.samples++

	return &Snapshot{
		DataURI:    EncodeDataURI([]byte{0xff, 0xd8, 0xff, 0xd9}),
		Width:      s.width,
		Height:     s.height,
		CapturedAt: time.Now(),
	}, nil
}

// Samples returns how many snapshots were produced.
func (s *StaticSampler) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}
