package capture

import (
	"context"
	"encoding/base64"
	"time"
)

// JPEGDataURIPrefix is prepended to base64 JPEG payloads.
const JPEGDataURIPrefix = "data:image/jpeg;base64,"

// Snapshot is a single encoded still image taken from a live source.
type Snapshot struct {
	// DataURI is the JPEG frame as a base64 data URI.
	DataURI    string
	Width      int
	Height     int
	CapturedAt time.Time
}

// Source is a media source that can be acquired and released.
type Source interface {
	Open() error
	Close() error
	IsOpen() bool
}

// FrameSampler produces a snapshot from a live source on demand.
type FrameSampler interface {
	Sample(ctx context.Context) (*Snapshot, error)
}

// SourceSampler is a source that can also be sampled. The session owns one.
type SourceSampler interface {
	Source
	FrameSampler
}

// EncodeDataURI wraps JPEG bytes in a data URI.
func EncodeDataURI(jpeg []byte) string {
	return JPEGDataURIPrefix + base64.StdEncoding.EncodeToString(jpeg)
}
