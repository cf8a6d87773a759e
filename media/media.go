// Package media defines the request boundary between playlist traversal and playback:
// opaque handles that turn URIs into decodable, locally available resources.
package media

import (
	"time"

	"github.com/samber/mo"
)

// FrameSize is the number of bytes the pull path consumes per frame.
const FrameSize = 4096

// FrameDuration is the playable time one frame represents. The engine pulls
// frames at this cadence, so byte counts, frames and buffered time convert
// through it.
const FrameDuration = 100 * time.Millisecond

// Well-known metadata keys.
const (
	MetaDuration = "duration"
	MetaTitle    = "title"
	MetaFilename = "filename"
	MetaMimeType = "mime_type"
)

// Status describes the lifecycle of a request's resolution.
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolving
	StatusResolved
	StatusFailed
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusResolving:
		return "resolving"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Decoder produces playable frame data for a resolved request.
type Decoder interface {
	// Fill writes up to len(p) bytes of frame data into p and reports how many
	// frames remain afterwards, when known. A short write signals the end of
	// the track; there is no dedicated error path across the pull boundary.
	Fill(p []byte) (n int, remaining mo.Option[int], err error)

	// Close releases the decoder. Safe to call more than once.
	Close() error
}

// Request is an opaque handle representing a URI that may become playable.
//
// Ownership is linear: whoever holds the request is responsible for eventually
// calling Destroy exactly once, on whichever path ends its life.
type Request interface {
	// URI returns the initial URI the request was created from.
	URI() string

	// Status returns the current resolution state.
	Status() Status

	// Resolve attempts to turn the URI into a locally available resource
	// within the given timeout and returns the resulting status.
	Resolve(timeout time.Duration) Status

	// Metadata looks up a single metadata value.
	Metadata(key string) mo.Option[string]

	// AllMetadata returns a snapshot of all metadata.
	AllMetadata() map[string]string

	// Filename returns the local path of the resolved resource, if any.
	Filename() mo.Option[string]

	// Decoder returns the decoder handle once the request is resolved.
	Decoder() mo.Option[Decoder]

	// OnAir notifies the request that it has begun playing.
	OnAir()

	// Destroy releases every resource owned by the request.
	Destroy()
}

// Factory creates requests from URIs.
type Factory interface {
	New(uri string) mo.Option[Request]
}

// FramesIn converts a duration into a whole number of frames, rounding up.
func FramesIn(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + FrameDuration - 1) / FrameDuration)
}

// DurationOfFrames converts a frame count into playable time.
func DurationOfFrames(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * FrameDuration
}
