// Package feed implements the playback-feeding pipeline: a single-track slot,
// the engine that pulls tracks into it, and a prefetch queue that keeps the
// engine supplied ahead of real time.
package feed

import (
	"github.com/airfeed/airfeed/media"
	"github.com/samber/mo"
)

// slot holds the request currently being played, together with its decoder.
// It is non-empty only while a track is playing or mid-transition. All access
// goes through Unqueued under its play lock.
type slot struct {
	req       media.Request
	dec       media.Decoder
	remaining mo.Option[int]
	announced bool
}

func (s *slot) empty() bool {
	return s.req == nil
}

// begin installs a new track. Metadata has not been emitted yet and the
// remaining estimate is unknown until the first fill reports it.
func (s *slot) begin(req media.Request, dec media.Decoder) {
	s.req = req
	s.dec = dec
	s.remaining = mo.None[int]()
	s.announced = false
}

// take clears the slot and hands back its contents so the caller can release
// them outside the lock.
func (s *slot) take() (media.Request, media.Decoder) {
	req, dec := s.req, s.dec
	s.req = nil
	s.dec = nil
	s.remaining = mo.None[int]()
	s.announced = false
	return req, dec
}
