package feed

import (
	"sync"
	"sync/atomic"

	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/media"
	"github.com/samber/mo"
)

// NextFile supplies the next playable request, typically by popping a
// prefetch queue. It must not block on I/O.
type NextFile func() mo.Option[media.Request]

// PullSource is the surface consumed by the real-time pull path. ReadFrame
// must never block on network or disk beyond the local decoder read.
type PullSource interface {
	// IsReady reports whether a call to ReadFrame can produce data now.
	IsReady() bool

	// ReadFrame writes up to len(p) bytes into p and returns the count.
	// A short write signals the end of the current track.
	ReadFrame(p []byte) int

	// Remaining estimates how many frames of the current track are left.
	Remaining() mo.Option[int]

	// Abort synchronously ends the current track and forces a hard break on
	// the next ReadFrame.
	Abort()
}

// Unqueued drives the track slot from a supplier of next files. It owns the
// track state machine: idle, loading, playing, draining back to idle.
type Unqueued struct {
	plock sync.Mutex
	slot  slot
	next  NextFile
	abort atomic.Bool
}

// NewUnqueued creates an engine fed by next.
func NewUnqueued(next NextFile) *Unqueued {
	return &Unqueued{next: next}
}

// IsReady reports true when a track is loaded, an abort is pending, or a new
// track can be begun right now.
func (u *Unqueued) IsReady() bool {
	if u.abort.Load() {
		return true
	}

	u.plock.Lock()
	loaded := !u.slot.empty()
	u.plock.Unlock()

	return loaded || u.beginTrack()
}

// beginTrack asks the supplier for the next file and installs it in the slot.
// Returns false when nothing playable is available this cycle.
func (u *Unqueued) beginTrack() bool {
	req, ok := u.next().Get()
	if !ok {
		return false
	}

	// An unresolved request reaching this boundary is a protocol violation by
	// the supplier; discard it rather than propagate the error.
	if req.Status() != media.StatusResolved {
		log.Warnf("feed: discarding %q: not resolved at playback boundary (%s)", req.URI(), req.Status())
		req.Destroy()
		return false
	}

	dec, ok := req.Decoder().Get()
	if !ok {
		log.Warnf("feed: discarding %q: resolved but has no decoder", req.URI())
		req.Destroy()
		return false
	}

	u.plock.Lock()
	u.slot.begin(req, dec)
	u.plock.Unlock()

	log.Debugf("feed: loaded %q", req.URI())
	return true
}

// endTrack clears the slot and releases its contents.
func (u *Unqueued) endTrack() {
	u.plock.Lock()
	req, dec := u.slot.take()
	u.plock.Unlock()

	if req == nil {
		return
	}
	if dec != nil {
		_ = dec.Close()
	}
	req.Destroy()
	log.Debugf("feed: finished %q", req.URI())
}

// ReadFrame implements the pull-path contract. On the first frame of a track
// the request is put on air and its metadata logged, exactly once. A short
// write from the decoder ends the track and returns the engine to idle.
func (u *Unqueued) ReadFrame(p []byte) int {
	if u.abort.CompareAndSwap(true, false) {
		// Hard break: one empty frame, then normal operation resumes.
		return 0
	}

	for {
		u.plock.Lock()
		if u.slot.empty() {
			u.plock.Unlock()
			if !u.beginTrack() {
				return 0
			}
			continue
		}

		req, dec := u.slot.req, u.slot.dec
		announced := u.slot.announced
		u.slot.announced = true
		u.plock.Unlock()

		if !announced {
			req.OnAir()
			log.Infof("feed: now playing %q %v", req.URI(), req.AllMetadata())
		}

		n, remaining, err := dec.Fill(p)

		u.plock.Lock()
		u.slot.remaining = remaining
		u.plock.Unlock()

		if err != nil {
			log.Warnf("feed: decoder error on %q: %v", req.URI(), err)
		}
		if err != nil || n < len(p) {
			u.endTrack()
		}
		return n
	}
}

// Remaining estimates the frames left in the current track. Unknown while
// idle or before the first fill reports a figure.
func (u *Unqueued) Remaining() mo.Option[int] {
	u.plock.Lock()
	defer u.plock.Unlock()
	return u.slot.remaining
}

// Abort synchronously ends the current track and arms a hard break for the
// next ReadFrame cycle.
func (u *Unqueued) Abort() {
	u.endTrack()
	u.abort.Store(true)
}

// CopyQueue snapshots the zero or one request currently playing. Diagnostic
// only; the engine retains ownership.
func (u *Unqueued) CopyQueue() []media.Request {
	u.plock.Lock()
	defer u.plock.Unlock()

	if u.slot.empty() {
		return nil
	}
	return []media.Request{u.slot.req}
}
