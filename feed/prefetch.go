package feed

import (
	"strconv"
	"sync"
	"time"

	"github.com/airfeed/airfeed/internal/cache"
	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/media"
	"github.com/airfeed/airfeed/scheduler"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// NextRequest supplies the next candidate request to resolve, typically from
// playlist traversal. It may be slow to produce a candidate but must not
// resolve it.
type NextRequest func() mo.Option[media.Request]

// Config tunes the prefetch queue.
type Config struct {
	// TargetBuffered is the amount of playable time the feeder maintains.
	TargetBuffered time.Duration
	// DefaultDuration is assumed for media without duration metadata.
	DefaultDuration time.Duration
	// ResolveTimeout bounds one resolution attempt.
	ResolveTimeout time.Duration
	// Conservative excludes the currently playing item from the buffer
	// estimate, prefetching earlier.
	Conservative bool
}

// outcome classifies one feeder iteration.
type outcome int

const (
	// outcomeEmpty: no upstream candidate; the task stops until restarted.
	outcomeEmpty outcome = iota
	// outcomeFinished: a request was enqueued; reschedule immediately.
	outcomeFinished
	// outcomeRetry: transient failure; reschedule with adaptive delay.
	outcomeRetry
)

// Retry pacing for the feeder task. Failures closer together than the window
// build a streak; once the streak reaches the ceiling the next attempt is
// delayed by the window instead of running immediately.
const (
	retryWindow  = 2 * time.Second
	retryCeiling = 3
)

type queuedItem struct {
	duration time.Duration
	req      media.Request
}

// Prefetcher keeps an Unqueued engine supplied by resolving upcoming requests
// in the background, buffering at least TargetBuffered of playable time.
type Prefetcher struct {
	*Unqueued

	cfg     Config
	sched   scheduler.Scheduler
	request NextRequest

	qmu       sync.Mutex
	fifo      []queuedItem
	buffered  time.Duration
	resolving media.Request
	closed    bool

	tmu     sync.Mutex
	feeding bool

	dmu         sync.Mutex
	lastRetry   time.Time
	retryStreak int
	now         func() time.Time
}

// NewPrefetcher creates a prefetch queue fed by request and scheduled on
// sched. The feeder does not start until StartFeeding or the first ReadFrame.
func NewPrefetcher(cfg Config, request NextRequest, sched scheduler.Scheduler) *Prefetcher {
	p := &Prefetcher{
		cfg:     cfg,
		sched:   sched,
		request: request,
		now:     time.Now,
	}
	p.lastRetry = p.now()
	p.Unqueued = NewUnqueued(p.nextFile)
	return p
}

// QueueLength estimates the buffered playable time: the queued estimates,
// plus the live remainder of the playing track unless configured
// conservative. Reads are not linearizable with the pull path; staleness is
// fine since the target is a heuristic.
func (p *Prefetcher) QueueLength() time.Duration {
	p.qmu.Lock()
	d := p.buffered
	p.qmu.Unlock()

	if !p.cfg.Conservative {
		if rem, ok := p.Remaining().Get(); ok {
			d += media.DurationOfFrames(rem)
		}
	}
	return d
}

// StartFeeding schedules the background feeder unless it is already running
// or the queue is closed.
func (p *Prefetcher) StartFeeding() {
	p.qmu.Lock()
	closed := p.closed
	p.qmu.Unlock()
	if closed {
		return
	}

	p.tmu.Lock()
	defer p.tmu.Unlock()
	if p.feeding {
		return
	}
	p.feeding = true
	p.sched.Schedule(0, p.feed)
}

func (p *Prefetcher) stopFeeding() {
	p.tmu.Lock()
	p.feeding = false
	p.tmu.Unlock()
}

// feed is one scheduled feeder iteration: check liveness, check the buffer
// target, make one prefetch attempt, then reschedule or stop.
func (p *Prefetcher) feed() {
	p.tmu.Lock()
	alive := p.feeding
	p.tmu.Unlock()
	if !alive {
		return
	}

	if p.QueueLength() >= p.cfg.TargetBuffered {
		p.stopFeeding()
		return
	}

	switch p.prefetch() {
	case outcomeEmpty:
		log.Debug("feed: no upstream candidate, feeder stopping")
		p.stopFeeding()
	case outcomeFinished:
		p.sched.Schedule(0, p.feed)
	case outcomeRetry:
		p.sched.Schedule(p.retryDelay(), p.feed)
	}
}

// retryDelay implements the adaptive backoff: consecutive retries within the
// window build a streak; at the ceiling the delay becomes the window itself.
func (p *Prefetcher) retryDelay() time.Duration {
	p.dmu.Lock()
	defer p.dmu.Unlock()

	now := p.now()
	if now.Sub(p.lastRetry) < retryWindow {
		p.retryStreak++
	} else {
		p.retryStreak = 0
	}
	p.lastRetry = now

	if p.retryStreak >= retryCeiling {
		return retryWindow
	}
	return 0
}

// prefetch performs exactly one attempt: take a candidate, resolve it with
// the configured timeout, and either enqueue it or discard it.
func (p *Prefetcher) prefetch() outcome {
	req, ok := p.request().Get()
	if !ok {
		return outcomeEmpty
	}

	p.qmu.Lock()
	if p.closed {
		p.qmu.Unlock()
		req.Destroy()
		return outcomeEmpty
	}
	p.resolving = req
	p.qmu.Unlock()

	status := req.Resolve(p.cfg.ResolveTimeout)

	p.qmu.Lock()
	p.resolving = nil
	if status != media.StatusResolved {
		p.qmu.Unlock()
		log.Infof("feed: dropping %q: resolution %s", req.URI(), status)
		req.Destroy()
		return outcomeRetry
	}
	if p.closed {
		p.qmu.Unlock()
		req.Destroy()
		return outcomeEmpty
	}

	duration := p.estimateDuration(req)
	p.fifo = append(p.fifo, queuedItem{duration: duration, req: req})
	p.buffered += duration
	total := p.buffered
	p.qmu.Unlock()

	log.Debugf("feed: queued %q (%s, %s buffered)", req.URI(), duration, total)
	return outcomeFinished
}

// estimateDuration derives the playable time of a resolved request from its
// duration metadata, then from the persisted hint cache, then from the
// configured default.
func (p *Prefetcher) estimateDuration(req media.Request) time.Duration {
	if raw, ok := req.Metadata(media.MetaDuration).Get(); ok {
		if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs >= 0 {
			d := time.Duration(secs * float64(time.Second))
			if viper.GetBool(key.CacheDurationHints) {
				if err := cache.SetDurationHint(req.URI(), d); err != nil {
					log.Debugf("feed: cannot persist duration hint for %q: %v", req.URI(), err)
				}
			}
			return d
		}
		log.Warnf("feed: unparsable duration metadata %q on %q", raw, req.URI())
	}

	if viper.GetBool(key.CacheDurationHints) {
		if d, ok := cache.DurationHint(req.URI()).Get(); ok {
			return d
		}
	}
	return p.cfg.DefaultDuration
}

// nextFile pops the queue head for the engine, adjusting the buffer estimate.
func (p *Prefetcher) nextFile() mo.Option[media.Request] {
	p.qmu.Lock()
	defer p.qmu.Unlock()

	if len(p.fifo) == 0 {
		return mo.None[media.Request]()
	}

	item := p.fifo[0]
	p.fifo = p.fifo[1:]
	p.buffered -= item.duration
	return mo.Some(item.req)
}

// ReadFrame serves the pull path and restarts the feeder whenever the buffer
// has fallen below target. This is the sole backpressure trigger besides
// startup and reload.
func (p *Prefetcher) ReadFrame(buf []byte) int {
	n := p.Unqueued.ReadFrame(buf)
	if p.QueueLength() < p.cfg.TargetBuffered {
		p.StartFeeding()
	}
	return n
}

// CopyQueue snapshots the in-flight resolution, the playing request and the
// queued requests, in that order. Diagnostic only.
func (p *Prefetcher) CopyQueue() []media.Request {
	var out []media.Request

	p.qmu.Lock()
	if p.resolving != nil {
		out = append(out, p.resolving)
	}
	p.qmu.Unlock()

	out = append(out, p.Unqueued.CopyQueue()...)

	p.qmu.Lock()
	for _, item := range p.fifo {
		out = append(out, item.req)
	}
	p.qmu.Unlock()

	return out
}

// Close stops the feeder and destroys every request still owned by the
// pipeline: the playing track and all queued items. An in-flight resolution
// is destroyed by the feeder when it observes the closed flag.
func (p *Prefetcher) Close() {
	p.stopFeeding()

	p.qmu.Lock()
	p.closed = true
	items := p.fifo
	p.fifo = nil
	p.buffered = 0
	p.qmu.Unlock()

	p.endTrack()

	for _, item := range items {
		item.req.Destroy()
	}
}
