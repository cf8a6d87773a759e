package feed

import (
	"testing"
	"time"

	"github.com/airfeed/airfeed/media"
	"github.com/airfeed/airfeed/scheduler"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestPrefetcher(cfg Config, reqs ...media.Request) (*Prefetcher, *scheduler.Manual) {
	sched := scheduler.NewManual()
	p := NewPrefetcher(cfg, candidatesOf(reqs...), sched)
	return p, sched
}

func (p *Prefetcher) isFeeding() bool {
	p.tmu.Lock()
	defer p.tmu.Unlock()
	return p.feeding
}

func TestPrefetcher(t *testing.T) {
	cfg := Config{
		TargetBuffered:  time.Hour,
		DefaultDuration: 30 * time.Second,
		ResolveTimeout:  time.Second,
	}
	buf := make([]byte, media.FrameSize)

	Convey("Prefetcher", t, func() {
		Convey("Queue length is the sum of queued duration estimates", func() {
			a := newFakeRequest("a.mp3", 5).withDuration(2)
			b := newFakeRequest("b.mp3", 5).withDuration(3)
			p, sched := newTestPrefetcher(cfg, a, b)

			p.StartFeeding()
			sched.Drain(10)

			So(p.QueueLength(), ShouldEqual, 5*time.Second)

			Convey("Popping an item subtracts its estimate", func() {
				popped := p.nextFile()
				So(popped.MustGet().URI(), ShouldEqual, "a.mp3")
				So(p.QueueLength(), ShouldEqual, 3*time.Second)
			})
		})

		Convey("Missing duration metadata falls back to the default", func() {
			req := newFakeRequest("nodur.mp3", 5)
			target := cfg
			target.TargetBuffered = 10 * time.Second
			p, sched := newTestPrefetcher(target, req)

			p.StartFeeding()
			sched.Drain(10)

			// One successful prefetch of the 30s default satisfies the 10s target.
			So(p.QueueLength(), ShouldEqual, 30*time.Second)
			So(p.isFeeding(), ShouldBeFalse)
		})

		Convey("An empty supplier stops the feeder task", func() {
			p, sched := newTestPrefetcher(cfg)

			p.StartFeeding()
			So(p.isFeeding(), ShouldBeTrue)
			sched.Drain(10)

			So(p.isFeeding(), ShouldBeFalse)
			So(p.QueueLength(), ShouldEqual, time.Duration(0))
		})

		Convey("Failed resolutions are destroyed and traversal continues", func() {
			bad := newFakeRequest("bad.mp3", 5).failing(media.StatusFailed).withDuration(9)
			good := newFakeRequest("good.mp3", 5).withDuration(4)
			p, sched := newTestPrefetcher(cfg, bad, good)

			p.StartFeeding()
			sched.Drain(20)

			So(bad.destroyCount(), ShouldEqual, 1)
			So(p.QueueLength(), ShouldEqual, 4*time.Second)
		})

		Convey("Adaptive retry delay", func() {
			p, _ := newTestPrefetcher(cfg)

			now := time.Unix(1000, 0)
			p.now = func() time.Time { return now }
			p.lastRetry = now

			Convey("Three retries inside the window escalate to the window delay", func() {
				So(p.retryDelay(), ShouldEqual, time.Duration(0))
				So(p.retryDelay(), ShouldEqual, time.Duration(0))
				So(p.retryDelay(), ShouldEqual, retryWindow)
			})

			Convey("A gap beyond the window resets the streak", func() {
				p.retryDelay()
				p.retryDelay()
				now = now.Add(retryWindow + time.Second)
				So(p.retryDelay(), ShouldEqual, time.Duration(0))
				So(p.retryDelay(), ShouldEqual, time.Duration(0))
			})
		})

		Convey("Conservative buffering excludes the playing track", func() {
			mk := func(conservative bool) *Prefetcher {
				a := newFakeRequest("a.mp3", 10).withDuration(1)
				c := cfg
				c.Conservative = conservative
				p, sched := newTestPrefetcher(c, a)
				p.StartFeeding()
				sched.Drain(10)
				p.ReadFrame(buf) // a starts playing, 9 frames remain
				return p
			}

			So(mk(false).QueueLength(), ShouldEqual, media.DurationOfFrames(9))
			So(mk(true).QueueLength(), ShouldEqual, time.Duration(0))
		})

		Convey("The pull wrapper restarts the feeder below target", func() {
			a := newFakeRequest("a.mp3", 10).withDuration(1)
			b := newFakeRequest("b.mp3", 10).withDuration(1)
			target := cfg
			target.TargetBuffered = time.Second
			p, sched := newTestPrefetcher(target, a, b)

			p.StartFeeding()
			sched.Drain(10)
			So(p.isFeeding(), ShouldBeFalse)

			p.ReadFrame(buf)
			So(p.isFeeding(), ShouldBeTrue)
			sched.Drain(10)
		})

		Convey("Teardown destroys everything resident exactly once", func() {
			a := newFakeRequest("a.mp3", 10).withDuration(1)
			b := newFakeRequest("b.mp3", 10).withDuration(1)
			c := newFakeRequest("c.mp3", 10).withDuration(1)
			p, sched := newTestPrefetcher(cfg, a, b, c)

			p.StartFeeding()
			sched.Drain(10)
			p.ReadFrame(buf) // a playing; b and c queued

			So(p.CopyQueue(), ShouldHaveLength, 3)

			p.Close()

			So(a.destroyCount(), ShouldEqual, 1)
			So(b.destroyCount(), ShouldEqual, 1)
			So(c.destroyCount(), ShouldEqual, 1)
			So(p.CopyQueue(), ShouldBeEmpty)
			So(p.QueueLength(), ShouldEqual, time.Duration(0))
		})
	})
}
