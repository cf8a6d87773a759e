package playlist

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/media"
	"github.com/airfeed/airfeed/scheduler"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	. "github.com/smartystreets/goconvey/convey"
)

// stubRequest is the minimal media.Request for driving a source: it resolves
// in place and counts Destroy calls.
type stubRequest struct {
	mu        sync.Mutex
	uri       string
	status    media.Status
	destroyed int
}

func (r *stubRequest) URI() string { return r.uri }

func (r *stubRequest) Status() media.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *stubRequest) Resolve(time.Duration) media.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = media.StatusResolved
	return r.status
}

func (r *stubRequest) Metadata(string) mo.Option[string] { return mo.None[string]() }
func (r *stubRequest) AllMetadata() map[string]string    { return nil }
func (r *stubRequest) Filename() mo.Option[string]       { return mo.None[string]() }
func (r *stubRequest) Decoder() mo.Option[media.Decoder] { return mo.None[media.Decoder]() }
func (r *stubRequest) OnAir()                            {}

func (r *stubRequest) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed++
}

type stubFactory struct {
	mu      sync.Mutex
	created []string
}

func (f *stubFactory) New(uri string) mo.Option[media.Request] {
	f.mu.Lock()
	f.created = append(f.created, uri)
	f.mu.Unlock()
	return mo.Some[media.Request](&stubRequest{uri: uri})
}

type fetchResult struct {
	uris []string
	err  error
}

// scriptedFetcher answers Fetch calls from a fixed script, repeating the last
// entry once exhausted. When gated, every call signals entered and blocks
// until released.
type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	script  []fetchResult
	entered chan struct{}
	release chan struct{}
}

func (f *scriptedFetcher) Fetch(string, string, time.Duration) ([]string, error) {
	f.mu.Lock()
	f.calls++
	var res fetchResult
	if len(f.script) > 0 {
		res = f.script[0]
		if len(f.script) > 1 {
			f.script = f.script[1:]
		}
	}
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return res.uris, res.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietConfig() Config {
	return Config{
		URI:             "list.m3u",
		Mode:            ModeNormal,
		Timeout:         time.Second,
		DefaultDuration: 30 * time.Second,
	}
}

func TestSourceTraversal(t *testing.T) {
	Convey("A source over a two entry playlist", t, func() {
		fetch := &scriptedFetcher{script: []fetchResult{{uris: []string{"a.mp3", "b.mp3"}}}}
		factory := &stubFactory{}
		sched := scheduler.NewManual()

		s, err := New(quietConfig(), factory, fetch, sched)
		So(err, ShouldBeNil)
		defer s.Close()
		sched.Drain(2)

		Convey("supplies entries in order, wrapping", func() {
			uris := make([]string, 0, 3)
			positions := make([]int, 0, 3)
			for i := 0; i < 3; i++ {
				req := s.nextRequest().MustGet()
				uris = append(uris, req.URI())
				positions = append(positions, s.Traversal().Position().MustGet())
			}

			So(uris, ShouldResemble, []string{"a.mp3", "b.mp3", "a.mp3"})
			So(positions, ShouldResemble, []int{0, 1, 0})
			So(factory.created, ShouldResemble, uris)
		})
	})
}

func TestSourcePrefix(t *testing.T) {
	Convey("A configured prefix applies to every entry", t, func() {
		cfg := quietConfig()
		cfg.Prefix = "file:///music/"

		fetch := &scriptedFetcher{script: []fetchResult{{uris: []string{"a.mp3"}}}}
		s, err := New(cfg, &stubFactory{}, fetch, scheduler.NewManual())
		So(err, ShouldBeNil)
		defer s.Close()

		So(s.Traversal().Snapshot(), ShouldResemble, []string{"file:///music/a.mp3"})
		So(s.nextRequest().MustGet().URI(), ShouldEqual, "file:///music/a.mp3")
	})
}

func TestSourceSafe(t *testing.T) {
	Convey("Safe construction", t, func() {
		Convey("fails on a fetch error", func() {
			cfg := quietConfig()
			cfg.Safe = true

			fetch := &scriptedFetcher{script: []fetchResult{{err: errors.New("gone")}}}
			_, err := New(cfg, &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldNotBeNil)
		})

		Convey("fails on an empty playlist", func() {
			cfg := quietConfig()
			cfg.Safe = true

			fetch := &scriptedFetcher{script: []fetchResult{{}}}
			_, err := New(cfg, &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldNotBeNil)
		})

		Convey("without safe, a failed load yields an empty source", func() {
			fetch := &scriptedFetcher{script: []fetchResult{{err: errors.New("gone")}}}
			s, err := New(quietConfig(), &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.Traversal().Len(), ShouldEqual, 0)
			So(s.nextRequest().IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestSourceReload(t *testing.T) {
	Convey("Reloading a source", t, func() {
		Convey("swaps in the refetched contents", func() {
			fetch := &scriptedFetcher{script: []fetchResult{
				{uris: []string{"a.mp3"}},
				{uris: []string{"x.mp3", "y.mp3"}},
			}}
			s, err := New(quietConfig(), &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldBeNil)
			defer s.Close()

			s.Reload()
			So(s.Traversal().Snapshot(), ShouldResemble, []string{"x.mp3", "y.mp3"})
		})

		Convey("keeps the current contents on a failed fetch", func() {
			fetch := &scriptedFetcher{script: []fetchResult{
				{uris: []string{"a.mp3", "b.mp3"}},
				{err: errors.New("gone")},
			}}
			s, err := New(quietConfig(), &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldBeNil)
			defer s.Close()

			s.Reload()
			So(s.Traversal().Snapshot(), ShouldResemble, []string{"a.mp3", "b.mp3"})
		})

		Convey("keeps the current contents on an empty fetch", func() {
			fetch := &scriptedFetcher{script: []fetchResult{
				{uris: []string{"a.mp3", "b.mp3"}},
				{},
			}}
			s, err := New(quietConfig(), &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldBeNil)
			defer s.Close()

			s.Reload()
			So(s.Traversal().Snapshot(), ShouldResemble, []string{"a.mp3", "b.mp3"})
		})

		Convey("skips a reload while one is in flight", func() {
			fetch := &scriptedFetcher{script: []fetchResult{{uris: []string{"a.mp3"}}}}
			s, err := New(quietConfig(), &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldBeNil)
			defer s.Close()

			fetch.mu.Lock()
			fetch.entered = make(chan struct{})
			fetch.release = make(chan struct{})
			fetch.mu.Unlock()

			done := make(chan struct{})
			go func() {
				s.Reload()
				close(done)
			}()

			<-fetch.entered
			s.Reload()
			close(fetch.release)
			<-done

			// The initial load plus the one reload that actually ran.
			So(fetch.callCount(), ShouldEqual, 2)
		})
	})
}

func TestSourceReloadByRounds(t *testing.T) {
	Convey("A source reloading every round", t, func() {
		cfg := quietConfig()
		cfg.ReloadAmount = 1
		cfg.ReloadUnit = "rounds"

		fetch := &scriptedFetcher{script: []fetchResult{
			{uris: []string{"a.mp3"}},
			{uris: []string{"x.mp3", "y.mp3"}},
		}}
		sched := scheduler.NewManual()

		s, err := New(cfg, &stubFactory{}, fetch, sched)
		So(err, ShouldBeNil)
		defer s.Close()
		sched.Drain(2)

		Convey("schedules a reload when the round completes", func() {
			So(s.nextRequest().MustGet().URI(), ShouldEqual, "a.mp3")
			So(sched.Pending(), ShouldEqual, 0)

			// Wrapping the single entry completes the round.
			So(s.nextRequest().MustGet().URI(), ShouldEqual, "a.mp3")
			So(sched.Pending(), ShouldBeGreaterThan, 0)

			sched.Drain(4)
			So(s.Traversal().Snapshot(), ShouldResemble, []string{"x.mp3", "y.mp3"})
			So(s.nextRequest().MustGet().URI(), ShouldEqual, "y.mp3")
		})
	})
}

func TestSourceDescribeNext(t *testing.T) {
	Convey("DescribeNext", t, func() {
		Convey("lists upcoming traversal entries", func() {
			fetch := &scriptedFetcher{script: []fetchResult{{uris: []string{"a.mp3", "b.mp3", "c.mp3"}}}}
			s, err := New(quietConfig(), &stubFactory{}, fetch, scheduler.NewManual())
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.DescribeNext(2), ShouldResemble, []string{"a.mp3", "b.mp3"})
			So(len(s.DescribeNext(0)), ShouldEqual, DefaultNextCount)
		})

		Convey("prepends buffered requests with their status", func() {
			cfg := quietConfig()
			cfg.TargetBuffered = 5 * time.Second
			cfg.DefaultDuration = 10 * time.Second

			fetch := &scriptedFetcher{script: []fetchResult{{uris: []string{"a.mp3"}}}}
			sched := scheduler.NewManual()

			s, err := New(cfg, &stubFactory{}, fetch, sched)
			So(err, ShouldBeNil)
			defer s.Close()
			sched.Drain(5)

			So(s.DescribeNext(3), ShouldResemble, []string{"[resolved] a.mp3", "a.mp3", "a.mp3"})
		})
	})
}

func TestConfigFromViper(t *testing.T) {
	Convey("ConfigFromViper", t, func() {
		defer viper.Reset()

		viper.Set(key.PlaylistMode, "randomize")
		viper.Set(key.PlaylistReloadAmount, 3)
		viper.Set(key.PlaylistReloadUnit, "seconds")
		viper.Set(key.PlaylistPrefix, "file://")
		viper.Set(key.PlaylistSafe, true)
		viper.Set(key.PrefetchTargetSeconds, 12.5)
		viper.Set(key.PrefetchDefaultDuration, 30.0)
		viper.Set(key.PrefetchTimeout, 20.0)
		viper.Set(key.PrefetchConservative, true)

		cfg, err := ConfigFromViper("list.m3u")
		So(err, ShouldBeNil)
		So(cfg.URI, ShouldEqual, "list.m3u")
		So(cfg.Mode, ShouldEqual, ModeRandomize)
		So(cfg.ReloadAmount, ShouldEqual, 3)
		So(cfg.ReloadUnit, ShouldEqual, "seconds")
		So(cfg.Prefix, ShouldEqual, "file://")
		So(cfg.Safe, ShouldBeTrue)
		So(cfg.TargetBuffered, ShouldEqual, 12500*time.Millisecond)
		So(cfg.DefaultDuration, ShouldEqual, 30*time.Second)
		So(cfg.Timeout, ShouldEqual, 20*time.Second)
		So(cfg.Conservative, ShouldBeTrue)

		Convey("rejects an unknown traversal mode", func() {
			viper.Set(key.PlaylistMode, "shuffle")
			_, err := ConfigFromViper("list.m3u")
			So(err, ShouldNotBeNil)
		})
	})
}
