package playlist

import (
	"fmt"
	"sync"
	"time"

	"github.com/airfeed/airfeed/feed"
	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/media"
	"github.com/airfeed/airfeed/scheduler"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// DefaultNextCount is how many upcoming entries DescribeNext lists when the
// caller does not say.
const DefaultNextCount = 10

// Config is the full option surface of a playlist source.
type Config struct {
	// URI locates the playlist document, directory or remote URL.
	URI string
	// Mode selects the traversal order.
	Mode Mode
	// ReloadAmount with ReloadUnit configures reloading; zero never reloads.
	ReloadAmount int
	ReloadUnit   string
	// MimeType overrides playlist format autodetection when non-empty.
	MimeType string
	// Prefix is prepended to every entry resolved from the playlist.
	Prefix string
	// Safe aborts construction when the playlist yields no valid entries.
	Safe bool
	// Timeout bounds both playlist fetches and per-item resolution.
	Timeout time.Duration
	// TargetBuffered, DefaultDuration and Conservative tune prefetching.
	TargetBuffered  time.Duration
	DefaultDuration time.Duration
	Conservative    bool
}

// ConfigFromViper assembles a Config from the global configuration registry,
// for the given playlist URI.
func ConfigFromViper(uri string) (Config, error) {
	mode, err := ParseMode(viper.GetString(key.PlaylistMode))
	if err != nil {
		return Config{}, err
	}

	seconds := func(k string) time.Duration {
		return time.Duration(viper.GetFloat64(k) * float64(time.Second))
	}

	return Config{
		URI:             uri,
		Mode:            mode,
		ReloadAmount:    viper.GetInt(key.PlaylistReloadAmount),
		ReloadUnit:      viper.GetString(key.PlaylistReloadUnit),
		MimeType:        viper.GetString(key.PlaylistMimeType),
		Prefix:          viper.GetString(key.PlaylistPrefix),
		Safe:            viper.GetBool(key.PlaylistSafe),
		Timeout:         seconds(key.PrefetchTimeout),
		TargetBuffered:  seconds(key.PrefetchTargetSeconds),
		DefaultDuration: seconds(key.PrefetchDefaultDuration),
		Conservative:    viper.GetBool(key.PrefetchConservative),
	}, nil
}

// Source feeds playback from a playlist: traversal picks the next URI, the
// request factory turns it into a resolvable request, and the embedded
// prefetcher buffers resolved requests ahead of the pull path.
type Source struct {
	*feed.Prefetcher

	cfg     Config
	trav    *Traversal
	policy  *ReloadPolicy
	fetch   Fetcher
	factory media.Factory
	sched   scheduler.Scheduler

	// reloadMu is advisory: a reload that cannot take it is skipped, never
	// queued, so at most one reload is in flight.
	reloadMu sync.Mutex
}

// New constructs a playlist source and performs the initial load. The initial
// load is the one place where an empty playlist is accepted, unless cfg.Safe
// demands playable content.
func New(cfg Config, factory media.Factory, fetch Fetcher, sched scheduler.Scheduler) (*Source, error) {
	policy, err := NewReloadPolicy(cfg.ReloadAmount, cfg.ReloadUnit)
	if err != nil {
		return nil, err
	}

	s := &Source{
		cfg:     cfg,
		trav:    NewTraversal(cfg.Mode),
		policy:  policy,
		fetch:   fetch,
		factory: factory,
		sched:   sched,
	}
	s.Prefetcher = feed.NewPrefetcher(feed.Config{
		TargetBuffered:  cfg.TargetBuffered,
		DefaultDuration: cfg.DefaultDuration,
		ResolveTimeout:  cfg.Timeout,
		Conservative:    cfg.Conservative,
	}, s.nextRequest, sched)

	uris, err := s.fetchContent()
	if err != nil {
		if cfg.Safe {
			return nil, err
		}
		log.Warnf("playlist: initial load of %q failed: %v", cfg.URI, err)
		uris = nil
	}
	if cfg.Safe && len(uris) == 0 {
		return nil, fmt.Errorf("safe playlist %q has no valid entries", cfg.URI)
	}

	s.trav.Replace(uris, s.policy.Reset)
	log.Infof("playlist: loaded %q with %d entries", cfg.URI, len(uris))

	s.StartFeeding()
	return s, nil
}

// fetchContent retrieves and parses the playlist, applying the URI prefix to
// every entry.
func (s *Source) fetchContent() ([]string, error) {
	uris, err := s.fetch.Fetch(s.cfg.URI, s.cfg.MimeType, s.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	if s.cfg.Prefix == "" {
		return uris, nil
	}
	return lo.Map(uris, func(uri string, _ int) string {
		return s.cfg.Prefix + uri
	}), nil
}

// nextRequest supplies the prefetcher with its next candidate. Selection and
// reload evaluation happen atomically under the traversal lock; a due reload
// is kicked off asynchronously after the lock is released.
func (s *Source) nextRequest() mo.Option[media.Request] {
	var due bool
	uriOpt := s.trav.Next(func(round bool) {
		due = s.policy.Evaluate(round)
	})
	if due {
		s.ReloadAsync()
	}

	uri, ok := uriOpt.Get()
	if !ok {
		return mo.None[media.Request]()
	}
	return s.factory.New(uri)
}

// Reload synchronously refetches the playlist contents. A populated list is
// never overwritten by a failed or empty fetch; the previous contents stay.
// Concurrent attempts are skipped, not queued.
func (s *Source) Reload() {
	if !s.reloadMu.TryLock() {
		log.Debugf("playlist: reload of %q already in flight, skipping", s.cfg.URI)
		return
	}
	defer s.reloadMu.Unlock()

	uris, err := s.fetchContent()
	if err != nil {
		log.Warnf("playlist: reload of %q failed, keeping current contents: %v", s.cfg.URI, err)
		return
	}
	if len(uris) == 0 && s.trav.Len() > 0 {
		log.Warnf("playlist: reload of %q returned no entries, keeping current contents", s.cfg.URI)
		return
	}

	s.trav.Replace(uris, s.policy.Reset)
	log.Infof("playlist: reloaded %q with %d entries", s.cfg.URI, len(uris))

	// New candidates may exist now; the feeder may have stopped on empty.
	s.StartFeeding()
}

// ReloadAsync schedules a best-effort reload on the background scheduler.
func (s *Source) ReloadAsync() {
	s.sched.Schedule(0, s.Reload)
}

// DescribeNext renders the diagnostic view of what plays next: live status
// for requests already in the pipeline, then the predictable upcoming URIs.
func (s *Source) DescribeNext(n int) []string {
	if n <= 0 {
		n = DefaultNextCount
	}

	var out []string
	for _, req := range s.CopyQueue() {
		if len(out) >= n {
			return out
		}
		out = append(out, fmt.Sprintf("[%s] %s", req.Status(), req.URI()))
	}

	for _, uri := range s.trav.Peek(n - len(out)) {
		out = append(out, uri)
	}
	return out
}

// Traversal exposes the underlying traversal for introspection.
func (s *Source) Traversal() *Traversal {
	return s.trav
}
