// Package cache provides localized persistence for media duration estimates keyed by URI.
//
// Resolved requests frequently report their playable duration only after a full
// resolution round trip. Remembering the last observed duration per URI lets the
// prefetcher produce a much better buffer estimate the next time the same entry
// comes around, which matters for playlists that loop.
package cache

import (
	"sync"
	"time"

	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// durationData defines the structured format for persisting duration estimates to disk.
type durationData struct {
	Seconds map[string]float64 `json:"seconds"`
}

// durations is the process-wide duration hint store.
var durations = struct {
	internal *gache.Cache[*durationData]
	mu       sync.RWMutex
}{
	internal: gache.New[*durationData](
		&gache.Options{
			Path:       where.DurationHints(),
			Lifetime:   time.Hour * 24 * 30,
			FileSystem: &filesystem.GacheFs{},
		},
	),
}

// DurationHint retrieves the last observed playable duration for a URI, if any.
func DurationHint(uri string) mo.Option[time.Duration] {
	durations.mu.RLock()
	defer durations.mu.RUnlock()

	data, expired, err := durations.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[time.Duration]()
	}

	seconds, ok := data.Seconds[uri]
	if !ok {
		return mo.None[time.Duration]()
	}

	return mo.Some(time.Duration(seconds * float64(time.Second)))
}

// SetDurationHint records the observed playable duration for a URI.
func SetDurationHint(uri string, d time.Duration) error {
	durations.mu.Lock()
	defer durations.mu.Unlock()

	data, expired, err := durations.internal.Get()
	if err != nil {
		return err
	}

	if expired || data == nil {
		data = &durationData{Seconds: make(map[string]float64)}
	}

	data.Seconds[uri] = d.Seconds()
	return durations.internal.Set(data)
}
