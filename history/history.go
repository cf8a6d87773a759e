// Package history manages the persistence and retrieval of played playlist URIs and suggestions.
package history

import (
	"strings"

	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/where"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type record struct {
	Rank int    `json:"rank"`
	URI  string `json:"uri"`
}

var cacher = gache.New[map[string]*record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var suggestionCache = make(map[string][]*record)

// Remember records a played playlist URI in the persistent history or increments its popularity rank.
func Remember(uri string, weight int) error {
	if !viper.GetBool(key.HistorySave) {
		return nil
	}

	uri = sanitize(uri)
	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*record)
	}

	if r, ok := cached[uri]; ok {
		r.Rank += weight
	} else {
		cached[uri] = &record{Rank: weight, URI: uri}
	}

	return cacher.Set(cached)
}

// List returns every remembered playlist URI sorted by popularity rank.
func List() []string {
	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return []string{}
	}

	records := lo.Values(cached)
	slices.SortFunc(records, func(a, b *record) int {
		return b.Rank - a.Rank
	})

	return lo.Map(records, func(r *record, _ int) string {
		return r.URI
	})
}

// Suggest returns the most relevant historical playlist URI for a partial input.
func Suggest(uri string) mo.Option[string] {
	suggestions := SuggestMany(uri)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns a collection of historical playlist URIs matching the partial input, sorted by popularity rank.
func SuggestMany(uri string) []string {
	if !viper.GetBool(key.HistorySuggestions) {
		return []string{}
	}

	uri = sanitize(uri)
	var records []*record

	if prev, ok := suggestionCache[uri]; ok {
		records = prev
	} else {
		cached, expired, err := cacher.Get()
		if err != nil || expired || cached == nil {
			return []string{}
		}

		for _, r := range cached {
			if fuzzy.Match(uri, r.URI) {
				records = append(records, r)
			}
		}

		slices.SortFunc(records, func(a, b *record) int {
			return b.Rank - a.Rank // Descending rank
		})

		suggestionCache[uri] = records
	}

	return lo.Map(records, func(r *record, _ int) string {
		return r.URI
	})
}

func sanitize(uri string) string {
	return strings.TrimSpace(uri)
}
