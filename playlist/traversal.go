// Package playlist implements deterministic traversal of a list of URIs
// under three modes, conditional reloading of its contents, and the fetching
// and parsing of playlist documents.
package playlist

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"
)

// Mode selects how the playlist is walked.
type Mode int

const (
	// ModeNormal plays entries in order, wrapping at the end.
	ModeNormal Mode = iota
	// ModeRandomize plays a shuffled pass, reshuffling at every wrap.
	ModeRandomize
	// ModeRandom draws a uniformly random entry on every pick.
	ModeRandom
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRandomize:
		return "randomize"
	case ModeRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "":
		return ModeNormal, nil
	case "randomize":
		return ModeRandomize, nil
	case "random":
		return ModeRandom, nil
	default:
		return ModeNormal, fmt.Errorf("unknown traversal mode %q", s)
	}
}

// Traversal walks an ordered list of URIs under a single lock. The backing
// array is replaced wholesale on reload, never mutated in place, so readers
// under the lock never see a partial list.
type Traversal struct {
	mu   sync.Mutex
	uris []string
	pos  mo.Option[int]
	mode Mode
	rng  *rand.Rand
}

// NewTraversal creates an empty traversal in the given mode.
func NewTraversal(mode Mode) *Traversal {
	return &Traversal{
		mode: mode,
		pos:  mo.None[int](),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next selects the next URI and reports whether this selection completed a
// round. The after callback, when non-nil, runs inside the same critical
// section so reload evaluation is atomic with the selection.
func (t *Traversal) Next(after func(round bool)) mo.Option[string] {
	t.mu.Lock()
	defer t.mu.Unlock()

	uri, round := t.advance()
	if after != nil {
		after(round)
	}
	return uri
}

func (t *Traversal) advance() (mo.Option[string], bool) {
	if len(t.uris) == 0 {
		return mo.None[string](), false
	}

	switch t.mode {
	case ModeRandom:
		i := t.rng.Intn(len(t.uris))
		t.pos = mo.Some(i)
		return mo.Some(t.uris[i]), false

	default:
		i := t.pos.OrElse(-1) + 1
		round := false
		if i >= len(t.uris) {
			i = 0
			round = true
			if t.mode == ModeRandomize {
				t.rng.Shuffle(len(t.uris), func(a, b int) {
					t.uris[a], t.uris[b] = t.uris[b], t.uris[a]
				})
			}
		}
		t.pos = mo.Some(i)
		return mo.Some(t.uris[i]), round
	}
}

// Peek returns up to n upcoming URIs where they are predictable: the next n
// by index for Normal (wrapping), the rest of the current pass for Randomize
// (a future shuffle is not yet determined), and nothing for Random.
func (t *Traversal) Peek(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || len(t.uris) == 0 || t.mode == ModeRandom {
		return nil
	}

	start := t.pos.OrElse(-1) + 1
	var out []string
	switch t.mode {
	case ModeNormal:
		for i := 0; i < n; i++ {
			out = append(out, t.uris[(start+i)%len(t.uris)])
		}
	case ModeRandomize:
		for i := start; i < len(t.uris) && len(out) < n; i++ {
			out = append(out, t.uris[i])
		}
	}
	return out
}

// Replace swaps in a new backing array. The playback position survives only
// in Normal mode while still within bounds; otherwise traversal restarts. In
// Randomize mode the new list is shuffled once. The then callbacks run inside
// the same critical section.
func (t *Traversal) Replace(uris []string, then ...func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.uris = uris

	keep := false
	if t.mode == ModeNormal {
		if i, ok := t.pos.Get(); ok && i < len(uris) {
			keep = true
		}
	}
	if !keep {
		t.pos = mo.None[int]()
	}

	if t.mode == ModeRandomize {
		t.rng.Shuffle(len(t.uris), func(a, b int) {
			t.uris[a], t.uris[b] = t.uris[b], t.uris[a]
		})
	}

	for _, fn := range then {
		fn()
	}
}

// Len reports the current number of entries.
func (t *Traversal) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.uris)
}

// Position reports the index of the last played entry, if traversal has
// started.
func (t *Traversal) Position() mo.Option[int] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Snapshot copies the current backing array.
func (t *Traversal) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.uris...)
}
