package playlist

import (
	"fmt"
	"strings"
	"time"
)

// ReloadMode selects what drives playlist reloading.
type ReloadMode int

const (
	// ReloadNever keeps the loaded contents forever.
	ReloadNever ReloadMode = iota
	// ReloadRounds reloads after a number of completed traversal rounds.
	ReloadRounds
	// ReloadSeconds reloads once enough wall-clock time has passed.
	ReloadSeconds
)

func (m ReloadMode) String() string {
	switch m {
	case ReloadNever:
		return "never"
	case ReloadRounds:
		return "rounds"
	case ReloadSeconds:
		return "seconds"
	default:
		return "unknown"
	}
}

// ReloadPolicy decides, after each traversal step, whether a reload of the
// playlist contents is due.
//
// The policy carries no lock of its own: Evaluate and Reset are called inside
// the traversal's critical section, which also makes "pick next" and
// "evaluate reload" atomic with respect to other traversal users.
type ReloadPolicy struct {
	mode    ReloadMode
	amount  int
	counter int
	last    time.Time
	now     func() time.Time
}

// NewReloadPolicy builds a policy from the configuration surface: an amount
// of rounds or seconds, where zero means never.
func NewReloadPolicy(amount int, unit string) (*ReloadPolicy, error) {
	if amount < 0 {
		return nil, fmt.Errorf("reload amount must be non-negative, got %d", amount)
	}

	p := &ReloadPolicy{amount: amount, now: time.Now}
	if amount == 0 {
		p.mode = ReloadNever
		p.Reset()
		return p, nil
	}

	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "rounds", "":
		p.mode = ReloadRounds
	case "seconds":
		p.mode = ReloadSeconds
	default:
		return nil, fmt.Errorf("unknown reload unit %q", unit)
	}

	p.Reset()
	return p, nil
}

// Evaluate advances the policy state after a traversal step and reports
// whether a reload should fire now. round marks a completed traversal round.
func (p *ReloadPolicy) Evaluate(round bool) bool {
	switch p.mode {
	case ReloadRounds:
		if !round {
			return false
		}
		p.counter--
		return p.counter <= 0

	case ReloadSeconds:
		return p.now().Sub(p.last) >= time.Duration(p.amount)*time.Second

	default:
		return false
	}
}

// Reset rearms the policy after a completed reload.
func (p *ReloadPolicy) Reset() {
	p.counter = p.amount
	p.last = p.now()
}
