package scheduler

import (
	"sync"
	"time"
)

// Manual queues scheduled work and runs it only when explicitly stepped,
// tracking a virtual clock. It makes task interleavings deterministic, which
// the feeder and reload tests depend on.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []manualTask
}

type manualTask struct {
	due time.Duration
	run func()
}

// NewManual returns an empty manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(delay time.Duration, run func()) {
	if delay < 0 {
		delay = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, manualTask{due: m.now + delay, run: run})
}

// Pending reports how many tasks are queued.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunNext advances the virtual clock to the earliest due task and runs it.
// Returns false when nothing is queued. Ties run in scheduling order.
func (m *Manual) RunNext() bool {
	m.mu.Lock()

	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return false
	}

	next := 0
	for i, t := range m.tasks {
		if t.due < m.tasks[next].due {
			next = i
		}
	}

	task := m.tasks[next]
	m.tasks = append(m.tasks[:next], m.tasks[next+1:]...)
	if task.due > m.now {
		m.now = task.due
	}
	m.mu.Unlock()

	task.run()
	return true
}

// Drain steps tasks until the queue empties or limit runs are reached,
// returning how many ran. A limit caps self-rescheduling loops.
func (m *Manual) Drain(limit int) int {
	ran := 0
	for ran < limit && m.RunNext() {
		ran++
	}
	return ran
}

// Now reports the current virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
