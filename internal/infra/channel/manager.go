package channel

import (
	"context"
	"sync"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
)

// Manager shares one Channel among every screen of the process. The
// transport is opened by the first Acquire and closed when the last lease is
// released.
type Manager struct {
	ch *Channel

	mu   sync.Mutex
	refs int

	// released runs between the count reaching zero and the disconnect.
	released func()
}

var _ outbound.ChannelProvider = (*Manager)(nil)

func NewManager(ch *Channel) *Manager {
	return &Manager{ch: ch}
}

// Acquire returns the shared channel and an idempotent release func. Every
// Acquire (re)starts the connection loop if it is not running, which is how
// a lost channel recovers.
func (m *Manager) Acquire(ctx context.Context) (outbound.LiveChannel, func()) {
	m.mu.Lock()
	m.refs++
	m.mu.Unlock()

	m.ch.Connect(ctx)

	var once sync.Once
	return m.ch, func() {
		once.Do(m.release)
	}
}

func (m *Manager) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs
}

// release closes the transport when the count reaches zero. The count is
// re-checked under the channel lock, so an Acquire that lands after the
// decrement keeps the connection and its handlers.
func (m *Manager) release() {
	m.mu.Lock()
	m.refs--
	last := m.refs == 0
	m.mu.Unlock()

	if !last {
		return
	}
	if m.released != nil {
		m.released()
	}
	m.ch.disconnectIf(func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.refs == 0
	})
}
