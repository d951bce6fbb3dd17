package state

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dictbot/core/logger"
	tghelpers "github.com/m3rciful/dictbot/core/telegram/helpers"
)

type entry struct {
	state State
	since time.Time
}

type memoryManager struct {
	mu       sync.RWMutex
	users    map[int64]entry
	handlers map[State]tele.HandlerFunc
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryManager returns an in-process Manager. States older than ttl read
// as idle; ttl <= 0 keeps them until cleared.
func NewMemoryManager(ttl time.Duration) Manager {
	return &memoryManager{
		users:    make(map[int64]entry),
		handlers: make(map[State]tele.HandlerFunc),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == StateIdle || st == "" {
		delete(m.users, userID)
		return
	}
	m.users[userID] = entry{state: st, since: m.now()}
}

func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	e, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return StateIdle
	}
	if m.ttl > 0 && m.now().Sub(e.since) > m.ttl {
		m.mu.Lock()
		if cur, ok := m.users[userID]; ok && cur == e {
			delete(m.users, userID)
		}
		m.mu.Unlock()
		return StateIdle
	}
	return e.state
}

func (m *memoryManager) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

func (m *memoryManager) Handle(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler runs the handler registered for the sender's current state.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	current := m.GetState(sender.ID)
	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()

	logger.Debug(tghelpers.BuildContext(c), logger.CompTG, "fsm.dispatch",
		slog.String("status", statusFor(ok)),
		slog.String("state", string(current)),
	)
	if !ok {
		return nil
	}
	return handler(c)
}

func statusFor(found bool) string {
	if found {
		return "ok"
	}
	return "skip"
}
