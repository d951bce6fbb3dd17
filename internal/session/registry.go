// Package session keeps short-lived, single-use confirmation tokens that bind
// a rejected lookup to the candidate word offered to the user.
package session

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/internal/domain"
)

const (
	DefaultTTL           = 15 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultMaxSessions   = 10000
)

// Config bounds session retention.
type Config struct {
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSIONS_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSIONS_SWEEP_INTERVAL"`
	MaxSessions   int           `yaml:"max_sessions" envconfig:"SESSIONS_MAX"`
}

// Normalize fills defaults.
func (c *Config) Normalize() error {
	if c.TTL < 0 || c.SweepInterval < 0 || c.MaxSessions < 0 {
		return errors.New("sessions: ttl, sweep_interval and max_sessions must not be negative")
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	return nil
}

type session struct {
	token     string
	owner     domain.UserID
	candidate string
	createdAt time.Time
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry holds open sessions. Tokens are consumed on the first successful
// Resolve; the list keeps them oldest first.
type Registry struct {
	mu       sync.Mutex
	byToken  map[string]*list.Element
	order    *list.List
	ttl      time.Duration
	max      int
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New returns a Registry and starts its janitor when cfg.SweepInterval > 0.
func New(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		byToken: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     cfg.TTL,
		max:     cfg.MaxSessions,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.SweepInterval > 0 {
		go r.janitor(cfg.SweepInterval)
	} else {
		close(r.done)
	}
	return r
}

// Open binds candidate to a fresh token owned by userID.
func (r *Registry) Open(userID domain.UserID, candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", domain.E(domain.KindInvalidInput, "session.open", errors.New("empty candidate"))
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("session.open: %w", err)
	}
	s := &session{token: id.String(), owner: userID, candidate: candidate, createdAt: r.now()}

	r.mu.Lock()
	r.byToken[s.token] = r.order.PushBack(s)
	evicted := 0
	for r.max > 0 && r.order.Len() > r.max {
		r.removeLocked(r.order.Front())
		evicted++
	}
	r.mu.Unlock()

	if evicted > 0 {
		logger.Warn(context.Background(), logger.CompSession, "evict",
			slog.String("reason", "max_sessions"),
			slog.Int("count", evicted),
		)
	}
	return s.token, nil
}

// Resolve consumes token and returns its candidate. Unknown, consumed,
// expired and foreign tokens all fail with domain.ErrSessionExpired; a
// foreign token stays open for its owner.
func (r *Registry) Resolve(userID domain.UserID, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.byToken[token]
	if !ok {
		return "", domain.ErrSessionExpired
	}
	s := el.Value.(*session)
	if s.owner != userID {
		return "", domain.ErrSessionExpired
	}
	r.removeLocked(el)
	if r.expired(s, r.now()) {
		return "", domain.ErrSessionExpired
	}
	return s.candidate, nil
}

// Len returns the number of sessions held, including expired ones not yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// Sweep drops expired sessions and reports how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for el := r.order.Front(); el != nil; {
		s := el.Value.(*session)
		if !r.expired(s, now) {
			// insertion order is creation order
			break
		}
		next := el.Next()
		r.removeLocked(el)
		n++
		el = next
	}
	return n
}

// Close stops the janitor. It is safe to call more than once.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Registry) janitor(every time.Duration) {
	defer close(r.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				logger.Debug(context.Background(), logger.CompSession, "sweep",
					slog.Int("count", n),
					slog.Int("remaining", r.Len()),
				)
			}
		}
	}
}

func (r *Registry) expired(s *session, now time.Time) bool {
	return r.ttl > 0 && now.Sub(s.createdAt) > r.ttl
}

func (r *Registry) removeLocked(el *list.Element) {
	s := r.order.Remove(el).(*session)
	delete(r.byToken, s.token)
}
