package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pharmacoach/models"
)

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop() { t.t.Stop() }

// NewTimeTicker is the TickerFactory backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Manager owns the live attempts of the process.
type Manager struct {
	loader    TestLoader
	recorder  ResultRecorder
	admit     AdmitFunc
	newTicker TickerFactory
	now       func() time.Time
	retention time.Duration

	mu       sync.RWMutex
	attempts map[string]*Attempt
}

type Option func(*Manager)

// WithAdmission installs a check run after the test loads and before the countdown starts.
func WithAdmission(fn AdmitFunc) Option {
	return func(m *Manager) { m.admit = fn }
}

func WithTicker(f TickerFactory) Option {
	return func(m *Manager) { m.newTicker = f }
}

func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.now = clock }
}

// WithRetention sets how long submitted attempts stay readable before Sweep drops them.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) { m.retention = d }
}

func NewManager(loader TestLoader, recorder ResultRecorder, opts ...Option) *Manager {
	m := &Manager{
		loader:    loader,
		recorder:  recorder,
		newTicker: NewTimeTicker,
		now:       time.Now,
		retention: time.Hour,
		attempts:  make(map[string]*Attempt),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start loads testID for user and begins the countdown.
func (m *Manager) Start(ctx context.Context, user models.User, testID string) (*Attempt, error) {
	a := newAttempt(uuid.NewString(), user.ID, m.recorder, m.now)
	if err := a.load(ctx, m.loader, testID, user, m.admit); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.attempts[a.ID] = a
	m.mu.Unlock()

	go a.countdown(m.newTicker(time.Second))
	return a, nil
}

// Get returns the attempt if it belongs to userID.
func (m *Manager) Get(attemptID, userID string) (*Attempt, error) {
	m.mu.RLock()
	a, ok := m.attempts[attemptID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if a.UserID != userID {
		return nil, ErrNotOwner
	}
	return a, nil
}

// Sweep forgets attempts submitted longer ago than the retention period and returns how many it dropped.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, a := range m.attempts {
		if a.submittedBefore(cutoff) {
			delete(m.attempts, id)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of attempts held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attempts)
}
