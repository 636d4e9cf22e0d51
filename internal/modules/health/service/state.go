package service

import (
	"sync"
	"sync/atomic"
	"time"

	tg "arb_gateway/internal/modules/telegram_bot/service"
)

// State живое состояние процесса для /readyz и /healthz.
// Реализует tg.Observer, обновляется из цикла командной сессии.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	sessionActive  atomic.Bool
	lastUpdateUnix atomic.Int64 // unix seconds

	mu      sync.RWMutex
	session tg.SessionInfo
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SessionStarted(info tg.SessionInfo) {
	s.mu.Lock()
	s.session = info
	s.mu.Unlock()
	s.sessionActive.Store(true)
}

func (s *State) SessionStopped() {
	s.sessionActive.Store(false)
	s.mu.Lock()
	s.session = tg.SessionInfo{}
	s.mu.Unlock()
}

func (s *State) UpdateHandled(t time.Time) { s.lastUpdateUnix.Store(t.Unix()) }

func (s *State) SessionActive() bool { return s.sessionActive.Load() }

func (s *State) Session() tg.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *State) LastUpdate() time.Time {
	u := s.lastUpdateUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

var _ tg.Observer = (*State)(nil)
