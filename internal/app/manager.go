// Package app wires sessions to their collaborators and tracks one
// live Session per tab token.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
	"github.com/pkudinov/liveclass/internal/session"
	"github.com/pkudinov/liveclass/internal/tabs"
)

// EngineFactory builds one media engine per session; engines are never
// shared across tabs.
type EngineFactory func() core.MediaEngine

type Manager struct {
	ctx     context.Context
	bus     *tabs.Bus
	dir     core.Directory
	streams session.StreamDialer
	engines EngineFactory
	cfg     session.Config
	window  time.Duration

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewManager(ctx context.Context, bus *tabs.Bus, dir core.Directory, streams session.StreamDialer, engines EngineFactory, cfg session.Config, occupancyWindow time.Duration) *Manager {
	return &Manager{
		ctx:      ctx,
		bus:      bus,
		dir:      dir,
		streams:  streams,
		engines:  engines,
		cfg:      cfg,
		window:   occupancyWindow,
		sessions: make(map[string]*session.Session),
	}
}

// Session returns the tab's live session, creating it on first use.
func (m *Manager) Session(tab string, user domain.UserID, name string) *session.Session {
	m.mu.RLock()
	s, ok := m.sessions[tab]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[tab]; ok {
		return s
	}
	s = session.New(m.ctx, tab, user, name, m.cfg, session.Deps{
		Engine:    m.engines(),
		Directory: m.dir,
		Tabs:      tabs.NewCoordinator(m.bus, tab, m.window),
		Streams:   m.streams,
	})
	m.sessions[tab] = s
	log.Info().Str("module", "app").Str("tab", tab).Str("user", string(user)).Msg("session created")
	return s
}

func (m *Manager) Get(tab string) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tab]
	return s, ok
}

// Remove closes and forgets the tab's session.
func (m *Manager) Remove(tab string) {
	m.mu.Lock()
	s, ok := m.sessions[tab]
	delete(m.sessions, tab)
	m.mu.Unlock()
	if ok {
		s.Close()
		log.Info().Str("module", "app").Str("tab", tab).Msg("session removed")
	}
}

// History proxies the directory's meeting history for one user.
func (m *Manager) History(ctx context.Context, user domain.UserID) ([]core.HistoryEntry, error) {
	return m.dir.History(ctx, user)
}

func (m *Manager) DeleteHistoryEntry(ctx context.Context, user domain.UserID, entryID string) error {
	return m.dir.DeleteHistoryEntry(ctx, user, entryID)
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
