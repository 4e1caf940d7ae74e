// Package gamesync polls the loaded session and rebuilds the local view of
// it: board cells, which side the local account plays, and whether it is on
// turn. The remote record is authoritative; everything here is derived and
// rebuilt from scratch on every successful fetch.
package gamesync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yacar87/stark-tictactoe/internal/board"
	"github.com/yacar87/stark-tictactoe/internal/domain"
	"github.com/yacar87/stark-tictactoe/internal/obslog"
)

// GameReader is the slice of the session manager the synchronizer needs.
type GameReader interface {
	GetGame(ctx context.Context, gameID uint64) (*domain.Game, error)
	CurrentGameID() (uint64, bool)
}

// State is the derived local view. Never authoritative.
type State struct {
	GameID    uint64
	Board     board.Board
	Role      board.Role
	MyTurn    bool
	Turn      int
	Status    int
	UpdatedAt time.Time
}

type Synchronizer struct {
	reader   GameReader
	account  func() string // identity capability; whichever signer is active
	interval time.Duration

	onUpdate   func(State)
	onFinished func(*domain.Game)

	mu       sync.RWMutex
	state    State
	hasState bool
	archived map[uint64]bool

	// gen is the cycle token: a fetch may only apply its result while it is
	// still the latest started cycle.
	gen atomic.Uint64

	rootCtx    context.Context
	rootCancel context.CancelFunc
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

type Option func(*Synchronizer)

// OnUpdate registers a callback invoked with every applied state.
func OnUpdate(fn func(State)) Option {
	return func(s *Synchronizer) { s.onUpdate = fn }
}

// OnFinished registers a callback fired once per session when the contract
// reports it terminal; used to archive results.
func OnFinished(fn func(*domain.Game)) Option {
	return func(s *Synchronizer) { s.onFinished = fn }
}

func NewSynchronizer(reader GameReader, account func() string, interval time.Duration, opts ...Option) *Synchronizer {
	if interval <= 0 {
		interval = time.Second
	}
	s := &Synchronizer{
		reader:   reader,
		account:  account,
		interval: interval,
		archived: make(map[uint64]bool),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the poll loop. The first cycle runs immediately.
func (s *Synchronizer) Start() {
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the loop and any in-flight fetch, then waits for both to
// wind down. Results of cancelled fetches are never applied.
func (s *Synchronizer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.rootCancel != nil {
			s.rootCancel()
		}
		// bump the token so any fetch already past cancellation checks
		// still fails the staleness test
		s.gen.Add(1)
	})
	s.wg.Wait()
}

// Snapshot returns the last applied state, if any.
func (s *Synchronizer) Snapshot() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.hasState
}

func (s *Synchronizer) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.startCycle()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.startCycle()
		}
	}
}

// startCycle begins one fetch. Starting a new cycle invalidates the token
// of any still-pending older fetch: last started snapshot wins.
func (s *Synchronizer) startCycle() {
	gameID, ok := s.reader.CurrentGameID()
	if !ok {
		return
	}
	token := s.gen.Add(1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.rootCtx, 3*s.interval)
		defer cancel()

		g, err := s.reader.GetGame(ctx, gameID)
		if err != nil || g == nil {
			// silent: prior state stays, the next cycle retries
			obslog.L().Debug("sync_fetch_failed", zap.Uint64("game_id", gameID), zap.Error(err))
			return
		}
		s.apply(token, g)
	}()
}

func (s *Synchronizer) apply(token uint64, g *domain.Game) {
	if token != s.gen.Load() {
		obslog.L().Debug("sync_cycle_stale", zap.Uint64("game_id", g.ID))
		return
	}

	role := board.RoleFor(s.account(), g)
	st := State{
		GameID:    g.ID,
		Board:     board.Decode(g.XBits, g.OBits),
		Role:      role,
		MyTurn:    board.IsTurn(role, g.Turn),
		Turn:      g.Turn,
		Status:    g.Status,
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	if token != s.gen.Load() {
		s.mu.Unlock()
		return
	}
	s.state = st
	s.hasState = true
	fireFinished := g.Finished() && s.onFinished != nil && !s.archived[g.ID]
	if fireFinished {
		s.archived[g.ID] = true
	}
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(st)
	}
	if fireFinished {
		s.onFinished(g)
	}
}
