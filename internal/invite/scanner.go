// Package invite discovers pending invitations: sessions where the local
// account is the second player and no move has been made. Discovery is a
// bounded brute-force scan of candidate ids, a best-effort heuristic rather
// than indexed retrieval.
package invite

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yacar87/stark-tictactoe/internal/domain"
	"github.com/yacar87/stark-tictactoe/internal/felt"
	"github.com/yacar87/stark-tictactoe/internal/obslog"
	"github.com/yacar87/stark-tictactoe/internal/starkrpc"
)

// GameReader is the read slice of the session manager.
type GameReader interface {
	GetGame(ctx context.Context, gameID uint64) (*domain.Game, error)
}

type Scanner struct {
	reader   GameReader
	account  func() string
	scanMax  int
	interval time.Duration

	// onInvites receives the full current set each cycle, replacing the
	// prior one wholesale; an empty slice means "no invitations".
	onInvites func([]domain.Invitation)

	gen atomic.Uint64

	rootCtx    context.Context
	rootCancel context.CancelFunc
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewScanner(reader GameReader, account func() string, scanMax int, interval time.Duration, onInvites func([]domain.Invitation)) *Scanner {
	if scanMax <= 0 {
		scanMax = 25
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scanner{
		reader:    reader,
		account:   account,
		scanMax:   scanMax,
		interval:  interval,
		onInvites: onInvites,
		stopCh:    make(chan struct{}),
	}
}

func (s *Scanner) Start() {
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.loop()
}

func (s *Scanner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.rootCancel != nil {
			s.rootCancel()
		}
		s.gen.Add(1)
	})
	s.wg.Wait()
}

// ScanNow runs one scan cycle synchronously, outside the poll loop.
func (s *Scanner) ScanNow(ctx context.Context) []domain.Invitation {
	me := s.account()
	if me == "" || felt.IsZero(me) {
		return nil
	}
	return s.scan(ctx, felt.NormalizeAddress(me))
}

func (s *Scanner) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cycle()
		}
	}
}

func (s *Scanner) cycle() {
	me := s.account()
	if me == "" || felt.IsZero(me) {
		return
	}
	token := s.gen.Add(1)

	ctx, cancel := context.WithTimeout(s.rootCtx, s.interval)
	defer cancel()

	invites := s.scan(ctx, felt.NormalizeAddress(me))
	if token != s.gen.Load() {
		return
	}
	if s.onInvites != nil {
		s.onInvites(invites)
	}
}

// scan walks the candidate id range. Read failures count as "no such
// session" and are skipped; an invitation is a session inviting me as O
// with an untouched board and an ongoing status.
func (s *Scanner) scan(ctx context.Context, me string) []domain.Invitation {
	invites := make([]domain.Invitation, 0, 4)
	for gid := uint64(0); gid < uint64(s.scanMax); gid++ {
		if ctx.Err() != nil {
			break
		}
		g, err := s.reader.GetGame(ctx, gid)
		if err != nil {
			if !starkrpc.IsContractError(err) {
				obslog.L().Debug("invite_scan_read_failed", zap.Uint64("game_id", gid), zap.Error(err))
			}
			continue
		}
		if g == nil {
			continue
		}
		if g.PlayerO == me && !g.Started() && g.Status == domain.StatusOngoing {
			invites = append(invites, domain.Invitation{GameID: gid, From: g.PlayerX})
		}
	}
	return invites
}
