package gamesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yacar87/stark-tictactoe/internal/board"
	"github.com/yacar87/stark-tictactoe/internal/domain"
)

type fakeReader struct {
	mu      sync.Mutex
	game    *domain.Game
	err     error
	loaded  bool
	gameID  uint64
	fetches int
}

func (f *fakeReader) GetGame(context.Context, uint64) (*domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.game, f.err
}

func (f *fakeReader) CurrentGameID() (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gameID, f.loaded
}

func testGame() *domain.Game {
	return &domain.Game{
		ID:      4,
		PlayerX: "0xa",
		PlayerO: "0xb",
		XBits:   1 << 4,
		OBits:   1 << 0,
		Turn:    domain.TurnX,
		Status:  domain.StatusOngoing,
	}
}

func TestApplyDerivesRoleAndTurn(t *testing.T) {
	r := &fakeReader{game: testGame(), loaded: true, gameID: 4}
	s := NewSynchronizer(r, func() string { return "0xA" }, time.Second)

	token := s.gen.Add(1)
	s.apply(token, testGame())

	st, ok := s.Snapshot()
	if !ok {
		t.Fatalf("no state applied")
	}
	if st.Role != board.RoleX || !st.MyTurn {
		t.Fatalf("creator on turn 0 should be X to move: %+v", st)
	}
	if st.Board[4] != board.CellX || st.Board[0] != board.CellO {
		t.Fatalf("board decode wrong: %v", st.Board)
	}
}

func TestApplyOpponentRole(t *testing.T) {
	s := NewSynchronizer(&fakeReader{}, func() string { return "0xb" }, time.Second)
	s.apply(s.gen.Add(1), testGame())

	st, _ := s.Snapshot()
	if st.Role != board.RoleO || st.MyTurn {
		t.Fatalf("invited player on turn 0 should be O and waiting: %+v", st)
	}
}

func TestApplyStrangerRole(t *testing.T) {
	s := NewSynchronizer(&fakeReader{}, func() string { return "0x999" }, time.Second)
	s.apply(s.gen.Add(1), testGame())

	st, _ := s.Snapshot()
	if st.Role != board.RoleNone || st.MyTurn {
		t.Fatalf("spectator must have no role and no turn: %+v", st)
	}
}

func TestStaleCycleDropped(t *testing.T) {
	s := NewSynchronizer(&fakeReader{}, func() string { return "0xa" }, time.Second)

	fresh := testGame()
	s.apply(s.gen.Add(1), fresh)

	// A cycle whose token was superseded before its fetch completed must
	// not overwrite newer state.
	staleToken := s.gen.Add(1)
	s.gen.Add(1)
	stale := testGame()
	stale.XBits = 0
	stale.OBits = 0
	s.apply(staleToken, stale)

	st, _ := s.Snapshot()
	if st.Board[4] != board.CellX {
		t.Fatalf("stale cycle overwrote state: %v", st.Board)
	}
}

func TestFetchFailureLeavesState(t *testing.T) {
	r := &fakeReader{game: testGame(), loaded: true, gameID: 4}
	s := NewSynchronizer(r, func() string { return "0xa" }, 10*time.Millisecond)
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())

	s.startCycle()
	s.wg.Wait()
	if _, ok := s.Snapshot(); !ok {
		t.Fatalf("first cycle should have applied state")
	}

	r.mu.Lock()
	r.err = errors.New("rpc down")
	r.game = nil
	r.mu.Unlock()

	s.startCycle()
	s.wg.Wait()
	st, ok := s.Snapshot()
	if !ok || st.Board[4] != board.CellX {
		t.Fatalf("failed fetch must leave prior state: %+v ok=%v", st, ok)
	}
}

func TestNoLoadedGameNoFetch(t *testing.T) {
	r := &fakeReader{game: testGame()}
	s := NewSynchronizer(r, func() string { return "0xa" }, 10*time.Millisecond)
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())

	s.startCycle()
	s.wg.Wait()
	if r.fetches != 0 {
		t.Fatalf("no fetch should happen without a loaded game")
	}
}

func TestOnFinishedFiresOnce(t *testing.T) {
	var mu sync.Mutex
	var finished []uint64
	s := NewSynchronizer(&fakeReader{}, func() string { return "0xa" }, time.Second,
		OnFinished(func(g *domain.Game) {
			mu.Lock()
			finished = append(finished, g.ID)
			mu.Unlock()
		}))

	g := testGame()
	g.Status = domain.StatusXWon
	s.apply(s.gen.Add(1), g)
	s.apply(s.gen.Add(1), g)

	mu.Lock()
	defer mu.Unlock()
	if len(finished) != 1 || finished[0] != 4 {
		t.Fatalf("OnFinished should fire exactly once per session: %v", finished)
	}
}

func TestStartStop(t *testing.T) {
	r := &fakeReader{game: testGame(), loaded: true, gameID: 4}
	s := NewSynchronizer(r, func() string { return "0xa" }, 5*time.Millisecond)
	s.Start()

	deadline := time.After(time.Second)
	for {
		if _, ok := s.Snapshot(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("synchronizer never applied state")
		case <-time.After(time.Millisecond):
		}
	}
	s.Stop()
}
