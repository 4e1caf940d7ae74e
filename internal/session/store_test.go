package session

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/yacar87/stark-tictactoe/internal/domain"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	s, err := NewStoreFromURL(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewStoreFromURL: %v", err)
	}
	return s, func() {
		_ = s.Close()
		mr.Close()
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	g := &domain.Game{ID: 5, PlayerX: "0xa", PlayerO: "0xb", XBits: 0x91, OBits: 0x42, Turn: 1, Status: 0}
	if err := s.SaveSnapshot(ctx, g); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := s.Snapshot(ctx, 5)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got == nil || got.PlayerX != "0xa" || got.XBits != 0x91 || got.Turn != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSnapshotMissing(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()

	got, err := s.Snapshot(context.Background(), 404)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got != nil {
		t.Fatalf("missing snapshot should be nil, got %+v", got)
	}
}

func TestKnownGames(t *testing.T) {
	s, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []uint64{9, 2, 5} {
		if err := s.RememberGame(ctx, "0xme", id); err != nil {
			t.Fatalf("RememberGame(%d): %v", id, err)
		}
	}
	ids, err := s.KnownGames(ctx, "0xme")
	if err != nil {
		t.Fatalf("KnownGames: %v", err)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 5 || ids[2] != 9 {
		t.Fatalf("ids = %v, want [2 5 9]", ids)
	}

	other, err := s.KnownGames(ctx, "0xstranger")
	if err != nil || len(other) != 0 {
		t.Fatalf("stranger should know nothing: %v %v", other, err)
	}
}

func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store
	if err := s.SaveSnapshot(context.Background(), &domain.Game{ID: 1}); err != nil {
		t.Fatalf("nil store SaveSnapshot: %v", err)
	}
	if err := s.RememberGame(context.Background(), "0xme", 1); err != nil {
		t.Fatalf("nil store RememberGame: %v", err)
	}
}
