package board

import (
	"testing"

	"github.com/yacar87/stark-tictactoe/internal/domain"
)

func TestDecodeDisjointFields(t *testing.T) {
	// X on the diagonal, O in the remaining corners.
	x := uint16(1<<0 | 1<<4 | 1<<8)
	o := uint16(1<<2 | 1<<6)
	b := Decode(x, o)
	for i := 0; i < 9; i++ {
		want := CellEmpty
		if x&(1<<i) != 0 {
			want = CellX
		} else if o&(1<<i) != 0 {
			want = CellO
		}
		if b[i] != want {
			t.Fatalf("cell %d = %v, want %v", i, b[i], want)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	b := Decode(0, 0)
	for i, c := range b {
		if c != CellEmpty {
			t.Fatalf("cell %d not empty", i)
		}
	}
}

func TestDecodeOverlapXWins(t *testing.T) {
	// Dual occupancy violates the contract invariant; X is checked first.
	b := Decode(0b1, 0b1)
	if b[0] != CellX {
		t.Fatalf("overlap tie-break: cell 0 = %v, want X", b[0])
	}
}

func TestRender(t *testing.T) {
	b := Decode(1<<0|1<<4, 1<<8)
	want := "X . .\n. X .\n. . O"
	if got := b.Render(); got != want {
		t.Fatalf("render mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestRoleFor(t *testing.T) {
	g := &domain.Game{PlayerX: "0xabc", PlayerO: "0xdef"}
	if r := RoleFor("0xABC", g); r != RoleX {
		t.Fatalf("creator should map to X, got %v", r)
	}
	if r := RoleFor("3567", g); r != RoleO { // 3567 == 0xdef
		t.Fatalf("decimal form of O address should map to O, got %v", r)
	}
	if r := RoleFor("0x999", g); r != RoleNone {
		t.Fatalf("stranger should map to none, got %v", r)
	}
	if r := RoleFor("", g); r != RoleNone {
		t.Fatalf("empty account should map to none, got %v", r)
	}
	if r := RoleFor("0x0", g); r != RoleNone {
		t.Fatalf("zero account should map to none, got %v", r)
	}
}

func TestIsTurn(t *testing.T) {
	if !IsTurn(RoleX, domain.TurnX) || IsTurn(RoleX, domain.TurnO) {
		t.Fatalf("X turn derivation wrong")
	}
	if !IsTurn(RoleO, domain.TurnO) || IsTurn(RoleO, domain.TurnX) {
		t.Fatalf("O turn derivation wrong")
	}
	if IsTurn(RoleNone, domain.TurnX) || IsTurn(RoleNone, domain.TurnO) {
		t.Fatalf("RoleNone must never be on turn")
	}
}
