// Package board decodes the contract's packed occupancy fields into a
// 9-cell board and derives which side, if any, the local account plays.
package board

import (
	"strings"

	"github.com/yacar87/stark-tictactoe/internal/domain"
	"github.com/yacar87/stark-tictactoe/internal/felt"
)

type Cell uint8

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return "."
	}
}

// Board is the 9 cells left-to-right, top-to-bottom; cell i maps to bit i of
// the occupancy fields.
type Board [9]Cell

// Decode expands the two packed occupancy fields. The contract guarantees
// xBits & oBits == 0; if a malformed session violates that, X is checked
// first and wins the cell. That tie-break is deliberate and relied on by
// callers that must never crash on bad remote state.
func Decode(xBits, oBits uint16) Board {
	var b Board
	for i := 0; i < 9; i++ {
		mask := uint16(1) << i
		switch {
		case xBits&mask != 0:
			b[i] = CellX
		case oBits&mask != 0:
			b[i] = CellO
		}
	}
	return b
}

// Render draws the board as three text rows, for CLI output and logs.
func (b Board) Render() string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b[row*3+col].String())
		}
	}
	return sb.String()
}

type Role int

const (
	RoleNone Role = iota
	RoleX
	RoleO
)

func (r Role) String() string {
	switch r {
	case RoleX:
		return "X"
	case RoleO:
		return "O"
	default:
		return "none"
	}
}

// RoleFor compares the local account against the session participants. All
// three values are normalized before comparison, so callers may pass any of
// the accepted address shapes. An empty or zero local address never matches.
func RoleFor(local string, g *domain.Game) Role {
	if g == nil || strings.TrimSpace(local) == "" || felt.IsZero(local) {
		return RoleNone
	}
	me := felt.NormalizeAddress(local)
	switch {
	case me == felt.NormalizeAddress(g.PlayerX):
		return RoleX
	case me == felt.NormalizeAddress(g.PlayerO):
		return RoleO
	}
	return RoleNone
}

// IsTurn reports whether the given role moves next. RoleNone is never on
// turn.
func IsTurn(r Role, turn int) bool {
	switch r {
	case RoleX:
		return turn == domain.TurnX
	case RoleO:
		return turn == domain.TurnO
	}
	return false
}
