// Package gamedto carries the JSON shapes handed to downstream consumers
// (the CLI output today, a UI layer tomorrow). Pure data, no behavior.
package gamedto

import (
	"github.com/yacar87/stark-tictactoe/internal/domain"
	"github.com/yacar87/stark-tictactoe/internal/gamesync"
)

type GameView struct {
	GameID  uint64    `json:"gameId"`
	Board   [9]string `json:"board"` // "X", "O" or ""
	PlayerX string    `json:"playerX"`
	PlayerO string    `json:"playerO"`
	Turn    string    `json:"turn"` // "X" or "O"
	Status  string    `json:"status"`
	Role    string    `json:"role"`
	MyTurn  bool      `json:"myTurn"`
}

type InvitationView struct {
	GameID uint64 `json:"gameId"`
	From   string `json:"from"`
}

// FromState converts a synchronizer snapshot plus its source session.
func FromState(st gamesync.State, g *domain.Game) GameView {
	v := GameView{
		GameID: st.GameID,
		Turn:   turnString(st.Turn),
		Status: statusString(st.Status),
		Role:   st.Role.String(),
		MyTurn: st.MyTurn,
	}
	for i, c := range st.Board {
		s := c.String()
		if s == "." {
			s = ""
		}
		v.Board[i] = s
	}
	if g != nil {
		v.PlayerX = g.PlayerX
		v.PlayerO = g.PlayerO
	}
	return v
}

// FromInvitations converts a scanner emission.
func FromInvitations(in []domain.Invitation) []InvitationView {
	out := make([]InvitationView, 0, len(in))
	for _, inv := range in {
		out = append(out, InvitationView{GameID: inv.GameID, From: inv.From})
	}
	return out
}

func turnString(turn int) string {
	if turn == domain.TurnO {
		return "O"
	}
	return "X"
}

func statusString(status int) string {
	switch status {
	case domain.StatusXWon:
		return "x_won"
	case domain.StatusOWon:
		return "o_won"
	case domain.StatusDraw:
		return "draw"
	default:
		return "ongoing"
	}
}
