package domain

import "time"

// Session status as reported by the contract. Unknown values are treated as
// ongoing rather than rejected.
const (
	StatusOngoing = 0
	StatusXWon    = 1
	StatusOWon    = 2
	StatusDraw    = 3
)

const (
	TurnX = 0
	TurnO = 1
)

// Game is a read-only projection of one on-chain session. The contract owns
// the authoritative record; every instance here is a snapshot that may be
// stale by the time it is consumed.
type Game struct {
	ID      uint64
	PlayerX string // canonical lowercase hex, the session creator
	PlayerO string
	XBits   uint16 // bit i set = X occupies cell i
	OBits   uint16
	Turn    int
	Status  int

	FetchedAt time.Time
}

// Finished reports whether the contract marked the session terminal.
func (g *Game) Finished() bool {
	if g == nil {
		return false
	}
	switch g.Status {
	case StatusXWon, StatusOWon, StatusDraw:
		return true
	}
	return false
}

// Started reports whether any move has been played yet.
func (g *Game) Started() bool {
	return g != nil && (g.XBits != 0 || g.OBits != 0)
}

// Invitation is a session where the local account is the invited second
// player and no move has been played. Produced by the invite scanner and
// replaced wholesale each scan cycle.
type Invitation struct {
	GameID uint64 `json:"gameId"`
	From   string `json:"from"` // creator address, canonical lowercase hex
}

// PendingTransaction tracks one write between submission and receipt. The
// correlation ID is client-generated and only used for log correlation; the
// chain knows nothing about it.
type PendingTransaction struct {
	CorrelationID string
	Entrypoint    string
	TxHash        string
	SubmittedAt   time.Time
}
