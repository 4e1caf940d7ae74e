package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/yacar87/stark-tictactoe/internal/domain"
)

// Repository archives finished matches to Postgres. Attachment is optional;
// the client is fully functional without a database.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a terminal session. The session id is the natural key;
// re-archiving the same match just refreshes the row.
func (r *Repository) SaveResult(ctx context.Context, g *domain.Game) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}

	winner := ""
	switch g.Status {
	case domain.StatusXWon:
		winner = g.PlayerX
	case domain.StatusOWon:
		winner = g.PlayerO
	}

	q := `INSERT INTO ttt_matches (
        game_id, player_x, player_o, x_bits, o_bits, status, winner, finished_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      ON CONFLICT (game_id) DO UPDATE SET
        x_bits = EXCLUDED.x_bits,
        o_bits = EXCLUDED.o_bits,
        status = EXCLUDED.status,
        winner = EXCLUDED.winner,
        finished_at = EXCLUDED.finished_at`

	_, err := r.db.ExecContext(ctx, q,
		int64(g.ID), g.PlayerX, g.PlayerO,
		int(g.XBits), int(g.OBits), g.Status, winner, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save match result: %w", err)
	}
	return nil
}
