package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yacar87/stark-tictactoe/internal/domain"
)

const (
	ttlSnapshot = 10 * time.Minute
	ttlKnown    = 7 * 24 * time.Hour
)

// Store caches session snapshots and remembers which session ids an account
// has touched, so "my games" does not require rescanning the contract. All
// of it is disposable cache; losing Redis only costs extra RPC reads.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// NewStoreFromURL dials Redis from a redis:// URL and verifies the
// connection.
func NewStoreFromURL(redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) keyGame(id uint64) string       { return "ttt:game:" + strconv.FormatUint(id, 10) }
func (s *Store) keyKnown(account string) string { return "ttt:games:" + strings.TrimSpace(account) }

// SaveSnapshot caches the latest decoded session state.
func (s *Store) SaveSnapshot(ctx context.Context, g *domain.Game) error {
	if s == nil || s.rdb == nil || g == nil {
		return nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keyGame(g.ID), raw, ttlSnapshot).Err()
}

// Snapshot returns the cached session state, or nil when absent.
func (s *Store) Snapshot(ctx context.Context, id uint64) (*domain.Game, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	raw, err := s.rdb.Get(ctx, s.keyGame(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g domain.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// RememberGame records that account participates in session id.
func (s *Store) RememberGame(ctx context.Context, account string, id uint64) error {
	if s == nil || s.rdb == nil || strings.TrimSpace(account) == "" {
		return nil
	}
	key := s.keyKnown(account)
	if err := s.rdb.SAdd(ctx, key, strconv.FormatUint(id, 10)).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, ttlKnown).Err()
}

// KnownGames lists the remembered session ids for account, ascending.
func (s *Store) KnownGames(ctx context.Context, account string) ([]uint64, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	members, err := s.rdb.SMembers(ctx, s.keyKnown(account)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseUint(m, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
