// Package session owns the on-chain game lifecycle: creating sessions,
// submitting moves, reading session state and tracking which session the
// client currently follows.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yacar87/stark-tictactoe/internal/domain"
	"github.com/yacar87/stark-tictactoe/internal/felt"
	"github.com/yacar87/stark-tictactoe/internal/obslog"
	"github.com/yacar87/stark-tictactoe/internal/signer"
	"github.com/yacar87/stark-tictactoe/internal/starkrpc"
)

// ChainClient is the slice of the RPC client the manager needs. Narrowed to
// an interface so tests can run against a fake chain.
type ChainClient interface {
	Call(ctx context.Context, call starkrpc.FunctionCall) ([]string, error)
	WaitForTransaction(ctx context.Context, hash string) error
	GetTransactionReceipt(ctx context.Context, hash string) (*starkrpc.Receipt, error)
}

// CreatedIndex answers "which session did (creator, opponent) most recently
// create" from an indexed event source, when one is attached. It sits
// between receipt parsing and the brute-force fallback scan.
type CreatedIndex interface {
	Lookup(creator, opponent string) (uint64, bool)
}

var (
	// ErrNoContract short-circuits every operation when the deployment
	// address is not configured.
	ErrNoContract = errors.New("contract address not configured")
	ErrNoSigner   = errors.New("no signer configured")

	// ErrCreateUnresolved means the creation transaction was submitted but
	// no session id could be correlated. The session may still exist
	// on-chain; callers must not treat this as proof of failure.
	ErrCreateUnresolved = errors.New("created game could not be correlated to a session id")
)

type Manager struct {
	chain    ChainClient
	sg       signer.Signer
	contract string // canonical lowercase hex, or "" when unconfigured

	scanMax    int
	strongAuth bool

	store *Store
	repo  *Repository
	idx   CreatedIndex

	mu        sync.Mutex
	currentID uint64
	loaded    bool
}

type Option func(*Manager)

// WithFallbackScanMax bounds the brute-force id scan used when event
// correlation fails.
func WithFallbackScanMax(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.scanMax = n
		}
	}
}

// WithStrongAuth controls whether submissions request per-transaction user
// confirmation from the signer backend.
func WithStrongAuth(b bool) Option {
	return func(m *Manager) { m.strongAuth = b }
}

func NewManager(chain ChainClient, sg signer.Signer, contractAddress string, opts ...Option) *Manager {
	m := &Manager{
		chain:      chain,
		sg:         sg,
		scanMax:    64,
		strongAuth: true,
	}
	if strings.TrimSpace(contractAddress) != "" {
		m.contract = felt.NormalizeAddress(contractAddress)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AttachStore wires an optional Redis snapshot/known-id store.
func (m *Manager) AttachStore(s *Store) {
	if m != nil {
		m.store = s
	}
}

// AttachRepository wires an optional Postgres archive for finished matches.
func (m *Manager) AttachRepository(r *Repository) {
	if m != nil {
		m.repo = r
	}
}

// AttachCreatedIndex wires an optional indexed event source consulted
// before the fallback scan.
func (m *Manager) AttachCreatedIndex(idx CreatedIndex) {
	if m != nil {
		m.idx = idx
	}
}

// LoadGame sets the currently-followed session id. Pure local state; the
// synchronizer picks it up on its next cycle.
func (m *Manager) LoadGame(gameID uint64) {
	m.mu.Lock()
	m.currentID = gameID
	m.loaded = true
	m.mu.Unlock()
	obslog.L().Info("game_loaded", zap.Uint64("game_id", gameID))
}

// CurrentGameID returns the followed session id, if any.
func (m *Manager) CurrentGameID() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID, m.loaded
}

// CreateGame submits a create_game call for the given opponent and resolves
// the contract-assigned session id. Resolution order: receipt events, then
// an attached created-index, then the bounded fallback scan (largest
// matching id wins). On success the new session becomes the followed one.
func (m *Manager) CreateGame(ctx context.Context, opponentAddress string) (uint64, error) {
	if m.contract == "" {
		return 0, ErrNoContract
	}
	if m.sg == nil {
		return 0, ErrNoSigner
	}

	expectedX := felt.NormalizeAddress(m.sg.Address())
	expectedO := felt.NormalizeAddress(opponentAddress)

	pending := domain.PendingTransaction{
		CorrelationID: uuid.NewString(),
		Entrypoint:    "create_game",
		SubmittedAt:   time.Now(),
	}
	log := obslog.L().With(zap.String("corr_id", pending.CorrelationID), zap.String("opponent", expectedO))

	call := signer.Call{
		ContractAddress: m.contract,
		Entrypoint:      "create_game",
		Calldata:        []string{expectedO},
	}
	hash, err := m.sg.Execute(ctx, []signer.Call{call}, m.strongAuth)
	if err != nil {
		log.Warn("create_game_submit_failed", zap.Error(err))
		return 0, fmt.Errorf("submit create_game: %w", err)
	}
	pending.TxHash = hash
	log = log.With(zap.String("tx", hash))
	log.Info("create_game_submitted")

	// An unconfirmed transaction may still be included; keep going.
	if err := m.chain.WaitForTransaction(ctx, hash); err != nil {
		log.Debug("create_game_wait_unconfirmed", zap.Error(err))
	}

	if gid, ok := m.resolveFromReceipt(ctx, hash, expectedX, expectedO, log); ok {
		m.adopt(ctx, gid)
		return gid, nil
	}

	if m.idx != nil {
		if gid, ok := m.idx.Lookup(expectedX, expectedO); ok {
			log.Info("create_game_resolved_by_index", zap.Uint64("game_id", gid))
			m.adopt(ctx, gid)
			return gid, nil
		}
	}

	if gid, ok := m.fallbackScan(ctx, expectedX, expectedO, log); ok {
		m.adopt(ctx, gid)
		return gid, nil
	}

	log.Warn("create_game_unresolved")
	return 0, ErrCreateUnresolved
}

func (m *Manager) resolveFromReceipt(ctx context.Context, hash, expectedX, expectedO string, log *zap.Logger) (uint64, bool) {
	receipt, err := m.chain.GetTransactionReceipt(ctx, hash)
	if err != nil {
		log.Debug("create_game_receipt_failed", zap.Error(err))
		return 0, false
	}
	for _, ev := range receipt.Events {
		if len(ev.Data) < 3 {
			continue
		}
		x := felt.NormalizeAddress(ev.Data[1])
		o := felt.NormalizeAddress(ev.Data[2])
		if x != expectedX || o != expectedO {
			continue
		}
		gid, ok := felt.NormalizeUint64(ev.Data[0])
		if !ok {
			continue
		}
		log.Info("create_game_resolved_by_event", zap.Uint64("game_id", gid))
		return gid, true
	}
	return 0, false
}

// fallbackScan brute-forces recent session ids when event correlation gave
// nothing. Best effort only: reads past the contract's current count fail
// with unknown-session and are skipped. Among matches the largest id is the
// most recently created, so it wins.
func (m *Manager) fallbackScan(ctx context.Context, expectedX, expectedO string, log *zap.Logger) (uint64, bool) {
	var (
		latest uint64
		found  bool
	)
	for gid := uint64(0); gid < uint64(m.scanMax); gid++ {
		g, err := m.GetGame(ctx, gid)
		if err != nil || g == nil {
			continue
		}
		if g.PlayerX == expectedX && g.PlayerO == expectedO {
			latest = gid
			found = true
		}
	}
	if found {
		log.Info("create_game_resolved_by_scan", zap.Uint64("game_id", latest))
	}
	return latest, found
}

func (m *Manager) adopt(ctx context.Context, gid uint64) {
	m.LoadGame(gid)
	if m.store != nil && m.sg != nil {
		if err := m.store.RememberGame(ctx, felt.NormalizeAddress(m.sg.Address()), gid); err != nil {
			obslog.L().Debug("store_remember_failed", zap.Uint64("game_id", gid), zap.Error(err))
		}
	}
}

// PlayMove submits play_move(gameID, cell). The contract alone judges
// legality; a confirmation failure does not invalidate the returned hash,
// the caller resynchronizes from GetGame either way.
func (m *Manager) PlayMove(ctx context.Context, gameID uint64, cell int) (string, error) {
	if m.contract == "" {
		return "", ErrNoContract
	}
	if m.sg == nil {
		return "", ErrNoSigner
	}

	call := signer.Call{
		ContractAddress: m.contract,
		Entrypoint:      "play_move",
		Calldata: []string{
			fmt.Sprintf("0x%x", gameID),
			fmt.Sprintf("0x%x", cell),
		},
	}
	hash, err := m.sg.Execute(ctx, []signer.Call{call}, m.strongAuth)
	if err != nil {
		obslog.L().Warn("play_move_submit_failed", zap.Uint64("game_id", gameID), zap.Int("cell", cell), zap.Error(err))
		return "", fmt.Errorf("submit play_move: %w", err)
	}
	obslog.L().Info("play_move_submitted", zap.Uint64("game_id", gameID), zap.Int("cell", cell), zap.String("tx", hash))

	if err := m.chain.WaitForTransaction(ctx, hash); err != nil {
		obslog.L().Debug("play_move_wait_unconfirmed", zap.String("tx", hash), zap.Error(err))
	}
	return hash, nil
}

// GetGame reads one session. Unknown ids surface as an error the caller may
// classify with starkrpc.IsContractError; scan paths swallow them.
func (m *Manager) GetGame(ctx context.Context, gameID uint64) (*domain.Game, error) {
	if m.contract == "" {
		return nil, ErrNoContract
	}
	data, err := m.chain.Call(ctx, starkrpc.FunctionCall{
		ContractAddress:    m.contract,
		EntryPointSelector: starkrpc.Selector("get_game"),
		Calldata:           []string{fmt.Sprintf("0x%x", gameID)},
	})
	if err != nil {
		return nil, err
	}
	g, err := parseGame(gameID, data)
	if err != nil {
		return nil, err
	}
	if m.store != nil {
		if serr := m.store.SaveSnapshot(ctx, g); serr != nil {
			obslog.L().Debug("store_snapshot_failed", zap.Uint64("game_id", gameID), zap.Error(serr))
		}
	}
	return g, nil
}

// Archive records a terminal session through the optional repository. A nil
// repository or a non-terminal session is a no-op.
func (m *Manager) Archive(ctx context.Context, g *domain.Game) {
	if m == nil || m.repo == nil || !g.Finished() {
		return
	}
	if err := m.repo.SaveResult(ctx, g); err != nil {
		obslog.L().Warn("archive_failed", zap.Uint64("game_id", g.ID), zap.Error(err))
		return
	}
	obslog.L().Info("match_archived", zap.Uint64("game_id", g.ID), zap.Int("status", g.Status))
}

// parseGame decodes the get_game tuple:
// (player_x, player_o, x_bits, o_bits, turn, status).
func parseGame(gameID uint64, data []string) (*domain.Game, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("get_game returned %d fields, want 6", len(data))
	}
	return &domain.Game{
		ID:        gameID,
		PlayerX:   felt.NormalizeAddress(data[0]),
		PlayerO:   felt.NormalizeAddress(data[1]),
		XBits:     uint16(felt.NormalizeInt(data[2])),
		OBits:     uint16(felt.NormalizeInt(data[3])),
		Turn:      felt.NormalizeInt(data[4]),
		Status:    felt.NormalizeInt(data[5]),
		FetchedAt: time.Now(),
	}, nil
}
