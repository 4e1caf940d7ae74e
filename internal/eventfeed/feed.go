// Package eventfeed maintains a best-effort websocket subscription to the
// contract's events and indexes GameCreated emissions, giving the session
// layer an indexed lookup before it resorts to brute-force id scanning.
// Everything here is optional: the client is correct without it.
package eventfeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/yacar87/stark-tictactoe/internal/felt"
	"github.com/yacar87/stark-tictactoe/internal/obslog"
)

// GameCreated is the decoded creation event: (sessionId, creator, opponent)
// as the contract's first three data fields.
type GameCreated struct {
	GameID   uint64
	Creator  string // canonical lowercase hex
	Opponent string
}

const indexCapacity = 64

type Feed struct {
	wsURL    string
	contract string // canonical lowercase hex

	maxReconnectAttempts int
	reconnectDelay       time.Duration

	mu     sync.RWMutex
	recent []GameCreated // ring, newest last

	onCreated func(GameCreated)

	rootCtx    context.Context
	rootCancel context.CancelFunc
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewFeed(wsURL, contractAddress string) *Feed {
	return &Feed{
		wsURL:                wsURL,
		contract:             felt.NormalizeAddress(contractAddress),
		maxReconnectAttempts: 5,
		reconnectDelay:       2 * time.Second,
		stopCh:               make(chan struct{}),
	}
}

// OnCreated registers a callback invoked for every indexed creation event.
func (f *Feed) OnCreated(fn func(GameCreated)) { f.onCreated = fn }

// Lookup returns the most recently seen session id created by creator for
// opponent. Implements the session manager's CreatedIndex.
func (f *Feed) Lookup(creator, opponent string) (uint64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i := len(f.recent) - 1; i >= 0; i-- {
		ev := f.recent[i]
		if ev.Creator == creator && ev.Opponent == opponent {
			return ev.GameID, true
		}
	}
	return 0, false
}

// Start launches the subscription loop. Connection failures back off and
// retry up to the attempt bound, then the feed goes quiet; the session
// layer falls back to scanning as if no feed were attached.
func (f *Feed) Start() {
	f.rootCtx, f.rootCancel = context.WithCancel(context.Background())
	f.wg.Add(1)
	go f.loop()
}

func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
		if f.rootCancel != nil {
			f.rootCancel()
		}
	})
	f.wg.Wait()
}

func (f *Feed) loop() {
	defer f.wg.Done()
	attempts := 0
	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		err := f.runOnce()
		if err == nil || f.rootCtx.Err() != nil {
			return
		}
		attempts++
		if attempts > f.maxReconnectAttempts {
			obslog.L().Warn("eventfeed_gave_up", zap.Int("attempts", attempts-1), zap.Error(err))
			return
		}
		obslog.L().Debug("eventfeed_reconnect", zap.Int("attempt", attempts), zap.Error(err))

		t := time.NewTimer(f.reconnectDelay)
		select {
		case <-f.stopCh:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (f *Feed) runOnce() error {
	dialCtx, cancel := context.WithTimeout(f.rootCtx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, f.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "shutdown")

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "starknet_subscribeEvents",
		"params":  map[string]any{"from_address": f.contract},
	}
	if err := wsjson.Write(f.rootCtx, conn, sub); err != nil {
		return err
	}
	obslog.L().Info("eventfeed_subscribed", zap.String("contract", f.contract))

	for {
		var msg struct {
			Method string `json:"method"`
			Params struct {
				Result struct {
					FromAddress string   `json:"from_address"`
					Keys        []string `json:"keys"`
					Data        []string `json:"data"`
				} `json:"result"`
			} `json:"params"`
			Result json.RawMessage `json:"result"` // subscription ack
		}
		if err := wsjson.Read(f.rootCtx, conn, &msg); err != nil {
			if f.rootCtx.Err() != nil {
				return nil
			}
			return err
		}
		if msg.Method == "" {
			continue // ack of the subscribe request
		}
		f.handleEvent(msg.Params.Result.FromAddress, msg.Params.Result.Data)
	}
}

// handleEvent indexes one raw event. Events from other contracts or with
// fewer than three data fields are ignored; a malformed session id skips
// the event rather than failing the feed.
func (f *Feed) handleEvent(fromAddress string, data []string) {
	if f.contract != "" && felt.NormalizeAddress(fromAddress) != f.contract {
		return
	}
	if len(data) < 3 {
		return
	}
	gid, ok := felt.NormalizeUint64(data[0])
	if !ok {
		return
	}
	ev := GameCreated{
		GameID:   gid,
		Creator:  felt.NormalizeAddress(data[1]),
		Opponent: felt.NormalizeAddress(data[2]),
	}

	f.mu.Lock()
	f.recent = append(f.recent, ev)
	if len(f.recent) > indexCapacity {
		f.recent = f.recent[len(f.recent)-indexCapacity:]
	}
	f.mu.Unlock()

	obslog.L().Debug("eventfeed_game_created",
		zap.Uint64("game_id", ev.GameID),
		zap.String("creator", ev.Creator),
		zap.String("opponent", ev.Opponent),
	)
	if f.onCreated != nil {
		f.onCreated(ev)
	}
}
