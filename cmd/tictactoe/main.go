package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yacar87/stark-tictactoe/internal/board"
	"github.com/yacar87/stark-tictactoe/internal/chains"
	appcfg "github.com/yacar87/stark-tictactoe/internal/config"
	"github.com/yacar87/stark-tictactoe/internal/domain"
	"github.com/yacar87/stark-tictactoe/internal/eventfeed"
	"github.com/yacar87/stark-tictactoe/internal/felt"
	"github.com/yacar87/stark-tictactoe/internal/gamesync"
	"github.com/yacar87/stark-tictactoe/internal/invite"
	"github.com/yacar87/stark-tictactoe/internal/obslog"
	"github.com/yacar87/stark-tictactoe/internal/session"
	"github.com/yacar87/stark-tictactoe/internal/signer"
	"github.com/yacar87/stark-tictactoe/internal/starkrpc"
	"github.com/yacar87/stark-tictactoe/pkg/gamedto"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	catalog, err := chains.New(cfg.ChainsFile)
	if err != nil {
		log.Fatalf("chains catalog error: %v", err)
	}
	rpcURL, wsURL := cfg.RPCURL, cfg.WSURL
	if rpcURL == "" {
		p, ok := catalog.Profile(cfg.Network)
		if !ok {
			log.Fatalf("unknown network %q (known: %v)", cfg.Network, catalog.Names())
		}
		rpcURL = p.RPCURL
		if wsURL == "" {
			wsURL = p.WSURL
		}
	}

	chain := starkrpc.NewClient(rpcURL)

	// One signer backend, chosen once. The custodial wallet wins when both
	// are configured.
	var sg signer.Signer
	switch {
	case cfg.HasWallet():
		sg = signer.NewWalletSigner(cfg.WalletAPIURL, cfg.WalletAPIKey, cfg.AccountAddress)
	case cfg.HasRelay():
		sg = signer.NewRelaySigner(cfg.RelayURL, cfg.AccountAddress)
	}

	mgr := session.NewManager(chain, sg, cfg.ContractAddress,
		session.WithFallbackScanMax(cfg.FallbackScanMax),
		session.WithStrongAuth(cfg.RequireStrongAuth),
	)

	var store *session.Store
	if cfg.RedisURL != "" {
		store, err = session.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			obslog.L().Warn("redis_unavailable", zap.Error(err))
		} else {
			mgr.AttachStore(store)
			defer store.Close()
		}
	}
	if cfg.DatabaseURL != "" {
		repo, err := session.NewRepository(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Warn("database_unavailable", zap.Error(err))
		} else {
			mgr.AttachRepository(repo)
			defer repo.Close()
		}
	}

	var feed *eventfeed.Feed
	if wsURL != "" && cfg.ContractAddress != "" {
		feed = eventfeed.NewFeed(wsURL, cfg.ContractAddress)
		feed.Start()
		defer feed.Stop()
		mgr.AttachCreatedIndex(feed)
	}

	account := func() string { return accountAddress(cfg, sg) }

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	switch args[0] {
	case "create":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		gid, err := mgr.CreateGame(ctx, args[1])
		if err != nil {
			log.Fatalf("create: %v", err)
		}
		fmt.Printf("game %d created, waiting for %s to join\n", gid, felt.NormalizeAddress(args[1]))

	case "move":
		gid, cell := parseMoveArgs(args[1:])
		hash, err := mgr.PlayMove(ctx, gid, cell)
		if err != nil {
			log.Fatalf("move: %v", err)
		}
		fmt.Printf("move submitted: %s\n", hash)

	case "show":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		gid, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			log.Fatalf("bad game id %q", args[1])
		}
		g, err := mgr.GetGame(ctx, gid)
		if err != nil {
			log.Fatalf("show: %v", err)
		}
		printGame(g, account())

	case "watch":
		if len(args) == 2 {
			gid, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				log.Fatalf("bad game id %q", args[1])
			}
			mgr.LoadGame(gid)
		}
		watch(cfg, mgr, account)

	case "invites":
		sc := invite.NewScanner(mgr, account, cfg.InviteScanMax, cfg.InviteInterval, nil)
		invites := scanOnce(ctx, sc)
		printJSON(gamedto.FromInvitations(invites))

	case "games":
		if store == nil {
			log.Fatalf("games: REDIS_URL not configured")
		}
		ids, err := store.KnownGames(ctx, felt.NormalizeAddress(account()))
		if err != nil {
			log.Fatalf("games: %v", err)
		}
		printJSON(ids)

	default:
		usage()
		os.Exit(2)
	}
}

// watch follows the loaded session and the invitation feed until
// interrupted.
func watch(cfg *appcfg.AppConfig, mgr *session.Manager, account func() string) {
	sync := gamesync.NewSynchronizer(mgr, account, cfg.SyncInterval,
		gamesync.OnUpdate(func(st gamesync.State) {
			fmt.Printf("\n%s\nrole=%s turn=%s my_turn=%v status=%s\n",
				st.Board.Render(), st.Role, turnLabel(st.Turn), st.MyTurn, statusLabel(st.Status))
		}),
		gamesync.OnFinished(func(g *domain.Game) {
			mgr.Archive(context.Background(), g)
		}),
	)
	scanner := invite.NewScanner(mgr, account, cfg.InviteScanMax, cfg.InviteInterval, func(in []domain.Invitation) {
		for _, inv := range in {
			fmt.Printf("invitation: game %d from %s\n", inv.GameID, inv.From)
		}
	})

	sync.Start()
	scanner.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	scanner.Stop()
	sync.Stop()
}

func scanOnce(ctx context.Context, sc *invite.Scanner) []domain.Invitation {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return sc.ScanNow(ctx)
}

func accountAddress(cfg *appcfg.AppConfig, sg signer.Signer) string {
	if sg != nil && sg.Address() != "" {
		return sg.Address()
	}
	return cfg.AccountAddress
}

func parseMoveArgs(args []string) (uint64, int) {
	if len(args) != 2 {
		usage()
		os.Exit(2)
	}
	gid, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		log.Fatalf("bad game id %q", args[0])
	}
	cell, err := strconv.Atoi(args[1])
	if err != nil || cell < 0 || cell > 8 {
		log.Fatalf("bad cell %q (0..8)", args[1])
	}
	return gid, cell
}

func printGame(g *domain.Game, local string) {
	b := board.Decode(g.XBits, g.OBits)
	role := board.RoleFor(local, g)
	fmt.Printf("game %d\n%s\nX=%s O=%s\nrole=%s turn=%s my_turn=%v status=%s\n",
		g.ID, b.Render(), g.PlayerX, g.PlayerO,
		role, turnLabel(g.Turn), board.IsTurn(role, g.Turn), statusLabel(g.Status))
}

func printJSON(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	fmt.Println(string(raw))
}

func turnLabel(turn int) string {
	if turn == domain.TurnO {
		return "O"
	}
	return "X"
}

func statusLabel(status int) string {
	switch status {
	case domain.StatusXWon:
		return "X won"
	case domain.StatusOWon:
		return "O won"
	case domain.StatusDraw:
		return "draw"
	default:
		return "ongoing"
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tictactoe <command> [args]

  create <opponent-address>   create a game against an opponent
  move <game-id> <cell>       play cell 0..8 (left-to-right, top-to-bottom)
  show <game-id>              print the current board once
  watch [game-id]             follow a game and incoming invitations
  invites                     scan for pending invitations once
  games                       list known game ids (requires REDIS_URL)
`)
}
