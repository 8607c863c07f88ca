package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/teamdeck/internal/app"
	"github.com/nhle/teamdeck/internal/credential"
	"github.com/nhle/teamdeck/internal/feed"
	"github.com/nhle/teamdeck/internal/identity"
	"github.com/nhle/teamdeck/internal/ingest/email"
	"github.com/nhle/teamdeck/internal/model"
	"github.com/nhle/teamdeck/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "teamdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = model.DefaultDatabasePath()
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idp := identity.NewProvider(s)
	engine := feed.NewEngine(
		s, idp,
		time.Duration(cfg.Feed.RefreshIntervalSec)*time.Second,
	)

	go engine.Run(ctx)
	idp.Resolve(ctx)

	if cfg.Mailwatch.Enabled {
		startMailwatch(ctx, cfg, s, idp)
	}

	program := tea.NewProgram(
		app.New(s, idp, engine),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	return nil
}

// startMailwatch launches the invite-mail watcher once identity has
// resolved, since invitations are recorded against the signed-in
// user's email address.
func startMailwatch(
	ctx context.Context,
	cfg *model.AppConfig,
	s store.Store,
	idp *identity.Provider,
) {
	password, err := credential.Get(credential.KeyMailboxPassword)
	if err != nil || password == "" {
		fmt.Fprintln(
			os.Stderr,
			"teamdeck: mailwatch enabled but no mailbox password stored; skipping",
		)
		return
	}

	client := email.NewIMAPClient(
		cfg.Mailwatch.Host,
		cfg.Mailwatch.Port,
		cfg.Mailwatch.Username,
		password,
		cfg.Mailwatch.TLS,
	)
	interval := time.Duration(cfg.Mailwatch.PollIntervalSec) * time.Second

	users := idp.Watch()
	go func() {
		var wctx context.Context
		var wcancel context.CancelFunc

		for {
			select {
			case <-ctx.Done():
				if wcancel != nil {
					wcancel()
				}
				return
			case user := <-users:
				if wcancel != nil {
					wcancel()
					wcancel = nil
				}
				if user == nil {
					continue
				}
				wctx, wcancel = context.WithCancel(ctx)
				watcher := email.NewWatcher(client, s, user.Email, interval)
				go watcher.Run(wctx)
			}
		}
	}()
}
