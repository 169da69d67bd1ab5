// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "linkpatrol/internal/command/core"
	_ "linkpatrol/internal/command/mod"

	"linkpatrol/internal/banlist"
	"linkpatrol/internal/command"
	"linkpatrol/internal/config"
	"linkpatrol/internal/discord"
	"linkpatrol/internal/gate"
	"linkpatrol/internal/invite"
	"linkpatrol/internal/linkcollector"
	"linkpatrol/internal/maintenance"
	"linkpatrol/internal/storage"
	"linkpatrol/pkg/jobmgr"
)

func main() {
	log.Println("[INFO] Starting linkpatrol bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		log.Fatal("[ERR] Failed to open storage: ", err)
	}
	defer store.Close()

	bans, err := banlist.New(store)
	if err != nil {
		log.Fatal("[ERR] Failed to load ban lists: ", err)
	}

	flag, err := maintenance.Load(store)
	if err != nil {
		log.Fatal("[ERR] Failed to load maintenance flag: ", err)
	}

	tasks := jobmgr.NewManager(ctx, func(msg string) {
		log.Println("[INFO] task:", msg)
	})

	deps := &command.Deps{
		Config:  cfg,
		Store:   store,
		Bans:    bans,
		Gate:    gate.New(bans, cfg.OperatorIDs),
		Links:   linkcollector.New(store, cfg.GroupID, cfg.WallCookie, cfg.LinkDomain),
		Invites: invite.New(store),
		Flag:    flag,
		Tasks:   tasks,
	}

	_ = tasks.Start("tempban-sweep", func(ctx context.Context) error {
		return banlist.RunSweeper(ctx, bans)
	})
	_ = tasks.Start("seenlink-cleanup", func(ctx context.Context) error {
		return linkcollector.RunCleanup(ctx, deps.Links)
	})

	errCh := make(chan error, 1)
	go func() {
		if err := discord.StartBot(ctx, cfg, deps); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	tasks.StopAll()
	log.Println("[INFO] Discord bot exited cleanly")
}
