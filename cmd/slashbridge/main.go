package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/glotchimo/slashbridge/internal/bot"
	"github.com/glotchimo/slashbridge/internal/handlers"
	"github.com/glotchimo/slashbridge/internal/handlers/commands"
	"github.com/glotchimo/slashbridge/internal/slash"
	"github.com/joho/godotenv"
)

var VERSION = "dev"

type Conf struct {
	bot.Config

	AdminGuildIDs []string          `env:"ADMIN_GUILD_IDS" envSeparator:","`
	AdminRoles    map[string]string `env:"ADMIN_ROLES"`
	RetainFor     time.Duration     `env:"INTERACTION_RETENTION" envDefault:"720h"`
}

func main() {
	syncMode := flag.String("sync", "", "sync commands and exit: all, global or guild")
	guildID := flag.String("guild", "", "guild to sync with -sync=guild")
	keep := flag.Bool("keep", false, "keep remote commands missing locally")
	strict := flag.Bool("strict", false, "abort -sync=all on the first guild error")
	serve := flag.Bool("serve", false, "receive interactions over HTTP instead of the gateway")
	status := flag.Bool("status", false, "report whether each scope matches its last recorded sync and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	var conf Conf
	if err := env.Parse(&conf); err != nil {
		panic(err)
	}

	registry := handlers.NewRegistry()
	if err := registry.Register(
		commands.NewPing(),
		commands.NewInfo(registry),
		commands.NewConfig(conf.AdminGuildIDs, conf.AdminRoles),
	); err != nil {
		panic(err)
	}

	b, err := bot.NewBot(conf.Config, registry)
	if err != nil {
		panic(err)
	}
	defer b.Close()

	l := b.Logger().With("version", VERSION)
	ctx := context.Background()

	if *syncMode != "" {
		if err := runSync(ctx, b, *syncMode, *guildID, *keep, *strict); err != nil {
			l.Error("sync failed", "mode", *syncMode, "error", err)
			b.Close()
			os.Exit(1)
		}
		l.Info("sync complete", "mode", *syncMode)
		return
	}

	if *status {
		scopes, err := b.SyncStatus(ctx)
		if err != nil {
			l.Error("sync status failed", "error", err)
			b.Close()
			os.Exit(1)
		}
		for _, s := range scopes {
			attrs := []any{"scope", s.Scope, "hash", s.Hash, "pushes", s.Pushes, "current", s.Current}
			if s.Last != nil {
				attrs = append(attrs, "last_sync", s.Last.Created, "last_hash", s.Last.Hash)
			}
			l.Info("scope status", attrs...)
		}
		return
	}

	if err := b.Prune(ctx, conf.RetainFor); err != nil {
		l.Warn("error pruning interactions", "error", err)
	}

	if *serve {
		go func() {
			if err := b.Serve(); err != nil {
				l.Error("webhook server stopped", "error", err)
			}
		}()
	} else if err := b.Open(); err != nil {
		panic(err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
}

func runSync(ctx context.Context, b *bot.Bot, mode, guildID string, keep, strict bool) error {
	switch mode {
	case "all":
		opts := slash.DefaultSyncOptions()
		opts.DeleteCommands = !keep
		opts.SkipGuildErrors = !strict
		return b.Sync(ctx, opts)
	case "global":
		return b.SyncGlobal(ctx, !keep)
	case "guild":
		if guildID == "" {
			return errors.New("-sync=guild requires -guild")
		}
		return b.SyncGuild(ctx, guildID, !keep)
	}
	return fmt.Errorf("unknown sync mode %q", mode)
}
