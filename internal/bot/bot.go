package bot

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/cache"
	"github.com/glotchimo/slashbridge/internal/database"
	"github.com/glotchimo/slashbridge/internal/handlers"
	"github.com/glotchimo/slashbridge/internal/models"
	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/glotchimo/slashbridge/internal/slash"
	"github.com/glotchimo/slashbridge/internal/utils"
	"github.com/graxinc/errutil"
)

const (
	SourceGateway = "gateway"
	SourceWebhook = "webhook"
)

type Bot struct {
	ctx    context.Context
	cancel context.CancelFunc
	conf   Config

	s *dg.Session
	d *database.Database
	c *cache.Cache
	l *slog.Logger

	registry *handlers.Registry
	catalog  *slash.Catalog
	exec     *slash.Executor
	sync     *slash.Synchronizer

	key      ed25519.PublicKey
	server   *http.Server
	removers []func()

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func NewBot(conf Config, registry *handlers.Registry) (*Bot, error) {
	b := Bot{
		conf:     conf,
		registry: registry,
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.ctx = ctx
	b.cancel = cancel

	if conf.Debug {
		b.l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		b.l = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}

	if conf.PublicKey != "" {
		key, err := hex.DecodeString(conf.PublicKey)
		if err != nil || len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid public key: expected %d hex-encoded bytes", ed25519.PublicKeySize)
		}
		b.key = key
	}

	if conf.DatabaseURL != "" {
		database, err := database.NewDatabase(b.l, conf.DatabaseURL, conf.MigrationsURL)
		if err != nil {
			return nil, errutil.With(err)
		}
		b.d = database
	}

	if conf.CacheURL != "" {
		cache, err := cache.NewCache(conf.CacheURL, b.l)
		if err != nil {
			return nil, errutil.With(err)
		}
		b.c = cache
	} else {
		b.c = cache.NewMemoryCache(b.l)
	}

	session, err := dg.New("Bot " + conf.Token)
	if err != nil {
		return nil, errutil.With(err)
	}
	b.s = session

	b.s.Identify.Intents = dg.Intent(conf.Intents)
	b.s.ShardID = conf.ShardID
	b.s.ShardCount = conf.ShardCount

	b.catalog = slash.NewCatalog(registry, b.l)
	b.exec = slash.NewExecutor(b.catalog, b.s, b.l, slash.WithUnknownCommandResponse(conf.UnknownCommandResponse))

	var recorder slash.Recorder
	if b.d != nil {
		recorder = b.d
	}
	b.sync = slash.NewSynchronizer(b.catalog, NewRemote(b.s, conf.ApplicationID, b.l), recorder, b.l)

	snap := b.catalog.Rebuild()
	b.l.Info("commands staged", "registered", registry.Len(), "slash", len(snap.Commands()), "staged", len(snap.Staged()))

	return &b, nil
}

// Open connects to the gateway and starts taking interactions from it.
func (b *Bot) Open() error {
	b.removers = append(b.removers,
		b.s.AddHandler(func(s *dg.Session, r *dg.Ready) {
			b.l.Info("bot connected to gateway",
				"bot", fmt.Sprintf("%s#%s", r.User.Username, r.User.Discriminator),
				"guilds", len(r.Guilds),
				"version", utils.GetCommit(),
				"shard_id", b.conf.ShardID,
				"shard_count", b.conf.ShardCount,
			)
		}),
		b.s.AddHandler(b.onEvent),
	)

	if err := b.s.Open(); err != nil {
		return errutil.With(err)
	}

	return nil
}

// Serve runs the webhook endpoint until Close is called.
func (b *Bot) Serve() error {
	if b.key == nil {
		return errors.New("webhook mode requires a public key")
	}

	b.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", b.conf.ServerHost, b.conf.ServerPort),
		Handler:           b.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	b.l.Info("serving interactions", "addr", b.server.Addr, "path", b.conf.EndpointPath)
	if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errutil.With(err)
	}

	return nil
}

// Dispatch claims an interaction and runs it through the executor. It
// reports false when another listener already claimed it.
func (b *Bot) Dispatch(ctx context.Context, i *dg.Interaction, source string, respond response.RespondFunc) bool {
	if !b.track() {
		b.l.Debug("shutting down, interaction dropped", "interaction", i.ID, "source", source)
		return false
	}
	defer b.wg.Done()

	claimed, err := b.c.Claim(ctx, i.ID, response.Lifetime)
	if err != nil {
		b.l.Warn("error claiming interaction", "error", err, "interaction", i.ID)
		return false
	}
	if !claimed {
		b.l.Debug("interaction already claimed", "interaction", i.ID, "source", source)
		return false
	}

	if b.d != nil {
		if err := b.d.LogInteraction(ctx, models.Interaction{Interaction: i, Source: source}); err != nil {
			b.l.Warn("error storing interaction", "error", err)
		}
	}

	b.exec.Dispatch(ctx, i, respond)
	return true
}

// track registers an in-flight dispatch unless the bot is shutting down.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closing {
		return false
	}
	b.wg.Add(1)
	return true
}

// drain stops new dispatches and waits for the running ones.
func (b *Bot) drain() {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bot) Sync(ctx context.Context, opts slash.SyncOptions) error {
	return b.sync.Sync(ctx, opts)
}

func (b *Bot) SyncGlobal(ctx context.Context, deleteCommands bool) error {
	return b.sync.SyncGlobal(ctx, deleteCommands)
}

func (b *Bot) SyncGuild(ctx context.Context, guildID string, deleteCommands bool) error {
	return b.sync.SyncGuild(ctx, guildID, deleteCommands)
}

// ScopeStatus compares what a scope would receive now with its last
// recorded push.
type ScopeStatus struct {
	Scope   string
	Hash    string
	Pushes  int
	Last    *models.CommandSync
	Current bool
}

// SyncStatus reports, per scope, whether the last recorded push matches the
// registered commands. Scopes are returned global first, then by id.
func (b *Bot) SyncStatus(ctx context.Context) ([]ScopeStatus, error) {
	if b.d == nil {
		return nil, errors.New("sync status requires a database")
	}

	hashes := b.sync.Hashes()
	scopes := make([]string, 0, len(hashes))
	for scope := range hashes {
		if scope != models.GlobalScope {
			scopes = append(scopes, scope)
		}
	}
	sort.Strings(scopes)
	scopes = append([]string{models.GlobalScope}, scopes...)

	out := make([]ScopeStatus, 0, len(scopes))
	for _, scope := range scopes {
		last, err := b.d.LastSync(ctx, scope)
		if err != nil {
			return nil, err
		}

		pushes, err := b.d.Count(ctx, models.TableCommandSyncs, sq.Eq{"scope": scope})
		if err != nil {
			return nil, err
		}

		out = append(out, ScopeStatus{
			Scope:   scope,
			Hash:    hashes[scope],
			Pushes:  pushes,
			Last:    last,
			Current: last != nil && last.Error == "" && last.Hash == hashes[scope],
		})
	}

	return out, nil
}

// Prune drops interaction logs older than age.
func (b *Bot) Prune(ctx context.Context, age time.Duration) error {
	if b.d == nil {
		return nil
	}

	n, err := b.d.Prune(ctx, models.TableInteractions, time.Now().Add(-age))
	if err != nil {
		return err
	}

	kept, err := b.d.Count(ctx, models.TableInteractions, sq.Eq{})
	if err != nil {
		return err
	}

	b.l.Info("pruned interactions", "deleted", n, "kept", kept)
	return nil
}

func (b *Bot) Logger() *slog.Logger { return b.l }

func (b *Bot) Close() {
	for _, remove := range b.removers {
		remove()
	}

	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.server.Shutdown(ctx); err != nil {
			b.l.Warn("error shutting down server", "error", err)
		}
	}

	b.drain()
	b.cancel()

	if err := b.s.Close(); err != nil {
		b.l.Warn("error closing session", "error", err)
	}
	if b.c != nil {
		b.c.Close()
	}
	if b.d != nil {
		b.d.Close()
	}
}
