package slash

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/models"
	"github.com/glotchimo/slashbridge/internal/utils"
)

var (
	ErrGuildSync      = errors.New("guild sync failed")
	ErrPermissionSync = errors.New("permission sync failed")
	ErrNoGuild        = errors.New("guild id is required")
)

// Remote is the platform command registry.
type Remote interface {
	ReplaceGlobalCommands(ctx context.Context, cmds []*dg.ApplicationCommand, deleteMissing bool) error
	ReplaceGuildCommands(ctx context.Context, guildID string, cmds []*dg.ApplicationCommand, deleteMissing bool) error
	// ReplacePermissions sets overwrites per command name within a guild.
	ReplacePermissions(ctx context.Context, guildID string, perms map[string][]*dg.ApplicationCommandPermissions) error
}

// Recorder keeps a history of scope pushes.
type Recorder interface {
	RecordSync(ctx context.Context, s models.CommandSync) error
}

type SyncOptions struct {
	DeleteCommands  bool
	SyncGuilds      bool
	SkipGuildErrors bool
	SyncPermissions bool
}

func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		DeleteCommands:  true,
		SyncGuilds:      true,
		SkipGuildErrors: true,
		SyncPermissions: true,
	}
}

// Synchronizer pushes the catalog to the remote registry. Guilds are synced
// one after another.
type Synchronizer struct {
	catalog  *Catalog
	remote   Remote
	recorder Recorder
	l        *slog.Logger
}

func NewSynchronizer(catalog *Catalog, remote Remote, recorder Recorder, l *slog.Logger) *Synchronizer {
	return &Synchronizer{catalog: catalog, remote: remote, recorder: recorder, l: l}
}

func (s *Synchronizer) Sync(ctx context.Context, opts SyncOptions) error {
	snap := s.catalog.Rebuild()
	guildIDs := snap.GuildIDs()

	if err := s.push(ctx, "", snap.Global(), opts.DeleteCommands); err != nil {
		return fmt.Errorf("sync global commands: %w", err)
	}
	s.l.Debug("synced global commands")

	if opts.SyncGuilds {
		for _, guildID := range guildIDs {
			if err := s.push(ctx, guildID, snap.Guild(guildID), opts.DeleteCommands); err != nil {
				if !opts.SkipGuildErrors {
					return fmt.Errorf("%w: guild %s: %w", ErrGuildSync, guildID, err)
				}

				s.l.Warn("error during guild sync, access to the guild may have been lost", "failure", utils.Failure{
					Type:    utils.ErrGuildSync,
					Message: "guild command push rejected",
					Data:    map[string]any{"guild": guildID, "error": err},
				})
				continue
			}
			s.l.Debug("synced guild commands", "guild", guildID)
		}
	}

	if opts.SyncPermissions {
		if err := s.syncPermissions(ctx, snap, guildIDs); err != nil {
			s.l.Error("error syncing command permissions", "failure", utils.Failure{
				Type:    utils.ErrPermissionSync,
				Message: "permission push rejected",
				Data:    map[string]any{"error": err},
			})
		}
	}

	return nil
}

func (s *Synchronizer) SyncGlobal(ctx context.Context, deleteCommands bool) error {
	snap := s.catalog.Rebuild()
	return s.push(ctx, "", snap.Global(), deleteCommands)
}

// SyncGuild pushes a single guild. An empty guildID is rejected rather than
// treated as the global scope.
func (s *Synchronizer) SyncGuild(ctx context.Context, guildID string, deleteCommands bool) error {
	if guildID == "" {
		return ErrNoGuild
	}

	snap := s.catalog.Rebuild()
	return s.push(ctx, guildID, snap.Guild(guildID), deleteCommands)
}

// push sends one scope. An empty guildID means the global scope.
func (s *Synchronizer) push(ctx context.Context, guildID string, cmds []Command, deleteMissing bool) error {
	payloads := s.payloads(guildID, cmds, true)

	start := time.Now()

	var err error
	if guildID == "" {
		err = s.remote.ReplaceGlobalCommands(ctx, payloads, deleteMissing)
	} else {
		err = s.remote.ReplaceGuildCommands(ctx, guildID, payloads, deleteMissing)
	}

	s.record(ctx, guildID, payloads, time.Since(start), err)
	return err
}

// Hashes fingerprints what each scope would receive from the registry as it
// is now, keyed by models.Scope. Nothing is pushed.
func (s *Synchronizer) Hashes() map[string]string {
	snap := NewSnapshot(Collect(s.catalog.registry.All()), nil)

	out := map[string]string{
		models.GlobalScope: Hash(s.payloads("", snap.Global(), false)),
	}
	for _, guildID := range snap.GuildIDs() {
		out[models.Scope(guildID)] = Hash(s.payloads(guildID, snap.Guild(guildID), false))
	}
	return out
}

func (s *Synchronizer) payloads(guildID string, cmds []Command, warn bool) []*dg.ApplicationCommand {
	out := make([]*dg.ApplicationCommand, 0, len(cmds))
	for _, c := range cmds {
		result := utils.ValidateCommand(c.Slash().Payload().ApplicationCommand())
		if warn && result.WasModified {
			s.l.Warn("command was modified during validation", "command", c.Name(), "errors", result.Errors, "guild", guildID)
		}
		out = append(out, result.Command)
	}
	return out
}

func (s *Synchronizer) syncPermissions(ctx context.Context, snap *Snapshot, guildIDs []string) error {
	var scopes []string
	scopes = append(scopes, guildIDs...)
	for _, c := range snap.Staged() {
		scopes = append(scopes, c.Slash().PermissionGuilds()...)
	}

	var errs []error
	for _, guildID := range uniq(scopes) {
		perms := make(map[string][]*dg.ApplicationCommandPermissions)
		for _, c := range snap.Staged() {
			d := c.Slash()
			if p := d.Permissions(guildID); len(p) > 0 && (d.Global() || d.InGuild(guildID)) {
				perms[d.Name()] = p
			}
		}
		if len(perms) == 0 {
			continue
		}

		if err := s.remote.ReplacePermissions(ctx, guildID, perms); err != nil {
			errs = append(errs, fmt.Errorf("%w: guild %s: %w", ErrPermissionSync, guildID, err))
			continue
		}
		s.l.Debug("synced command permissions", "guild", guildID, "commands", len(perms))
	}

	return errors.Join(errs...)
}

func (s *Synchronizer) record(ctx context.Context, guildID string, payloads []*dg.ApplicationCommand, took time.Duration, err error) {
	if s.recorder == nil {
		return
	}

	rec := models.CommandSync{
		Scope:    models.Scope(guildID),
		Hash:     Hash(payloads),
		Count:    len(payloads),
		Duration: took,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	if rerr := s.recorder.RecordSync(ctx, rec); rerr != nil {
		s.l.Warn("error recording sync", "error", rerr, "scope", rec.Scope)
	}
}

// Hash fingerprints a set of registration payloads.
func Hash(payloads []*dg.ApplicationCommand) string {
	b, err := json.Marshal(payloads)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(b))
}
