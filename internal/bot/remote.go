package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/models"
	"github.com/graxinc/errutil"
	"golang.org/x/time/rate"
)

// RegistryAPI is the subset of *dg.Session used to manage registered
// commands.
type RegistryAPI interface {
	User(userID string, options ...dg.RequestOption) (*dg.User, error)
	ApplicationCommands(appID, guildID string, options ...dg.RequestOption) ([]*dg.ApplicationCommand, error)
	ApplicationCommandCreate(appID string, guildID string, cmd *dg.ApplicationCommand, options ...dg.RequestOption) (*dg.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *dg.ApplicationCommand, options ...dg.RequestOption) (*dg.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*dg.ApplicationCommand, options ...dg.RequestOption) ([]*dg.ApplicationCommand, error)
	ApplicationCommandPermissionsEdit(appID, guildID, cmdID string, permissions *dg.ApplicationCommandPermissionsList, options ...dg.RequestOption) error
}

// Remote applies command sets to the platform registry. Bulk overwrites are
// used when missing commands should be deleted; otherwise commands are
// created or edited one at a time, paced by a limiter.
type Remote struct {
	api     RegistryAPI
	l       *slog.Logger
	limiter *rate.Limiter

	mu    sync.Mutex
	appID string
}

func NewRemote(api RegistryAPI, appID string, l *slog.Logger) *Remote {
	return &Remote{
		api:     api,
		appID:   appID,
		l:       l,
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
	}
}

func (r *Remote) ReplaceGlobalCommands(ctx context.Context, cmds []*dg.ApplicationCommand, deleteMissing bool) error {
	return r.replace(ctx, "", cmds, deleteMissing)
}

func (r *Remote) ReplaceGuildCommands(ctx context.Context, guildID string, cmds []*dg.ApplicationCommand, deleteMissing bool) error {
	return r.replace(ctx, guildID, cmds, deleteMissing)
}

func (r *Remote) replace(ctx context.Context, guildID string, cmds []*dg.ApplicationCommand, deleteMissing bool) error {
	appID, err := r.resolveAppID(ctx)
	if err != nil {
		return err
	}

	if deleteMissing {
		if cmds == nil {
			cmds = []*dg.ApplicationCommand{}
		}
		if _, err := r.api.ApplicationCommandBulkOverwrite(appID, guildID, cmds, dg.WithContext(ctx)); err != nil {
			return errutil.With(err)
		}
		return nil
	}

	existing, err := r.api.ApplicationCommands(appID, guildID, dg.WithContext(ctx))
	if err != nil {
		return errutil.With(err)
	}

	byName := make(map[string]*dg.ApplicationCommand, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}

	var errs []error
	for _, local := range cmds {
		remote, ok := byName[local.Name]
		if ok && commandsAreEqual(local, remote) {
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return errors.Join(append(errs, err)...)
		}

		if ok {
			r.l.Debug("updating command", "command", local.Name, "scope", models.Scope(guildID))
			if _, err := r.api.ApplicationCommandEdit(appID, guildID, remote.ID, local, dg.WithContext(ctx)); err != nil {
				errs = append(errs, fmt.Errorf("edit %s: %w", local.Name, err))
			}
			continue
		}

		r.l.Debug("creating command", "command", local.Name, "scope", models.Scope(guildID))
		if _, err := r.api.ApplicationCommandCreate(appID, guildID, local, dg.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", local.Name, err))
		}
	}

	return errors.Join(errs...)
}

// ReplacePermissions sets the overwrites of each named command within a
// guild. Guild commands shadow global ones of the same name.
func (r *Remote) ReplacePermissions(ctx context.Context, guildID string, perms map[string][]*dg.ApplicationCommandPermissions) error {
	appID, err := r.resolveAppID(ctx)
	if err != nil {
		return err
	}

	ids := make(map[string]string)

	global, err := r.api.ApplicationCommands(appID, "", dg.WithContext(ctx))
	if err != nil {
		return errutil.With(err)
	}
	for _, c := range global {
		ids[c.Name] = c.ID
	}

	scoped, err := r.api.ApplicationCommands(appID, guildID, dg.WithContext(ctx))
	if err != nil {
		return errutil.With(err)
	}
	for _, c := range scoped {
		ids[c.Name] = c.ID
	}

	names := make([]string, 0, len(perms))
	for name := range perms {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			errs = append(errs, fmt.Errorf("permissions for %s: command not registered", name))
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return errors.Join(append(errs, err)...)
		}

		list := &dg.ApplicationCommandPermissionsList{Permissions: perms[name]}
		if err := r.api.ApplicationCommandPermissionsEdit(appID, guildID, id, list, dg.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("permissions for %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// resolveAppID uses the configured id, falling back to the bot user's id.
func (r *Remote) resolveAppID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appID != "" {
		return r.appID, nil
	}

	u, err := r.api.User("@me", dg.WithContext(ctx))
	if err != nil {
		return "", errutil.With(err)
	}

	r.appID = u.ID
	return r.appID, nil
}
