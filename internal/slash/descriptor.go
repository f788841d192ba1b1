package slash

import (
	"maps"
	"slices"
	"strings"

	dg "github.com/bwmarrin/discordgo"
)

const globalScope = "global"

// Options are the slash overrides a command declares. Zero values fall back
// to the base command or to the documented defaults.
type Options struct {
	Name        string
	Description string
	// GuildID is shorthand for a single-element GuildIDs.
	GuildID  string
	GuildIDs []string
	Options  []*dg.ApplicationCommandOption
	// Permissions are keyed by guild id.
	Permissions       map[string][]*dg.ApplicationCommandPermissions
	DefaultPermission *bool
	DeferEphemeral    bool
	Unknown           bool
}

// Descriptor is the normalized, immutable slash metadata of a command.
type Descriptor struct {
	name              string
	description       string
	guildIDs          []string
	options           []*dg.ApplicationCommandOption
	permissions       map[string][]*dg.ApplicationCommandPermissions
	defaultPermission bool
	deferEphemeral    bool
	unknown           bool
}

func NewDescriptor(baseName, baseDescription string, opts Options) *Descriptor {
	d := &Descriptor{
		name:              opts.Name,
		description:       opts.Description,
		options:           opts.Options,
		permissions:       opts.Permissions,
		defaultPermission: true,
		deferEphemeral:    opts.DeferEphemeral,
		unknown:           opts.Unknown,
	}

	if d.name == "" {
		d.name = baseName
	}
	if d.description == "" {
		d.description = baseDescription
	}

	switch {
	case len(opts.GuildIDs) > 0:
		d.guildIDs = uniq(opts.GuildIDs)
	case opts.GuildID != "":
		d.guildIDs = []string{opts.GuildID}
	}

	if opts.DefaultPermission != nil {
		d.defaultPermission = *opts.DefaultPermission
	}

	return d
}

func (d *Descriptor) Name() string            { return d.name }
func (d *Descriptor) Description() string     { return d.description }
func (d *Descriptor) DefaultPermission() bool { return d.defaultPermission }
func (d *Descriptor) DeferEphemeral() bool    { return d.deferEphemeral }
func (d *Descriptor) Unknown() bool           { return d.unknown }
func (d *Descriptor) Global() bool            { return len(d.guildIDs) == 0 }

func (d *Descriptor) GuildIDs() []string {
	out := make([]string, len(d.guildIDs))
	copy(out, d.guildIDs)
	return out
}

func (d *Descriptor) InGuild(guildID string) bool {
	for _, id := range d.guildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}

// Permissions returns the permission overwrites declared for guildID.
func (d *Descriptor) Permissions(guildID string) []*dg.ApplicationCommandPermissions {
	return d.permissions[guildID]
}

// PermissionGuilds lists the guilds with declared permissions, sorted.
func (d *Descriptor) PermissionGuilds() []string {
	return slices.Sorted(maps.Keys(d.permissions))
}

// SyncKey identifies the command when staging a sync:
// "<comma-joined guild ids or global>:<name>".
func (d *Descriptor) SyncKey() string {
	scope := globalScope
	if len(d.guildIDs) > 0 {
		scope = strings.Join(d.guildIDs, ",")
	}
	return scope + ":" + d.name
}

// Payload is the registration body sent to the platform.
type Payload struct {
	Name              string                         `json:"name"`
	Description       string                         `json:"description"`
	DefaultPermission bool                           `json:"default_permission"`
	Options           []*dg.ApplicationCommandOption `json:"options,omitempty"`
}

func (d *Descriptor) Payload() Payload {
	return Payload{
		Name:              d.name,
		Description:       d.description,
		DefaultPermission: d.defaultPermission,
		Options:           d.options,
	}
}

func (p Payload) ApplicationCommand() *dg.ApplicationCommand {
	defaultPermission := p.DefaultPermission
	return &dg.ApplicationCommand{
		Type:              dg.ChatApplicationCommand,
		Name:              p.Name,
		Description:       p.Description,
		DefaultPermission: &defaultPermission,
		Options:           p.Options,
	}
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
