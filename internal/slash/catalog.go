package slash

import (
	"log/slog"
	"sync/atomic"

	"github.com/glotchimo/slashbridge/internal/handlers"
)

// Snapshot is an immutable view of the slash-capable commands at one point in
// time. Routing reads every command in registration order; syncing reads the
// staged set, where sync key collisions have been resolved.
type Snapshot struct {
	commands []Command
	staged   []Command
	keys     map[string]int
	unknown  Command
}

// NewSnapshot stages commands by sync key. A later command with an existing
// key replaces the earlier one in place.
func NewSnapshot(cmds []Command, l *slog.Logger) *Snapshot {
	s := &Snapshot{
		commands: make([]Command, 0, len(cmds)),
		staged:   make([]Command, 0, len(cmds)),
		keys:     make(map[string]int, len(cmds)),
	}

	for _, c := range cmds {
		d := c.Slash()
		if d.Unknown() {
			if s.unknown == nil {
				s.unknown = c
			}
			continue
		}
		s.commands = append(s.commands, c)

		key := d.SyncKey()
		if i, ok := s.keys[key]; ok {
			if l != nil {
				l.Debug("sync key collision, later command wins", "key", key, "replaced", s.staged[i].Name(), "by", c.Name())
			}
			s.staged[i] = c
			continue
		}
		s.keys[key] = len(s.staged)
		s.staged = append(s.staged, c)
	}

	return s
}

// Commands are the commands interactions are routed to. The first match
// wins, so an earlier command shadows a later one with the same name.
func (s *Snapshot) Commands() []Command { return s.commands }
func (s *Snapshot) Staged() []Command   { return s.staged }
func (s *Snapshot) Unknown() Command    { return s.unknown }

func (s *Snapshot) Lookup(key string) (Command, bool) {
	i, ok := s.keys[key]
	if !ok {
		return nil, false
	}
	return s.staged[i], true
}

// GuildIDs returns every guild referenced by a staged command, in order of
// first appearance.
func (s *Snapshot) GuildIDs() []string {
	var ids []string
	for _, c := range s.staged {
		ids = append(ids, c.Slash().GuildIDs()...)
	}
	return uniq(ids)
}

// Global returns the staged commands without guild scoping.
func (s *Snapshot) Global() []Command {
	var out []Command
	for _, c := range s.staged {
		if c.Slash().Global() {
			out = append(out, c)
		}
	}
	return out
}

// Guild returns the staged commands scoped to guildID.
func (s *Snapshot) Guild(guildID string) []Command {
	var out []Command
	for _, c := range s.staged {
		if c.Slash().InGuild(guildID) {
			out = append(out, c)
		}
	}
	return out
}

// Catalog publishes snapshots built from a handler registry. Readers never
// observe a partially built snapshot.
type Catalog struct {
	registry *handlers.Registry
	l        *slog.Logger
	current  atomic.Pointer[Snapshot]
}

func NewCatalog(registry *handlers.Registry, l *slog.Logger) *Catalog {
	return &Catalog{registry: registry, l: l}
}

func (c *Catalog) Rebuild() *Snapshot {
	s := NewSnapshot(Collect(c.registry.All()), c.l)
	c.current.Store(s)
	return s
}

func (c *Catalog) Current() *Snapshot {
	if s := c.current.Load(); s != nil {
		return s
	}
	return c.Rebuild()
}
