package models

import "time"

const GlobalScope = "global"

// Scope names a registry scope: a guild id, or "global" for the empty id.
func Scope(guildID string) string {
	if guildID == "" {
		return GlobalScope
	}
	return guildID
}

// CommandSync is one push of a command set to a registry scope.
type CommandSync struct {
	ID       string
	Scope    string
	Hash     string
	Count    int
	Duration time.Duration
	Error    string
	Created  time.Time
}

func (s CommandSync) Map() map[string]any {
	return map[string]any{
		"id":          s.ID,
		"scope":       s.Scope,
		"hash":        s.Hash,
		"count":       s.Count,
		"duration_ms": s.Duration.Milliseconds(),
		"error":       s.Error,
	}
}

func (s CommandSync) Table() Table {
	return TableCommandSyncs
}
