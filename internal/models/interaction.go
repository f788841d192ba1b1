package models

import (
	"encoding/json"
	"time"

	dg "github.com/bwmarrin/discordgo"
)

// Interaction is an inbound interaction as claimed by this process.
type Interaction struct {
	Interaction *dg.Interaction
	Source      string
	Created     time.Time
}

func (i Interaction) Map() map[string]any {
	ib, _ := json.Marshal(i.Interaction)
	return map[string]any{
		"id":          i.Interaction.ID,
		"guild_id":    i.Interaction.GuildID,
		"source":      i.Source,
		"interaction": ib,
	}
}

func (i Interaction) Table() Table {
	return TableInteractions
}
