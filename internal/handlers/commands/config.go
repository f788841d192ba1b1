package commands

import (
	"context"
	"fmt"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/glotchimo/slashbridge/internal/slash"
	"github.com/glotchimo/slashbridge/internal/utils"
)

// Config is restricted to administrative guilds and hidden from members by
// default.
type Config struct {
	slash.Default
}

func NewConfig(guildIDs []string, adminRoles map[string]string) *Config {
	perms := make(map[string][]*dg.ApplicationCommandPermissions, len(adminRoles))
	for guildID, roleID := range adminRoles {
		perms[guildID] = []*dg.ApplicationCommandPermissions{{
			ID:         roleID,
			Type:       dg.ApplicationCommandPermissionTypeRole,
			Permission: true,
		}}
	}

	deny := false
	return &Config{Default: slash.NewDefault("config", "Inspect the bot configuration for this server", slash.Options{
		GuildIDs:          guildIDs,
		DefaultPermission: &deny,
		DeferEphemeral:    true,
		Permissions:       perms,
		Options: []*dg.ApplicationCommandOption{{
			Type:        dg.ApplicationCommandOptionString,
			Name:        "key",
			Description: "Setting to show",
			Choices: []*dg.ApplicationCommandOptionChoice{
				{Name: "scope", Value: "scope"},
				{Name: "version", Value: "version"},
			},
		}},
	})}
}

func (cf *Config) Run(ctx context.Context, c *response.Context) (any, error) {
	key := "scope"
	if opt, ok := utils.MapOptions(c.Interaction)["key"]; ok {
		key = opt.StringValue()
	}

	var value string
	switch key {
	case "scope":
		value = utils.FormatScope(c.Interaction)
	case "version":
		value = utils.GetCommit()
		if value == "" {
			value = "unknown"
		}
	default:
		return nil, fmt.Errorf("unsupported key %q", key)
	}

	return &response.MessageOptions{Content: fmt.Sprintf("%s: %s", key, value), Ephemeral: true}, nil
}
