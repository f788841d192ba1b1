package commands

import (
	"context"
	"fmt"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/handlers"
	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/glotchimo/slashbridge/internal/slash"
)

// Info lists the slash commands visible from the invoking scope.
type Info struct {
	slash.Default
	registry *handlers.Registry
}

func NewInfo(registry *handlers.Registry) *Info {
	return &Info{
		Default:  slash.NewDefault("info", "Show the commands this bot answers", slash.Options{DeferEphemeral: true}),
		registry: registry,
	}
}

func (in *Info) Run(ctx context.Context, c *response.Context) (any, error) {
	guildID := c.Interaction.GuildID

	var fields []*dg.MessageEmbedField
	for _, cmd := range slash.Collect(in.registry.All()) {
		d := cmd.Slash()
		if d.Unknown() || !(d.Global() || d.InGuild(guildID)) {
			continue
		}

		scope := "global"
		if !d.Global() {
			scope = "this server"
		}

		fields = append(fields, &dg.MessageEmbedField{
			Name:  "/" + d.Name(),
			Value: fmt.Sprintf("%s (%s)", d.Description(), scope),
		})
	}

	return response.MessageOptions{
		Embeds: []*dg.MessageEmbed{{
			Title:  "Commands",
			Fields: fields,
		}},
		Ephemeral: true,
	}, nil
}
