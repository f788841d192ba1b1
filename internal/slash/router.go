package slash

import (
	dg "github.com/bwmarrin/discordgo"
)

// Resolve picks the command an interaction targets. Within a guild, a
// command scoped to that guild wins over a global one of the same name, so
// a command moved between scopes stays answerable while stale registrations
// linger. A command scoped only to other guilds never matches.
func Resolve(i *dg.Interaction, cmds []Command) Command {
	name, ok := CommandName(i)
	if !ok {
		return nil
	}

	if i.GuildID != "" {
		for _, c := range cmds {
			d := c.Slash()
			if d.InGuild(i.GuildID) && d.Name() == name {
				return c
			}
		}

		for _, c := range cmds {
			d := c.Slash()
			if d.Global() && d.Name() == name {
				return c
			}
		}
		return nil
	}

	for _, c := range cmds {
		if c.Slash().Name() == name {
			return c
		}
	}

	return nil
}

// CommandName returns the invoked command name of an application command
// interaction.
func CommandName(i *dg.Interaction) (string, bool) {
	if i == nil {
		return "", false
	}
	if i.Type != dg.InteractionApplicationCommand {
		return "", false
	}

	data, ok := i.Data.(dg.ApplicationCommandInteractionData)
	if !ok {
		return "", false
	}
	return data.Name, true
}

// Invoker is the id of the user behind an interaction, whether invoked in a
// guild or a direct message.
func Invoker(i *dg.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	}
	return ""
}
