package utils

import (
	"fmt"
	"strings"

	dg "github.com/bwmarrin/discordgo"
)

// FormatInteraction renders an application command invocation the way a user
// would type it, e.g. "/config channel:123 verbose:true".
func FormatInteraction(i *dg.Interaction) string {
	data, ok := i.Data.(dg.ApplicationCommandInteractionData)
	if !ok {
		return ""
	}

	parts := []string{"/" + data.Name}
	for _, opt := range data.Options {
		parts = append(parts, formatCommandOption(opt))
	}

	return strings.Join(parts, " ")
}

// FormatScope describes where an interaction came from for log lines.
func FormatScope(i *dg.Interaction) string {
	if i.GuildID != "" {
		return "guild " + i.GuildID
	}
	if i.User != nil {
		return "user " + i.User.ID
	}
	return "unknown"
}

func formatCommandValue(opt *dg.ApplicationCommandInteractionDataOption) string {
	switch opt.Type {
	case dg.ApplicationCommandOptionString:
		return opt.StringValue()
	case dg.ApplicationCommandOptionInteger:
		return fmt.Sprintf("%d", opt.IntValue())
	case dg.ApplicationCommandOptionBoolean:
		return fmt.Sprintf("%t", opt.BoolValue())
	case dg.ApplicationCommandOptionNumber:
		return fmt.Sprintf("%.2f", opt.FloatValue())
	default:
		return fmt.Sprintf("%v", opt.Value)
	}
}

func formatCommandOption(opt *dg.ApplicationCommandInteractionDataOption) string {
	switch opt.Type {
	case dg.ApplicationCommandOptionSubCommand, dg.ApplicationCommandOptionSubCommandGroup:
		subParts := []string{opt.Name}
		for _, subOpt := range opt.Options {
			subParts = append(subParts, formatCommandOption(subOpt))
		}
		return strings.Join(subParts, " ")
	default:
		return fmt.Sprintf("%s:%v", opt.Name, formatCommandValue(opt))
	}
}
