package utils

import (
	"unicode/utf8"

	dg "github.com/bwmarrin/discordgo"
)

const (
	maxCommandNameLength        = 32
	maxCommandDescriptionLength = 100
	maxOptionsPerCommand        = 25
	maxChoicesPerOption         = 25
	maxOptionNameLength         = 32
	maxOptionDescLength         = 100
	maxChoiceNameLength         = 100
	maxChoiceValueLength        = 100
)

type ValidationResult struct {
	Command     *dg.ApplicationCommand
	WasModified bool
	Errors      []string
}

// ValidateCommand clamps a registration payload to the platform limits. The
// input is never modified; truncation happens on a copy.
func ValidateCommand(cmd *dg.ApplicationCommand) ValidationResult {
	out := *cmd
	result := ValidationResult{Command: &out}

	if v, cut := truncate(out.Name, maxCommandNameLength); cut {
		out.Name = v
		result.flag("command name was truncated")
	}

	if v, cut := truncate(out.Description, maxCommandDescriptionLength); cut {
		out.Description = v
		result.flag("command description was truncated")
	}

	if len(out.Options) > maxOptionsPerCommand {
		result.flag("excess options were removed")
	}
	out.Options = validateOptions(out.Options, &result)

	return result
}

func validateOptions(opts []*dg.ApplicationCommandOption, result *ValidationResult) []*dg.ApplicationCommandOption {
	if opts == nil {
		return nil
	}
	if len(opts) > maxOptionsPerCommand {
		opts = opts[:maxOptionsPerCommand]
	}

	out := make([]*dg.ApplicationCommandOption, len(opts))
	for i, o := range opts {
		opt := *o

		if v, cut := truncate(opt.Name, maxOptionNameLength); cut {
			opt.Name = v
			result.flag("option name was truncated")
		}

		if v, cut := truncate(opt.Description, maxOptionDescLength); cut {
			opt.Description = v
			result.flag("option description was truncated")
		}

		if len(opt.Choices) > 0 {
			choices := opt.Choices
			if len(choices) > maxChoicesPerOption {
				choices = choices[:maxChoicesPerOption]
				result.flag("excess choices were removed")
			}

			opt.Choices = make([]*dg.ApplicationCommandOptionChoice, len(choices))
			for j, c := range choices {
				choice := *c
				if v, cut := truncate(choice.Name, maxChoiceNameLength); cut {
					choice.Name = v
					result.flag("choice name was truncated")
				}
				if strVal, ok := choice.Value.(string); ok && utf8.RuneCountInString(strVal) > maxChoiceValueLength {
					choice.Value, _ = truncate(strVal, maxChoiceValueLength)
					result.flag("choice value was truncated")
				}
				opt.Choices[j] = &choice
			}
		}

		opt.Options = validateOptions(opt.Options, result)
		out[i] = &opt
	}

	return out
}

func (r *ValidationResult) flag(msg string) {
	r.WasModified = true
	r.Errors = append(r.Errors, msg)
}

// truncate cuts s to at most limit characters.
func truncate(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	return string([]rune(s)[:limit]), true
}
