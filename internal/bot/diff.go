package bot

import (
	"reflect"
	"sort"

	dg "github.com/bwmarrin/discordgo"
)

// commandsAreEqual compares the fields this bridge registers. Option and
// choice order is ignored.
func commandsAreEqual(local, remote *dg.ApplicationCommand) bool {
	if local.Name != remote.Name || local.Description != remote.Description {
		return false
	}
	if boolOr(local.DefaultPermission, true) != boolOr(remote.DefaultPermission, true) {
		return false
	}
	return optionSetsAreEqual(local.Options, remote.Options)
}

func optionSetsAreEqual(a, b []*dg.ApplicationCommandOption) bool {
	if len(a) != len(b) {
		return false
	}

	a, b = sortedOptions(a), sortedOptions(b)
	for i := range a {
		if !optionsAreEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func optionsAreEqual(o1, o2 *dg.ApplicationCommandOption) bool {
	if o1.Type != o2.Type || o1.Name != o2.Name || o1.Description != o2.Description || o1.Required != o2.Required {
		return false
	}
	if len(o1.Choices) != len(o2.Choices) {
		return false
	}

	if len(o1.Choices) > 0 {
		c1, c2 := sortedChoices(o1.Choices), sortedChoices(o2.Choices)
		for i := range c1 {
			if c1[i].Name != c2[i].Name || !reflect.DeepEqual(normalizeValue(c1[i].Value), normalizeValue(c2[i].Value)) {
				return false
			}
		}
	}

	return optionSetsAreEqual(o1.Options, o2.Options)
}

func sortedOptions(opts []*dg.ApplicationCommandOption) []*dg.ApplicationCommandOption {
	out := make([]*dg.ApplicationCommandOption, len(opts))
	copy(out, opts)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedChoices(choices []*dg.ApplicationCommandOptionChoice) []*dg.ApplicationCommandOptionChoice {
	out := make([]*dg.ApplicationCommandOptionChoice, len(choices))
	copy(out, choices)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// normalizeValue maps integer choice values onto float64, the type they take
// after a JSON round trip from the registry.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return v
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
