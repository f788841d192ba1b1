package utils

import (
	"bytes"
	"os/exec"
	"strings"

	dg "github.com/bwmarrin/discordgo"
	"github.com/rs/xid"
)

func GenerateID() string {
	return xid.New().String()
}

// MapOptions indexes the top-level options of an application command
// interaction by name.
func MapOptions(i *dg.Interaction) map[string]*dg.ApplicationCommandInteractionDataOption {
	data, ok := i.Data.(dg.ApplicationCommandInteractionData)
	if !ok {
		return map[string]*dg.ApplicationCommandInteractionDataOption{}
	}

	om := make(map[string]*dg.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		om[opt.Name] = opt
	}
	return om
}

func GetCommit() string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}

	return strings.TrimSpace(out.String())
}
