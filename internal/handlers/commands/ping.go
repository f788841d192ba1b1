package commands

import (
	"context"

	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/glotchimo/slashbridge/internal/slash"
)

type Ping struct {
	slash.Default
}

func NewPing() *Ping {
	return &Ping{Default: slash.NewDefault("ping", "Check that the bot is answering", slash.Options{})}
}

func (p *Ping) Run(ctx context.Context, c *response.Context) (any, error) {
	return "pong", nil
}
