package slash

import (
	"context"
	"errors"

	"github.com/glotchimo/slashbridge/internal/handlers"
	"github.com/glotchimo/slashbridge/internal/response"
)

const ErrorNotice = "An error occurred while running the command."

var ErrNotImplemented = errors.New("command has no run implementation")

// Command is a handler that can also be registered and invoked as a slash
// command. Embed Default to inherit the stock OnError and Finalize.
type Command interface {
	handlers.Handler

	Slash() *Descriptor
	Run(ctx context.Context, c *response.Context) (any, error)
	OnError(ctx context.Context, err error, c *response.Context) error
	Finalize(ctx context.Context, result any, c *response.Context) error
}

type Default struct {
	handlers.Base
	desc *Descriptor
}

func NewDefault(name, description string, opts Options) Default {
	return Default{
		Base: handlers.NewBase(name, description),
		desc: NewDescriptor(name, description, opts),
	}
}

func (d Default) Slash() *Descriptor { return d.desc }

func (d Default) Run(ctx context.Context, c *response.Context) (any, error) {
	return nil, ErrNotImplemented
}

// OnError tells the user something went wrong, provided the interaction can
// still take an initial response.
func (d Default) OnError(ctx context.Context, err error, c *response.Context) error {
	if c.Expired() || c.InitiallyResponded() {
		return nil
	}
	return c.SendText(ErrorNotice, true)
}

// Finalize sends text and message results. Other result types are assumed
// to have been answered by the command itself.
func (d Default) Finalize(ctx context.Context, result any, c *response.Context) error {
	if empty(result) {
		return nil
	}

	switch r := result.(type) {
	case string:
		return c.SendText(r, false)
	case response.MessageOptions:
		return c.Send(r)
	case *response.MessageOptions:
		return c.Send(*r)
	}

	return nil
}

func empty(result any) bool {
	switch r := result.(type) {
	case nil:
		return true
	case string:
		return r == ""
	case *response.MessageOptions:
		return r == nil
	}
	return false
}

// Collect keeps the handlers that carry full slash capability, in order.
func Collect(hs []handlers.Handler) []Command {
	out := make([]Command, 0, len(hs))
	for _, h := range hs {
		c, ok := h.(Command)
		if !ok || c.Slash() == nil {
			continue
		}
		out = append(out, c)
	}
	return out
}
