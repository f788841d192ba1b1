package slash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/glotchimo/slashbridge/internal/utils"
)

const (
	UnknownNotice = "This command no longer exists. This command should no longer show up in an hour if it has been deleted."

	// AutoDeferAfter is how long a command may stay silent before the
	// interaction is deferred on its behalf.
	AutoDeferAfter = 2 * time.Second
)

var ErrPanic = errors.New("command panicked")

// Executor routes interactions to commands and drives the run, finalize and
// error steps. Handlers are never cancelled once started.
type Executor struct {
	catalog         *Catalog
	w               response.Webhook
	l               *slog.Logger
	unknownResponse bool
	autoDefer       time.Duration
	now             func() time.Time
}

type ExecutorOption func(*Executor)

func WithUnknownCommandResponse(enabled bool) ExecutorOption {
	return func(e *Executor) { e.unknownResponse = enabled }
}

// WithAutoDefer sets the silence window before an automatic deferral. Zero
// disables it.
func WithAutoDefer(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.autoDefer = d }
}

func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(catalog *Catalog, w response.Webhook, l *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		catalog:         catalog,
		w:               w,
		l:               l,
		unknownResponse: true,
		autoDefer:       AutoDeferAfter,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch handles one interaction. Failures are contained and logged; none
// reach the caller.
func (e *Executor) Dispatch(ctx context.Context, i *dg.Interaction, respond response.RespondFunc) {
	name, ok := CommandName(i)
	if !ok {
		e.l.Debug("ignoring non-command interaction")
		if err := respond(response.Response{Status: http.StatusBadRequest}); err != nil {
			e.l.Warn("error rejecting interaction", "error", err)
		}
		return
	}

	l := e.l.With("trace", utils.GenerateID(), "interaction", i.ID)

	snap := e.catalog.Current()
	cmd := Resolve(i, snap.Commands())
	if cmd == nil {
		cmd = snap.Unknown()
	}

	if cmd == nil {
		l.Debug("unknown command", "failure", utils.Failure{
			Type:    utils.ErrUnknownCommand,
			Message: "no command matched interaction",
			Data:    map[string]any{"command": name, "scope": utils.FormatScope(i)},
		})
		e.unknown(l, respond)
		return
	}

	l = l.With("command", cmd.Name())
	c := response.NewContext(ctx, i, respond, e.w, cmd.Slash().DeferEphemeral(), l, response.WithClock(e.now))

	if e.autoDefer > 0 {
		t := time.AfterFunc(e.autoDefer, func() {
			if err := c.AutoDefer(); err != nil {
				l.Warn("error deferring interaction", "error", err)
			}
		})
		defer t.Stop()
	}

	l.Debug("running command", "called", utils.FormatInteraction(i), "scope", utils.FormatScope(i), "user", Invoker(i))

	result, err := e.run(ctx, cmd, c)
	if err != nil {
		if herr := guard(func() error { return cmd.OnError(ctx, err, c) }); herr != nil {
			l.Error("error handler failed", "failure", utils.Failure{
				Type:    utils.ErrErrorHandler,
				Message: "error handler failed after command failure",
				Data:    map[string]any{"error": herr, "cause": err},
			})
			return
		}

		l.Warn("command failed", "failure", utils.Failure{
			Type:    utils.ErrHandler,
			Message: "command returned an error",
			Data:    map[string]any{"error": err},
		})
		return
	}

	if empty(result) {
		return
	}

	if ferr := guard(func() error { return cmd.Finalize(ctx, result, c) }); ferr != nil {
		l.Error("finalize failed", "failure", utils.Failure{
			Type:    utils.ErrFinalize,
			Message: "finalize returned an error",
			Data:    map[string]any{"error": ferr},
		})
	}
}

func (e *Executor) run(ctx context.Context, cmd Command, c *response.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return cmd.Run(ctx, c)
}

func (e *Executor) unknown(l *slog.Logger, respond response.RespondFunc) {
	res := response.Response{Status: http.StatusBadRequest}
	if e.unknownResponse {
		res = response.Response{
			Status: http.StatusOK,
			Body: &dg.InteractionResponse{
				Type: dg.InteractionResponseChannelMessageWithSource,
				Data: &dg.InteractionResponseData{
					Content: UnknownNotice,
					Flags:   dg.MessageFlagsEphemeral,
				},
			},
		}
	}

	if err := respond(res); err != nil {
		l.Warn("error responding to unknown command", "error", err)
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}

func panicError(r any) error {
	stack := make([]byte, 4096)
	stack = stack[:runtime.Stack(stack, false)]
	return fmt.Errorf("%w: %v\n%s", ErrPanic, r, stack)
}
