package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	dg "github.com/bwmarrin/discordgo"
)

// Interaction tokens stay valid for 15 minutes after creation.
const Lifetime = 15 * time.Minute

var (
	ErrExpired    = errors.New("interaction expired")
	ErrNoResponse = errors.New("interaction has no initial response")
)

// Response is the initial reply to an interaction. Status only matters for
// webhook delivery; over the gateway a body-less response is dropped.
type Response struct {
	Status int
	Body   *dg.InteractionResponse
}

type RespondFunc func(Response) error

// Webhook is the subset of *dg.Session used after the initial response.
type Webhook interface {
	InteractionResponseEdit(interaction *dg.Interaction, newresp *dg.WebhookEdit, options ...dg.RequestOption) (*dg.Message, error)
	InteractionResponseDelete(interaction *dg.Interaction, options ...dg.RequestOption) error
	FollowupMessageCreate(interaction *dg.Interaction, wait bool, data *dg.WebhookParams, options ...dg.RequestOption) (*dg.Message, error)
	FollowupMessageEdit(interaction *dg.Interaction, messageID string, data *dg.WebhookEdit, options ...dg.RequestOption) (*dg.Message, error)
	FollowupMessageDelete(interaction *dg.Interaction, messageID string, options ...dg.RequestOption) error
}

type MessageOptions struct {
	Content         string
	Embeds          []*dg.MessageEmbed
	Files           []*dg.File
	Components      []dg.MessageComponent
	AllowedMentions *dg.MessageAllowedMentions
	Ephemeral       bool
}

func (o MessageOptions) flags() dg.MessageFlags {
	if o.Ephemeral {
		return dg.MessageFlagsEphemeral
	}
	return 0
}

// Context is bound to a single interaction. It tracks whether the initial
// response went out so late sends become edits or follow-ups.
type Context struct {
	Interaction *dg.Interaction
	Logger      *slog.Logger

	ctx            context.Context
	respond        RespondFunc
	w              Webhook
	deferEphemeral bool
	created        time.Time
	now            func() time.Time

	mu                 sync.Mutex
	initiallyResponded bool
	deferred           bool
	originalSent       bool
}

type Option func(*Context)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

func NewContext(ctx context.Context, i *dg.Interaction, respond RespondFunc, w Webhook, deferEphemeral bool, l *slog.Logger, opts ...Option) *Context {
	if l == nil {
		l = slog.Default()
	}

	c := &Context{
		Interaction:    i,
		Logger:         l,
		ctx:            ctx,
		respond:        respond,
		w:              w,
		deferEphemeral: deferEphemeral,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.created = c.now()
	if i != nil && i.ID != "" {
		if ts, err := dg.SnowflakeTimestamp(i.ID); err == nil {
			c.created = ts
		}
	}

	return c
}

func (c *Context) Context() context.Context { return c.ctx }

func (c *Context) Expired() bool {
	return c.now().Sub(c.created) > Lifetime
}

func (c *Context) InitiallyResponded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initiallyResponded
}

func (c *Context) Deferred() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deferred
}

// Defer acknowledges the interaction without content. It is a no-op once an
// initial response exists.
func (c *Context) Defer(ephemeral bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initiallyResponded {
		return nil
	}
	if c.Expired() {
		return ErrExpired
	}

	body := &dg.InteractionResponse{Type: dg.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		body.Data = &dg.InteractionResponseData{Flags: dg.MessageFlagsEphemeral}
	}

	if err := c.respond(Response{Status: http.StatusOK, Body: body}); err != nil {
		return err
	}

	c.initiallyResponded = true
	c.deferred = true
	return nil
}

// AutoDefer defers with the command's configured ephemerality.
func (c *Context) AutoDefer() error {
	return c.Defer(c.deferEphemeral)
}

// Send delivers a message. The first call becomes the initial response; after
// a deferral it fills in the original message; later calls are follow-ups.
func (c *Context) Send(opts MessageOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Expired() {
		return ErrExpired
	}

	if !c.initiallyResponded {
		if err := c.respond(Response{
			Status: http.StatusOK,
			Body: &dg.InteractionResponse{
				Type: dg.InteractionResponseChannelMessageWithSource,
				Data: &dg.InteractionResponseData{
					Content:         opts.Content,
					Embeds:          opts.Embeds,
					Files:           opts.Files,
					Components:      opts.Components,
					AllowedMentions: opts.AllowedMentions,
					Flags:           opts.flags(),
				},
			},
		}); err != nil {
			return err
		}

		c.initiallyResponded = true
		c.originalSent = true
		return nil
	}

	if c.deferred && !c.originalSent {
		edit := &dg.WebhookEdit{
			Content:         &opts.Content,
			Embeds:          &opts.Embeds,
			Components:      &opts.Components,
			Files:           opts.Files,
			AllowedMentions: opts.AllowedMentions,
		}
		if _, err := c.w.InteractionResponseEdit(c.Interaction, edit, dg.WithContext(c.ctx)); err != nil {
			return err
		}

		c.originalSent = true
		return nil
	}

	_, err := c.w.FollowupMessageCreate(c.Interaction, true, &dg.WebhookParams{
		Content:         opts.Content,
		Embeds:          opts.Embeds,
		Files:           opts.Files,
		Components:      opts.Components,
		AllowedMentions: opts.AllowedMentions,
		Flags:           opts.flags(),
	}, dg.WithContext(c.ctx))
	return err
}

// SendText is shorthand for Send with only content set.
func (c *Context) SendText(content string, ephemeral bool) error {
	return c.Send(MessageOptions{Content: content, Ephemeral: ephemeral})
}

// Edit replaces a follow-up message, or the original response when
// messageID is empty.
func (c *Context) Edit(messageID string, opts MessageOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initiallyResponded {
		return ErrNoResponse
	}
	if c.Expired() {
		return ErrExpired
	}

	edit := &dg.WebhookEdit{
		Content:         &opts.Content,
		Embeds:          &opts.Embeds,
		Components:      &opts.Components,
		Files:           opts.Files,
		AllowedMentions: opts.AllowedMentions,
	}

	var err error
	if messageID == "" {
		_, err = c.w.InteractionResponseEdit(c.Interaction, edit, dg.WithContext(c.ctx))
		if err == nil {
			c.originalSent = true
		}
	} else {
		_, err = c.w.FollowupMessageEdit(c.Interaction, messageID, edit, dg.WithContext(c.ctx))
	}
	return err
}

// Delete removes a follow-up message, or the original response when
// messageID is empty.
func (c *Context) Delete(messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initiallyResponded {
		return ErrNoResponse
	}
	if c.Expired() {
		return ErrExpired
	}

	if messageID == "" {
		return c.w.InteractionResponseDelete(c.Interaction, dg.WithContext(c.ctx))
	}
	return c.w.FollowupMessageDelete(c.Interaction, messageID, dg.WithContext(c.ctx))
}
