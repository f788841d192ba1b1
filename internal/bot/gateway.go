package bot

import (
	"encoding/json"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/graxinc/errutil"
)

const eventInteractionCreate = "INTERACTION_CREATE"

// onEvent watches the raw gateway stream for interaction creations.
func (b *Bot) onEvent(s *dg.Session, e *dg.Event) {
	if e.Type != eventInteractionCreate {
		return
	}

	i, err := interactionFromEvent(e)
	if err != nil {
		b.l.Warn("error decoding interaction event", "error", err)
		return
	}

	if i.Type != dg.InteractionApplicationCommand {
		return
	}

	b.Dispatch(b.ctx, i, SourceGateway, b.gatewayResponder(i))
}

func interactionFromEvent(e *dg.Event) (*dg.Interaction, error) {
	if ic, ok := e.Struct.(*dg.InteractionCreate); ok && ic.Interaction != nil {
		return ic.Interaction, nil
	}

	var i dg.Interaction
	if err := json.Unmarshal(e.RawData, &i); err != nil {
		return nil, errutil.With(err)
	}
	return &i, nil
}

// gatewayResponder sends initial responses over REST. Statuses have no
// meaning here, so body-less responses are dropped.
func (b *Bot) gatewayResponder(i *dg.Interaction) response.RespondFunc {
	return func(r response.Response) error {
		if r.Body == nil {
			b.l.Debug("dropping body-less response", "interaction", i.ID, "status", r.Status)
			return nil
		}
		return b.s.InteractionRespond(i, r.Body, dg.WithContext(b.ctx))
	}
}
