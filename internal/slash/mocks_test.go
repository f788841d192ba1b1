package slash

import (
	"context"
	"log/slog"
	"sync"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/handlers"
	"github.com/glotchimo/slashbridge/internal/models"
	"github.com/glotchimo/slashbridge/internal/response"
)

// MockCommand is a slash command whose steps can be swapped per test.
type MockCommand struct {
	Default
	RunFunc      func(ctx context.Context, c *response.Context) (any, error)
	OnErrorFunc  func(ctx context.Context, err error, c *response.Context) error
	FinalizeFunc func(ctx context.Context, result any, c *response.Context) error
}

func NewMockCommand(name string, opts Options) *MockCommand {
	return &MockCommand{Default: NewDefault(name, name+" command", opts)}
}

func (m *MockCommand) Run(ctx context.Context, c *response.Context) (any, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, c)
	}
	return m.Default.Run(ctx, c)
}

func (m *MockCommand) OnError(ctx context.Context, err error, c *response.Context) error {
	if m.OnErrorFunc != nil {
		return m.OnErrorFunc(ctx, err, c)
	}
	return m.Default.OnError(ctx, err, c)
}

func (m *MockCommand) Finalize(ctx context.Context, result any, c *response.Context) error {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, result, c)
	}
	return m.Default.Finalize(ctx, result, c)
}

// MockResponder records initial responses.
type MockResponder struct {
	mu        sync.Mutex
	Responses []response.Response
	Err       error
}

func (m *MockResponder) Respond(res response.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Responses = append(m.Responses, res)
	return nil
}

func (m *MockResponder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Responses)
}

// MockWebhook records follow-up traffic.
type MockWebhook struct {
	mu        sync.Mutex
	Edits     []*dg.WebhookEdit
	Followups []*dg.WebhookParams
	Deletes   int
}

func (m *MockWebhook) InteractionResponseEdit(i *dg.Interaction, e *dg.WebhookEdit, options ...dg.RequestOption) (*dg.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, e)
	return &dg.Message{}, nil
}

func (m *MockWebhook) InteractionResponseDelete(i *dg.Interaction, options ...dg.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	return nil
}

func (m *MockWebhook) FollowupMessageCreate(i *dg.Interaction, wait bool, p *dg.WebhookParams, options ...dg.RequestOption) (*dg.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Followups = append(m.Followups, p)
	return &dg.Message{}, nil
}

func (m *MockWebhook) FollowupMessageEdit(i *dg.Interaction, id string, e *dg.WebhookEdit, options ...dg.RequestOption) (*dg.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, e)
	return &dg.Message{}, nil
}

func (m *MockWebhook) FollowupMessageDelete(i *dg.Interaction, id string, options ...dg.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	return nil
}

func (m *MockWebhook) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Edits) + len(m.Followups) + m.Deletes
}

// MockRemote records registry pushes in call order.
type MockRemote struct {
	Calls []string

	GlobalFunc      func(cmds []*dg.ApplicationCommand, deleteMissing bool) error
	GuildFunc       func(guildID string, cmds []*dg.ApplicationCommand, deleteMissing bool) error
	PermissionsFunc func(guildID string, perms map[string][]*dg.ApplicationCommandPermissions) error

	Pushed      map[string][]*dg.ApplicationCommand
	Permissions map[string]map[string][]*dg.ApplicationCommandPermissions
}

func NewMockRemote() *MockRemote {
	return &MockRemote{
		Pushed:      make(map[string][]*dg.ApplicationCommand),
		Permissions: make(map[string]map[string][]*dg.ApplicationCommandPermissions),
	}
}

func (m *MockRemote) ReplaceGlobalCommands(ctx context.Context, cmds []*dg.ApplicationCommand, deleteMissing bool) error {
	m.Calls = append(m.Calls, "global")
	if m.GlobalFunc != nil {
		if err := m.GlobalFunc(cmds, deleteMissing); err != nil {
			return err
		}
	}
	m.Pushed["global"] = cmds
	return nil
}

func (m *MockRemote) ReplaceGuildCommands(ctx context.Context, guildID string, cmds []*dg.ApplicationCommand, deleteMissing bool) error {
	m.Calls = append(m.Calls, "guild:"+guildID)
	if m.GuildFunc != nil {
		if err := m.GuildFunc(guildID, cmds, deleteMissing); err != nil {
			return err
		}
	}
	m.Pushed[guildID] = cmds
	return nil
}

func (m *MockRemote) ReplacePermissions(ctx context.Context, guildID string, perms map[string][]*dg.ApplicationCommandPermissions) error {
	m.Calls = append(m.Calls, "permissions:"+guildID)
	if m.PermissionsFunc != nil {
		if err := m.PermissionsFunc(guildID, perms); err != nil {
			return err
		}
	}
	m.Permissions[guildID] = perms
	return nil
}

type MockRecorder struct {
	Records []models.CommandSync
}

func (m *MockRecorder) RecordSync(ctx context.Context, s models.CommandSync) error {
	m.Records = append(m.Records, s)
	return nil
}

// recordHandler captures log records for assertions.
type recordHandler struct {
	mu      *sync.Mutex
	records *[]slog.Record
}

func newRecordHandler() *recordHandler {
	return &recordHandler{mu: &sync.Mutex{}, records: &[]slog.Record{}}
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range *h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func newCatalog(t interface{ Fatalf(string, ...any) }, hs ...handlers.Handler) *Catalog {
	registry := handlers.NewRegistry()
	if err := registry.Register(hs...); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return NewCatalog(registry, slog.New(newRecordHandler()))
}

func commandInteraction(id, name, guildID string) *dg.Interaction {
	i := &dg.Interaction{
		ID:      id,
		Type:    dg.InteractionApplicationCommand,
		GuildID: guildID,
		Data:    dg.ApplicationCommandInteractionData{Name: name},
	}
	if guildID == "" {
		i.User = &dg.User{ID: "user-1"}
	} else {
		i.Member = &dg.Member{User: &dg.User{ID: "user-1"}}
	}
	return i
}
