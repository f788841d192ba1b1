package bot

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"sync"
	"testing"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/cache"
	"github.com/glotchimo/slashbridge/internal/handlers"
	"github.com/glotchimo/slashbridge/internal/slash"
)

// MockRegistryAPI is an in-memory command registry keyed by scope.
type MockRegistryAPI struct {
	mu sync.Mutex

	Commands    map[string][]*dg.ApplicationCommand
	Created     []string
	Edited      []string
	Overwritten map[string][]*dg.ApplicationCommand
	Permissions map[string]*dg.ApplicationCommandPermissionsList
	UserCalls   int
	AppIDs      []string

	EditFunc func(cmdID string, cmd *dg.ApplicationCommand) error
}

func NewMockRegistryAPI() *MockRegistryAPI {
	return &MockRegistryAPI{
		Commands:    make(map[string][]*dg.ApplicationCommand),
		Overwritten: make(map[string][]*dg.ApplicationCommand),
		Permissions: make(map[string]*dg.ApplicationCommandPermissionsList),
	}
}

func (m *MockRegistryAPI) User(userID string, options ...dg.RequestOption) (*dg.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserCalls++
	return &dg.User{ID: "app-1"}, nil
}

func (m *MockRegistryAPI) ApplicationCommands(appID, guildID string, options ...dg.RequestOption) ([]*dg.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppIDs = append(m.AppIDs, appID)
	return m.Commands[guildID], nil
}

func (m *MockRegistryAPI) ApplicationCommandCreate(appID string, guildID string, cmd *dg.ApplicationCommand, options ...dg.RequestOption) (*dg.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, cmd.Name)
	return cmd, nil
}

func (m *MockRegistryAPI) ApplicationCommandEdit(appID, guildID, cmdID string, cmd *dg.ApplicationCommand, options ...dg.RequestOption) (*dg.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EditFunc != nil {
		if err := m.EditFunc(cmdID, cmd); err != nil {
			return nil, err
		}
	}
	m.Edited = append(m.Edited, cmdID)
	return cmd, nil
}

func (m *MockRegistryAPI) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*dg.ApplicationCommand, options ...dg.RequestOption) ([]*dg.ApplicationCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Overwritten[guildID] = commands
	return commands, nil
}

func (m *MockRegistryAPI) ApplicationCommandPermissionsEdit(appID, guildID, cmdID string, permissions *dg.ApplicationCommandPermissionsList, options ...dg.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Permissions[guildID+"/"+cmdID] = permissions
	return nil
}

// MockWebhook accepts every follow-up.
type MockWebhook struct{}

func (MockWebhook) InteractionResponseEdit(*dg.Interaction, *dg.WebhookEdit, ...dg.RequestOption) (*dg.Message, error) {
	return &dg.Message{}, nil
}

func (MockWebhook) InteractionResponseDelete(*dg.Interaction, ...dg.RequestOption) error {
	return nil
}

func (MockWebhook) FollowupMessageCreate(*dg.Interaction, bool, *dg.WebhookParams, ...dg.RequestOption) (*dg.Message, error) {
	return &dg.Message{}, nil
}

func (MockWebhook) FollowupMessageEdit(*dg.Interaction, string, *dg.WebhookEdit, ...dg.RequestOption) (*dg.Message, error) {
	return &dg.Message{}, nil
}

func (MockWebhook) FollowupMessageDelete(*dg.Interaction, string, ...dg.RequestOption) error {
	return nil
}

// newTestBot wires a bot without a gateway session or database.
func newTestBot(t *testing.T, conf Config, key ed25519.PublicKey, hs ...handlers.Handler) *Bot {
	t.Helper()

	registry := handlers.NewRegistry()
	if err := registry.Register(hs...); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	l := slog.New(slog.DiscardHandler)
	catalog := slash.NewCatalog(registry, l)

	b := &Bot{
		ctx:      context.Background(),
		cancel:   func() {},
		conf:     conf,
		c:        cache.NewMemoryCache(l),
		l:        l,
		registry: registry,
		catalog:  catalog,
		exec: slash.NewExecutor(catalog, MockWebhook{}, l,
			slash.WithUnknownCommandResponse(conf.UnknownCommandResponse),
			slash.WithAutoDefer(0),
		),
		key: key,
	}
	t.Cleanup(func() { b.c.Close() })

	return b
}
