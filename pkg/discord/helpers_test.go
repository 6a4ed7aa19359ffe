package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type fakeResponder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) last() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

type fakeAPI struct {
	mu        sync.Mutex
	appID     string
	appCalls  int
	nextID    int
	global    [][]*CommandSchema
	guilds    map[string][][]*CommandSchema
	failGuild map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		appID:     "app-1",
		nextID:    100,
		guilds:    make(map[string][][]*CommandSchema),
		failGuild: make(map[string]error),
	}
}

func (f *fakeAPI) ApplicationID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appCalls++
	return f.appID, nil
}

func (f *fakeAPI) BulkOverwriteGlobal(_ context.Context, _ string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = append(f.global, schemas)
	return f.register(schemas), nil
}

func (f *fakeAPI) BulkOverwriteGuild(_ context.Context, _ string, guildID string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failGuild[guildID]; err != nil {
		return nil, err
	}
	f.guilds[guildID] = append(f.guilds[guildID], schemas)
	return f.register(schemas), nil
}

func (f *fakeAPI) register(schemas []*CommandSchema) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(schemas))
	for _, s := range schemas {
		f.nextID++
		out = append(out, &discordgo.ApplicationCommand{
			ID:   fmt.Sprint(f.nextID),
			Name: s.Name,
			Type: s.Type,
		})
	}
	return out
}

type fakeResolver struct {
	members map[string]*discordgo.Member
}

func (r *fakeResolver) Guild(guildID string) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID}, nil
}

func (r *fakeResolver) Channel(channelID string) (*discordgo.Channel, error) {
	return nil, discordgo.ErrStateNotFound
}

func (r *fakeResolver) Member(guildID, userID string) (*discordgo.Member, error) {
	if m, ok := r.members[userID]; ok {
		return m, nil
	}
	return nil, discordgo.ErrStateNotFound
}

func (r *fakeResolver) Role(guildID, roleID string) (*discordgo.Role, error) {
	return nil, discordgo.ErrStateNotFound
}

func opt(name string, typ discordgo.ApplicationCommandOptionType, value any) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Value: value}
}

func group(name string, typ discordgo.ApplicationCommandOptionType, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Options: options}
}

func interaction(kind discordgo.InteractionType, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionCreate {
	if data.CommandType == 0 {
		data.CommandType = discordgo.ChatApplicationCommand
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "interaction-1",
		Type:    kind,
		GuildID: "guild-1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "caller"}},
		Data:    data,
	}}
}

func commandInteraction(id, name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return interaction(discordgo.InteractionApplicationCommand, discordgo.ApplicationCommandInteractionData{
		ID:      id,
		Name:    name,
		Options: options,
	})
}

// testContext builds a CommandContext around an interaction without a session.
func testContext(i *discordgo.InteractionCreate, resolver Resolver) *CommandContext {
	return &CommandContext{
		Interaction: i,
		responder:   &fakeResponder{},
		resolver:    resolver,
		ctx:         context.Background(),
	}
}

// recorder collects what reached the error hook.
type recorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *recorder) hook(_ *CommandContext, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func newTestDispatcher(resp *fakeResponder, rec *recorder) *Dispatcher {
	return &Dispatcher{Responder: resp, OnError: rec.hook}
}
