package mod

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	guildID   = "500"
	targetID  = "1001"
	callerID  = "2002"
	outsiders = "3003"
)

type responder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
}

func (r *responder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
	return nil
}

func (r *responder) InteractionResponseEdit(*discordgo.Interaction, *discordgo.WebhookEdit, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (r *responder) only(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.responses, 1)
	return r.responses[0]
}

type memoryWarns struct {
	mu   sync.Mutex
	docs map[string]models.WarnsDocument
	err  error
}

func newMemoryWarns() *memoryWarns {
	return &memoryWarns{docs: make(map[string]models.WarnsDocument)}
}

func docKey(q bson.M) string {
	return q["guildId"].(string) + "/" + q["userId"].(string)
}

func (m *memoryWarns) Get(_ context.Context, q bson.M) (*models.WarnsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[docKey(q)]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (m *memoryWarns) Set(_ context.Context, q bson.M, data any) (*models.WarnsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := data.(models.WarnsDocument)
	m.docs[docKey(q)] = doc
	return &doc, nil
}

func (m *memoryWarns) warns(userID string) []models.Warn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[guildID+"/"+userID].Warns
}

func member(id string, perms int64) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Username: "user" + id}, Permissions: perms}
}

func resolved() *discordgo.ApplicationCommandInteractionDataResolved {
	return &discordgo.ApplicationCommandInteractionDataResolved{
		Users:   map[string]*discordgo.User{targetID: {ID: targetID, Username: "pancy"}},
		Members: map[string]*discordgo.Member{targetID: {}},
	}
}

func option(name string, typ discordgo.ApplicationCommandOptionType, value any) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Value: value}
}

func modData(path []string, opts ...*discordgo.ApplicationCommandInteractionDataOption) discordgo.ApplicationCommandInteractionData {
	leaf := &discordgo.ApplicationCommandInteractionDataOption{
		Name:    path[len(path)-1],
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: opts,
	}
	options := []*discordgo.ApplicationCommandInteractionDataOption{leaf}
	if len(path) == 2 {
		options = []*discordgo.ApplicationCommandInteractionDataOption{{
			Name:    path[0],
			Type:    discordgo.ApplicationCommandOptionSubCommandGroup,
			Options: options,
		}}
	}
	return discordgo.ApplicationCommandInteractionData{
		ID:          "1",
		Name:        "mod",
		CommandType: discordgo.ChatApplicationCommand,
		Options:     options,
		Resolved:    resolved(),
	}
}

func interaction(kind discordgo.InteractionType, guild string, caller *discordgo.Member, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "i-1",
		Type:    kind,
		GuildID: guild,
		Member:  caller,
		Data:    data,
	}}
}

func run(t *testing.T, root *discord.Command, i *discordgo.InteractionCreate) *responder {
	t.Helper()
	_, err := root.Schema()
	require.NoError(t, err)

	resp := &responder{}
	d := &discord.Dispatcher{Responder: resp}
	d.Dispatch(context.Background(), root, i)
	return resp
}

func roots(store WarnStore) (*discord.Command, *discord.Command) {
	cmds := Commands(store)
	return cmds[0], cmds[1]
}

func TestModSchema(t *testing.T) {
	root, user := roots(newMemoryWarns())

	schema, err := root.Schema()
	require.NoError(t, err)
	require.Equal(t, "mod", schema.Name)

	names := make([]string, 0, len(schema.Options))
	for _, o := range schema.Options {
		names = append(names, o.Name)
	}
	require.Equal(t, []string{"ban", "kick", "mute", "warn"}, names)

	ban := schema.Options[0]
	require.Equal(t, "Banea a un usuario del servidor", ban.Description)
	require.Len(t, ban.Options, 3)
	require.Equal(t, "usuario", ban.Options[0].Name)
	require.True(t, *ban.Options[0].Required)
	require.Equal(t, "dias", ban.Options[2].Name)
	require.False(t, *ban.Options[2].Required)

	warn := schema.Options[3]
	require.Equal(t, discordgo.ApplicationCommandOptionSubCommandGroup, warn.Type)
	require.Len(t, warn.Options, 3)
	require.True(t, *warn.Options[2].Options[1].Autocomplete)

	userSchema, err := user.Schema()
	require.NoError(t, err)
	require.Equal(t, discordgo.UserApplicationCommand, userSchema.Type)
	require.Equal(t, Category, user.Category)
}

func TestWarnAdd(t *testing.T) {
	store := newMemoryWarns()
	root, _ := roots(store)

	resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, discordgo.PermissionModerateMembers), modData(
		[]string{"warn", "add"},
		option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		option("razon", discordgo.ApplicationCommandOptionString, "spam"),
	)))

	warns := store.warns(targetID)
	require.Len(t, warns, 1)
	require.Equal(t, "spam", warns[0].Reason)
	require.Equal(t, callerID, warns[0].Moderator)
	require.Len(t, warns[0].ID, 8)

	r := resp.only(t)
	require.Len(t, r.Data.Embeds, 1)
	require.Contains(t, r.Data.Embeds[0].Description, warns[0].ID)
}

func TestWarnAddNeedsPermission(t *testing.T) {
	store := newMemoryWarns()
	root, _ := roots(store)

	resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, 0), modData(
		[]string{"warn", "add"},
		option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		option("razon", discordgo.ApplicationCommandOptionString, "spam"),
	)))

	require.Empty(t, store.warns(targetID))
	r := resp.only(t)
	require.Equal(t, discordgo.MessageFlagsEphemeral, r.Data.Flags)
	require.Contains(t, r.Data.Content, "No tienes permisos")
}

func TestWarnAddStoreFailure(t *testing.T) {
	store := newMemoryWarns()
	store.err = errors.New("offline")
	root, _ := roots(store)

	resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, discordgo.PermissionAdministrator), modData(
		[]string{"warn", "add"},
		option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		option("razon", discordgo.ApplicationCommandOptionString, "spam"),
	)))

	require.Contains(t, resp.only(t).Data.Content, "Ocurrió un error")
}

func TestWarnList(t *testing.T) {
	store := newMemoryWarns()
	store.docs[guildID+"/"+callerID] = models.WarnsDocument{GuildID: guildID, UserID: callerID, Warns: []models.Warn{{ID: "abc", Reason: "flood", Moderator: "9"}}}
	root, _ := roots(store)

	t.Run("own warnings", func(t *testing.T) {
		resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, 0), modData([]string{"warn", "list"})))
		r := resp.only(t)
		require.Equal(t, discordgo.MessageFlagsEphemeral, r.Data.Flags)
		require.Contains(t, r.Data.Embeds[0].Description, "flood")
	})

	t.Run("someone else without permission", func(t *testing.T) {
		resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, 0), modData(
			[]string{"warn", "list"},
			option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		)))
		require.Contains(t, resp.only(t).Data.Content, "No tienes permisos")
	})

	t.Run("someone else as moderator", func(t *testing.T) {
		resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, discordgo.PermissionModerateMembers), modData(
			[]string{"warn", "list"},
			option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		)))
		require.Contains(t, resp.only(t).Data.Embeds[0].Description, "Cantidad de advertencias:** 0")
	})
}

func TestWarnRemove(t *testing.T) {
	store := newMemoryWarns()
	store.docs[guildID+"/"+targetID] = models.WarnsDocument{GuildID: guildID, UserID: targetID, Warns: []models.Warn{
		{ID: "aaa111", Reason: "spam"},
		{ID: "bbb222", Reason: "flood"},
	}}
	root, _ := roots(store)
	mod := member(callerID, discordgo.PermissionModerateMembers)

	resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, mod, modData(
		[]string{"warn", "remove"},
		option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		option("id", discordgo.ApplicationCommandOptionString, "aaa111"),
	)))
	require.Contains(t, resp.only(t).Data.Embeds[0].Description, "spam")
	require.Equal(t, []models.Warn{{ID: "bbb222", Reason: "flood"}}, store.warns(targetID))

	resp = run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, mod, modData(
		[]string{"warn", "remove"},
		option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		option("id", discordgo.ApplicationCommandOptionString, "zzz"),
	)))
	require.Contains(t, resp.only(t).Data.Content, "No se encontró")
	require.Len(t, store.warns(targetID), 1)
}

func TestWarnRemoveAutocomplete(t *testing.T) {
	store := newMemoryWarns()
	store.docs[guildID+"/"+targetID] = models.WarnsDocument{Warns: []models.Warn{
		{ID: "aaa111", Reason: "spam"},
		{ID: "abc222", Reason: "flood"},
		{ID: "bbb333", Reason: "caps"},
	}}
	root, _ := roots(store)

	focused := option("id", discordgo.ApplicationCommandOptionString, "a")
	focused.Focused = true
	resp := run(t, root, interaction(discordgo.InteractionApplicationCommandAutocomplete, guildID, member(callerID, 0), modData(
		[]string{"warn", "remove"},
		option("usuario", discordgo.ApplicationCommandOptionUser, targetID),
		focused,
	)))

	r := resp.only(t)
	require.Equal(t, discordgo.InteractionApplicationCommandAutocompleteResult, r.Type)
	require.Len(t, r.Data.Choices, 2)
	require.Equal(t, "ID: aaa111 - Razón: spam", r.Data.Choices[0].Name)
	require.Equal(t, "abc222", r.Data.Choices[1].Value)
}

func TestWarnRemoveAutocompleteWithoutUser(t *testing.T) {
	root, _ := roots(newMemoryWarns())

	focused := option("id", discordgo.ApplicationCommandOptionString, "")
	focused.Focused = true
	resp := run(t, root, interaction(discordgo.InteractionApplicationCommandAutocomplete, guildID, member(callerID, 0), modData(
		[]string{"warn", "remove"}, focused,
	)))
	require.Empty(t, resp.only(t).Data.Choices)
}

func TestUserWarnsContextCommand(t *testing.T) {
	store := newMemoryWarns()
	store.docs[guildID+"/"+targetID] = models.WarnsDocument{Warns: []models.Warn{{ID: "x1", Reason: "raid"}}}
	_, user := roots(store)

	data := discordgo.ApplicationCommandInteractionData{
		ID:          "2",
		Name:        "Advertencias",
		CommandType: discordgo.UserApplicationCommand,
		TargetID:    targetID,
		Resolved:    resolved(),
	}

	resp := run(t, user, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, discordgo.PermissionModerateMembers), data))
	require.Contains(t, resp.only(t).Data.Embeds[0].Description, "raid")

	resp = run(t, user, interaction(discordgo.InteractionApplicationCommand, guildID, member(outsiders, 0), data))
	require.Contains(t, resp.only(t).Data.Content, "No tienes permisos")
}

func TestBanChecks(t *testing.T) {
	root, _ := roots(newMemoryWarns())
	data := modData([]string{"ban"}, option("usuario", discordgo.ApplicationCommandOptionUser, targetID))

	t.Run("outside a guild", func(t *testing.T) {
		i := interaction(discordgo.InteractionApplicationCommand, "", nil, data)
		i.User = &discordgo.User{ID: callerID}
		require.Contains(t, run(t, root, i).only(t).Data.Content, "No tienes permisos")
	})

	t.Run("without ban permission", func(t *testing.T) {
		resp := run(t, root, interaction(discordgo.InteractionApplicationCommand, guildID, member(callerID, discordgo.PermissionKickMembers), data))
		require.Contains(t, resp.only(t).Data.Content, "No tienes permisos")
	})
}

func TestReasonOrDefault(t *testing.T) {
	empty, reason := "", "spam"
	require.Equal(t, "Sin razón especificada", reasonOrDefault(nil))
	require.Equal(t, "Sin razón especificada", reasonOrDefault(&empty))
	require.Equal(t, "spam", reasonOrDefault(&reason))
}
