package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, o *Option) *OptionSchema {
	t.Helper()
	_, err := o.resolve(nil)
	require.NoError(t, err)
	schema, err := EncodeOption(o)
	require.NoError(t, err)
	return schema
}

func TestEncodeOptionDefaults(t *testing.T) {
	schema := encode(t, NewOption("query", String))

	require.Equal(t, discordgo.ApplicationCommandOptionString, schema.Type)
	require.Equal(t, "query", schema.Name)
	require.Equal(t, "none provided", schema.Description)
	require.True(t, *schema.Required)
	require.False(t, *schema.Autocomplete)
	require.Nil(t, schema.Choices)
	require.Nil(t, schema.MinValue)
	require.Nil(t, schema.MaxValue)
}

func TestEncodeOptionWithDefaultIsNotRequired(t *testing.T) {
	schema := encode(t, NewOption("count", Integer).WithDefault(int64(3)).WithDescription("how many").WithAutocomplete())

	require.False(t, *schema.Required)
	require.True(t, *schema.Autocomplete)
	require.Equal(t, "how many", schema.Description)
}

func TestEncodeOptionTypeTable(t *testing.T) {
	tests := []struct {
		typ  Type
		want discordgo.ApplicationCommandOptionType
	}{
		{String, 3},
		{Integer, 4},
		{Boolean, 5},
		{User, 6},
		{Member, 6},
		{Channel, 7},
		{Role, 8},
		{Mentionable, 9},
		{Number, 10},
		{Attachment, 11},
		{Custom("Color"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			require.Equal(t, tt.want, encode(t, NewOption("x", tt.typ)).Type)
		})
	}
}

func TestEncodeOptionalIsNeverRequired(t *testing.T) {
	for _, typ := range []Type{String, Integer, Role, Mentionable, Literal("a", "b")} {
		schema := encode(t, NewOption("x", Optional(typ)))
		require.False(t, *schema.Required, typ.String())
	}

	schema := encode(t, NewOption("days", Optional(Integer)).WithMin(0).WithMax(7))
	require.Equal(t, discordgo.ApplicationCommandOptionInteger, schema.Type)
	require.Equal(t, 0.0, *schema.MinValue)
	require.Equal(t, 7.0, *schema.MaxValue)
}

func TestEncodeLiteralChoices(t *testing.T) {
	schema := encode(t, NewOption("letter", Literal("a", "b", "c")))

	require.Equal(t, discordgo.ApplicationCommandOptionString, schema.Type)
	require.Equal(t, []*discordgo.ApplicationCommandOptionChoice{
		{Name: "a", Value: "a"},
		{Name: "b", Value: "b"},
		{Name: "c", Value: "c"},
	}, schema.Choices)

	ints := encode(t, NewOption("n", Literal(1, 2)))
	require.Equal(t, discordgo.ApplicationCommandOptionInteger, ints.Type)
	require.Equal(t, "1", ints.Choices[0].Name)
	require.Equal(t, 1, ints.Choices[0].Value)
}

func TestEncodeMixedLiteralFallsBackToString(t *testing.T) {
	schema := encode(t, NewOption("x", Literal("a", 1)))

	require.Equal(t, discordgo.ApplicationCommandOptionString, schema.Type)
	require.Nil(t, schema.Choices)
}

func TestEncodeBounds(t *testing.T) {
	schema := encode(t, NewOption("ratio", Number).WithMin(0.5))
	require.Equal(t, 0.5, *schema.MinValue)
	require.Nil(t, schema.MaxValue)

	_, err := EncodeOption(NewOption("name", String).WithMin(1))
	require.ErrorIs(t, err, ErrMinMaxType)
	require.Contains(t, err.Error(), `"name"`)
	require.Contains(t, err.Error(), "string")

	_, err = EncodeOption(NewOption("days", Integer).WithMin(8).WithMax(7))
	require.ErrorIs(t, err, ErrMinMaxRange)

	_, err = EncodeOption(NewOption("days", Integer).WithMin(7).WithMax(7))
	require.NoError(t, err)
}

func TestPrimitiveRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value any
	}{
		{"string", String, "hello"},
		{"integer", Integer, int64(42)},
		{"boolean", Boolean, true},
		{"number", Number, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOption("value", tt.typ)
			schema := encode(t, o)

			i := commandInteraction("1", "cmd", opt("value", schema.Type, tt.value))
			args, err := ResolveArguments(testContext(i, nil), i.ApplicationCommandData().Options, []*Option{o})
			require.NoError(t, err)
			require.Equal(t, tt.value, args["value"])
		})
	}
}

func TestIntegersArriveAsFloat(t *testing.T) {
	o := NewOption("count", Integer)
	i := commandInteraction("1", "cmd", opt("count", discordgo.ApplicationCommandOptionInteger, float64(7)))

	args, err := ResolveArguments(testContext(i, nil), i.ApplicationCommandData().Options, []*Option{o})
	require.NoError(t, err)
	require.Equal(t, int64(7), args["count"])
	require.Equal(t, int64(7), args.Int("count"))
}

func TestResolveDefaults(t *testing.T) {
	var seen *CommandContext
	descriptors := []*Option{
		NewOption("reason", String).WithDefault("no reason"),
		NewOption("caller", String).WithDefaultFunc(func(ctx *CommandContext) any {
			seen = ctx
			return ctx.User().ID
		}),
		NewOption("note", Optional(String)),
	}

	i := commandInteraction("1", "cmd")
	ctx := testContext(i, nil)
	args, err := ResolveArguments(ctx, nil, descriptors)
	require.NoError(t, err)

	require.Equal(t, "no reason", args["reason"])
	require.Equal(t, "caller", args["caller"])
	require.Same(t, ctx, seen)
	require.False(t, args.Has("note"))
}

func TestResolveMissingRequired(t *testing.T) {
	i := commandInteraction("1", "cmd")
	_, err := ResolveArguments(testContext(i, nil), nil, []*Option{NewOption("target", User)})
	require.ErrorIs(t, err, ErrMissingArgument)
}

func TestResolveEntities(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		ID:   "1",
		Name: "cmd",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			opt("member", discordgo.ApplicationCommandOptionUser, "10"),
			opt("channel", discordgo.ApplicationCommandOptionChannel, "20"),
			opt("role", discordgo.ApplicationCommandOptionRole, "30"),
			opt("file", discordgo.ApplicationCommandOptionAttachment, "40"),
			opt("who", discordgo.ApplicationCommandOptionMentionable, "30"),
		},
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Users:       map[string]*discordgo.User{"10": {ID: "10", Username: "ana"}},
			Members:     map[string]*discordgo.Member{"10": {Nick: "Ana"}},
			Channels:    map[string]*discordgo.Channel{"20": {ID: "20", Name: "general"}},
			Roles:       map[string]*discordgo.Role{"30": {ID: "30", Name: "mods"}},
			Attachments: map[string]*discordgo.MessageAttachment{"40": {ID: "40", Filename: "log.txt"}},
		},
	}
	i := interaction(discordgo.InteractionApplicationCommand, data)

	args, err := ResolveArguments(testContext(i, nil), data.Options, nil)
	require.NoError(t, err)

	member := args.Member("member")
	require.NotNil(t, member)
	require.Equal(t, "Ana", member.Nick)
	require.Equal(t, "ana", member.User.Username)
	require.Equal(t, "guild-1", member.GuildID)
	require.Equal(t, "ana", args.User("member").Username)

	require.Equal(t, "general", args.Channel("channel").Name)
	require.Equal(t, "guild-1", args.Channel("channel").GuildID)
	require.Equal(t, "mods", args.Role("role").Name)
	require.Equal(t, "log.txt", args.Attachment("file").Filename)
	require.Equal(t, "mods", args.Role("who").Name)

	// the resolved member in the payload is not modified
	require.Empty(t, data.Resolved.Members["10"].GuildID)
}

func TestResolveUserWithoutMembers(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		ID:       "1",
		Name:     "cmd",
		Options:  []*discordgo.ApplicationCommandInteractionDataOption{opt("user", discordgo.ApplicationCommandOptionUser, "10")},
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{Users: map[string]*discordgo.User{"10": {ID: "10", Username: "ana"}}},
	}
	i := interaction(discordgo.InteractionApplicationCommand, data)

	args, err := ResolveArguments(testContext(i, nil), data.Options, nil)
	require.NoError(t, err)
	require.Nil(t, args.Member("user"))
	require.Equal(t, "ana", args.User("user").Username)
}

func TestResolveFallsBackToResolver(t *testing.T) {
	resolver := &fakeResolver{members: map[string]*discordgo.Member{"10": {User: &discordgo.User{ID: "10"}, Nick: "cached"}}}
	i := commandInteraction("1", "cmd", opt("user", discordgo.ApplicationCommandOptionUser, "10"), opt("role", discordgo.ApplicationCommandOptionRole, "30"))

	args, err := ResolveArguments(testContext(i, resolver), i.ApplicationCommandData().Options, nil)
	require.NoError(t, err)
	require.Equal(t, "cached", args.Member("user").Nick)
	require.Equal(t, "30", args.Role("role").ID)
}

func TestResolveBadInteger(t *testing.T) {
	i := commandInteraction("1", "cmd", opt("n", discordgo.ApplicationCommandOptionInteger, "abc"))
	_, err := ResolveArguments(testContext(i, nil), i.ApplicationCommandData().Options, nil)
	require.Error(t, err)
}

func TestAutocompleteValueReducesEntities(t *testing.T) {
	require.Equal(t, int64(10), autocompleteValue(opt("u", discordgo.ApplicationCommandOptionUser, "10")))
	require.Equal(t, int64(20), autocompleteValue(opt("c", discordgo.ApplicationCommandOptionChannel, "20")))
	require.Equal(t, int64(30), autocompleteValue(opt("r", discordgo.ApplicationCommandOptionRole, "30")))
	require.Equal(t, "tok", autocompleteValue(opt("s", discordgo.ApplicationCommandOptionString, "tok")))
}

func TestMarshalSchema(t *testing.T) {
	out, err := MarshalIndent(encode(t, NewOption("days", Integer).WithMin(1)))
	require.NoError(t, err)

	require.Contains(t, string(out), `"type": 4`)
	require.Contains(t, string(out), `"required": true`)
	require.Contains(t, string(out), `"autocomplete": false`)
	require.Contains(t, string(out), `"min_value": 1`)
	require.NotContains(t, string(out), "max_value")
	require.NotContains(t, string(out), "choices")
}
