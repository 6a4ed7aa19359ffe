package discord

import (
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

type giveaway struct {
	Prize    string `description:"what is given away"`
	Winners  int    `default:"1" min:"1" max:"10"`
	Channel  *discordgo.Channel
	Mode     string   `choices:"random, first"`
	Ratio    *float64 `option:"weight"`
	Tier     string   `type:"Tier"`
	Search   string   `autocomplete:"true"`
	Internal string   `option:"-"`
	OnDone   func()
	secret   string
}

func (g *giveaway) Callback(*CommandContext) error { return nil }

func TestOptionsFromStruct(t *testing.T) {
	opts, err := OptionsFromStruct(&giveaway{})
	require.NoError(t, err)

	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Name)
	}
	require.Equal(t, []string{"prize", "winners", "channel", "mode", "weight", "tier", "search"}, names)

	require.Equal(t, "what is given away", opts[0].Description)
	require.True(t, opts[0].Required())

	require.Equal(t, KindInteger, opts[1].DeclaredType().Kind())
	require.True(t, opts[1].HasDefault())
	require.False(t, opts[1].Required())
	require.Equal(t, 1.0, *opts[1].Min)
	require.Equal(t, 10.0, *opts[1].Max)

	require.Equal(t, KindChannel, opts[2].DeclaredType().Kind())
	require.Equal(t, KindLiteral, opts[3].DeclaredType().Kind())
	require.Equal(t, []any{"random", "first"}, opts[3].DeclaredType().Literals())

	require.Equal(t, KindOptional, opts[4].DeclaredType().Kind())
	elem, ok := opts[4].DeclaredType().Elem()
	require.True(t, ok)
	require.Equal(t, KindNumber, elem.Kind())
	require.False(t, opts[4].Required())

	require.Equal(t, KindRef, opts[5].DeclaredType().Kind())
	require.True(t, opts[6].Autocomplete)
}

func TestOptionsFromStructErrors(t *testing.T) {
	_, err := OptionsFromStruct(42)
	require.ErrorIs(t, err, ErrInvalidOption)

	type badDefault struct {
		Count int `default:"many"`
	}
	_, err = OptionsFromStruct(badDefault{})
	require.ErrorIs(t, err, ErrInvalidOption)
	require.Contains(t, err.Error(), "Count")
}

func TestWithStructSchema(t *testing.T) {
	cmd := NewSlashCommand("giveaway", "start a giveaway", nil).
		WithTypes(TypeRegistry{"Tier": Literal("gold", "silver")}).
		WithStruct(&giveaway{})

	schema, err := cmd.Schema()
	require.NoError(t, err)
	require.Len(t, schema.Options, 7)
	require.Len(t, schema.Options[3].Choices, 2)
	require.Len(t, schema.Options[5].Choices, 2)

	first, ok := cmd.factory().(*giveaway)
	require.True(t, ok)
	second := cmd.factory().(*giveaway)
	require.NotSame(t, first, second)
}

func TestBindArguments(t *testing.T) {
	h := &giveaway{}
	member := &discordgo.Member{Nick: "n", User: &discordgo.User{ID: "1"}}
	err := bindArguments(h, Arguments{
		"prize":   "a cake",
		"winners": int64(3),
		"channel": &discordgo.Channel{ID: "9"},
		"weight":  0.5,
		"tier":    nil,
		"unknown": "ignored",
	})
	require.NoError(t, err)

	require.Equal(t, "a cake", h.Prize)
	require.Equal(t, 3, h.Winners)
	require.Equal(t, "9", h.Channel.ID)
	require.NotNil(t, h.Ratio)
	require.Equal(t, 0.5, *h.Ratio)
	require.Empty(t, h.Tier)

	type who struct {
		Target *discordgo.User
		Member *discordgo.Member
	}
	w := &who{}
	require.NoError(t, setField(reflectField(w, 0), member))
	require.Equal(t, "1", w.Target.ID)
	require.NoError(t, setField(reflectField(w, 1), &discordgo.User{ID: "2"}))
	require.Nil(t, w.Member)
}

func TestBindArgumentsRejectsOtherFamilies(t *testing.T) {
	err := bindArguments(&giveaway{}, Arguments{"winners": "three"})
	require.ErrorIs(t, err, ErrBind)
	require.Contains(t, err.Error(), "Winners")
}

func TestBindIgnoresNonStructHandlers(t *testing.T) {
	require.NoError(t, bindArguments(HandlerFunc(func(*CommandContext) error { return nil }), Arguments{"x": 1}))
}

func reflectField(v any, i int) reflect.Value {
	return reflect.ValueOf(v).Elem().Field(i)
}
