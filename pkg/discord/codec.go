package discord

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

const (
	defaultOptionDescription  = "none provided"
	defaultCommandDescription = "no description"
)

// OptionSchema is the registration payload of a single option, subcommand or
// subcommand group.
type OptionSchema struct {
	Type         discordgo.ApplicationCommandOptionType      `json:"type"`
	Name         string                                      `json:"name"`
	Description  string                                      `json:"description"`
	Required     *bool                                       `json:"required,omitempty"`
	Autocomplete *bool                                       `json:"autocomplete,omitempty"`
	Choices      []*discordgo.ApplicationCommandOptionChoice `json:"choices,omitempty"`
	MinValue     *float64                                    `json:"min_value,omitempty"`
	MaxValue     *float64                                    `json:"max_value,omitempty"`
	Options      []*OptionSchema                             `json:"options,omitempty"`
}

// CommandSchema is the registration payload of a top level command.
type CommandSchema struct {
	Name        string                           `json:"name"`
	Type        discordgo.ApplicationCommandType `json:"type"`
	Description string                           `json:"description,omitempty"`
	Options     []*OptionSchema                  `json:"options,omitempty"`
}

// Key identifies a command within one registration scope.
func (s *CommandSchema) Key() CommandKey {
	return CommandKey{Name: s.Name, Type: s.Type}
}

// CommandKey is the (name, kind) pair the remote system treats as unique per scope.
type CommandKey struct {
	Name string
	Type discordgo.ApplicationCommandType
}

func (k CommandKey) String() string {
	return fmt.Sprintf("%s/%d", k.Name, k.Type)
}

// MarshalIndent renders schemas the way they are sent, for dumps and logs.
func MarshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// EncodeOption converts a descriptor with a resolved type into its wire schema.
func EncodeOption(o *Option) (*OptionSchema, error) {
	required := o.Required()
	effective := o.Type()
	if elem, ok := effective.Elem(); ok {
		required = false
		effective = elem
	}

	autocomplete := o.Autocomplete
	description := o.Description
	if description == "" {
		description = defaultOptionDescription
	}
	schema := &OptionSchema{
		Name:         o.Name,
		Description:  description,
		Required:     &required,
		Autocomplete: &autocomplete,
	}

	if effective.kind == KindMentionable {
		schema.Type = discordgo.ApplicationCommandOptionMentionable
	} else if kind, ok := uniformLiteralKind(effective); ok {
		schema.Type = optionTypeLookup[kind]
		schema.Choices = make([]*discordgo.ApplicationCommandOptionChoice, 0, len(effective.literals))
		for _, v := range effective.literals {
			schema.Choices = append(schema.Choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  fmt.Sprint(literalValue(v)),
				Value: literalValue(v),
			})
		}
	}

	if o.Min != nil || o.Max != nil {
		if !effective.isNumeric() {
			return nil, fmt.Errorf("%w: option %q has type %s", ErrMinMaxType, o.Name, effective)
		}
		if o.Min != nil && o.Max != nil && *o.Min > *o.Max {
			return nil, fmt.Errorf("%w: option %q min %v > max %v", ErrMinMaxRange, o.Name, *o.Min, *o.Max)
		}
		schema.MinValue = o.Min
		schema.MaxValue = o.Max
	}

	if schema.Type == 0 {
		schema.Type = wireType(effective)
	}
	return schema, nil
}

// uniformLiteralKind reports the shared primitive kind of a Literal's values.
func uniformLiteralKind(t Type) (Kind, bool) {
	if t.kind != KindLiteral || len(t.literals) == 0 {
		return 0, false
	}
	first, ok := literalKind(t.literals[0])
	if !ok {
		return 0, false
	}
	for _, v := range t.literals[1:] {
		if k, ok := literalKind(v); !ok || k != first {
			return 0, false
		}
	}
	return first, true
}

// literalValue maps entity literals onto their snowflake.
func literalValue(v any) any {
	switch e := v.(type) {
	case *discordgo.User:
		return e.ID
	case *discordgo.Member:
		if e.User != nil {
			return e.User.ID
		}
		return ""
	case *discordgo.Channel:
		return e.ID
	case *discordgo.Role:
		return e.ID
	case *discordgo.MessageAttachment:
		return e.ID
	default:
		return v
	}
}

// Resolver looks up guild scoped entities that were not part of the interaction
// payload. *discordgo.State satisfies it.
type Resolver interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Channel(channelID string) (*discordgo.Channel, error)
	Member(guildID, userID string) (*discordgo.Member, error)
	Role(guildID, roleID string) (*discordgo.Role, error)
}

// decoder resolves wire option values against one interaction.
type decoder struct {
	resolved *discordgo.ApplicationCommandInteractionDataResolved
	guildID  string
	resolver Resolver
}

func newDecoder(data *discordgo.ApplicationCommandInteractionData, guildID string, resolver Resolver) *decoder {
	d := &decoder{guildID: guildID, resolver: resolver}
	if data != nil {
		d.resolved = data.Resolved
	}
	if d.resolved == nil {
		d.resolved = &discordgo.ApplicationCommandInteractionDataResolved{}
	}
	return d
}

// ResolveArguments decodes the supplied options and fills declared but absent
// options from their defaults. A required option that is still missing fails
// with ErrMissingArgument.
func ResolveArguments(ctx *CommandContext, options []*discordgo.ApplicationCommandInteractionDataOption, descriptors []*Option) (Arguments, error) {
	d := ctx.decoder()
	args := make(Arguments, len(descriptors))

	for _, opt := range options {
		value, err := d.resolveArgumentValue(opt)
		if err != nil {
			return nil, err
		}
		args[opt.Name] = value
	}

	for _, desc := range descriptors {
		if _, ok := args[desc.Name]; ok {
			continue
		}
		switch {
		case desc.HasDefault():
			args[desc.Name] = desc.defaultValue(ctx)
		case desc.Required():
			return nil, fmt.Errorf("%w: %s", ErrMissingArgument, desc.Name)
		}
	}
	return args, nil
}

func (d *decoder) resolveArgumentValue(opt *discordgo.ApplicationCommandInteractionDataOption) (any, error) {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionString:
		return toString(opt.Value), nil
	case discordgo.ApplicationCommandOptionInteger:
		return toInt64(opt.Value)
	case discordgo.ApplicationCommandOptionBoolean:
		return toBool(opt.Value)
	case discordgo.ApplicationCommandOptionNumber:
		return toFloat64(opt.Value)
	case discordgo.ApplicationCommandOptionUser:
		return d.user(toString(opt.Value)), nil
	case discordgo.ApplicationCommandOptionChannel:
		return d.channel(toString(opt.Value)), nil
	case discordgo.ApplicationCommandOptionRole:
		return d.role(toString(opt.Value)), nil
	case discordgo.ApplicationCommandOptionMentionable:
		id := toString(opt.Value)
		if _, ok := d.resolved.Users[id]; ok {
			return d.user(id), nil
		}
		return d.role(id), nil
	case discordgo.ApplicationCommandOptionAttachment:
		return d.attachment(toString(opt.Value)), nil
	default:
		return opt.Value, nil
	}
}

// user returns a *discordgo.Member when the payload carries member data, else a
// *discordgo.User.
func (d *decoder) user(id string) any {
	if m, ok := d.resolved.Members[id]; ok && m != nil {
		member := *m
		member.GuildID = d.guildID
		if u, ok := d.resolved.Users[id]; ok {
			member.User = u
		} else if member.User == nil {
			member.User = &discordgo.User{ID: id}
		}
		return &member
	}
	if u, ok := d.resolved.Users[id]; ok && u != nil {
		return u
	}
	if d.resolver != nil && d.guildID != "" {
		if m, err := d.resolver.Member(d.guildID, id); err == nil {
			return m
		}
	}
	return &discordgo.User{ID: id}
}

func (d *decoder) channel(id string) *discordgo.Channel {
	if c, ok := d.resolved.Channels[id]; ok && c != nil {
		channel := *c
		if channel.GuildID == "" {
			channel.GuildID = d.guildID
		}
		return &channel
	}
	if d.resolver != nil {
		if c, err := d.resolver.Channel(id); err == nil {
			return c
		}
	}
	return &discordgo.Channel{ID: id, GuildID: d.guildID}
}

func (d *decoder) role(id string) *discordgo.Role {
	if r, ok := d.resolved.Roles[id]; ok && r != nil {
		return r
	}
	if d.resolver != nil && d.guildID != "" {
		if r, err := d.resolver.Role(d.guildID, id); err == nil {
			return r
		}
	}
	return &discordgo.Role{ID: id}
}

func (d *decoder) attachment(id string) *discordgo.MessageAttachment {
	if a, ok := d.resolved.Attachments[id]; ok && a != nil {
		return a
	}
	return &discordgo.MessageAttachment{ID: id}
}

func (d *decoder) message(id string) *discordgo.Message {
	if m, ok := d.resolved.Messages[id]; ok && m != nil {
		return m
	}
	return &discordgo.Message{ID: id}
}

// resolveTarget builds the single argument of a context menu command.
func (d *decoder) resolveTarget(kind discordgo.ApplicationCommandType, targetID string) (string, any) {
	switch kind {
	case discordgo.UserApplicationCommand:
		return UserTargetName, d.user(targetID)
	case discordgo.MessageApplicationCommand:
		return MessageTargetName, d.message(targetID)
	default:
		return "", nil
	}
}

// autocompleteValue reduces entity references to their numeric id.
func autocompleteValue(opt *discordgo.ApplicationCommandInteractionDataOption) any {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionUser,
		discordgo.ApplicationCommandOptionChannel,
		discordgo.ApplicationCommandOptionRole:
		id, err := strconv.ParseInt(toString(opt.Value), 10, 64)
		if err != nil {
			return opt.Value
		}
		return id
	default:
		return opt.Value
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case interface{ Int64() (int64, error) }:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("cannot use %T as integer", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case interface{ Float64() (float64, error) }:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("cannot use %T as number", v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("cannot use %T as boolean", v)
	}
}

// sortedChoices turns a plain map into choices ordered by name.
func sortedChoices[V any](m map[string]V) []*discordgo.ApplicationCommandOptionChoice {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: m[name]})
	}
	return choices
}
