package discord

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Kind identifies the shape of an option Type.
type Kind int

const (
	KindString Kind = iota + 1
	KindInteger
	KindBoolean
	KindUser
	KindMember
	KindChannel
	KindRole
	KindMentionable
	KindNumber
	KindAttachment
	KindMessage
	KindOptional
	KindLiteral
	KindCustom
	KindRef
)

// Type is the declared type of a command option.
type Type struct {
	kind     Kind
	name     string
	elem     *Type
	literals []any
}

// Built-in option types.
var (
	String      = Type{kind: KindString}
	Integer     = Type{kind: KindInteger}
	Boolean     = Type{kind: KindBoolean}
	User        = Type{kind: KindUser}
	Member      = Type{kind: KindMember}
	Channel     = Type{kind: KindChannel}
	Role        = Type{kind: KindRole}
	Mentionable = Type{kind: KindMentionable} // role or member
	Number      = Type{kind: KindNumber}
	Attachment  = Type{kind: KindAttachment}
	Message     = Type{kind: KindMessage}
)

// Optional declares an option that may be left out; it is never required.
func Optional(t Type) Type {
	return Type{kind: KindOptional, elem: &t}
}

// Literal declares a closed set of values offered to the user as choices.
func Literal(values ...any) Type {
	return Type{kind: KindLiteral, literals: values}
}

// Custom names a type the wire protocol has no tag for. It is sent as a string.
func Custom(name string) Type {
	return Type{kind: KindCustom, name: name}
}

// Ref is a symbolic reference resolved through a TypeRegistry the first time the
// command schema is built.
func Ref(name string) Type {
	return Type{kind: KindRef, name: name}
}

// Kind returns the kind of t.
func (t Type) Kind() Kind { return t.kind }

// Elem returns the wrapped type of an Optional.
func (t Type) Elem() (Type, bool) {
	if t.kind != KindOptional || t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

// Literals returns the values of a Literal type.
func (t Type) Literals() []any { return t.literals }

func (t Type) String() string {
	switch t.kind {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindUser:
		return "user"
	case KindMember:
		return "member"
	case KindChannel:
		return "channel"
	case KindRole:
		return "role"
	case KindMentionable:
		return "mentionable"
	case KindNumber:
		return "number"
	case KindAttachment:
		return "attachment"
	case KindMessage:
		return "message"
	case KindOptional:
		if t.elem == nil {
			return "optional[?]"
		}
		return "optional[" + t.elem.String() + "]"
	case KindLiteral:
		parts := make([]string, len(t.literals))
		for i, v := range t.literals {
			parts[i] = fmt.Sprintf("%v", v)
		}
		return "literal[" + strings.Join(parts, ", ") + "]"
	case KindCustom:
		return t.name
	case KindRef:
		return "ref(" + t.name + ")"
	default:
		return "unknown"
	}
}

func (t Type) isNumeric() bool {
	return t.kind == KindInteger || t.kind == KindNumber
}

// optionTypeLookup is the fixed kind -> wire tag table.
var optionTypeLookup = map[Kind]discordgo.ApplicationCommandOptionType{
	KindString:      discordgo.ApplicationCommandOptionString,
	KindInteger:     discordgo.ApplicationCommandOptionInteger,
	KindBoolean:     discordgo.ApplicationCommandOptionBoolean,
	KindUser:        discordgo.ApplicationCommandOptionUser,
	KindMember:      discordgo.ApplicationCommandOptionUser,
	KindChannel:     discordgo.ApplicationCommandOptionChannel,
	KindRole:        discordgo.ApplicationCommandOptionRole,
	KindMentionable: discordgo.ApplicationCommandOptionMentionable,
	KindNumber:      discordgo.ApplicationCommandOptionNumber,
	KindAttachment:  discordgo.ApplicationCommandOptionAttachment,
}

// wireType returns the wire tag of a concrete type, defaulting to string.
func wireType(t Type) discordgo.ApplicationCommandOptionType {
	if tag, ok := optionTypeLookup[t.kind]; ok {
		return tag
	}
	return discordgo.ApplicationCommandOptionString
}

// literalKind reports the primitive kind of a literal value.
func literalKind(v any) (Kind, bool) {
	switch v.(type) {
	case string:
		return KindString, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger, true
	case bool:
		return KindBoolean, true
	case float32, float64:
		return KindNumber, true
	case *discordgo.User, *discordgo.Member:
		return KindUser, true
	case *discordgo.Channel:
		return KindChannel, true
	case *discordgo.Role:
		return KindRole, true
	case *discordgo.MessageAttachment:
		return KindAttachment, true
	default:
		return 0, false
	}
}

// TypeRegistry resolves Ref names to concrete types.
type TypeRegistry map[string]Type

const maxRefDepth = 8

func (r TypeRegistry) resolve(t Type) (Type, error) {
	return r.resolveDepth(t, 0)
}

func (r TypeRegistry) resolveDepth(t Type, depth int) (Type, error) {
	if depth > maxRefDepth {
		return Type{}, fmt.Errorf("%w: reference cycle at %s", ErrTypeResolution, t)
	}
	switch t.kind {
	case KindRef:
		target, ok := r[t.name]
		if !ok {
			return Type{}, fmt.Errorf("%w: %q is not registered", ErrTypeResolution, t.name)
		}
		return r.resolveDepth(target, depth+1)
	case KindOptional:
		if t.elem == nil {
			return Type{}, fmt.Errorf("%w: optional without element type", ErrTypeResolution)
		}
		elem, err := r.resolveDepth(*t.elem, depth+1)
		if err != nil {
			return Type{}, err
		}
		return Optional(elem), nil
	default:
		return t, nil
	}
}

// DefaultFunc computes an option default from the interaction being dispatched.
type DefaultFunc func(ctx *CommandContext) any

// Option describes one command parameter.
type Option struct {
	Name         string
	Description  string
	Autocomplete bool
	Min          *float64
	Max          *float64

	declared   Type
	def        any
	defFunc    DefaultFunc
	hasDefault bool

	resolveOnce sync.Once
	resolved    Type
	resolveErr  error
}

// NewOption creates an option. Without a default the option is required unless
// its type is Optional.
func NewOption(name string, t Type) *Option {
	return &Option{Name: name, declared: t}
}

// WithDescription sets the option description
func (o *Option) WithDescription(description string) *Option {
	o.Description = description
	return o
}

// WithDefault sets a default value. A DefaultFunc (or a plain
// func(*CommandContext) any) is called per interaction instead.
func (o *Option) WithDefault(v any) *Option {
	switch fn := v.(type) {
	case DefaultFunc:
		return o.WithDefaultFunc(fn)
	case func(*CommandContext) any:
		return o.WithDefaultFunc(fn)
	}
	o.def = v
	o.defFunc = nil
	o.hasDefault = true
	return o
}

// WithDefaultFunc sets an interaction dependent default
func (o *Option) WithDefaultFunc(fn DefaultFunc) *Option {
	o.def = nil
	o.defFunc = fn
	o.hasDefault = true
	return o
}

// WithAutocomplete enables autocomplete for the option
func (o *Option) WithAutocomplete() *Option {
	o.Autocomplete = true
	return o
}

// WithMin sets the inclusive lower bound
func (o *Option) WithMin(v float64) *Option {
	o.Min = &v
	return o
}

// WithMax sets the inclusive upper bound
func (o *Option) WithMax(v float64) *Option {
	o.Max = &v
	return o
}

// DeclaredType returns the type the option was declared with, unresolved.
func (o *Option) DeclaredType() Type { return o.declared }

// HasDefault reports whether a default value or func was configured.
func (o *Option) HasDefault() bool { return o.hasDefault }

// Type returns the resolved type. It is only meaningful after the owning command
// built its schema.
func (o *Option) Type() Type {
	if o.resolved.kind != 0 {
		return o.resolved
	}
	return o.declared
}

// Required reports whether the option must be supplied by the user.
func (o *Option) Required() bool {
	return !o.hasDefault && o.Type().kind != KindOptional
}

// resolve resolves the declared type once and caches the result.
func (o *Option) resolve(reg TypeRegistry) (Type, error) {
	o.resolveOnce.Do(func() {
		o.resolved, o.resolveErr = reg.resolve(o.declared)
		if o.resolveErr != nil {
			o.resolveErr = fmt.Errorf("option %q: %w", o.Name, o.resolveErr)
		}
	})
	return o.resolved, o.resolveErr
}

func (o *Option) defaultValue(ctx *CommandContext) any {
	if o.defFunc != nil {
		return o.defFunc(ctx)
	}
	return o.def
}

func (o *Option) String() string {
	def := "<missing>"
	if o.hasDefault {
		def = fmt.Sprintf("%v", o.def)
		if o.defFunc != nil {
			def = "<func>"
		}
	}
	return fmt.Sprintf("<Option name=%s type=%s default=%s>", o.Name, o.Type(), def)
}
