package discord

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Struct tags understood by OptionsFromStruct.
const (
	tagOption       = "option"
	tagDescription  = "description"
	tagDefault      = "default"
	tagMin          = "min"
	tagMax          = "max"
	tagAutocomplete = "autocomplete"
	tagChoices      = "choices"
	tagType         = "type"
)

var (
	typeUser       = reflect.TypeOf((*discordgo.User)(nil))
	typeMember     = reflect.TypeOf((*discordgo.Member)(nil))
	typeChannel    = reflect.TypeOf((*discordgo.Channel)(nil))
	typeRole       = reflect.TypeOf((*discordgo.Role)(nil))
	typeAttachment = reflect.TypeOf((*discordgo.MessageAttachment)(nil))
	typeMessage    = reflect.TypeOf((*discordgo.Message)(nil))
)

var builtinTypes = map[string]Type{
	"string":      String,
	"integer":     Integer,
	"boolean":     Boolean,
	"user":        User,
	"member":      Member,
	"channel":     Channel,
	"role":        Role,
	"mentionable": Mentionable,
	"number":      Number,
	"attachment":  Attachment,
	"message":     Message,
}

// OptionsFromStruct derives options from the exported fields of a struct, in
// declaration order. Function fields and fields tagged `option:"-"` are skipped.
//
//	type Ban struct {
//		Target *discordgo.Member `description:"who to ban"`
//		Days   int64             `option:"days" default:"0" min:"0" max:"7"`
//		Reason *string           `autocomplete:"true"`
//	}
func OptionsFromStruct(v any) ([]*Option, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrInvalidOption, v)
	}

	var options []*Option
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, ok := optionName(field)
		if !ok {
			continue
		}

		opt, err := optionFromField(name, field)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		options = append(options, opt)
	}
	return options, nil
}

// optionName returns the option a field maps to, false when it is skipped.
func optionName(field reflect.StructField) (string, bool) {
	if !field.IsExported() || field.Type.Kind() == reflect.Func {
		return "", false
	}
	tag := field.Tag.Get(tagOption)
	if tag == "-" {
		return "", false
	}
	if tag != "" {
		return tag, true
	}
	return strings.ToLower(field.Name), true
}

func optionFromField(name string, field reflect.StructField) (*Option, error) {
	typ := typeOf(field.Type)
	if explicit := field.Tag.Get(tagType); explicit != "" {
		if builtin, ok := builtinTypes[explicit]; ok {
			typ = builtin
		} else {
			typ = Ref(explicit)
		}
		if field.Type.Kind() == reflect.Ptr && !isEntity(field.Type) {
			typ = Optional(typ)
		}
	}

	base := field.Type
	if base.Kind() == reflect.Ptr && !isEntity(base) {
		base = base.Elem()
	}

	if raw := field.Tag.Get(tagChoices); raw != "" {
		var values []any
		for _, part := range strings.Split(raw, ",") {
			value, err := parseTagValue(base, strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		typ = Literal(values...)
		if field.Type.Kind() == reflect.Ptr {
			typ = Optional(typ)
		}
	}

	opt := NewOption(name, typ).WithDescription(field.Tag.Get(tagDescription))

	if raw, ok := field.Tag.Lookup(tagDefault); ok {
		value, err := parseTagValue(base, raw)
		if err != nil {
			return nil, err
		}
		opt.WithDefault(value)
	}
	if raw := field.Tag.Get(tagMin); raw != "" {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: min %q: %v", ErrInvalidOption, raw, err)
		}
		opt.WithMin(n)
	}
	if raw := field.Tag.Get(tagMax); raw != "" {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: max %q: %v", ErrInvalidOption, raw, err)
		}
		opt.WithMax(n)
	}
	if raw := field.Tag.Get(tagAutocomplete); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: autocomplete %q: %v", ErrInvalidOption, raw, err)
		}
		opt.Autocomplete = enabled
	}
	return opt, nil
}

func isEntity(t reflect.Type) bool {
	switch t {
	case typeUser, typeMember, typeChannel, typeRole, typeAttachment, typeMessage:
		return true
	}
	return false
}

// typeOf maps a Go field type onto an option type. Pointers to plain values
// become Optional.
func typeOf(t reflect.Type) Type {
	switch t {
	case typeUser:
		return User
	case typeMember:
		return Member
	case typeChannel:
		return Channel
	case typeRole:
		return Role
	case typeAttachment:
		return Attachment
	case typeMessage:
		return Message
	}

	switch t.Kind() {
	case reflect.Ptr:
		return Optional(typeOf(t.Elem()))
	case reflect.String, reflect.Interface:
		return String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer
	case reflect.Float32, reflect.Float64:
		return Number
	case reflect.Bool:
		return Boolean
	default:
		return Custom(t.String())
	}
}

// parseTagValue parses a tag literal into the Go value the decoder produces for
// the field kind.
func parseTagValue(t reflect.Type, raw string) (any, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidOption, raw)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidOption, raw)
		}
		return n, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidOption, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// StructFactory returns a Factory building a zero value of proto's type for
// every call. proto must be a pointer for arguments to be bound onto it.
func StructFactory(proto Handler) Factory {
	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Ptr {
		return func() Handler { return proto }
	}
	elem := t.Elem()
	return func() Handler {
		return reflect.New(elem).Interface().(Handler)
	}
}

// bindArguments assigns decoded arguments onto the fields of a struct handler.
// Handlers that are not struct pointers are left alone.
func bindArguments(h Handler, args Arguments) error {
	rv := reflect.ValueOf(h)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	elem := rv.Elem()
	elemType := elem.Type()

	for i := 0; i < elemType.NumField(); i++ {
		field := elemType.Field(i)
		name, ok := optionName(field)
		if !ok {
			continue
		}
		value, exists := args[name]
		if !exists || value == nil {
			continue
		}
		if err := setField(elem.Field(i), value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBind, field.Name, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, value any) error {
	if !fv.CanSet() {
		return nil
	}
	val := reflect.ValueOf(value)
	target := fv.Type()

	if val.Type().AssignableTo(target) {
		fv.Set(val)
		return nil
	}

	if m, ok := value.(*discordgo.Member); ok && target == typeUser {
		fv.Set(reflect.ValueOf(m.User))
		return nil
	}
	if _, ok := value.(*discordgo.User); ok && target == typeMember {
		// outside a guild there is no member to bind
		return nil
	}

	if converted, ok := convert(val, target); ok {
		fv.Set(converted)
		return nil
	}

	if target.Kind() == reflect.Ptr && !isEntity(target) {
		ptr := reflect.New(target.Elem())
		if err := setField(ptr.Elem(), value); err != nil {
			return err
		}
		fv.Set(ptr)
		return nil
	}

	if target.Kind() == reflect.Interface && val.Type().Implements(target) {
		fv.Set(val)
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, target)
}

// convert only converts within the same family (numbers to numbers, strings to
// strings), which reflect.Value.Convert alone does not guarantee.
func convert(val reflect.Value, target reflect.Type) (reflect.Value, bool) {
	from, to := family(val.Kind()), family(target.Kind())
	if from == 0 || from != to || !val.Type().ConvertibleTo(target) {
		return reflect.Value{}, false
	}
	return val.Convert(target), true
}

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	default:
		return 0
	}
}
