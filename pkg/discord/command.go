// Package discord is the application command engine: command definitions,
// option schemas, registration and interaction dispatch on top of discordgo.
package discord

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Names of the single argument of context menu commands.
const (
	UserTargetName    = "target"
	MessageTargetName = "message"
)

// Handler is one command invocation. A new Handler is built for every interaction.
type Handler interface {
	Callback(ctx *CommandContext) error
}

// PreChecker runs before any argument is resolved.
type PreChecker interface {
	PreCheck(ctx *CommandContext) (bool, error)
}

// Checker runs once arguments are available on the context and bound.
type Checker interface {
	Check(ctx *CommandContext) (bool, error)
}

// AutoCompleter answers autocomplete requests. options holds every declared
// option, nil when the user has not typed it yet.
type AutoCompleter interface {
	AutoComplete(ctx *CommandContext, options map[string]any, focused string) (any, error)
}

// ErrorHandler receives every error raised while dispatching.
type ErrorHandler interface {
	OnError(ctx *CommandContext, err error)
}

// Describer supplies the description when the command does not set one.
type Describer interface {
	Describe() string
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(ctx *CommandContext) error

// Callback calls f(ctx).
func (f HandlerFunc) Callback(ctx *CommandContext) error {
	return f(ctx)
}

// Factory builds a fresh Handler.
type Factory func() Handler

// Func wraps a function as a Factory.
func Func(fn HandlerFunc) Factory {
	return func() Handler { return fn }
}

// Permission is one per-guild override for a role or a user.
type Permission struct {
	Type    discordgo.ApplicationCommandPermissionType
	Allowed bool
}

// Command is a node in the command tree: a slash command, a subcommand group,
// a subcommand, or a context menu command.
type Command struct {
	Name        string
	Description string
	Category    string
	Kind        discordgo.ApplicationCommandType

	options []*Option
	types   TypeRegistry
	guilds  []string
	factory Factory
	defErr  error

	parent   *Command
	children []*Command

	mu          sync.RWMutex
	ids         map[string]string
	permissions map[string]map[string]Permission
}

func newCommand(name, description string, kind discordgo.ApplicationCommandType, factory Factory) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Kind:        kind,
		factory:     factory,
		ids:         make(map[string]string),
		permissions: make(map[string]map[string]Permission),
	}
}

// NewSlashCommand creates a chat input command. factory may be nil for a
// command that only groups subcommands.
func NewSlashCommand(name, description string, factory Factory) *Command {
	return newCommand(name, description, discordgo.ChatApplicationCommand, factory)
}

// NewUserCommand creates a user context menu command. Its only argument is the
// targeted member (or user outside guilds), named "target".
func NewUserCommand(name string, factory Factory) *Command {
	c := newCommand(name, "", discordgo.UserApplicationCommand, factory)
	c.options = []*Option{NewOption(UserTargetName, Member)}
	return c
}

// NewMessageCommand creates a message context menu command. Its only argument
// is the targeted message, named "message".
func NewMessageCommand(name string, factory Factory) *Command {
	c := newCommand(name, "", discordgo.MessageApplicationCommand, factory)
	c.options = []*Option{NewOption(MessageTargetName, Message)}
	return c
}

// WithOptions sets the command options
func (c *Command) WithOptions(opts ...*Option) *Command {
	c.options = opts
	return c
}

// WithStruct derives the options from the exported fields of proto and builds
// each invocation on a new value of the same type.
func (c *Command) WithStruct(proto Handler) *Command {
	opts, err := OptionsFromStruct(proto)
	if err != nil {
		c.defErr = err
		return c
	}
	c.options = opts
	c.factory = StructFactory(proto)
	if c.Description == "" {
		if d, ok := proto.(Describer); ok {
			c.Description = d.Describe()
		}
	}
	return c
}

// WithGuilds restricts the command to the given guilds instead of the global scope.
func (c *Command) WithGuilds(guildIDs ...string) *Command {
	c.guilds = append(c.guilds, guildIDs...)
	return c
}

// WithTypes sets the registry Ref option types are resolved against.
// Subcommands without one use their parent's.
func (c *Command) WithTypes(reg TypeRegistry) *Command {
	c.types = reg
	return c
}

// WithCategory sets the category shown by the help command
func (c *Command) WithCategory(category string) *Command {
	c.Category = category
	return c
}

// Options returns the declared options in order.
func (c *Command) Options() []*Option { return c.options }

// Guilds returns the guilds the command is restricted to, nil for global.
func (c *Command) Guilds() []string { return c.guilds }

// Parent returns the enclosing command, nil for a root.
func (c *Command) Parent() *Command { return c.parent }

// Children returns the subcommands in registration order.
func (c *Command) Children() []*Command { return c.children }

// Child looks up a direct subcommand by name.
func (c *Command) Child(name string) (*Command, bool) {
	for _, child := range c.children {
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}

// Root returns the top level command this node belongs to.
func (c *Command) Root() *Command {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// QualifiedName is the space separated path from the root, as users type it.
func (c *Command) QualifiedName() string {
	parts := []string{c.Name}
	for p := c.parent; p != nil; p = p.parent {
		parts = append([]string{p.Name}, parts...)
	}
	return strings.Join(parts, " ")
}

// Key returns the (name, kind) pair of the node.
func (c *Command) Key() CommandKey {
	return CommandKey{Name: c.Name, Type: c.Kind}
}

// RegisterSubcommand makes child a subcommand of parent. Registering a child
// with a name that already exists replaces it in place.
func RegisterSubcommand(parent, child *Command) error {
	if parent.Kind != discordgo.ChatApplicationCommand || child.Kind != discordgo.ChatApplicationCommand {
		return &DefinitionError{Command: child.Name, Err: fmt.Errorf("%w: only slash commands nest", ErrInvalidOption)}
	}
	if parent.parent != nil && parent.parent.parent != nil {
		return &DefinitionError{Command: child.Name, Err: fmt.Errorf("%w: %q is already two levels deep", ErrInvalidOption, parent.QualifiedName())}
	}
	if child.parent != nil && child.parent != parent {
		return &DefinitionError{Command: child.Name, Err: fmt.Errorf("%w: already a subcommand of %q", ErrInvalidOption, child.parent.Name)}
	}

	child.parent = parent
	for i, existing := range parent.children {
		if existing.Name == child.Name {
			parent.children[i] = child
			return nil
		}
	}
	parent.children = append(parent.children, child)
	return nil
}

// AddSubcommands registers every child under c and panics on a definition error.
func (c *Command) AddSubcommands(children ...*Command) *Command {
	for _, child := range children {
		if err := RegisterSubcommand(c, child); err != nil {
			panic(err)
		}
	}
	return c
}

func (c *Command) typeRegistry() TypeRegistry {
	for n := c; n != nil; n = n.parent {
		if n.types != nil {
			return n.types
		}
	}
	return nil
}

func (c *Command) description() string {
	if c.Description != "" {
		return c.Description
	}
	if c.factory != nil {
		if d, ok := c.factory().(Describer); ok && d.Describe() != "" {
			return d.Describe()
		}
	}
	return defaultCommandDescription
}

// Validate checks the definition of c and all its subcommands, resolving Ref
// option types on the way.
func (c *Command) Validate() error {
	if err := c.validate(); err != nil {
		var defErr *DefinitionError
		if errors.As(err, &defErr) {
			return err
		}
		return &DefinitionError{Command: c.QualifiedName(), Err: err}
	}
	return nil
}

func (c *Command) validate() error {
	if c.defErr != nil {
		return c.defErr
	}
	if c.Name == "" {
		return fmt.Errorf("%w: empty command name", ErrInvalidOption)
	}

	switch c.Kind {
	case discordgo.UserApplicationCommand:
		if len(c.options) != 1 || c.options[0].Name != UserTargetName {
			return fmt.Errorf("%w: user commands take exactly one argument named %q", ErrArgumentMismatch, UserTargetName)
		}
	case discordgo.MessageApplicationCommand:
		if len(c.options) != 1 || c.options[0].Name != MessageTargetName {
			return fmt.Errorf("%w: message commands take exactly one argument named %q", ErrArgumentMismatch, MessageTargetName)
		}
	}

	if len(c.children) > 0 {
		if len(c.options) > 0 {
			return fmt.Errorf("%w: a command with subcommands cannot declare options", ErrInvalidOption)
		}
		for _, child := range c.children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	}

	if c.factory == nil {
		return fmt.Errorf("%w: no handler", ErrInvalidOption)
	}

	reg := c.typeRegistry()
	seen := make(map[string]bool, len(c.options))
	for _, o := range c.options {
		if seen[o.Name] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidOption, o.Name)
		}
		seen[o.Name] = true
		if _, err := o.resolve(reg); err != nil {
			return err
		}
		if _, err := EncodeOption(o); err != nil {
			return err
		}
	}
	return nil
}

// Schema serializes the command into its registration payload.
func (c *Command) Schema() (*CommandSchema, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	schema := &CommandSchema{Name: c.Name, Type: c.Kind}
	if c.Kind != discordgo.ChatApplicationCommand {
		return schema, nil
	}

	schema.Description = c.description()
	options, err := c.optionSchemas()
	if err != nil {
		return nil, &DefinitionError{Command: c.QualifiedName(), Err: err}
	}
	schema.Options = options
	return schema, nil
}

// optionSchemas returns the nested subcommand schemas of a group, or the encoded
// options of a leaf.
func (c *Command) optionSchemas() ([]*OptionSchema, error) {
	if len(c.children) > 0 {
		out := make([]*OptionSchema, 0, len(c.children))
		for _, child := range c.children {
			nested, err := child.optionSchemas()
			if err != nil {
				return nil, err
			}
			typ := discordgo.ApplicationCommandOptionSubCommand
			if len(child.children) > 0 {
				typ = discordgo.ApplicationCommandOptionSubCommandGroup
			}
			out = append(out, &OptionSchema{
				Type:        typ,
				Name:        child.Name,
				Description: child.description(),
				Options:     nested,
			})
		}
		return out, nil
	}

	out := make([]*OptionSchema, 0, len(c.options))
	for _, o := range c.options {
		encoded, err := EncodeOption(o)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

// ID returns the id the remote system assigned to the command in scope
// ("" for global).
func (c *Command) ID(scope string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[scope]
	return id, ok
}

func (c *Command) setID(scope, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[scope] = id
}

// SetPermissions replaces the overrides of a guild. Keys are role or user ids.
func (c *Command) SetPermissions(guildID string, overrides map[string]Permission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(overrides) == 0 {
		delete(c.permissions, guildID)
		return
	}
	copied := make(map[string]Permission, len(overrides))
	for target, p := range overrides {
		copied[target] = p
	}
	c.permissions[guildID] = copied
}

// SetPermission adds or replaces a single override.
func (c *Command) SetPermission(guildID, targetID string, typ discordgo.ApplicationCommandPermissionType, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.permissions[guildID] == nil {
		c.permissions[guildID] = make(map[string]Permission)
	}
	c.permissions[guildID][targetID] = Permission{Type: typ, Allowed: allowed}
}

// PermissionGuilds lists the guilds that carry overrides, sorted.
func (c *Command) PermissionGuilds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	guilds := make([]string, 0, len(c.permissions))
	for g := range c.permissions {
		guilds = append(guilds, g)
	}
	sort.Strings(guilds)
	return guilds
}

// PermissionsPayload renders the overrides of a guild, sorted by target id.
func (c *Command) PermissionsPayload(guildID string) []*discordgo.ApplicationCommandPermissions {
	c.mu.RLock()
	defer c.mu.RUnlock()

	overrides := c.permissions[guildID]
	targets := make([]string, 0, len(overrides))
	for target := range overrides {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	payload := make([]*discordgo.ApplicationCommandPermissions, 0, len(targets))
	for _, target := range targets {
		p := overrides[target]
		payload = append(payload, &discordgo.ApplicationCommandPermissions{
			ID:         target,
			Type:       p.Type,
			Permission: p.Allowed,
		})
	}
	return payload
}

func (c *Command) String() string {
	return fmt.Sprintf("<Command name=%s kind=%d options=%d children=%d>", c.QualifiedName(), c.Kind, len(c.options), len(c.children))
}
