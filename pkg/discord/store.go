package discord

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"
)

// GlobalScope is the registration scope of global commands.
const GlobalScope = ""

// DispatchFunc handles one interaction for a registered command.
type DispatchFunc func(ctx context.Context, i *discordgo.InteractionCreate)

// UploadHook observes every successful bulk overwrite.
type UploadHook func(ctx context.Context, appID, scope string, registered []*discordgo.ApplicationCommand)

type storeEntry struct {
	schema   *CommandSchema
	callback DispatchFunc
}

// LiveCommand is a command the remote system acknowledged.
type LiveCommand struct {
	ID     string
	Scope  string
	Schema *CommandSchema
}

// CommandStore keeps the command schemas of every scope and maps the ids
// assigned on upload back to their dispatch callbacks. The per-scope lists
// are never consumed by an upload: each upload sends the whole list.
type CommandStore struct {
	api CommandAPI

	mu      sync.RWMutex
	pending map[string][]*storeEntry
	live    map[string]*storeEntry
	scopes  map[string]string
	appID   string
	hooks   []UploadHook
}

// NewCommandStore creates an empty store
func NewCommandStore(api CommandAPI) *CommandStore {
	return &CommandStore{
		api:     api,
		pending: make(map[string][]*storeEntry),
		live:    make(map[string]*storeEntry),
		scopes:  make(map[string]string),
	}
}

// OnUpload registers a hook called after each successful upload.
func (s *CommandStore) OnUpload(hook UploadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// AddCommand queues a schema for the global scope, or for each guild given.
// Adding the same schema twice queues it twice.
func (s *CommandStore) AddCommand(schema *CommandSchema, callback DispatchFunc, guildIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scopes := guildIDs
	if len(scopes) == 0 {
		scopes = []string{GlobalScope}
	}
	for _, scope := range scopes {
		s.pending[scope] = append(s.pending[scope], &storeEntry{schema: schema, callback: callback})
	}
}

// RemoveCommand drops the first (name, kind) match from every scope. The
// remote command goes away on the next upload of that scope.
func (s *CommandStore) RemoveCommand(name string, kind discordgo.ApplicationCommandType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for scope, entries := range s.pending {
		for i, e := range entries {
			if e.schema.Name == name && e.schema.Type == kind {
				s.pending[scope] = append(entries[:i:i], entries[i+1:]...)
				if len(s.pending[scope]) == 0 {
					delete(s.pending, scope)
				}
				found = true
				break
			}
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, CommandKey{Name: name, Type: kind})
	}
	return nil
}

// Pending returns the schemas registered for scope, in registration order.
func (s *CommandStore) Pending(scope string) []*CommandSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schemas := make([]*CommandSchema, 0, len(s.pending[scope]))
	for _, e := range s.pending[scope] {
		schemas = append(schemas, e.schema)
	}
	return schemas
}

// PendingScopes lists the guild scopes with registered commands, sorted.
func (s *CommandStore) PendingScopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var scopes []string
	for scope, entries := range s.pending {
		if scope != GlobalScope && len(entries) > 0 {
			scopes = append(scopes, scope)
		}
	}
	sort.Strings(scopes)
	return scopes
}

// Live returns the uploaded commands ordered by scope then name.
func (s *CommandStore) Live() []LiveCommand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LiveCommand, 0, len(s.live))
	for id, e := range s.live {
		out = append(out, LiveCommand{ID: id, Scope: s.scopes[id], Schema: e.schema})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Schema.Name < out[j].Schema.Name
	})
	return out
}

// ApplicationID resolves the application id once and caches it.
func (s *CommandStore) ApplicationID(ctx context.Context) (string, error) {
	s.mu.RLock()
	appID := s.appID
	s.mu.RUnlock()
	if appID != "" {
		return appID, nil
	}

	appID, err := s.api.ApplicationID(ctx)
	if err != nil {
		return "", err
	}
	if appID == "" {
		return "", ErrApplicationID
	}

	s.mu.Lock()
	s.appID = appID
	s.mu.Unlock()
	return appID, nil
}

// UploadGlobalCommands replaces every global command with the full global
// list. Nothing is sent when the list is empty and nothing was uploaded
// before; an emptied list clears the remote commands.
func (s *CommandStore) UploadGlobalCommands(ctx context.Context) error {
	entries := s.snapshot(GlobalScope)
	if len(entries) == 0 && !s.hasLive(GlobalScope) {
		return nil
	}
	appID, err := s.ApplicationID(ctx)
	if err != nil {
		return err
	}

	registered, err := s.api.BulkOverwriteGlobal(ctx, appID, schemasOf(entries))
	if err != nil {
		return fmt.Errorf("uploading global commands: %w", err)
	}
	s.record(ctx, appID, GlobalScope, entries, registered)
	return nil
}

// UploadGuildCommands replaces the commands of one guild, or of every known
// guild when guildID is empty. A guild is known while it has registered
// commands or commands live from an earlier upload. Failures of individual
// guilds are collected and returned together.
func (s *CommandStore) UploadGuildCommands(ctx context.Context, guildID string) error {
	scopes := []string{guildID}
	if guildID == "" {
		scopes = s.guildScopes()
	} else if len(s.snapshot(guildID)) == 0 && !s.hasLive(guildID) {
		return fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}
	if len(scopes) == 0 {
		return nil
	}

	appID, err := s.ApplicationID(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, scope := range scopes {
		entries := s.snapshot(scope)
		registered, err := s.api.BulkOverwriteGuild(ctx, appID, scope, schemasOf(entries))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("guild %s: %w", scope, err))
			continue
		}
		s.record(ctx, appID, scope, entries, registered)
	}
	return result.ErrorOrNil()
}

// Dispatch hands the interaction to the callback registered under its command
// id. Unknown ids are ignored.
func (s *CommandStore) Dispatch(ctx context.Context, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	if i.Type != discordgo.InteractionApplicationCommand && i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	s.mu.RLock()
	e, ok := s.live[i.ApplicationCommandData().ID]
	s.mu.RUnlock()
	if !ok || e.callback == nil {
		return
	}
	e.callback(ctx, i)
}

func (s *CommandStore) snapshot(scope string) []*storeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*storeEntry(nil), s.pending[scope]...)
}

// hasLive reports whether scope has commands from an earlier upload.
func (s *CommandStore) hasLive(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.scopes {
		if sc == scope {
			return true
		}
	}
	return false
}

// guildScopes lists the guild scopes with registered or live commands, sorted.
func (s *CommandStore) guildScopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for scope, entries := range s.pending {
		if scope != GlobalScope && len(entries) > 0 {
			seen[scope] = true
		}
	}
	for _, scope := range s.scopes {
		if scope != GlobalScope {
			seen[scope] = true
		}
	}
	scopes := make([]string, 0, len(seen))
	for scope := range seen {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// record maps the returned ids onto the entries that were sent. Ids of the
// scope's previous upload are dropped: the overwrite replaced them.
func (s *CommandStore) record(ctx context.Context, appID, scope string, sent []*storeEntry, registered []*discordgo.ApplicationCommand) {
	byKey := make(map[CommandKey]*storeEntry, len(sent))
	for _, e := range sent {
		byKey[e.schema.Key()] = e
	}

	s.mu.Lock()
	for id, sc := range s.scopes {
		if sc == scope {
			delete(s.live, id)
			delete(s.scopes, id)
		}
	}
	for _, cmd := range registered {
		typ := cmd.Type
		if typ == 0 {
			typ = discordgo.ChatApplicationCommand
		}
		e, ok := byKey[CommandKey{Name: cmd.Name, Type: typ}]
		if !ok {
			continue
		}
		s.live[cmd.ID] = e
		s.scopes[cmd.ID] = scope
	}
	hooks := append([]UploadHook(nil), s.hooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, appID, scope, registered)
	}
}

func schemasOf(entries []*storeEntry) []*CommandSchema {
	schemas := make([]*CommandSchema, len(entries))
	for i, e := range entries {
		schemas[i] = e.schema
	}
	return schemas
}
