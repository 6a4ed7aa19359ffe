package discord

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
)

// CommandAPI is the part of the Discord REST API used to register commands.
type CommandAPI interface {
	ApplicationID(ctx context.Context) (string, error)
	BulkOverwriteGlobal(ctx context.Context, appID string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error)
	BulkOverwriteGuild(ctx context.Context, appID, guildID string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error)
}

// SessionAPI implements CommandAPI on a discordgo session.
type SessionAPI struct {
	Session *discordgo.Session
	// AppID skips the application lookup when set.
	AppID string
}

// NewSessionAPI creates a SessionAPI
func NewSessionAPI(session *discordgo.Session, appID string) *SessionAPI {
	return &SessionAPI{Session: session, AppID: appID}
}

func (a *SessionAPI) ApplicationID(ctx context.Context) (string, error) {
	if a.AppID != "" {
		return a.AppID, nil
	}
	app, err := a.Session.Application("@me")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrApplicationID, err)
	}
	return app.ID, nil
}

func (a *SessionAPI) BulkOverwriteGlobal(ctx context.Context, appID string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error) {
	return a.put(ctx, discordgo.EndpointApplicationGlobalCommands(appID), schemas)
}

func (a *SessionAPI) BulkOverwriteGuild(ctx context.Context, appID, guildID string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error) {
	return a.put(ctx, discordgo.EndpointApplicationGuildCommands(appID, guildID), schemas)
}

func (a *SessionAPI) put(ctx context.Context, endpoint string, schemas []*CommandSchema) ([]*discordgo.ApplicationCommand, error) {
	if schemas == nil {
		schemas = []*CommandSchema{}
	}
	body, err := a.Session.RequestWithBucketID(http.MethodPut, endpoint, schemas, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	var registered []*discordgo.ApplicationCommand
	if err := json.Unmarshal(body, &registered); err != nil {
		return nil, fmt.Errorf("decoding bulk overwrite response: %w", err)
	}
	return registered, nil
}

// ListCommands returns the commands currently registered in scope ("" for global).
func (a *SessionAPI) ListCommands(ctx context.Context, guildID string) ([]*discordgo.ApplicationCommand, error) {
	appID, err := a.ApplicationID(ctx)
	if err != nil {
		return nil, err
	}
	return a.Session.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
}

// DeleteCommand removes one registered command from scope.
func (a *SessionAPI) DeleteCommand(ctx context.Context, guildID, commandID string) error {
	appID, err := a.ApplicationID(ctx)
	if err != nil {
		return err
	}
	return a.Session.ApplicationCommandDelete(appID, guildID, commandID, discordgo.WithContext(ctx))
}

// EditPermissions uploads the overrides of one command in one guild. It needs a
// bearer token with the applications.commands.permissions.update scope.
func (a *SessionAPI) EditPermissions(ctx context.Context, guildID string, cmd *Command) error {
	appID, err := a.ApplicationID(ctx)
	if err != nil {
		return err
	}
	id, ok := cmd.Root().ID(guildID)
	if !ok {
		if id, ok = cmd.Root().ID(GlobalScope); !ok {
			return fmt.Errorf("%w: %s has not been uploaded", ErrCommandNotFound, cmd.Root().Name)
		}
	}
	return a.Session.ApplicationCommandPermissionsEdit(appID, guildID, id, &discordgo.ApplicationCommandPermissionsList{
		Permissions: cmd.Root().PermissionsPayload(guildID),
	}, discordgo.WithContext(ctx))
}
