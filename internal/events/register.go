// Package events wires gateway events to the command engine: permission
// overrides are re-applied on ready and on guild joins, and archived guild
// commands are forgotten when the bot leaves a guild.
package events

import (
	"context"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
)

// Forgetter drops the archived commands of a scope. *database.CommandArchive satisfies it.
type Forgetter interface {
	Forget(ctx context.Context, appID, scope string) (int64, error)
}

// Deps are the services event handlers use. Nil fields disable what needs them.
type Deps struct {
	Overrides     OverrideSource
	Permissions   PermissionEditor
	Archive       Forgetter
	ApplicationID string
}

// Events holds the handlers registered on the session
type Events struct {
	client *discord.ExtendedClient
	perms  *PermissionSync
	forget Forgetter
	appID  string
}

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) *Events {
	logger.System("📋 Registrando eventos del bot...", "Events")

	e := &Events{
		client: client,
		forget: deps.Archive,
		appID:  deps.ApplicationID,
	}
	if deps.Overrides != nil && deps.Permissions != nil {
		e.perms = &PermissionSync{
			Commands: client.CommandHandler.Commands(),
			Source:   deps.Overrides,
			Editor:   deps.Permissions,
		}
	}

	e.registerReady()
	e.registerGuild()
	e.registerShard()

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
	return e
}
