// Package dev provides /dev, uploaded only to the development guilds.
package dev

import (
	"context"

	"github.com/PancyStudios/appcommands/internal/commands/guard"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// Category is shown by /utils help
const Category = "Desarrollo"

// Syncer uploads every registered command. *discord.CommandHandler satisfies it.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Archive reads uploads and stores permission overrides. *database.CommandArchive satisfies it.
type Archive interface {
	List(ctx context.Context, appID string) ([]*models.RegisteredCommand, error)
	SetOverride(ctx context.Context, o models.PermissionOverride) error
}

// PermissionEditor pushes the overrides of a command. *discord.SessionAPI satisfies it.
type PermissionEditor interface {
	EditPermissions(ctx context.Context, guildID string, cmd *discord.Command) error
}

// Registry lists the root commands. *discord.CommandCollection satisfies it.
type Registry interface {
	All() []*discord.Command
}

// Deps are the services /dev works on. Archive and Permissions may be nil.
type Deps struct {
	Syncer        Syncer
	Archive       Archive
	Permissions   PermissionEditor
	Commands      Registry
	ApplicationID string
}

// Command builds /dev restricted to guilds. It returns nil without guilds.
func Command(deps Deps, guilds ...string) *discord.Command {
	if len(guilds) == 0 {
		return nil
	}
	return discord.NewSlashCommand("dev", "Comandos de desarrollo", nil).
		WithCategory(Category).
		WithGuilds(guilds...).
		AddSubcommands(
			createSyncCommand(deps),
			createRegisteredCommand(deps),
			createPermissionCommand(deps),
		)
}

// devOnly is embedded by every /dev handler
type devOnly struct {
	guard.GuildOnly
	guard.Replies
}

func (devOnly) Check(ctx *discord.CommandContext) (bool, error) {
	return guard.HasPermission(ctx, discordgo.PermissionAdministrator), nil
}
