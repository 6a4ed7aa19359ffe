// Package utils provides the /utils command group and the "Info del mensaje"
// message context command.
package utils

import (
	"context"

	"github.com/PancyStudios/appcommands/pkg/discord"
)

// Category is shown by /utils help
const Category = "Utilidad"

const footerText = "💫 - Developed by PancyStudios"

// Registry lists the root commands known to the bot. *discord.CommandCollection satisfies it.
type Registry interface {
	All() []*discord.Command
}

// DatabaseStatus reports the archive connection. *database.Database satisfies it.
type DatabaseStatus interface {
	GetStatus(ctx context.Context) (string, bool)
}

// Commands builds /utils and the message context command. db may be nil.
func Commands(registry Registry, db DatabaseStatus) []*discord.Command {
	root := discord.NewSlashCommand("utils", "Comandos de utilidad", nil).
		WithCategory(Category).
		AddSubcommands(
			createPingCommand(),
			createStatusCommand(db),
			createStatsCommand(),
			createHelpCommand(registry),
			createTimeCommand(),
		)

	return []*discord.Command{
		root,
		createMessageInfoCommand().WithCategory(Category),
	}
}
