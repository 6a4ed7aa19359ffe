// Package commands assembles the bot's command tree. Commands are organized in
// subdirectories by category (utils, mod, dev).
package commands

import (
	"fmt"

	"github.com/PancyStudios/appcommands/internal/commands/dev"
	"github.com/PancyStudios/appcommands/internal/commands/mod"
	"github.com/PancyStudios/appcommands/internal/commands/utils"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/hashicorp/go-multierror"
)

// Deps are the services commands depend on. Nil fields disable what needs them.
type Deps struct {
	Warns       mod.WarnStore
	Database    utils.DatabaseStatus
	Archive     dev.Archive
	Permissions dev.PermissionEditor
	// DevGuilds receive /dev. Without any, /dev is not registered.
	DevGuilds     []string
	ApplicationID string
}

// RegisterAll registers every command on ch. Definition errors are collected
// and returned together; valid commands are still registered.
func RegisterAll(ch *discord.CommandHandler, deps Deps) error {
	var cmds []*discord.Command
	cmds = append(cmds, utils.Commands(ch.Commands(), deps.Database)...)
	if deps.Warns != nil {
		cmds = append(cmds, mod.Commands(deps.Warns)...)
	}

	devCmd := dev.Command(dev.Deps{
		Syncer:        ch,
		Archive:       deps.Archive,
		Permissions:   deps.Permissions,
		Commands:      ch.Commands(),
		ApplicationID: deps.ApplicationID,
	}, deps.DevGuilds...)
	if devCmd != nil {
		cmds = append(cmds, devCmd)
	}

	var result *multierror.Error
	for _, cmd := range cmds {
		if err := ch.Register(cmd); err != nil {
			result = multierror.Append(result, err)
		}
	}

	logger.System(fmt.Sprintf("📋 %d comandos listos para registrar", ch.Commands().Size()), "Commands")
	return result.ErrorOrNil()
}
