package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"
)

// OverrideSource returns the stored overrides of a guild. *database.CommandArchive satisfies it.
type OverrideSource interface {
	Overrides(ctx context.Context, guildID string) ([]*models.PermissionOverride, error)
}

// PermissionEditor pushes the overrides of a command. *discord.SessionAPI satisfies it.
type PermissionEditor interface {
	EditPermissions(ctx context.Context, guildID string, cmd *discord.Command) error
}

// Registry lists the root commands. *discord.CommandCollection satisfies it.
type Registry interface {
	All() []*discord.Command
}

// PermissionSync copies stored overrides onto the command tree and uploads them.
type PermissionSync struct {
	Commands Registry
	Source   OverrideSource
	Editor   PermissionEditor
}

// Apply loads the overrides of a guild, sets them on every root command with
// the overridden name and uploads each touched command once. It returns how
// many commands were uploaded.
func (p *PermissionSync) Apply(ctx context.Context, guildID string) (int, error) {
	overrides, err := p.Source.Overrides(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("overrides de %s: %w", guildID, err)
	}
	if len(overrides) == 0 {
		return 0, nil
	}

	byName := make(map[string][]*discord.Command)
	for _, cmd := range p.Commands.All() {
		byName[cmd.Name] = append(byName[cmd.Name], cmd)
	}

	var touched []*discord.Command
	seen := make(map[*discord.Command]bool)
	for _, o := range overrides {
		cmds, ok := byName[o.CommandName]
		if !ok {
			logger.Debug(fmt.Sprintf("Override para comando desconocido /%s en %s", o.CommandName, guildID), "Permissions")
			continue
		}
		for _, cmd := range cmds {
			cmd.SetPermission(guildID, o.TargetID, discordgo.ApplicationCommandPermissionType(o.Type), o.Allowed)
			if !seen[cmd] {
				seen[cmd] = true
				touched = append(touched, cmd)
			}
		}
	}

	var result *multierror.Error
	applied := 0
	for _, cmd := range touched {
		if err := p.Editor.EditPermissions(ctx, guildID, cmd); err != nil {
			result = multierror.Append(result, fmt.Errorf("/%s: %w", cmd.Name, err))
			continue
		}
		applied++
	}
	return applied, result.ErrorOrNil()
}
