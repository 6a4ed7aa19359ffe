package dev

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func createPermissionCommand(deps Deps) *discord.Command {
	return discord.NewSlashCommand("permiso", "Permite o deniega un comando a un rol o usuario", func() discord.Handler {
		return &permissionHandler{deps: deps}
	}).WithOptions(
		discord.NewOption("comando", discord.String).WithDescription("Comando a configurar").WithAutocomplete(),
		discord.NewOption("objetivo", discord.Mentionable).WithDescription("Rol o usuario"),
		discord.NewOption("permitido", discord.Boolean).WithDescription("Si puede usar el comando").WithDefault(true),
	)
}

type permissionHandler struct {
	devOnly
	deps Deps
}

// target returns the id and override type of a mentionable argument
func target(value any) (string, discordgo.ApplicationCommandPermissionType, bool) {
	switch v := value.(type) {
	case *discordgo.Role:
		return v.ID, discordgo.ApplicationCommandPermissionTypeRole, true
	case *discordgo.Member:
		return v.User.ID, discordgo.ApplicationCommandPermissionTypeUser, true
	case *discordgo.User:
		return v.ID, discordgo.ApplicationCommandPermissionTypeUser, true
	}
	return "", 0, false
}

func (h *permissionHandler) commands(name string) []*discord.Command {
	if h.deps.Commands == nil {
		return nil
	}
	var found []*discord.Command
	for _, cmd := range h.deps.Commands.All() {
		if cmd.Name == name {
			found = append(found, cmd)
		}
	}
	return found
}

func (h *permissionHandler) Callback(ctx *discord.CommandContext) error {
	name := ctx.Args.String("comando")
	cmds := h.commands(name)
	if len(cmds) == 0 {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ No existe el comando `%s`.", name))
	}
	targetID, typ, ok := target(ctx.Args["objetivo"])
	if !ok {
		return ctx.ReplyEphemeral("❌ Debes indicar un rol o un usuario.")
	}
	allowed := ctx.Args.Bool("permitido")
	guildID := ctx.Interaction.GuildID

	if h.deps.Archive != nil {
		err := h.deps.Archive.SetOverride(ctx.Context(), models.PermissionOverride{
			GuildID:     guildID,
			CommandName: name,
			TargetID:    targetID,
			Type:        int(typ),
			Allowed:     allowed,
		})
		if err != nil {
			return fmt.Errorf("guardar permiso: %w", err)
		}
	}

	var failed []string
	for _, cmd := range cmds {
		cmd.SetPermission(guildID, targetID, typ, allowed)
		if h.deps.Permissions == nil {
			continue
		}
		if err := h.deps.Permissions.EditPermissions(ctx.Context(), guildID, cmd); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo aplicar el permiso de /%s: %v", cmd.Name, err), "CMD-Dev")
			failed = append(failed, err.Error())
		}
	}

	verb := "permitido"
	if !allowed {
		verb = "denegado"
	}
	msg := fmt.Sprintf("✅ `%s` %s para <@%s>.", name, verb, targetID)
	if typ == discordgo.ApplicationCommandPermissionTypeRole {
		msg = fmt.Sprintf("✅ `%s` %s para <@&%s>.", name, verb, targetID)
	}
	if len(failed) > 0 {
		msg += "\n⚠️ Guardado, pero Discord rechazó el cambio: " + strings.Join(failed, "; ")
	}
	return ctx.ReplyEphemeral(msg)
}

// AutoComplete offers root command names starting with what was typed
func (h *permissionHandler) AutoComplete(_ *discord.CommandContext, options map[string]any, focused string) (any, error) {
	choices := map[string]string{}
	if focused != "comando" || h.deps.Commands == nil {
		return choices, nil
	}
	typed, _ := options["comando"].(string)
	for _, cmd := range h.deps.Commands.All() {
		if strings.HasPrefix(cmd.Name, typed) {
			choices[cmd.Name] = cmd.Name
		}
	}
	return choices, nil
}
