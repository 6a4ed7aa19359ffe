package mod

import (
	"fmt"

	"github.com/PancyStudios/appcommands/internal/commands/guard"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

type banCommand struct {
	guard.GuildOnly `option:"-"`
	guard.Replies   `option:"-"`

	Usuario *discordgo.Member `description:"Usuario a banear"`
	Razon   *string           `description:"Razón del ban"`
	Dias    int64             `description:"Días de mensajes a eliminar (0-7)" default:"0" min:"0" max:"7"`
}

func createBanCommand() *discord.Command {
	return discord.NewSlashCommand("ban", "", nil).WithStruct(&banCommand{})
}

func (c *banCommand) Describe() string { return "Banea a un usuario del servidor" }

func (c *banCommand) Check(ctx *discord.CommandContext) (bool, error) {
	return c.Usuario != nil && guard.HasPermission(ctx, discordgo.PermissionBanMembers), nil
}

func (c *banCommand) Callback(ctx *discord.CommandContext) error {
	reason := reasonOrDefault(c.Razon)

	err := ctx.Session.GuildBanCreateWithReason(
		ctx.Interaction.GuildID,
		c.Usuario.User.ID,
		reason,
		int(c.Dias),
		discordgo.WithContext(ctx.Context()),
	)
	if err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al banear: %v", err))
	}

	return ctx.Reply(fmt.Sprintf("🔨 **%s** ha sido baneado.\n**Razón:** %s", c.Usuario.User.Username, reason))
}

func reasonOrDefault(reason *string) string {
	if reason == nil || *reason == "" {
		return "Sin razón especificada"
	}
	return *reason
}
