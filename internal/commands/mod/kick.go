package mod

import (
	"fmt"

	"github.com/PancyStudios/appcommands/internal/commands/guard"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

type kickCommand struct {
	guard.GuildOnly `option:"-"`
	guard.Replies   `option:"-"`

	Usuario *discordgo.Member `description:"Usuario a expulsar"`
	Razon   *string           `description:"Razón de la expulsión"`
}

func createKickCommand() *discord.Command {
	return discord.NewSlashCommand("kick", "Expulsa a un usuario del servidor", nil).WithStruct(&kickCommand{})
}

func (c *kickCommand) Check(ctx *discord.CommandContext) (bool, error) {
	return c.Usuario != nil && guard.HasPermission(ctx, discordgo.PermissionKickMembers), nil
}

func (c *kickCommand) Callback(ctx *discord.CommandContext) error {
	reason := reasonOrDefault(c.Razon)

	err := ctx.Session.GuildMemberDeleteWithReason(
		ctx.Interaction.GuildID,
		c.Usuario.User.ID,
		reason,
		discordgo.WithContext(ctx.Context()),
	)
	if err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al expulsar: %v", err))
	}

	return ctx.Reply(fmt.Sprintf("👢 **%s** ha sido expulsado.\n**Razón:** %s", c.Usuario.User.Username, reason))
}
