package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/appcommands/internal/commands/guard"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// maxTimeout is the longest timeout Discord accepts, in minutes (28 days).
const maxTimeout = 40320

type muteCommand struct {
	guard.GuildOnly `option:"-"`
	guard.Replies   `option:"-"`

	Usuario  *discordgo.Member `description:"Usuario a silenciar"`
	Duracion int64             `description:"Duración en minutos" min:"1" max:"40320"`
	Razon    *string           `description:"Razón del silencio"`
}

func createMuteCommand() *discord.Command {
	return discord.NewSlashCommand("mute", "Silencia a un usuario temporalmente", nil).WithStruct(&muteCommand{})
}

func (c *muteCommand) Check(ctx *discord.CommandContext) (bool, error) {
	return c.Usuario != nil && guard.HasPermission(ctx, discordgo.PermissionModerateMembers), nil
}

func (c *muteCommand) Callback(ctx *discord.CommandContext) error {
	if c.Duracion < 1 || c.Duracion > maxTimeout {
		return ctx.ReplyEphemeral("❌ La duración debe estar entre 1 minuto y 28 días.")
	}
	reason := reasonOrDefault(c.Razon)
	until := time.Now().Add(time.Duration(c.Duracion) * time.Minute)

	err := ctx.Session.GuildMemberTimeout(
		ctx.Interaction.GuildID,
		c.Usuario.User.ID,
		&until,
		discordgo.WithContext(ctx.Context()),
	)
	if err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al silenciar: %v", err))
	}

	return ctx.Reply(fmt.Sprintf("🔇 **%s** ha sido silenciado hasta <t:%d:R>.\n**Razón:** %s",
		c.Usuario.User.Username,
		until.Unix(),
		reason,
	))
}
