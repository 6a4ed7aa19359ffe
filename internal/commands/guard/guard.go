// Package guard holds the checks and error hooks shared by command handlers.
// Struct handlers embed them with an `option:"-"` tag so they are not taken
// for options.
package guard

import (
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/discord"
	apperrors "github.com/PancyStudios/appcommands/pkg/errors"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// HasPermission reports whether the calling member holds perm. Administrators always do.
func HasPermission(ctx *discord.CommandContext, perm int64) bool {
	m := ctx.Member()
	if m == nil {
		return false
	}
	return m.Permissions&perm == perm || m.Permissions&discordgo.PermissionAdministrator != 0
}

// GuildOnly rejects invocations outside a guild before any argument is resolved.
type GuildOnly struct{}

func (GuildOnly) PreCheck(ctx *discord.CommandContext) (bool, error) {
	return ctx.Interaction.GuildID != "", nil
}

// Replies tells the caller the command failed, then hands the error to the
// global error handler.
type Replies struct{}

func (Replies) OnError(ctx *discord.CommandContext, err error) {
	msg := "❌ Ocurrió un error al ejecutar el comando."
	if apperrors.IsCheckFailure(err) {
		msg = "❌ No tienes permisos para usar este comando aquí."
	}
	if rerr := ctx.ReplyEphemeral(msg); rerr != nil {
		logger.Debug(fmt.Sprintf("No se pudo responder el error [%s]: %v", ctx.TraceID, rerr), "Commands")
	}

	if h := apperrors.Get(); h != nil {
		h.DispatchHook(ctx, err)
		return
	}
	discord.DefaultErrorHook(ctx, err)
}
