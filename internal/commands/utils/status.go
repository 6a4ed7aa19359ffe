package utils

import (
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/discord"
)

func createStatusCommand(db DatabaseStatus) *discord.Command {
	return discord.NewSlashCommand("status", "Muestra el estado del bot", discord.Func(func(ctx *discord.CommandContext) error {
		return statusHandler(ctx, db)
	}))
}

func statusHandler(ctx *discord.CommandContext, db DatabaseStatus) error {
	dbStatus := "🔴 | Desconectado"
	if db != nil {
		dbStatus, _ = db.GetStatus(ctx.Context())
	}

	guilds := 0
	if ctx.Client != nil {
		guilds = ctx.Client.GuildCount()
	}

	return ctx.Reply(fmt.Sprintf(
		"📊 **Estado del Bot**\n"+
			"• Bot: 🟢 Online\n"+
			"• Base de datos: %s\n"+
			"• Servidores: %d",
		dbStatus,
		guilds,
	))
}
