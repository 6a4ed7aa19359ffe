package utils

import (
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/discord"
)

func createPingCommand() *discord.Command {
	return discord.NewSlashCommand("ping", "Comprueba la latencia del bot", discord.Func(pingHandler))
}

func pingHandler(ctx *discord.CommandContext) error {
	if ctx.Session == nil {
		return ctx.Reply("🏓 Pong!")
	}
	latency := ctx.Session.HeartbeatLatency().Milliseconds()
	return ctx.Reply(fmt.Sprintf("🏓 Pong! Latencia: %dms", latency))
}
