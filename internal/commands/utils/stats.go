package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/appcommands/pkg/config"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

func createStatsCommand() *discord.Command {
	return discord.NewSlashCommand("stats", "Muestra estadísticas del bot", discord.Func(statsHandler))
}

func statsHandler(ctx *discord.CommandContext) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	guilds, members, commands := 0, 0, 0
	uptime := time.Duration(0)
	if ctx.Client != nil {
		guilds = ctx.Client.GuildCount()
		uptime = time.Since(ctx.Client.StartTime)
		commands = ctx.Client.CommandHandler.Commands().Size()
		if ctx.Session != nil && ctx.Session.State != nil {
			ctx.Session.State.RLock()
			for _, guild := range ctx.Session.State.Guilds {
				members += guild.MemberCount
			}
			ctx.Session.State.RUnlock()
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: "📊 Estadísticas del Bot",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Versión del Bot", Value: config.Version, Inline: true},
			{Name: "🐹 Versión de Go", Value: strings.TrimPrefix(runtime.Version(), "go"), Inline: true},
			{Name: "📚 Versión de DiscordGo", Value: discordgo.VERSION, Inline: true},
			{Name: "🖥 Uso de RAM", Value: humanize.IBytes(m.Alloc), Inline: true},
			{Name: "⚙️ Goroutines", Value: fmt.Sprintf("%d / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU()), Inline: true},
			{Name: "⏱ Uptime", Value: formatDuration(uptime), Inline: true},
			{Name: "🏠 Guilds", Value: humanize.Comma(int64(guilds)), Inline: true},
			{Name: "👥 Miembros", Value: humanize.Comma(int64(members)), Inline: true},
			{Name: "🧩 Comandos", Value: fmt.Sprintf("%d", commands), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return ctx.ReplyEmbed(embed)
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d días", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d horas", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutos", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d segundos", seconds))
	}

	return strings.Join(parts, ", ")
}
