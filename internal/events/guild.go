package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// guildEventTimeout bounds the database and REST work of one guild event
const guildEventTimeout = 15 * time.Second

func (e *Events) registerGuild() {
	e.client.Session.AddHandler(e.onGuildCreate)
	e.client.Session.AddHandler(e.onGuildDelete)
}

// onGuildCreate is called for every guild on connect and when the bot joins a
// server. Only recent joins are handled.
func (e *Events) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")

	if e.perms != nil {
		ctx, cancel := context.WithTimeout(context.Background(), guildEventTimeout)
		defer cancel()
		if _, err := e.perms.Apply(ctx, g.ID); err != nil {
			logger.Warn(fmt.Sprintf("Permisos de %s incompletos: %v", g.ID, err), "Guild")
		}
	}

	if g.SystemChannelID == "" {
		return
	}
	welcome := &discordgo.MessageEmbed{
		Title:       "¡Gracias por agregarme! 🎉",
		Description: "Usa `/utils help` para ver todos mis comandos.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔧 Moderación", Value: "Usa `/mod` para moderar", Inline: true},
			{Name: "❓ Ayuda", Value: "Usa `/utils help` para más información", Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, welcome); err != nil {
		logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Guild")
	}
}

// onGuildDelete is called when the bot is removed from a server. Outages also
// fire it with Unavailable set; those keep their archive.
func (e *Events) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Guild != nil && g.Unavailable {
		logger.Warn(fmt.Sprintf("Servidor %s no disponible", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")

	if e.forget == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), guildEventTimeout)
	defer cancel()
	n, err := e.forget.Forget(ctx, e.appID, g.ID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo limpiar el archivo de %s: %v", g.ID, err), "Guild")
		return
	}
	logger.Debug(fmt.Sprintf("%d comandos archivados eliminados de %s", n, g.ID), "Guild")
}
