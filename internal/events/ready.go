package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

func (e *Events) registerReady() {
	e.client.Session.AddHandler(e.onReady)
	e.client.AfterSync(e.applyAllPermissions)
}

// onReady is called when the bot successfully connects to Discord
func (e *Events) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	if err := s.UpdateGameStatus(0, "/utils help"); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
		return
	}
	logger.Debug("Estado del bot establecido correctamente", "Ready")
}

// applyAllPermissions runs once the ready-time upload finished, so every
// command already carries its remote id.
func (e *Events) applyAllPermissions(ctx context.Context) {
	if e.perms == nil {
		return
	}
	state := e.client.Session.State
	if state == nil {
		return
	}

	state.RLock()
	guilds := make([]string, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		guilds = append(guilds, g.ID)
	}
	state.RUnlock()

	total := 0
	for _, guildID := range guilds {
		n, err := e.perms.Apply(ctx, guildID)
		if err != nil {
			logger.Warn(fmt.Sprintf("Permisos de %s incompletos: %v", guildID, err), "Permissions")
		}
		total += n
	}
	if total > 0 {
		logger.Success(fmt.Sprintf("🔐 Permisos aplicados a %d comandos", total), "Permissions")
	}
}
