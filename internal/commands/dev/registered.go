package dev

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// maxListed keeps the embed under Discord's description limit
const maxListed = 25

func createRegisteredCommand(deps Deps) *discord.Command {
	return discord.NewSlashCommand("registrados", "Lista los comandos archivados en la base de datos", func() discord.Handler {
		return &registeredHandler{archive: deps.Archive, appID: deps.ApplicationID}
	})
}

type registeredHandler struct {
	devOnly
	archive Archive
	appID   string
}

func (h *registeredHandler) Callback(ctx *discord.CommandContext) error {
	if h.archive == nil {
		return ctx.ReplyEphemeral("❌ El archivo de comandos no está disponible.")
	}

	records, err := h.archive.List(ctx.Context(), h.appID)
	if err != nil {
		return fmt.Errorf("listar comandos archivados: %w", err)
	}
	if len(records) == 0 {
		return ctx.ReplyEphemeral("ℹ️ No hay comandos archivados.")
	}

	var sb strings.Builder
	for i, r := range records {
		if i == maxListed {
			fmt.Fprintf(&sb, "… y %d más", len(records)-maxListed)
			break
		}
		scope := "global"
		if r.Scope != discord.GlobalScope {
			scope = r.Scope
		}
		fmt.Fprintf(&sb, "• `%s` (%s) `%s` <t:%d:R>\n", r.Name, scope, r.CommandID, r.RegisteredAt.Unix())
	}

	return ctx.ReplyEphemeralEmbed(&discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🗂️ Comandos archivados (%d)", len(records)),
		Description: sb.String(),
		Color:       0x5865F2,
	})
}
