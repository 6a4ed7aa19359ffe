package dev

import (
	"fmt"
	"time"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
)

func createSyncCommand(deps Deps) *discord.Command {
	return discord.NewSlashCommand("sync", "Sube todos los comandos registrados a Discord", func() discord.Handler {
		return &syncHandler{syncer: deps.Syncer}
	})
}

type syncHandler struct {
	devOnly
	syncer Syncer
}

func (h *syncHandler) Callback(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}

	start := time.Now()
	if err := h.syncer.Sync(ctx.Context()); err != nil {
		logger.Error(fmt.Sprintf("Sincronización manual fallida [%s]: %v", ctx.TraceID, err), "CMD-Dev")
		return ctx.EditReply(fmt.Sprintf("❌ La sincronización terminó con errores:\n```%v```", err))
	}
	return ctx.EditReply(fmt.Sprintf("✅ Comandos sincronizados en %v", time.Since(start).Round(time.Millisecond)))
}
