package mod

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PancyStudios/appcommands/internal/commands/guard"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const footerText = "💫 - Developed by PancyStudios"

// createWarnGroup builds /mod warn add|list|remove
func createWarnGroup(store WarnStore) *discord.Command {
	add := discord.NewSlashCommand("add", "Advierte a un usuario", func() discord.Handler {
		return &warnAdd{store: store}
	}).WithOptions(
		discord.NewOption("usuario", discord.Member).WithDescription("Usuario a advertir"),
		discord.NewOption("razon", discord.String).WithDescription("Razón de la advertencia"),
	)

	list := discord.NewSlashCommand("list", "Lista las advertencias de un usuario", func() discord.Handler {
		return &warnList{store: store}
	}).WithOptions(
		discord.NewOption("usuario", discord.Optional(discord.Member)).WithDescription("[STAFF] Usuario a buscar"),
	)

	remove := discord.NewSlashCommand("remove", "Elimina una advertencia de un usuario", func() discord.Handler {
		return &warnRemove{store: store}
	}).WithOptions(
		discord.NewOption("usuario", discord.Member).WithDescription("Usuario del cual eliminar la advertencia"),
		discord.NewOption("id", discord.String).WithDescription("ID de la advertencia a eliminar").WithAutocomplete(),
	)

	return discord.NewSlashCommand("warn", "Gestiona las advertencias", nil).AddSubcommands(add, list, remove)
}

// createUserWarnsCommand is the context menu version of /mod warn list
func createUserWarnsCommand(store WarnStore) *discord.Command {
	return discord.NewUserCommand("Advertencias", func() discord.Handler {
		return &userWarns{store: store}
	})
}

type warnAdd struct {
	guard.GuildOnly
	guard.Replies
	store WarnStore
}

func (h *warnAdd) Check(ctx *discord.CommandContext) (bool, error) {
	return guard.HasPermission(ctx, discordgo.PermissionModerateMembers), nil
}

func (h *warnAdd) Callback(ctx *discord.CommandContext) error {
	target := ctx.Args.User("usuario")
	if target == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	reason := ctx.Args.String("razon")

	query := warnQuery(ctx.Interaction.GuildID, target.ID)
	doc, err := h.store.Get(ctx.Context(), query)
	if err != nil {
		return fmt.Errorf("leer advertencias: %w", err)
	}

	updated := models.WarnsDocument{GuildID: ctx.Interaction.GuildID, UserID: target.ID}
	if doc != nil {
		updated.Warns = slices.Clone(doc.Warns)
	}
	warn := models.Warn{
		ID:        strings.SplitN(uuid.NewString(), "-", 2)[0],
		Reason:    reason,
		Moderator: ctx.User().ID,
		Timestamp: time.Now().Unix(),
	}
	updated.Warns = append(updated.Warns, warn)

	if _, err := h.store.Set(ctx.Context(), query, updated); err != nil {
		return fmt.Errorf("guardar advertencia: %w", err)
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title: "⚠️ Usuario advertido",
		Description: fmt.Sprintf("**%s** ha sido advertido.\n\n> **Razón:** %s\n> **Moderador:** %s\n> **ID:** `%s`\n> **Total:** %d",
			target.Username, reason, ctx.User().Username, warn.ID, len(updated.Warns)),
		Color:     0xFFA500,
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

type warnList struct {
	guard.GuildOnly
	guard.Replies
	store WarnStore
}

// Check lets everyone read their own warnings; reading someone else's needs ModerateMembers.
func (h *warnList) Check(ctx *discord.CommandContext) (bool, error) {
	target := ctx.Args.User("usuario")
	if target == nil || target.ID == ctx.User().ID {
		return true, nil
	}
	return guard.HasPermission(ctx, discordgo.PermissionModerateMembers), nil
}

func (h *warnList) Callback(ctx *discord.CommandContext) error {
	target := ctx.Args.User("usuario")
	if target == nil {
		target = ctx.User()
	}
	return listWarns(ctx, h.store, target)
}

type userWarns struct {
	guard.GuildOnly
	guard.Replies
	store WarnStore
}

func (h *userWarns) Check(ctx *discord.CommandContext) (bool, error) {
	target := ctx.Args.User(discord.UserTargetName)
	if target != nil && target.ID == ctx.User().ID {
		return true, nil
	}
	return guard.HasPermission(ctx, discordgo.PermissionModerateMembers), nil
}

func (h *userWarns) Callback(ctx *discord.CommandContext) error {
	return listWarns(ctx, h.store, ctx.Args.User(discord.UserTargetName))
}

func listWarns(ctx *discord.CommandContext, store WarnStore, target *discordgo.User) error {
	if target == nil {
		return ctx.ReplyEphemeral("❌ No se encontró al usuario.")
	}
	doc, err := store.Get(ctx.Context(), warnQuery(ctx.Interaction.GuildID, target.ID))
	if err != nil {
		return fmt.Errorf("leer advertencias: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("🔖 - Lista de advertencias de %s", target.Username),
		Color:  0x00FF00,
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if doc == nil || len(doc.Warns) == 0 {
		embed.Description = fmt.Sprintf("No se han encontrado advertencias del usuario en este servidor\n\n> 💫 - **Cantidad de advertencias:** 0\n> 🕒 - **Fecha de consulta:** <t:%d>", time.Now().Unix())
		return ctx.ReplyEphemeralEmbed(embed)
	}

	var sb strings.Builder
	for _, w := range doc.Warns {
		fmt.Fprintf(&sb, "> **Advertencia:** %s\n> **Moderador:** <@%s>\n> **ID:** `%s`\n> **Fecha:** <t:%d:R>\n\n", w.Reason, w.Moderator, w.ID, w.Timestamp)
	}
	fmt.Fprintf(&sb, "> 💫 - **Cantidad de advertencias:** %d\n> 🕒 - **Fecha de consulta:** <t:%d>", len(doc.Warns), time.Now().Unix())

	embed.Color = 0xFFA500
	embed.Description = sb.String()
	return ctx.ReplyEphemeralEmbed(embed)
}

type warnRemove struct {
	guard.GuildOnly
	guard.Replies
	store WarnStore
}

func (h *warnRemove) Check(ctx *discord.CommandContext) (bool, error) {
	return guard.HasPermission(ctx, discordgo.PermissionModerateMembers), nil
}

func (h *warnRemove) Callback(ctx *discord.CommandContext) error {
	target := ctx.Args.User("usuario")
	if target == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario válido.")
	}
	warnID := ctx.Args.String("id")

	query := warnQuery(ctx.Interaction.GuildID, target.ID)
	doc, err := h.store.Get(ctx.Context(), query)
	if err != nil {
		return fmt.Errorf("leer advertencias: %w", err)
	}
	if doc == nil || len(doc.Warns) == 0 {
		return ctx.ReplyEphemeral("❌ El usuario no tiene advertencias.")
	}

	idx := slices.IndexFunc(doc.Warns, func(w models.Warn) bool { return w.ID == warnID })
	if idx < 0 {
		return ctx.ReplyEphemeral("❌ No se encontró una advertencia con ese ID.")
	}
	removed := doc.Warns[idx]

	updated := *doc
	updated.Warns = slices.Delete(slices.Clone(doc.Warns), idx, idx+1)
	if _, err := h.store.Set(ctx.Context(), query, updated); err != nil {
		return fmt.Errorf("eliminar advertencia: %w", err)
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Advertencia eliminada con éxito",
		Description: fmt.Sprintf("La advertencia de **%s** ha sido eliminada.\n\n**Razón original:** %s\n**ID:** `%s`", target.Username, removed.Reason, warnID),
		Color:       0x00FF00,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Solicitado por %s", ctx.User().Username)},
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

// AutoComplete offers the warnings of the selected user, filtered by what was typed.
func (h *warnRemove) AutoComplete(ctx *discord.CommandContext, options map[string]any, focused string) (any, error) {
	resp := discord.NewAutoCompleteResponse()
	if focused != "id" || options["usuario"] == nil {
		return resp, nil
	}

	doc, err := h.store.Get(ctx.Context(), warnQuery(ctx.Interaction.GuildID, fmt.Sprint(options["usuario"])))
	if err != nil {
		logger.Warn(fmt.Sprintf("Autocompletado de advertencias [%s]: %v", ctx.TraceID, err), "CMD-Warn")
		return resp, nil
	}
	if doc == nil {
		return resp, nil
	}

	typed, _ := options["id"].(string)
	for _, w := range doc.Warns {
		if typed != "" && !strings.HasPrefix(w.ID, typed) {
			continue
		}
		name := fmt.Sprintf("ID: %s - Razón: %s", w.ID, w.Reason)
		if r := []rune(name); len(r) > 100 {
			name = string(r[:97]) + "..."
		}
		resp.AddOption(name, w.ID)
	}
	return resp, nil
}
