package utils

import (
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

func createMessageInfoCommand() *discord.Command {
	return discord.NewMessageCommand("Info del mensaje", discord.Func(messageInfoHandler))
}

func messageInfoHandler(ctx *discord.CommandContext) error {
	msg := ctx.Args.Message(discord.MessageTargetName)
	if msg == nil {
		return ctx.ReplyEphemeral("❌ No se pudo leer el mensaje.")
	}

	author := "Desconocido"
	if msg.Author != nil {
		author = fmt.Sprintf("<@%s>", msg.Author.ID)
	}

	embed := &discordgo.MessageEmbed{
		Title: "🔎 Información del mensaje",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Autor", Value: author, Inline: true},
			{Name: "ID", Value: fmt.Sprintf("`%s`", msg.ID), Inline: true},
			{Name: "Enviado", Value: fmt.Sprintf("<t:%d:R>", msg.Timestamp.Unix()), Inline: true},
			{Name: "Caracteres", Value: humanize.Comma(int64(len([]rune(msg.Content)))), Inline: true},
			{Name: "Adjuntos", Value: fmt.Sprintf("%d", len(msg.Attachments)), Inline: true},
			{Name: "Embeds", Value: fmt.Sprintf("%d", len(msg.Embeds)), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
	return ctx.ReplyEphemeralEmbed(embed)
}
