package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

func createHelpCommand(registry Registry) *discord.Command {
	return discord.NewSlashCommand("help", "Muestra información de ayuda", discord.Func(func(ctx *discord.CommandContext) error {
		return ctx.ReplyEphemeralEmbed(helpEmbed(registry))
	}))
}

// helpEmbed lists every invocable command, one field per category.
func helpEmbed(registry Registry) *discordgo.MessageEmbed {
	byCategory := make(map[string][]string)
	if registry != nil {
		for _, root := range registry.All() {
			category := root.Category
			if category == "" {
				category = "Otros"
			}
			byCategory[category] = append(byCategory[category], helpLines(root)...)
		}
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	embed := &discordgo.MessageEmbed{
		Title:  "📖 Ayuda",
		Color:  0x5865F2,
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if len(categories) == 0 {
		embed.Description = "No hay comandos registrados."
		return embed
	}
	for _, c := range categories {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  c,
			Value: strings.Join(byCategory[c], "\n"),
		})
	}
	return embed
}

func helpLines(cmd *discord.Command) []string {
	switch cmd.Kind {
	case discordgo.UserApplicationCommand:
		return []string{fmt.Sprintf("• `%s` - Menú contextual de usuario", cmd.Name)}
	case discordgo.MessageApplicationCommand:
		return []string{fmt.Sprintf("• `%s` - Menú contextual de mensaje", cmd.Name)}
	}

	if len(cmd.Children()) == 0 {
		return []string{fmt.Sprintf("• `/%s` - %s", cmd.QualifiedName(), cmd.Description)}
	}
	var lines []string
	for _, child := range cmd.Children() {
		lines = append(lines, helpLines(child)...)
	}
	return lines
}
