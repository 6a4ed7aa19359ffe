package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/appcommands/pkg/discord"
)

var now = time.Now

var zones = []string{
	"America/Argentina/Buenos_Aires",
	"America/Bogota",
	"America/Caracas",
	"America/Lima",
	"America/Mexico_City",
	"America/New_York",
	"America/Santiago",
	"Asia/Tokyo",
	"Europe/London",
	"Europe/Madrid",
	"UTC",
}

// timeTypes is resolved by every /utils subcommand
var timeTypes = discord.TypeRegistry{
	"formato": discord.Literal("12h", "24h"),
}

type timeCommand struct {
	Zona    string `description:"Zona horaria" autocomplete:"true"`
	Formato string `description:"Formato de la hora" type:"formato" default:"24h"`
}

func createTimeCommand() *discord.Command {
	return discord.NewSlashCommand("hora", "Muestra la hora actual en una zona horaria", nil).
		WithTypes(timeTypes).
		WithStruct(&timeCommand{})
}

func (c *timeCommand) Callback(ctx *discord.CommandContext) error {
	loc, err := time.LoadLocation(c.Zona)
	if err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Zona horaria desconocida: `%s`", c.Zona))
	}

	layout := "15:04"
	if c.Formato == "12h" {
		layout = "03:04 PM"
	}
	return ctx.Reply(fmt.Sprintf("🕒 En **%s** son las **%s**", loc.String(), now().In(loc).Format(layout)))
}

func (c *timeCommand) AutoComplete(_ *discord.CommandContext, options map[string]any, focused string) (any, error) {
	if focused != "zona" {
		return []string{}, nil
	}
	typed, _ := options["zona"].(string)
	typed = strings.ToLower(typed)

	matches := make([]string, 0, len(zones))
	for _, z := range zones {
		if strings.Contains(strings.ToLower(z), typed) {
			matches = append(matches, z)
		}
	}
	return matches, nil
}
