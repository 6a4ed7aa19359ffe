package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Responder sends interaction responses. *discordgo.Session satisfies it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// CommandContext is what a handler sees while one interaction is dispatched.
type CommandContext struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Client      *ExtendedClient
	// Command is the leaf node that was resolved for the interaction.
	Command *Command
	// Args holds the decoded option values. It is empty until pre-check passed.
	Args    Arguments
	TraceID string

	responder Responder
	resolver  Resolver
	ctx       context.Context
	dec       *decoder
}

// Context returns the context the interaction is dispatched under.
func (ctx *CommandContext) Context() context.Context {
	if ctx.ctx == nil {
		return context.Background()
	}
	return ctx.ctx
}

func (ctx *CommandContext) data() *discordgo.ApplicationCommandInteractionData {
	data := ctx.Interaction.ApplicationCommandData()
	return &data
}

func (ctx *CommandContext) decoder() *decoder {
	if ctx.dec == nil {
		ctx.dec = newDecoder(ctx.data(), ctx.Interaction.GuildID, ctx.resolver)
	}
	return ctx.dec
}

// Respond sends a raw interaction response
func (ctx *CommandContext) Respond(resp *discordgo.InteractionResponse) error {
	return ctx.responder.InteractionRespond(ctx.Interaction.Interaction, resp, discordgo.WithContext(ctx.Context()))
}

// Reply sends a reply to the interaction
func (ctx *CommandContext) Reply(content string) error {
	return ctx.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// ReplyEmbed sends an embed reply to the interaction
func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// ReplyEphemeral sends an ephemeral reply visible only to the user
func (ctx *CommandContext) ReplyEphemeral(content string) error {
	return ctx.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// ReplyEphemeralEmbed sends an ephemeral embed reply visible only to the user
func (ctx *CommandContext) ReplyEphemeralEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// Defer defers the interaction response
func (ctx *CommandContext) Defer() error {
	return ctx.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// EditReply edits the original interaction response
func (ctx *CommandContext) EditReply(content string) error {
	_, err := ctx.responder.InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}, discordgo.WithContext(ctx.Context()))
	return err
}

// EditReplyEmbed edits the original interaction response with an embed
func (ctx *CommandContext) EditReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := ctx.responder.InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx.Context()))
	return err
}

// Guild returns the guild where the interaction occurred
func (ctx *CommandContext) Guild() *discordgo.Guild {
	if ctx.Interaction.GuildID == "" || ctx.resolver == nil {
		return nil
	}
	guild, _ := ctx.resolver.Guild(ctx.Interaction.GuildID)
	return guild
}

// Channel returns the channel where the interaction occurred
func (ctx *CommandContext) Channel() *discordgo.Channel {
	if ctx.resolver == nil {
		return nil
	}
	channel, _ := ctx.resolver.Channel(ctx.Interaction.ChannelID)
	return channel
}

// User returns the user who triggered the interaction
func (ctx *CommandContext) User() *discordgo.User {
	if ctx.Interaction.Member != nil {
		return ctx.Interaction.Member.User
	}
	return ctx.Interaction.User
}

// Member returns the guild member who triggered the interaction
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Interaction.Member
}

// Arguments maps option names to decoded values.
type Arguments map[string]any

// Has reports whether the option resolved to a value (supplied or defaulted).
func (a Arguments) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Arguments) Int(name string) int64 {
	n, _ := toInt64(a[name])
	return n
}

func (a Arguments) Float(name string) float64 {
	n, _ := toFloat64(a[name])
	return n
}

func (a Arguments) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// User returns the user behind a user or mentionable option, member or not.
func (a Arguments) User(name string) *discordgo.User {
	switch v := a[name].(type) {
	case *discordgo.User:
		return v
	case *discordgo.Member:
		return v.User
	}
	return nil
}

// Member returns nil when the option resolved outside a guild.
func (a Arguments) Member(name string) *discordgo.Member {
	m, _ := a[name].(*discordgo.Member)
	return m
}

func (a Arguments) Channel(name string) *discordgo.Channel {
	c, _ := a[name].(*discordgo.Channel)
	return c
}

func (a Arguments) Role(name string) *discordgo.Role {
	r, _ := a[name].(*discordgo.Role)
	return r
}

func (a Arguments) Attachment(name string) *discordgo.MessageAttachment {
	at, _ := a[name].(*discordgo.MessageAttachment)
	return at
}

func (a Arguments) Message(name string) *discordgo.Message {
	m, _ := a[name].(*discordgo.Message)
	return m
}
