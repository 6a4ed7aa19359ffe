package discord

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/metrics"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// TopicDispatched is where dispatch events are published.
const TopicDispatched = "appcommands/dispatched"

// EventPublisher publishes engine events, typically over MQTT.
type EventPublisher interface {
	Publish(topic string, payload any) error
}

// DispatchEvent describes one finished dispatch.
type DispatchEvent struct {
	TraceID    string `json:"traceId"`
	Command    string `json:"command"`
	GuildID    string `json:"guildId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"durationMs"`
}

type invokeResult int

const (
	resultOK invokeResult = iota
	resultCheckFailed
	resultHandlerError
)

// Dispatcher runs interactions against the command tree. Nothing it does
// returns an error to the caller: failures end in the command's error hook.
type Dispatcher struct {
	Client    *ExtendedClient
	Session   *discordgo.Session
	Responder Responder
	Resolver  Resolver
	Metrics   *metrics.Collector
	Publisher EventPublisher
	// OnError handles errors of handlers that do not implement ErrorHandler.
	OnError func(ctx *CommandContext, err error)
	// OnPanic is told about every recovered panic.
	OnPanic func(recovered any)
}

// NewDispatcher creates a dispatcher responding through the session
func NewDispatcher(client *ExtendedClient, session *discordgo.Session) *Dispatcher {
	d := &Dispatcher{Client: client, Session: session, OnError: DefaultErrorHook}
	if session != nil {
		d.Responder = session
		if session.State != nil {
			d.Resolver = session.State
		}
	}
	return d
}

// DefaultErrorHook logs the error with the command and trace id. Errors other
// than failed checks also carry the stack of the goroutine reporting them;
// recovered panics already hold the stack of the panic.
func DefaultErrorHook(ctx *CommandContext, err error) {
	name := "?"
	if ctx.Command != nil {
		name = ctx.Command.QualifiedName()
	}
	msg := fmt.Sprintf("Error en comando /%s [%s]: %v", name, ctx.TraceID, err)
	if !errors.Is(err, ErrCheckFailure) && !errors.Is(err, ErrHandlerPanic) {
		msg += "\n" + string(debug.Stack())
	}
	logger.Error(msg, "Dispatcher")
}

// Callback binds a root command to the dispatcher for the registration store.
func (d *Dispatcher) Callback(root *Command) DispatchFunc {
	return func(ctx context.Context, i *discordgo.InteractionCreate) {
		d.Dispatch(ctx, root, i)
	}
}

// Dispatch resolves the subcommand addressed by the interaction, builds a new
// handler and runs either the autocomplete or the invocation path.
func (d *Dispatcher) Dispatch(ctx context.Context, root *Command, i *discordgo.InteractionCreate) {
	start := time.Now()
	cc := &CommandContext{
		Session:     d.Session,
		Interaction: i,
		Client:      d.Client,
		Command:     root,
		TraceID:     uuid.NewString(),
		responder:   d.Responder,
		resolver:    d.Resolver,
		ctx:         ctx,
	}

	outcome := metrics.OutcomeOK
	defer func() {
		d.finish(cc, outcome, time.Since(start))
	}()

	data := i.ApplicationCommandData()
	node, options, err := resolveNode(root, data.Options)
	if err != nil {
		outcome = metrics.OutcomeUnknown
		logger.Warn(fmt.Sprintf("/%s [%s]: %v", root.Name, cc.TraceID, err), "Dispatcher")
		return
	}
	cc.Command = node

	if node.factory == nil {
		outcome = metrics.OutcomeUnknown
		logger.Warn(fmt.Sprintf("/%s [%s]: no handler", node.QualifiedName(), cc.TraceID), "Dispatcher")
		return
	}

	// handler stays nil when the factory itself panics
	var handler Handler
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanic
			if d.OnPanic != nil {
				d.OnPanic(r)
			}
			d.routeError(cc, handler, fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, r, debug.Stack()))
		}
	}()
	handler = node.factory()

	if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
		outcome = metrics.OutcomeAutocomplete
		if err := d.autocomplete(cc, handler, options); err != nil {
			outcome = metrics.OutcomeError
			d.routeError(cc, handler, err)
		}
		return
	}

	switch result, err := d.invoke(cc, handler, options, &data); result {
	case resultCheckFailed:
		outcome = metrics.OutcomeCheckFailed
		d.routeError(cc, handler, err)
	case resultHandlerError:
		outcome = metrics.OutcomeError
		d.routeError(cc, handler, err)
	}
}

// resolveNode descends through subcommand groups and subcommands, returning the
// leaf and the options addressed to it.
func resolveNode(root *Command, options []*discordgo.ApplicationCommandInteractionDataOption) (*Command, []*discordgo.ApplicationCommandInteractionDataOption, error) {
	node := root
	for node.Kind == discordgo.ChatApplicationCommand && len(options) > 0 {
		first := options[0]
		if first.Type != discordgo.ApplicationCommandOptionSubCommand && first.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			break
		}
		child, ok := node.Child(first.Name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s %s", ErrUnknownSubcommand, node.QualifiedName(), first.Name)
		}
		node = child
		options = first.Options
	}
	return node, options, nil
}

func (d *Dispatcher) autocomplete(cc *CommandContext, handler Handler, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	values := make(map[string]any, len(cc.Command.options))
	for _, o := range cc.Command.options {
		values[o.Name] = nil
	}

	focused := ""
	for _, opt := range options {
		values[opt.Name] = autocompleteValue(opt)
		if opt.Focused {
			focused = opt.Name
		}
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	if ac, ok := handler.(AutoCompleter); ok {
		res, err := ac.AutoComplete(cc, values, focused)
		if err != nil {
			return err
		}
		if choices, err = toChoices(res); err != nil {
			return err
		}
	}

	return cc.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

func (d *Dispatcher) invoke(cc *CommandContext, handler Handler, options []*discordgo.ApplicationCommandInteractionDataOption, data *discordgo.ApplicationCommandInteractionData) (invokeResult, error) {
	if pc, ok := handler.(PreChecker); ok {
		passed, err := pc.PreCheck(cc)
		if err != nil {
			return resultHandlerError, err
		}
		if !passed {
			return resultCheckFailed, fmt.Errorf("%w: pre-check of %s", ErrCheckFailure, cc.Command.QualifiedName())
		}
	}

	args, err := d.arguments(cc, options, data)
	if err != nil {
		return resultHandlerError, err
	}
	cc.Args = args
	if err := bindArguments(handler, args); err != nil {
		return resultHandlerError, err
	}

	if c, ok := handler.(Checker); ok {
		passed, err := c.Check(cc)
		if err != nil {
			return resultHandlerError, err
		}
		if !passed {
			return resultCheckFailed, fmt.Errorf("%w: check of %s", ErrCheckFailure, cc.Command.QualifiedName())
		}
	}

	if err := handler.Callback(cc); err != nil {
		return resultHandlerError, err
	}
	return resultOK, nil
}

func (d *Dispatcher) arguments(cc *CommandContext, options []*discordgo.ApplicationCommandInteractionDataOption, data *discordgo.ApplicationCommandInteractionData) (Arguments, error) {
	if cc.Command.Kind == discordgo.ChatApplicationCommand {
		return ResolveArguments(cc, options, cc.Command.options)
	}
	name, value := cc.decoder().resolveTarget(cc.Command.Kind, data.TargetID)
	if name == "" {
		return Arguments{}, nil
	}
	return Arguments{name: value}, nil
}

// routeError hands err to the handler's hook, falling back to OnError.
func (d *Dispatcher) routeError(cc *CommandContext, handler Handler, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Error hook of /%s panicked: %v", cc.Command.QualifiedName(), r), "Dispatcher")
		}
	}()

	if eh, ok := handler.(ErrorHandler); ok {
		eh.OnError(cc, err)
		return
	}
	if d.OnError != nil {
		d.OnError(cc, err)
		return
	}
	DefaultErrorHook(cc, err)
}

func (d *Dispatcher) finish(cc *CommandContext, outcome string, elapsed time.Duration) {
	name := cc.Command.QualifiedName()
	if d.Metrics != nil {
		d.Metrics.ObserveDispatch(name, outcome, elapsed)
	}
	logger.Debug(fmt.Sprintf("/%s [%s] %s en %v", name, cc.TraceID, outcome, elapsed), "Dispatcher")

	if d.Publisher == nil {
		return
	}
	event := DispatchEvent{
		TraceID:    cc.TraceID,
		Command:    name,
		GuildID:    cc.Interaction.GuildID,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	}
	if u := cc.User(); u != nil {
		event.UserID = u.ID
	}
	if err := d.Publisher.Publish(TopicDispatched, event); err != nil {
		logger.Debug("No se pudo publicar el evento: "+err.Error(), "Dispatcher")
	}
}
