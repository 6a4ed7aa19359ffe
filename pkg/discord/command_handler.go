package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/metrics"
	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// TopicUploaded is where upload events are published.
const TopicUploaded = "appcommands/uploaded"

// CommandArchive persists what every upload registered.
type CommandArchive interface {
	SaveRegistered(ctx context.Context, appID, scope string, registered []*discordgo.ApplicationCommand) error
}

// UploadEvent describes one successful bulk overwrite.
type UploadEvent struct {
	ApplicationID string    `json:"applicationId"`
	Scope         string    `json:"scope"`
	Commands      []string  `json:"commands"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// CommandHandler turns command definitions into store entries and keeps the
// tree nodes in sync with what was uploaded.
type CommandHandler struct {
	client     *ExtendedClient
	store      *CommandStore
	dispatcher *Dispatcher
	commands   *CommandCollection

	archive   CommandArchive
	publisher EventPublisher
	metrics   *metrics.Collector
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient, store *CommandStore, dispatcher *Dispatcher) *CommandHandler {
	ch := &CommandHandler{
		client:     client,
		store:      store,
		dispatcher: dispatcher,
		commands:   NewCommandCollection(),
	}
	store.OnUpload(ch.onUpload)
	return ch
}

// WithArchive stores every upload result in archive
func (ch *CommandHandler) WithArchive(archive CommandArchive) *CommandHandler {
	ch.archive = archive
	return ch
}

// WithPublisher publishes upload events and, through the dispatcher, dispatch events
func (ch *CommandHandler) WithPublisher(publisher EventPublisher) *CommandHandler {
	ch.publisher = publisher
	ch.dispatcher.Publisher = publisher
	return ch
}

// WithMetrics records uploads and dispatches on collector
func (ch *CommandHandler) WithMetrics(collector *metrics.Collector) *CommandHandler {
	ch.metrics = collector
	ch.dispatcher.Metrics = collector
	return ch
}

// Store returns the registration store
func (ch *CommandHandler) Store() *CommandStore { return ch.store }

// Commands returns the registered root commands
func (ch *CommandHandler) Commands() *CommandCollection { return ch.commands }

// Register validates a root command and queues it for upload.
func (ch *CommandHandler) Register(cmd *Command) error {
	if cmd.parent != nil {
		return &DefinitionError{Command: cmd.QualifiedName(), Err: fmt.Errorf("%w: subcommands are registered through their root", ErrInvalidOption)}
	}
	schema, err := cmd.Schema()
	if err != nil {
		return err
	}

	ch.store.AddCommand(schema, ch.dispatcher.Callback(cmd), cmd.Guilds()...)
	ch.commands.Set(cmd)

	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
	return nil
}

// MustRegister registers every command and panics on the first definition error.
func (ch *CommandHandler) MustRegister(cmds ...*Command) {
	for _, cmd := range cmds {
		if err := ch.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Remove drops a command. It disappears remotely on the next Sync.
func (ch *CommandHandler) Remove(name string, kind discordgo.ApplicationCommandType) error {
	if err := ch.store.RemoveCommand(name, kind); err != nil {
		return err
	}
	ch.commands.Delete(CommandKey{Name: name, Type: kind})
	return nil
}

// Sync uploads the global scope and every guild scope with commands in
// parallel. Errors of both are returned together.
func (ch *CommandHandler) Sync(ctx context.Context) error {
	var (
		g         errgroup.Group
		globalErr error
		guildErr  error
	)

	g.Go(func() error {
		globalErr = ch.store.UploadGlobalCommands(ctx)
		ch.observeUpload("global", globalErr)
		return nil
	})
	g.Go(func() error {
		guildErr = ch.store.UploadGuildCommands(ctx, "")
		ch.observeUpload("guild", guildErr)
		return nil
	})
	_ = g.Wait()

	var result *multierror.Error
	if globalErr != nil {
		result = multierror.Append(result, globalErr)
	}
	if guildErr != nil {
		result = multierror.Append(result, guildErr)
	}
	return result.ErrorOrNil()
}

func (ch *CommandHandler) observeUpload(scope string, err error) {
	if ch.metrics != nil {
		ch.metrics.ObserveUpload(scope, err)
	}
	if err != nil {
		logger.Error("Error registrando comandos ("+scope+"): "+err.Error(), "CommandHandler")
	}
}

func (ch *CommandHandler) onUpload(ctx context.Context, appID, scope string, registered []*discordgo.ApplicationCommand) {
	names := make([]string, 0, len(registered))
	for _, rc := range registered {
		typ := rc.Type
		if typ == 0 {
			typ = discordgo.ChatApplicationCommand
		}
		if cmd, ok := ch.commands.Get(CommandKey{Name: rc.Name, Type: typ}); ok {
			cmd.setID(scope, rc.ID)
		}
		names = append(names, rc.Name)
	}

	label := "global"
	if scope != GlobalScope {
		label = "guild:" + scope
	}
	if ch.metrics != nil {
		ch.metrics.SetRegistered(label, len(registered))
	}
	logger.Success(fmt.Sprintf("✅ %d comandos registrados (%s)", len(registered), label), "CommandHandler")

	if ch.archive != nil {
		if err := ch.archive.SaveRegistered(ctx, appID, scope, registered); err != nil {
			logger.Warn("No se pudo archivar el registro: "+err.Error(), "CommandHandler")
		}
	}
	if ch.publisher != nil {
		event := UploadEvent{ApplicationID: appID, Scope: scope, Commands: names, UploadedAt: time.Now()}
		if err := ch.publisher.Publish(TopicUploaded, event); err != nil {
			logger.Debug("No se pudo publicar el evento: "+err.Error(), "CommandHandler")
		}
	}
}
