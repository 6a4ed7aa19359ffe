// Package main provides a utility to inspect and sync application commands
// outside the bot process.
//
// Usage:
//
//	sync-commands list [--guild id]
//	sync-commands clean [--guild id]
//	sync-commands sync
//	sync-commands dump
//	sync-commands history
//	sync-commands remote-sync
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/PancyStudios/appcommands/internal/commands"
	"github.com/PancyStudios/appcommands/pkg/config"
	"github.com/PancyStudios/appcommands/pkg/database"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/PancyStudios/appcommands/pkg/mqtt"
	"github.com/spf13/cobra"
)

const prefix = "SyncCommands"

// app carries what every subcommand needs once configuration is loaded
type app struct {
	cfg     *config.Config
	client  *discord.ExtendedClient
	api     *discord.SessionAPI
	db      *database.Database
	archive *database.CommandArchive
	guildID string
	timeout time.Duration

	// dial connects to the broker for remote-sync
	dial func(cfg *config.Config) requester
}

// requester sends one MQTT request and waits for its answer. *mqtt.MqttCommunicator satisfies it.
type requester interface {
	Request(topic string, payload any, timeout time.Duration) (any, error)
	Destroy()
}

func dialBroker(cfg *config.Config) requester {
	return mqtt.NewMqttCommunicator(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, "appcommands_cli")
}

func main() {
	a := &app{dial: dialBroker}
	if err := newRootCommand(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "sync-commands",
		Short:         "Inspecciona y sincroniza los comandos de aplicación",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.guildID, "guild", "", "servidor objetivo (vacío para comandos globales)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "tiempo máximo de la operación")

	root.AddCommand(
		&cobra.Command{Use: "list", Short: "Lista los comandos registrados", RunE: a.run(a.list)},
		&cobra.Command{Use: "clean", Short: "Elimina todos los comandos del ámbito", RunE: a.run(a.clean)},
		&cobra.Command{Use: "sync", Short: "Sube los comandos definidos", RunE: a.run(a.sync)},
		&cobra.Command{Use: "dump", Short: "Imprime los esquemas que se subirían", RunE: a.run(a.dump)},
		&cobra.Command{Use: "history", Short: "Muestra el archivo de comandos registrados", RunE: a.run(a.history)},
		&cobra.Command{Use: "remote-sync", Short: "Pide al bot en ejecución que suba sus comandos", RunE: a.run(a.remoteSync)},
	)
	return root
}

// run adapts an operation to cobra, bounding it with --timeout and logging its error
func (a *app) run(op func(ctx context.Context, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
		defer cancel()
		if err := op(ctx, os.Stdout); err != nil {
			logger.Error(err.Error(), prefix)
			return err
		}
		logger.Success("Operación completada exitosamente", prefix)
		return nil
	}
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg
	logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)

	a.client, err = discord.NewClient(cfg.BotToken, cfg.ApplicationID)
	if err != nil {
		return fmt.Errorf("creating Discord client: %w", err)
	}
	a.api = discord.NewSessionAPI(a.client.Session, cfg.ApplicationID)

	a.db = database.NewDatabase()
	if cfg.MongoDBURL != "" {
		if err := a.db.Connect(cfg.MongoDBURL, cfg.DBName); err != nil {
			logger.Warn(fmt.Sprintf("Sin base de datos, el archivo no se actualizará: %v", err), prefix)
		}
	}
	a.archive = database.NewCommandArchive(a.db, config.Version)

	return commands.RegisterAll(a.client.CommandHandler, commands.Deps{
		Warns:         database.NewDataManager[models.WarnsDocument]("warns", a.db),
		Database:      a.db,
		Archive:       a.archive,
		Permissions:   a.api,
		DevGuilds:     cfg.CommandGuilds,
		ApplicationID: cfg.ApplicationID,
	})
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Disconnect()
	}
	if l := logger.Get(); l != nil {
		l.Close()
	}
}
