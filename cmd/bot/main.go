// Package main is the entry point of the bot. It wires configuration, the
// archive, MQTT, the web server and the command engine, then starts the
// gateway connection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/appcommands/internal/commands"
	"github.com/PancyStudios/appcommands/internal/events"
	"github.com/PancyStudios/appcommands/pkg/config"
	"github.com/PancyStudios/appcommands/pkg/database"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/errors"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/PancyStudios/appcommands/pkg/metrics"
	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/PancyStudios/appcommands/pkg/mqtt"
	"github.com/PancyStudios/appcommands/pkg/web"
)

func main() {
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando appcommands %s (%s)...", config.Version, config.BuildTime), "Main")

	var discordClient *discord.ExtendedClient
	errHandler := errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})
	defer errHandler.Stop()

	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		// the database keeps reconnecting; writes are queued meanwhile
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			logger.Error(fmt.Sprintf("Error desconectando la base de datos: %v", err), "Main")
		}
	}()
	archive := database.NewCommandArchive(db, config.Version)
	warns := database.NewDataManager[models.WarnsDocument]("warns", db)

	mqttClientID := "appcommands"
	if !cfg.IsProd() {
		mqttClientID = "appcommands_canary"
	}
	mqttClient := mqtt.Init(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
	defer mqttClient.Destroy()

	discordClient, err = discord.Init(cfg.BotToken, cfg.ApplicationID)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	discordClient.SyncOnReady = cfg.SyncOnReady

	collector := metrics.Get()
	discordClient.Dispatcher.OnPanic = errHandler.HandlePanic
	discordClient.Dispatcher.OnError = errHandler.DispatchHook
	discordClient.CommandHandler.
		WithArchive(archive).
		WithPublisher(mqttClient).
		WithMetrics(collector)

	permissions := discord.NewSessionAPI(discordClient.Session, cfg.ApplicationID)
	if err := commands.RegisterAll(discordClient.CommandHandler, commands.Deps{
		Warns:         warns,
		Database:      db,
		Archive:       archive,
		Permissions:   permissions,
		DevGuilds:     cfg.CommandGuilds,
		ApplicationID: cfg.ApplicationID,
	}); err != nil {
		logger.Error(fmt.Sprintf("Comandos con errores de definición: %v", err), "Main")
	}

	events.RegisterAll(discordClient, events.Deps{
		Overrides:     archive,
		Permissions:   permissions,
		Archive:       archive,
		ApplicationID: cfg.ApplicationID,
	})

	registerMqttHandlers(mqttClient, discordClient)

	webServer, err := web.Init(web.Options{WebhookURL: cfg.LogsWebhook})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating web server: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, &web.API{
		Registry: discordClient.Store,
		Bot:      discordClient,
		Database: db,
		Gatherer: collector.Registry,
		Started:  started,
	})
	webServer.StartAsync(cfg.Port)

	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la sesión: %v", err), "Main")
		}
	}()

	logger.Success("appcommands iniciado correctamente!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando appcommands...", "Main")
}

// registerMqttHandlers answers remote requests: "commands" lists the live
// commands and "sync" uploads every scope. Handlers run on paho's
// goroutines, outside the dispatcher's recovery.
func registerMqttHandlers(mc *mqtt.MqttCommunicator, client *discord.ExtendedClient) {
	mc.On("commands", func(map[string]any) (any, error) {
		defer errors.RecoverMiddleware()()
		live := client.Store.Live()
		out := make([]map[string]any, 0, len(live))
		for _, cmd := range live {
			out = append(out, map[string]any{
				"id":    cmd.ID,
				"scope": cmd.Scope,
				"name":  cmd.Schema.Name,
				"type":  int(cmd.Schema.Type),
			})
		}
		return out, nil
	})

	mc.On("sync", func(map[string]any) (any, error) {
		defer errors.RecoverMiddleware()()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := client.CommandHandler.Sync(ctx); err != nil {
			return nil, err
		}
		return map[string]any{"live": len(client.Store.Live())}, nil
	})
}
