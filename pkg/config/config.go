// Package config provides configuration management for the command engine.
// Values come from the environment (optionally seeded from a .env file) and an
// optional appcommands.yaml; the environment wins.
package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken      string
	ApplicationID string
	DevGuildID    string
	// CommandGuilds lists the guilds that receive guild-scoped command uploads on ready.
	CommandGuilds []string
	SyncOnReady   bool

	// MongoDB
	MongoDBURL string
	DBName     string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook string
	LogsWebhook  string
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// envKeys maps config keys to the environment variable names the bot has always used.
var envKeys = map[string]string{
	"bot_token":      "botToken",
	"application_id": "applicationId",
	"dev_guild_id":   "devGuildId",
	"command_guilds": "commandGuilds",
	"sync_on_ready":  "syncOnReady",
	"mongodb_url":    "mongodbUrl",
	"db_name":        "dbName",
	"mqtt_host":      "MQTT_Host",
	"mqtt_port":      "MQTT_Port",
	"mqtt_user":      "MQTT_User",
	"mqtt_password":  "MQTT_Password",
	"port":           "PORT",
	"environment":    "enviroment",
	"error_webhook":  "errorWebhook",
	"logs_webhook":   "logsWebhook",
}

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("mongodb_url", "mongodb://localhost:27017")
	v.SetDefault("db_name", "AppCommands")
	v.SetDefault("mqtt_host", "localhost")
	v.SetDefault("mqtt_port", "1883")
	v.SetDefault("port", "3000")
	v.SetDefault("environment", "dev")
	v.SetDefault("sync_on_ready", true)

	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}

	v.SetConfigName("appcommands")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return v
}

// loadConfig performs the actual configuration loading
func loadConfig() error {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	cfg = &Config{
		BotToken:      v.GetString("bot_token"),
		ApplicationID: v.GetString("application_id"),
		DevGuildID:    v.GetString("dev_guild_id"),
		CommandGuilds: splitList(v.GetString("command_guilds")),
		SyncOnReady:   v.GetBool("sync_on_ready"),

		MongoDBURL: v.GetString("mongodb_url"),
		DBName:     v.GetString("db_name"),

		MQTTHost:     v.GetString("mqtt_host"),
		MQTTPort:     v.GetString("mqtt_port"),
		MQTTUser:     v.GetString("mqtt_user"),
		MQTTPassword: v.GetString("mqtt_password"),

		Port:        v.GetString("port"),
		Environment: v.GetString("environment"),

		ErrorWebhook: v.GetString("error_webhook"),
		LogsWebhook:  v.GetString("logs_webhook"),
	}

	if cfg.DevGuildID != "" && !contains(cfg.CommandGuilds, cfg.DevGuildID) {
		cfg.CommandGuilds = append(cfg.CommandGuilds, cfg.DevGuildID)
	}
	return nil
}

// Load initializes the configuration from environment variables and the optional config file
func Load() (*Config, error) {
	var err error
	cfgOnce.Do(func() {
		err = loadConfig()
	})
	return cfg, err
}

// Get returns the current configuration
func Get() *Config {
	cfgOnce.Do(func() {
		_ = loadConfig()
	})
	return cfg
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
