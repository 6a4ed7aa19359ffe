package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("botToken", "test-token")
	t.Setenv("applicationId", "1234")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")

	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}

	if config.ApplicationID != "1234" {
		t.Errorf("ApplicationID = %v, want %v", config.ApplicationID, "1234")
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}
}

func TestCommandGuilds(t *testing.T) {
	t.Setenv("commandGuilds", " 111, 222,,333 ")
	t.Setenv("devGuildId", "999")

	resetForTesting()
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	want := []string{"111", "222", "333", "999"}
	if len(config.CommandGuilds) != len(want) {
		t.Fatalf("CommandGuilds = %v, want %v", config.CommandGuilds, want)
	}
	for i := range want {
		if config.CommandGuilds[i] != want[i] {
			t.Errorf("CommandGuilds[%d] = %v, want %v", i, config.CommandGuilds[i], want[i])
		}
	}
}

func TestDevGuildNotDuplicated(t *testing.T) {
	t.Setenv("commandGuilds", "999")
	t.Setenv("devGuildId", "999")

	resetForTesting()
	config, _ := Load()

	if len(config.CommandGuilds) != 1 {
		t.Errorf("CommandGuilds = %v, want a single entry", config.CommandGuilds)
	}
}

func TestIsProd(t *testing.T) {
	t.Setenv("enviroment", "prod")
	resetForTesting()
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	t.Setenv("enviroment", "dev")
	resetForTesting()
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}
}

func TestGet(t *testing.T) {
	resetForTesting()

	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	if config2 := Get(); config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, env := range envKeys {
		if val, ok := os.LookupEnv(env); ok {
			t.Setenv(env, val)
			os.Unsetenv(env)
		}
	}

	resetForTesting()
	config, _ := Load()

	if config.MongoDBURL != "mongodb://localhost:27017" {
		t.Errorf("MongoDBURL default = %v, want %v", config.MongoDBURL, "mongodb://localhost:27017")
	}

	if config.DBName != "AppCommands" {
		t.Errorf("DBName default = %v, want %v", config.DBName, "AppCommands")
	}

	if config.MQTTPort != "1883" {
		t.Errorf("MQTTPort default = %v, want %v", config.MQTTPort, "1883")
	}

	if config.Port != "3000" {
		t.Errorf("Port default = %v, want %v", config.Port, "3000")
	}

	if config.Environment != "dev" {
		t.Errorf("Environment default = %v, want %v", config.Environment, "dev")
	}

	if !config.SyncOnReady {
		t.Error("SyncOnReady should default to true")
	}
}
