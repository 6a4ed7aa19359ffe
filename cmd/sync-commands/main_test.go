package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/appcommands/internal/commands"
	"github.com/PancyStudios/appcommands/pkg/config"
	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasOperations(t *testing.T) {
	root := newRootCommand(&app{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.ElementsMatch(t, []string{"list", "clean", "sync", "dump", "history", "remote-sync"}, names)
	require.NotNil(t, root.PersistentFlags().Lookup("guild"))
}

func TestDumpPrintsPendingSchemas(t *testing.T) {
	client, err := discord.NewClient("token", "123")
	require.NoError(t, err)
	require.NoError(t, commands.RegisterAll(client.CommandHandler, commands.Deps{}))

	a := &app{client: client}
	var out bytes.Buffer
	require.NoError(t, a.dump(context.Background(), &out))
	require.Contains(t, out.String(), `"global"`)
	require.Contains(t, out.String(), `"utils"`)
}

func TestScopeLabel(t *testing.T) {
	require.Equal(t, "global", (&app{}).scopeLabel())
	require.Equal(t, "servidor 42", (&app{guildID: "42"}).scopeLabel())
}

type fakeBroker struct {
	topic     string
	timeout   time.Duration
	reply     any
	err       error
	destroyed bool
}

func (f *fakeBroker) Request(topic string, _ any, timeout time.Duration) (any, error) {
	f.topic = topic
	f.timeout = timeout
	return f.reply, f.err
}

func (f *fakeBroker) Destroy() { f.destroyed = true }

func TestRemoteSync(t *testing.T) {
	broker := &fakeBroker{reply: map[string]any{"live": float64(5)}}
	a := &app{
		cfg:     &config.Config{},
		timeout: 3 * time.Second,
		dial:    func(*config.Config) requester { return broker },
	}

	var out bytes.Buffer
	require.NoError(t, a.remoteSync(context.Background(), &out))
	require.Equal(t, "sync", broker.topic)
	require.Equal(t, 3*time.Second, broker.timeout)
	require.True(t, broker.destroyed)
	require.Equal(t, "Comandos activos: 5\n", out.String())
}

func TestRemoteSyncError(t *testing.T) {
	boom := errors.New("request timeout")
	broker := &fakeBroker{err: boom}
	a := &app{cfg: &config.Config{}, dial: func(*config.Config) requester { return broker }}

	err := a.remoteSync(context.Background(), &bytes.Buffer{})
	require.ErrorIs(t, err, boom)
	require.True(t, broker.destroyed)
}
