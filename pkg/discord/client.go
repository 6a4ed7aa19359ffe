package discord

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/appcommands/pkg/config"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// syncTimeout bounds the command upload triggered by the ready event.
const syncTimeout = 30 * time.Second

func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		case discordgo.LogInformational:
			logger.Info(msg, "DiscordGo")
		default:
			logger.Debug(msg, "DiscordGo")
		}
	}
}

// ExtendedClient wraps discordgo.Session with the command engine
type ExtendedClient struct {
	Session        *discordgo.Session
	Store          *CommandStore
	Dispatcher     *Dispatcher
	CommandHandler *CommandHandler
	StartTime      time.Time
	// SyncOnReady uploads every registered command when the gateway reports ready.
	SyncOnReady bool

	mu        sync.RWMutex
	isReady   bool
	syncOnce  sync.Once
	afterSync []func(ctx context.Context)
}

// CommandCollection holds the registered root commands
type CommandCollection struct {
	commands map[CommandKey]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[CommandKey]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[cmd.Key()] = cmd
}

// Get retrieves a command by name and kind
func (cc *CommandCollection) Get(key CommandKey) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[key]
	return cmd, ok
}

// Delete removes a command
func (cc *CommandCollection) Delete(key CommandKey) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.commands, key)
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands sorted by name, then kind
func (cc *CommandCollection) All() []*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make([]*Command, 0, len(cc.commands))
	for _, cmd := range cc.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Kind < result[j].Kind
	})
	return result
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token, appID string) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token, appID)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient. appID may be empty, in which case it
// is looked up on the first upload.
func NewClient(token, appID string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	c := &ExtendedClient{
		Session:     session,
		SyncOnReady: true,
	}
	c.Store = NewCommandStore(NewSessionAPI(session, appID))
	c.Dispatcher = NewDispatcher(c, session)
	c.CommandHandler = NewCommandHandler(c, c.Store, c.Dispatcher)
	return c, nil
}

// Start opens the gateway connection
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(c.handleReady)
	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()
	return c.Session.Open()
}

func (c *ExtendedClient) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.mu.Lock()
	c.isReady = true
	c.mu.Unlock()

	logger.Success("Bot conectado como: "+r.User.Username, "Client")

	// reconnects fire ready again; commands only go up once
	c.syncOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if c.SyncOnReady {
			if err := c.CommandHandler.Sync(ctx); err != nil {
				logger.Error("Sincronización de comandos incompleta: "+err.Error(), "Client")
			}
		}

		c.mu.RLock()
		hooks := c.afterSync
		c.mu.RUnlock()
		for _, fn := range hooks {
			fn(ctx)
		}
	})
}

// AfterSync registers fn to run once after the first ready event, when the
// ready-time upload (if enabled) has finished.
func (c *ExtendedClient) AfterSync(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterSync = append(c.afterSync, fn)
}

// handleInteraction routes application command and autocomplete interactions
// to the registration store
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c.Store.Dispatch(context.Background(), i)
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

// GetConfig returns the bot configuration
func (c *ExtendedClient) GetConfig() *config.Config {
	return config.Get()
}
