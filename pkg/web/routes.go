package web

import (
	"context"
	"net/http"
	"time"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry lists the commands the remote system acknowledged
type Registry interface {
	Live() []discord.LiveCommand
}

// BotStatus reports the gateway connection
type BotStatus interface {
	IsReady() bool
	GuildCount() int
}

// DatabaseStatus reports the archive connection
type DatabaseStatus interface {
	GetStatus(ctx context.Context) (string, bool)
}

// API holds what the routes read. Nil fields are reported as offline.
type API struct {
	Registry Registry
	Bot      BotStatus
	Database DatabaseStatus
	Gatherer prometheus.Gatherer
	Started  time.Time
}

// CommandView is the JSON form of a live command
type CommandView struct {
	ID          string `json:"id"`
	Scope       string `json:"scope"`
	Name        string `json:"name"`
	Type        int    `json:"type"`
	Description string `json:"description,omitempty"`
	Options     int    `json:"options"`
}

// SetupAPIRoutes sets up the API routes and the metrics endpoint
func SetupAPIRoutes(s *Server, a *API) {
	api := s.Group("/api")
	{
		api.GET("/health", a.healthHandler)
		api.GET("/status", a.statusHandler)
		api.GET("/commands", a.commandsHandler)
	}

	if a.Gatherer != nil {
		s.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Gatherer, promhttp.HandlerOpts{})))
	}
}

func (a *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "appcommands is running",
	})
}

// statusHandler returns the bot and database status
func (a *API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline := "🔴 | Desconectado", false
	if a.Database != nil {
		dbStatus, dbOnline = a.Database.GetStatus(c.Request.Context())
	}

	bot := gin.H{"isOnline": false}
	if a.Bot != nil {
		bot = gin.H{"isOnline": a.Bot.IsReady(), "guilds": a.Bot.GuildCount()}
	}

	live := 0
	if a.Registry != nil {
		live = len(a.Registry.Live())
	}

	resp := gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot":      bot,
		"commands": live,
	}
	if !a.Started.IsZero() {
		resp["uptime"] = time.Since(a.Started).Round(time.Second).String()
	}
	c.JSON(http.StatusOK, resp)
}

// commandsHandler lists live commands, optionally filtered with ?scope=
// ("global" selects the global scope).
func (a *API) commandsHandler(c *gin.Context) {
	if a.Registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Registry Offline",
			"message": "Los comandos aún no se han registrado.",
		})
		return
	}

	scope, filter := c.GetQuery("scope")
	if scope == "global" {
		scope = discord.GlobalScope
	}

	views := make([]CommandView, 0)
	for _, live := range a.Registry.Live() {
		if filter && live.Scope != scope {
			continue
		}
		views = append(views, CommandView{
			ID:          live.ID,
			Scope:       live.Scope,
			Name:        live.Schema.Name,
			Type:        int(live.Schema.Type),
			Description: live.Schema.Description,
			Options:     len(live.Schema.Options),
		})
	}
	c.JSON(http.StatusOK, views)
}
