package database

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/go-multierror"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections used by the command archive.
const (
	RegisteredCollection  = "registered_commands"
	PermissionsCollection = "command_permissions"
)

// CommandArchive records every command acknowledged by an upload and the
// permission overrides configured per guild.
type CommandArchive struct {
	registered  *DataManager[models.RegisteredCommand]
	permissions *DataManager[models.PermissionOverride]
	version     string
	now         func() time.Time
}

// NewCommandArchive creates an archive on db. version is stored with every record.
func NewCommandArchive(db *Database, version string) *CommandArchive {
	return &CommandArchive{
		registered:  NewDataManager[models.RegisteredCommand](RegisteredCollection, db),
		permissions: NewDataManager[models.PermissionOverride](PermissionsCollection, db),
		version:     version,
		now:         time.Now,
	}
}

func registeredID(appID, scope, name string, typ int) string {
	if scope == "" {
		scope = "global"
	}
	return fmt.Sprintf("%s:%s:%s:%d", appID, scope, name, typ)
}

// SaveRegistered upserts one record per registered command. Failures are
// collected and returned together.
func (a *CommandArchive) SaveRegistered(ctx context.Context, appID, scope string, registered []*discordgo.ApplicationCommand) error {
	var result *multierror.Error
	at := a.now()

	for _, rc := range registered {
		typ := int(rc.Type)
		if typ == 0 {
			typ = int(discordgo.ChatApplicationCommand)
		}
		record := models.RegisteredCommand{
			ApplicationID: appID,
			Scope:         scope,
			CommandID:     rc.ID,
			Name:          rc.Name,
			Type:          typ,
			Version:       a.version,
			RegisteredAt:  at,
		}
		query := bson.M{"_id": registeredID(appID, scope, rc.Name, typ)}
		if _, err := a.registered.Set(ctx, query, record); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rc.Name, err))
		}
	}
	return result.ErrorOrNil()
}

// List returns the archived commands of an application ordered by scope and name.
func (a *CommandArchive) List(ctx context.Context, appID string) ([]*models.RegisteredCommand, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scope", Value: 1}, {Key: "name", Value: 1}})
	return a.registered.GetAll(ctx, bson.M{"application_id": appID}, opts)
}

// Forget drops the archived commands of one scope.
func (a *CommandArchive) Forget(ctx context.Context, appID, scope string) (int64, error) {
	return a.registered.DeleteMany(ctx, bson.M{"application_id": appID, "scope": scope})
}

// Overrides returns the permission overrides configured for a guild.
func (a *CommandArchive) Overrides(ctx context.Context, guildID string) ([]*models.PermissionOverride, error) {
	return a.permissions.GetAll(ctx, bson.M{"guild_id": guildID})
}

// SetOverride stores or replaces one permission override.
func (a *CommandArchive) SetOverride(ctx context.Context, o models.PermissionOverride) error {
	query := bson.M{"guild_id": o.GuildID, "command_name": o.CommandName, "target_id": o.TargetID}
	_, err := a.permissions.Set(ctx, query, o)
	return err
}
