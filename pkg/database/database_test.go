package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/PancyStudios/appcommands/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCacheManagerEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCacheManager()
	c.put("a", 1, 2)
	c.put("b", 2, 2)

	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", 3, 2)
	require.Equal(t, 2, c.Len())

	_, ok = c.get("b")
	require.False(t, ok)
	v, ok := c.get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestCacheManagerReplaceAndRemove(t *testing.T) {
	c := NewCacheManager()
	c.put("warns:{userId=1}", "old", 0)
	c.put("warns:{userId=1}", "new", 0)
	c.put("warns:{userId=2}", "x", 0)
	c.put("other:{id=1}", "y", 0)

	v, _ := c.get("warns:{userId=1}")
	require.Equal(t, "new", v)
	require.Equal(t, 3, c.Len())

	c.removePrefix("warns:")
	require.Equal(t, 1, c.Len())
	c.remove("other:{id=1}")
	require.Zero(t, c.Len())
}

func TestGenerateCacheKeyIsDeterministic(t *testing.T) {
	dm := NewDataManager[models.WarnsDocument]("warns", NewDatabase())
	for i := 0; i < 10; i++ {
		require.Equal(t, "warns:{guildId=g,userId=u}", dm.generateCacheKey(bson.M{"userId": "u", "guildId": "g"}))
	}
}

func TestOfflineWritesAreQueued(t *testing.T) {
	db := NewDatabase()
	dm := NewDataManager[models.WarnsDocument]("warns", db)
	ctx := context.Background()

	require.False(t, db.Connected())

	doc, err := dm.Set(ctx, bson.M{"userId": "u"}, models.WarnsDocument{UserID: "u"})
	require.NoError(t, err)
	require.Nil(t, doc)
	require.NoError(t, dm.Delete(ctx, bson.M{"userId": "u"}))
	require.Equal(t, 2, db.QueueLen())

	_, err = dm.Get(ctx, bson.M{"userId": "u"})
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = dm.GetAll(ctx, bson.M{})
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = dm.DeleteMany(ctx, bson.M{})
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = db.Ping(ctx)
	require.ErrorIs(t, err, ErrNotConnected)
	status, ok := db.GetStatus(ctx)
	require.False(t, ok)
	require.Contains(t, status, "Desconectado")
}

func TestGetServesCachedDocuments(t *testing.T) {
	dm := NewDataManager[models.WarnsDocument]("warns", NewDatabase())
	dm.cache = NewCacheManager()

	cached := &models.WarnsDocument{UserID: "u", Warns: []models.Warn{{ID: "1"}}}
	dm.cache.put(dm.generateCacheKey(bson.M{"userId": "u"}), cached, 0)

	doc, err := dm.Get(context.Background(), bson.M{"userId": "u"})
	require.NoError(t, err)
	require.Same(t, cached, doc)

	dm.ClearCache()
	require.Zero(t, dm.cache.Len())
}

func TestArchiveQueuesWhileOffline(t *testing.T) {
	db := NewDatabase()
	archive := NewCommandArchive(db, "v1")
	archive.now = func() time.Time { return time.Unix(100, 0) }

	err := archive.SaveRegistered(context.Background(), "app", "g1", []*discordgo.ApplicationCommand{
		{ID: "1", Name: "ping", Type: discordgo.ChatApplicationCommand},
		{ID: "2", Name: "Inspect", Type: discordgo.UserApplicationCommand},
		{ID: "3", Name: "legacy"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, db.QueueLen())

	op := db.writeQueue[2]
	require.Equal(t, RegisteredCollection, op.CollectionName)
	require.Equal(t, OpSet, op.Operation)
	require.Equal(t, bson.M{"_id": "app:g1:legacy:1"}, op.Query)

	record := op.Data.(models.RegisteredCommand)
	require.Empty(t, record.ID)
	require.Equal(t, "3", record.CommandID)
	require.Equal(t, "v1", record.Version)
	require.Equal(t, time.Unix(100, 0), record.RegisteredAt)

	_, err = archive.List(context.Background(), "app")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestRegisteredID(t *testing.T) {
	tests := []struct {
		scope string
		want  string
	}{
		{"", "app:global:ping:1"},
		{"123", "app:123:ping:1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("scope %q", tt.scope), func(t *testing.T) {
			require.Equal(t, tt.want, registeredID("app", tt.scope, "ping", 1))
		})
	}
}

func TestSetOverrideQueuesWhileOffline(t *testing.T) {
	db := NewDatabase()
	archive := NewCommandArchive(db, "")

	require.NoError(t, archive.SetOverride(context.Background(), models.PermissionOverride{GuildID: "g", CommandName: "ban", TargetID: "r", Type: 1, Allowed: true}))
	require.Equal(t, PermissionsCollection, db.writeQueue[0].CollectionName)

	_, err := archive.Overrides(context.Background(), "g")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnectWithoutClient(t *testing.T) {
	db := NewDatabase()
	require.NoError(t, db.Disconnect())
	require.NoError(t, db.Disconnect())
}
