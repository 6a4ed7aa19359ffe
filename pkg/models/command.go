package models

import "time"

// RegisteredCommand is one command acknowledged by a bulk overwrite, as kept
// in the "registered_commands" collection.
type RegisteredCommand struct {
	ID            string    `bson:"_id,omitempty" json:"id"` // appID:scope:name:type
	ApplicationID string    `bson:"application_id" json:"applicationId"`
	Scope         string    `bson:"scope" json:"scope"` // "" for global, guild id otherwise
	CommandID     string    `bson:"command_id" json:"commandId"`
	Name          string    `bson:"name" json:"name"`
	Type          int       `bson:"type" json:"type"`
	Version       string    `bson:"version,omitempty" json:"version,omitempty"`
	RegisteredAt  time.Time `bson:"registered_at" json:"registeredAt"`
}

// PermissionOverride allows or denies one role or user a command in a guild.
type PermissionOverride struct {
	GuildID     string `bson:"guild_id" json:"guildId"`
	CommandName string `bson:"command_name" json:"commandName"`
	TargetID    string `bson:"target_id" json:"targetId"`
	Type        int    `bson:"type" json:"type"` // 1 role, 2 user, 3 channel
	Allowed     bool   `bson:"allowed" json:"allowed"`
}
