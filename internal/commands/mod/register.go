// Package mod provides the moderation commands, grouped under /mod, and the
// "Advertencias" user context command.
package mod

import (
	"context"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Category is shown by /utils help
const Category = "Moderación"

// WarnStore keeps the warnings of every member. *database.DataManager[models.WarnsDocument] satisfies it.
type WarnStore interface {
	Get(ctx context.Context, query bson.M) (*models.WarnsDocument, error)
	Set(ctx context.Context, query bson.M, data any) (*models.WarnsDocument, error)
}

// Commands builds /mod with its subcommands and the warnings context command.
func Commands(warns WarnStore) []*discord.Command {
	root := discord.NewSlashCommand("mod", "Comandos de moderación", nil).
		WithCategory(Category).
		AddSubcommands(
			createBanCommand(),
			createKickCommand(),
			createMuteCommand(),
			createWarnGroup(warns),
		)

	return []*discord.Command{
		root,
		createUserWarnsCommand(warns).WithCategory(Category),
	}
}

func warnQuery(guildID, userID string) bson.M {
	return bson.M{"guildId": guildID, "userId": userID}
}
