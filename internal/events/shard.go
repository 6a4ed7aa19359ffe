package events

import (
	"fmt"

	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

func (e *Events) registerShard() {
	e.client.Session.AddHandler(onShardDisconnect)
	e.client.Session.AddHandler(onShardResumed)
}

func onShardDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	logger.Warn(fmt.Sprintf("🔌 Shard %d desconectado.", s.ShardID), "Shard")
}

// onShardResumed needs no re-upload: a resumed session keeps its commands.
func onShardResumed(s *discordgo.Session, _ *discordgo.Resumed) {
	logger.Success(fmt.Sprintf("✅ Shard %d reanudado.", s.ShardID), "Shard")
}
