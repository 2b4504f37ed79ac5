package common

import (
	"github.com/jonas747/discordgo/v2"
	"github.com/mediocregopher/radix/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

const VERSION = "2.0.0"

var (
	BotSession *discordgo.Session
	BotUser    *discordgo.User

	// Mongo holds the bot database, one events collection per guild plus
	// the shared guild_configs collection.
	Mongo *mongo.Database

	RedisPool *radix.Pool
)
