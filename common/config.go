package common

import (
	"github.com/meeow/eventbot/common/config"
)

var (
	ConfBotToken = config.RegisterOption("eventbot.bot_token", "Discord bot token", "")

	ConfMongoURI = config.RegisterOption("eventbot.mongo_uri", "MongoDB connection string", "mongodb://localhost:27017")
	ConfMongoDB  = config.RegisterOption("eventbot.mongo_db", "MongoDB database name", "eventbot")
	ConfRedis    = config.RegisterOption("eventbot.redis", "Redis address", "localhost:6379")

	ConfCommandPrefix = config.RegisterOption("eventbot.command_prefix", "Command prefix the bot listens for", "!")

	ConfDefaultTimezone = config.RegisterOption("eventbot.default_timezone", "Fallback timezone for guilds without one configured", "America/New_York")

	ConfReminderSweepSeconds = config.RegisterOption("eventbot.reminder_sweep_seconds", "Seconds between reminder sweep cycles", 10)
	ConfDefaultReminderMins  = config.RegisterOption("eventbot.default_reminder_minutes", "Default minutes-before-start for reminder reactions", 30)
)

// LoadConfig reads all registered options from the environment
func LoadConfig() {
	config.AddSource(&config.EnvSource{})
	config.Load()
}
