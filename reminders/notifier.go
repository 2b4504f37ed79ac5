package reminders

import (
	"strconv"

	"emperror.dev/errors"
	"github.com/meeow/eventbot/common"
)

// DiscordNotifier delivers reminders as direct messages through the shared
// bot session.
type DiscordNotifier struct{}

var _ Notifier = (*DiscordNotifier)(nil)

func (DiscordNotifier) RemindUser(userID string, message string) error {
	parsed, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return errors.WrapIf(err, "parse reminder user id")
	}

	channel, err := common.BotSession.UserChannelCreate(parsed)
	if err != nil {
		return errors.WrapIf(err, "open dm channel")
	}

	_, err = common.BotSession.ChannelMessageSend(channel.ID, message)
	return errors.WrapIf(err, "send reminder dm")
}
