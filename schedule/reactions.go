package schedule

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/jonas747/discordgo/v2"
	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/eventstore"
	"github.com/meeow/eventbot/links"
	"github.com/meeow/eventbot/reminders"
)

// PostEventMessage renders the event into the channel, indexes the message
// for reaction routing and lays out the reaction menu.
func (p *Plugin) PostEventMessage(ctx context.Context, channelID int64, evt *eventstore.Event) error {
	loc := p.GuildLocation(ctx, evt.Metadata.GuildID)

	msg, err := common.BotSession.ChannelMessageSend(channelID, p.RenderEvent(ctx, evt, loc))
	if err != nil {
		return errors.WrapIf(err, "post event message")
	}

	err = p.Messages.Set(msg.ID, links.RefTo(evt))
	if err != nil {
		return err
	}

	go p.addReactionMenu(channelID, msg.ID)
	return nil
}

func (p *Plugin) addReactionMenu(channelID, messageID int64) {
	for _, status := range attendance.Statuses {
		err := common.BotSession.MessageReactionAdd(channelID, messageID, status.Emoji())
		if err != nil {
			logger.WithError(err).Error("failed adding status reaction")
			return
		}
	}

	err := common.BotSession.MessageReactionAdd(channelID, messageID, reminderEmoji)
	if err != nil {
		logger.WithError(err).Error("failed adding reminder reaction")
	}
}

// HandleMessageReactionAdd routes reactions on indexed event messages into
// status changes and reminder registrations.
func (p *Plugin) HandleMessageReactionAdd(s *discordgo.Session, ra *discordgo.MessageReactionAdd) {
	if common.BotUser != nil && ra.UserID == common.BotUser.ID {
		return
	}

	ref, ok, err := p.Messages.Get(ra.MessageID)
	if err != nil {
		logger.WithError(err).Error("failed looking up reaction target")
		return
	}
	if !ok {
		// not one of our event messages
		return
	}

	ctx := context.Background()
	evt, err := p.Store.GetByID(ctx, ref.GuildID, ref.EventID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			// event is gone, drop the stale index entry
			p.Messages.Delete(ra.MessageID)
			return
		}
		logger.WithError(err).WithField("guild", ref.GuildID).Error("failed fetching reacted event")
		return
	}

	userID := discordgo.StrID(ra.UserID)

	switch {
	case ra.Emoji.Name == reminderEmoji:
		p.handleReminderReaction(ctx, ref.GuildID, evt, userID, ra.ChannelID)
	default:
		status, known := attendance.EmojiToStatus(ra.Emoji.Name)
		if !known {
			p.sendTransient(ra.ChannelID, "**Not a valid reaction option.** Please try again using one of the specified emojis.")
			break
		}

		changed, err := p.Attendance.SetStatus(ctx, ref.GuildID, evt.Name, userID, status)
		if err != nil {
			logger.WithError(err).WithField("guild", ref.GuildID).Error("failed applying status reaction")
			break
		}

		if changed {
			p.refreshEventMessage(ctx, ra.ChannelID, ra.MessageID, ref)
		}
	}

	go removeReaction(s, ra)
}

// a second reminder react toggles the registration off again
func (p *Plugin) handleReminderReaction(ctx context.Context, guildID int64, evt *eventstore.Event, userID string, channelID int64) {
	if _, registered := evt.Metadata.Reminders[userID]; registered {
		_, err := p.Reminders.ClearReminder(ctx, guildID, evt.Name, userID)
		if err != nil {
			logger.WithError(err).WithField("guild", guildID).Error("failed clearing reminder")
			return
		}

		p.sendTransient(channelID, fmt.Sprintf("Will no longer remind %s about **%s**.", mention(userID), evt.Name))
		return
	}

	mins := reminders.DefaultOffsetMinutes()
	err := p.Reminders.SetReminder(ctx, guildID, evt.Name, userID, mins)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("failed registering reminder")
		return
	}

	p.sendTransient(channelID, fmt.Sprintf("Will remind %s `%d` minutes before **%s** starts.", mention(userID), mins, evt.Name))
}

// refreshEventMessage edits the posted message to the fresh rendering
func (p *Plugin) refreshEventMessage(ctx context.Context, channelID, messageID int64, ref links.Ref) {
	evt, err := p.Store.GetByID(ctx, ref.GuildID, ref.EventID)
	if err != nil {
		logger.WithError(err).WithField("guild", ref.GuildID).Error("failed refreshing event message")
		return
	}

	loc := p.GuildLocation(ctx, ref.GuildID)
	_, err = common.BotSession.ChannelMessageEdit(channelID, messageID, p.RenderEvent(ctx, evt, loc))
	if err != nil {
		logger.WithError(err).Error("failed editing event message")
	}
}

// sendTransient posts a reply that cleans itself up shortly after
func (p *Plugin) sendTransient(channelID int64, content string) {
	msg, err := common.BotSession.ChannelMessageSend(channelID, content)
	if err != nil {
		logger.WithError(err).Error("failed sending transient reply")
		return
	}

	time.AfterFunc(errMessageDuration, func() {
		common.BotSession.ChannelMessageDelete(channelID, msg.ID)
	})
}

func removeReaction(s *discordgo.Session, ra *discordgo.MessageReactionAdd) {
	err := s.MessageReactionRemove(ra.ChannelID, ra.MessageID, ra.Emoji.APIName(), ra.UserID)
	if err != nil {
		logger.WithError(err).Error("failed removing reaction")
	}
}
