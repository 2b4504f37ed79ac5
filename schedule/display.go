package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/eventstore"
	"github.com/meeow/eventbot/links"
)

const attendanceInstructions = "*Update your status by reacting with the corresponding emoji, or with " + reminderEmoji + " for a reminder.*"

func mention(userID string) string {
	return "<@" + userID + ">"
}

func mentionList(userIDs []string) string {
	if len(userIDs) == 0 {
		return "None yet!"
	}

	mentions := make([]string, len(userIDs))
	for i, id := range userIDs {
		mentions[i] = mention(id)
	}
	return strings.Join(mentions, ", ")
}

func renderStatusLists(b *strings.Builder, statuses map[string][]string) {
	for _, status := range attendance.Statuses {
		members := statuses[string(status)]
		fmt.Fprintf(b, "%s **%s (%d):** %s\n", status.Emoji(), status, len(members), mentionList(members))
	}
}

// RenderEvent produces the full event text, including the linked partner's
// attendance when one exists.
func (p *Plugin) RenderEvent(ctx context.Context, evt *eventstore.Event, loc *time.Location) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s**\n", evt.Name)
	fmt.Fprintf(&b, "**Time:** %s\n", p.Times.Format(evt.Time, loc))
	fmt.Fprintf(&b, "**Description:** %s\n", evt.Description)
	fmt.Fprintf(&b, "**Author:** %s\n", mention(evt.Author))
	renderStatusLists(&b, evt.Statuses)

	if evt.Metadata.Link != "" {
		p.renderLinkedSide(ctx, &b, evt.Metadata.Link)
	}

	fmt.Fprintf(&b, "\n*Event reference:* `%s`\n", links.RefTo(evt))
	b.WriteString(attendanceInstructions)

	return b.String()
}

// the opposing side is shown read-only, its own author/description/metadata
// are suppressed
func (p *Plugin) renderLinkedSide(ctx context.Context, b *strings.Builder, rawRef string) {
	ref, err := links.ParseRef(rawRef)
	if err != nil {
		fmt.Fprintf(b, "\n**Warning:** this event carries a malformed link reference: `%s`\n", rawRef)
		return
	}

	partner, err := p.Links.Resolve(ctx, ref)
	if err != nil {
		var broken *links.BrokenLinkError
		if errors.As(err, &broken) {
			fmt.Fprintf(b, "\n**The formerly linked event has been deleted.** (reference: `%s`)\n", ref)
		} else {
			logger.WithError(err).Error("failed resolving link for display")
			fmt.Fprintf(b, "\n**Warning:** could not load the linked event right now. (reference: `%s`)\n", ref)
		}
		return
	}

	fmt.Fprintf(b, "\n**Linked attendance from the partner community:**\n")
	renderStatusLists(b, partner.Statuses)
}

// RenderEventBrief is the one-line form used by the overview listing
func (p *Plugin) RenderEventBrief(evt *eventstore.Event, loc *time.Location) string {
	return fmt.Sprintf("**%s** at %s", evt.Name, p.Times.Format(evt.Time, loc))
}

// RenderAllEvents lists every upcoming event in the guild
func (p *Plugin) RenderAllEvents(ctx context.Context, guildID int64) (string, error) {
	events, err := p.Store.ListAll(ctx, guildID)
	if err != nil {
		return "", err
	}

	if len(events) == 0 {
		return "No upcoming events.", nil
	}

	loc := p.GuildLocation(ctx, guildID)

	var b strings.Builder
	b.WriteString("Showing all events. Use `show <event name>` for detailed info.\n\n")
	for _, evt := range events {
		b.WriteString(p.RenderEventBrief(evt, loc))
		b.WriteString("\n")
	}

	return b.String(), nil
}
