// Package reminders registers per-user reminder entries on events and runs
// the background sweep that fires them.
package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/meeow/eventbot/common"
	"github.com/meeow/eventbot/eventstore"
)

var logger = common.GetPluginLogger(&Plugin{})

// Notifier delivers a reminder to a user, a DM in the discord adapter.
type Notifier interface {
	RemindUser(userID string, message string) error
}

type Plugin struct {
	Store  eventstore.Store
	Notify Notifier

	// seconds between sweeps
	Interval time.Duration

	stop chan *sync.WaitGroup
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Reminders",
		SysName:  "reminders",
		Category: common.PluginCategoryEvents,
	}
}

func RegisterPlugin(store eventstore.Store, notify Notifier) *Plugin {
	interval := time.Duration(common.ConfReminderSweepSeconds.GetInt()) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	p := &Plugin{
		Store:    store,
		Notify:   notify,
		Interval: interval,
		stop:     make(chan *sync.WaitGroup),
	}
	common.RegisterPlugin(p)
	return p
}

// DefaultOffsetMinutes is the offset used when a reminder reaction carries
// no explicit offset
func DefaultOffsetMinutes() int {
	mins := common.ConfDefaultReminderMins.GetInt()
	if mins <= 0 {
		mins = 30
	}
	return mins
}

// SetReminder upserts the (event, user) reminder entry, re-registration
// overwrites the offset. The write touches only this user's entry so it
// commutes with a sweep running at the same time.
func (p *Plugin) SetReminder(ctx context.Context, guildID int64, eventName, userID string, offsetMinutes int) error {
	evt, err := p.Store.Get(ctx, guildID, eventName)
	if err != nil {
		return err
	}

	return p.Store.UpdateField(ctx, guildID, evt.ID, eventstore.ReminderField(userID), offsetMinutes)
}

// ClearReminder removes the user's entry, reporting whether one existed
func (p *Plugin) ClearReminder(ctx context.Context, guildID int64, eventName, userID string) (bool, error) {
	evt, err := p.Store.Get(ctx, guildID, eventName)
	if err != nil {
		return false, err
	}

	if _, ok := evt.Metadata.Reminders[userID]; !ok {
		return false, nil
	}

	return true, p.Store.UnsetField(ctx, guildID, evt.ID, eventstore.ReminderField(userID))
}

var _ interface {
	RunBackgroundWorker()
	StopBackgroundWorker(wg *sync.WaitGroup)
} = (*Plugin)(nil)

func (p *Plugin) RunBackgroundWorker() {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Sweep(context.Background())
		case wg := <-p.stop:
			wg.Done()
			return
		}
	}
}

func (p *Plugin) StopBackgroundWorker(wg *sync.WaitGroup) {
	p.stop <- wg
}

// Sweep walks every guild's events and fires the reminder entries whose
// offset has elapsed. Entries are removed once delivery has been attempted,
// a failed DM is logged and dropped rather than retried.
func (p *Plugin) Sweep(ctx context.Context) {
	guilds, err := p.Store.ListGuilds(ctx)
	if err != nil {
		logger.WithError(err).Error("reminder sweep failed listing guilds")
		return
	}

	now := time.Now()
	for _, guildID := range guilds {
		events, err := p.Store.ListAll(ctx, guildID)
		if err != nil {
			logger.WithError(err).WithField("guild", guildID).Error("reminder sweep failed listing events")
			continue
		}

		for _, evt := range events {
			p.sweepEvent(ctx, guildID, evt, now)
		}
	}
}

func (p *Plugin) sweepEvent(ctx context.Context, guildID int64, evt *eventstore.Event, now time.Time) {
	if len(evt.Metadata.Reminders) == 0 {
		return
	}

	for userID, offsetMinutes := range evt.Metadata.Reminders {
		due := !now.Add(time.Duration(offsetMinutes) * time.Minute).Before(evt.Time)
		if !due {
			continue
		}

		err := p.Notify.RemindUser(userID, reminderMessage(evt, now))
		if err != nil {
			// dropped on purpose, retrying would risk duplicate spam
			logger.WithError(err).WithField("guild", guildID).Error("failed delivering reminder for ", evt.Name)
		}

		// each fired entry is removed on its own so registrations landing
		// mid-sweep are untouched
		err = p.Store.UnsetField(ctx, guildID, evt.ID, eventstore.ReminderField(userID))
		if err != nil {
			logger.WithError(err).WithField("guild", guildID).Error("failed clearing fired reminder for ", evt.Name)
		}
	}
}

func reminderMessage(evt *eventstore.Event, now time.Time) string {
	in := common.HumanizeDuration(common.DurationPrecisionMinutes, evt.Time.Sub(now))
	if evt.Time.Before(now) {
		return "**Reminder:** **" + evt.Name + "** has started!"
	}
	return "**Reminder:** **" + evt.Name + "** starts in " + in + "."
}
