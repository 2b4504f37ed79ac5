package schedule

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/eventstore"
)

const ErrPastTime = errors.Sentinel("the specified date/time occurred in the past")

// GuildLocation resolves the guild's configured timezone
func (p *Plugin) GuildLocation(ctx context.Context, guildID int64) *time.Location {
	conf, err := p.Configs.Get(ctx, guildID)
	if err != nil {
		logger.WithError(err).WithField("guild", guildID).Error("failed fetching guild config, using default zone")
		conf = &eventstore.CommunityConfig{GuildID: guildID}
	}
	return conf.Location()
}

// CreateEvent validates and inserts a new event. Rejections: name taken in
// this guild, unresolvable date/time, resolved time in the past, exact time
// collision. Nothing is persisted on any rejection.
func (p *Plugin) CreateEvent(ctx context.Context, guildID int64, author, name, dateStr, timeStr, description string) (*eventstore.Event, error) {
	exists, err := p.Store.Exists(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, eventstore.ErrDuplicateName
	}

	loc := p.GuildLocation(ctx, guildID)
	ts, err := p.Times.Resolve(dateStr+" "+timeStr, loc)
	if err != nil {
		return nil, err
	}

	if p.Times.IsPast(ts) {
		return nil, ErrPastTime
	}

	conflict, err := p.Store.TimeConflict(ctx, guildID, ts)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, eventstore.ErrTimeConflict
	}

	if description == "" {
		description = eventstore.DefaultDescription
	}

	evt := &eventstore.Event{
		Name:        name,
		Author:      author,
		Time:        ts,
		Description: description,
		Statuses:    attendance.NewStatusLists(),
		Metadata: eventstore.Metadata{
			Reminders: map[string]int{},
		},
	}

	_, err = p.Store.Insert(ctx, guildID, evt)
	if err != nil {
		return nil, err
	}

	return evt, nil
}

// Reschedule moves an existing event to a newly resolved time
func (p *Plugin) Reschedule(ctx context.Context, guildID int64, name, input string) (time.Time, error) {
	evt, err := p.Store.Get(ctx, guildID, name)
	if err != nil {
		return time.Time{}, err
	}

	loc := p.GuildLocation(ctx, guildID)
	ts, err := p.Times.Resolve(input, loc)
	if err != nil {
		return time.Time{}, err
	}

	if p.Times.IsPast(ts) {
		return time.Time{}, ErrPastTime
	}

	conflict, err := p.Store.TimeConflict(ctx, guildID, ts)
	if err != nil {
		return time.Time{}, err
	}
	if conflict && !evt.Time.Equal(ts) {
		return time.Time{}, eventstore.ErrTimeConflict
	}

	err = p.Store.UpdateField(ctx, guildID, evt.ID, eventstore.FieldTime, ts)
	if err != nil {
		return time.Time{}, err
	}

	return ts, nil
}

// DeleteEvent removes the event and clears its link partner, best effort
func (p *Plugin) DeleteEvent(ctx context.Context, guildID int64, name string) error {
	evt, err := p.Store.Get(ctx, guildID, name)
	if err != nil {
		return err
	}

	p.Links.Unlink(ctx, evt)

	return p.Store.Delete(ctx, guildID, name)
}

// DeletePastEvents batch purges everything that already started
func (p *Plugin) DeletePastEvents(ctx context.Context, guildID int64) ([]*eventstore.Event, error) {
	events, err := p.Store.ListAll(ctx, guildID)
	if err != nil {
		return nil, err
	}

	deleted := make([]*eventstore.Event, 0)
	for _, evt := range events {
		if !p.Times.IsPast(evt.Time) {
			continue
		}

		err = p.DeleteEvent(ctx, guildID, evt.Name)
		if err != nil {
			logger.WithError(err).WithField("guild", guildID).Error("failed purging past event ", evt.Name)
			continue
		}
		deleted = append(deleted, evt)
	}

	return deleted, nil
}
