package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/meeow/eventbot/attendance"
	"github.com/meeow/eventbot/eventstore"
	"github.com/meeow/eventbot/links"
	"github.com/meeow/eventbot/reminders"
	"github.com/meeow/eventbot/times"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	admins map[int64]bool
}

func (o fakeOracle) IsAdmin(guildID int64, userID int64) (bool, error) {
	return o.admins[userID], nil
}

func newTestPlugin() (*Plugin, *eventstore.MemStore) {
	store := eventstore.NewMemStore()
	return &Plugin{
		Store:      store,
		Configs:    eventstore.NewMemConfigStore(),
		Times:      times.NewService(),
		Attendance: attendance.NewEngine(store),
		Reminders:  &reminders.Plugin{Store: store, Interval: time.Second},
		Links:      links.NewCoordinator(store),
		Messages:   NewMemMessageIndex(),
		Perms:      fakeOracle{admins: map[int64]bool{900: true}},
	}, store
}

func TestCreateEvent(t *testing.T) {
	p, store := newTestPlugin()
	ctx := context.Background()

	evt, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	assert.Equal(t, "scrims", evt.Name)
	assert.Equal(t, "100", evt.Author)
	assert.Equal(t, eventstore.DefaultDescription, evt.Description)

	loc := p.GuildLocation(ctx, 1)
	assert.True(t, time.Date(2099, 7, 20, 18, 30, 0, 0, loc).Equal(evt.Time))

	stored, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	for _, s := range attendance.Statuses {
		assert.Empty(t, stored.Statuses[string(s)])
	}
	assert.Empty(t, stored.Metadata.Reminders)
}

func TestCreateEventRejections(t *testing.T) {
	p, _ := newTestPlugin()
	ctx := context.Background()

	_, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/21/2099", "6:30pm", "")
		assert.ErrorIs(t, err, eventstore.ErrDuplicateName)
	})

	t.Run("time collision", func(t *testing.T) {
		_, err := p.CreateEvent(ctx, 1, "100", "other", "7/20/2099", "6:30pm", "")
		assert.ErrorIs(t, err, eventstore.ErrTimeConflict)
	})

	t.Run("past time", func(t *testing.T) {
		_, err := p.CreateEvent(ctx, 1, "100", "retro", "1/1/2020", "6:30pm", "")
		assert.ErrorIs(t, err, ErrPastTime)
	})

	t.Run("unparseable time", func(t *testing.T) {
		_, err := p.CreateEvent(ctx, 1, "100", "vague", "qqqq", "wwww", "")
		var perr *times.ParseError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("nothing persisted on rejection", func(t *testing.T) {
		for _, name := range []string{"other", "retro", "vague"} {
			_, err := p.Store.Get(ctx, 1, name)
			assert.ErrorIs(t, err, eventstore.ErrNotFound, name)
		}
	})

	t.Run("same name in another guild", func(t *testing.T) {
		_, err := p.CreateEvent(ctx, 2, "100", "scrims", "7/20/2099", "6:30pm", "")
		assert.NoError(t, err)
	})
}

func TestCreateEventKeepsDescription(t *testing.T) {
	p, _ := newTestPlugin()

	evt, err := p.CreateEvent(context.Background(), 1, "100", "scrims", "7/20/2099", "6:30pm", "bring snacks")
	require.NoError(t, err)
	assert.Equal(t, "bring snacks", evt.Description)
}

func TestReschedule(t *testing.T) {
	p, store := newTestPlugin()
	ctx := context.Background()
	loc := p.GuildLocation(ctx, 1)

	_, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	ts, err := p.Reschedule(ctx, 1, "scrims", "7/21/2099 8pm")
	require.NoError(t, err)
	assert.True(t, time.Date(2099, 7, 21, 20, 0, 0, 0, loc).Equal(ts))

	stored, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.True(t, ts.Equal(stored.Time))
}

func TestRescheduleToOwnTimeIsNotAConflict(t *testing.T) {
	p, _ := newTestPlugin()
	ctx := context.Background()

	_, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	_, err = p.Reschedule(ctx, 1, "scrims", "7/20/2099 6:30pm")
	assert.NoError(t, err)
}

func TestRescheduleRejections(t *testing.T) {
	p, _ := newTestPlugin()
	ctx := context.Background()

	_, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)
	_, err = p.CreateEvent(ctx, 1, "100", "other", "7/21/2099", "6:30pm", "")
	require.NoError(t, err)

	_, err = p.Reschedule(ctx, 1, "missing", "7/22/2099 8pm")
	assert.ErrorIs(t, err, eventstore.ErrNotFound)

	_, err = p.Reschedule(ctx, 1, "scrims", "7/21/2099 6:30pm")
	assert.ErrorIs(t, err, eventstore.ErrTimeConflict)

	_, err = p.Reschedule(ctx, 1, "scrims", "1/1/2020 8pm")
	assert.ErrorIs(t, err, ErrPastTime)
}

func TestDeleteEventClearsPartnerLink(t *testing.T) {
	p, store := newTestPlugin()
	ctx := context.Background()

	origin, err := p.CreateEvent(ctx, 1, "100", "scrims", "7/20/2099", "6:30pm", "")
	require.NoError(t, err)

	_, err = p.Links.Join(ctx, 2, "300", links.RefTo(origin))
	require.NoError(t, err)

	require.NoError(t, p.DeleteEvent(ctx, 2, "scrims"))

	stored, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Empty(t, stored.Metadata.Link)
}

func TestDeletePastEvents(t *testing.T) {
	p, store := newTestPlugin()
	ctx := context.Background()

	for _, e := range []struct {
		name string
		ts   time.Time
	}{
		{"old-a", time.Now().Add(-2 * time.Hour)},
		{"old-b", time.Now().Add(-time.Hour)},
		{"upcoming", time.Now().Add(time.Hour)},
	} {
		_, err := store.Insert(ctx, 1, &eventstore.Event{
			Name:     e.name,
			Author:   "100",
			Time:     e.ts,
			Statuses: attendance.NewStatusLists(),
			Metadata: eventstore.Metadata{Reminders: map[string]int{}},
		})
		require.NoError(t, err)
	}

	deleted, err := p.DeletePastEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, deleted, 2)

	remaining, err := store.ListAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "upcoming", remaining[0].Name)
}
