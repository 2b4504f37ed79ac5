package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/meeow/eventbot/eventstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestEvent(t *testing.T, store eventstore.Store, guildID int64, name string) {
	t.Helper()
	_, err := store.Insert(context.Background(), guildID, &eventstore.Event{
		Name:        name,
		Author:      "100",
		Time:        time.Now().Add(time.Hour),
		Description: eventstore.DefaultDescription,
		Statuses:    NewStatusLists(),
		Metadata:    eventstore.Metadata{Reminders: map[string]int{}},
	})
	require.NoError(t, err)
}

func currentStatus(t *testing.T, store eventstore.Store, guildID int64, name, userID string) (Status, bool) {
	t.Helper()
	evt, err := store.Get(context.Background(), guildID, name)
	require.NoError(t, err)
	return StatusOf(evt, userID)
}

func TestSetStatusMovesUserBetweenLists(t *testing.T) {
	store := eventstore.NewMemStore()
	engine := NewEngine(store)
	ctx := context.Background()
	insertTestEvent(t, store, 1, "scrims")

	changed, err := engine.SetStatus(ctx, 1, "scrims", "200", StatusYes)
	require.NoError(t, err)
	assert.True(t, changed)

	status, ok := currentStatus(t, store, 1, "scrims", "200")
	require.True(t, ok)
	assert.Equal(t, StatusYes, status)

	changed, err = engine.SetStatus(ctx, 1, "scrims", "200", StatusNo)
	require.NoError(t, err)
	assert.True(t, changed)

	// the user is in exactly one list after the move
	evt, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Empty(t, evt.Statuses[string(StatusYes)])
	assert.Equal(t, []string{"200"}, evt.Statuses[string(StatusNo)])
}

func TestSetStatusRepeatIsNoop(t *testing.T) {
	store := eventstore.NewMemStore()
	engine := NewEngine(store)
	ctx := context.Background()
	insertTestEvent(t, store, 1, "scrims")

	changed, err := engine.SetStatus(ctx, 1, "scrims", "200", StatusMaybe)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = engine.SetStatus(ctx, 1, "scrims", "200", StatusMaybe)
	require.NoError(t, err)
	assert.False(t, changed)

	evt, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Equal(t, []string{"200"}, evt.Statuses[string(StatusMaybe)])
}

func TestSetStatusHoldsAtMostOneAcrossSequences(t *testing.T) {
	store := eventstore.NewMemStore()
	engine := NewEngine(store)
	ctx := context.Background()
	insertTestEvent(t, store, 1, "scrims")

	sequence := []Status{StatusYes, StatusMaybe, StatusMaybe, StatusPartly, StatusNo, StatusYes}
	for _, s := range sequence {
		_, err := engine.SetStatus(ctx, 1, "scrims", "200", s)
		require.NoError(t, err)
	}

	evt, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)

	total := 0
	for _, s := range Statuses {
		total += len(evt.Statuses[string(s)])
	}
	assert.Equal(t, 1, total)

	status, ok := StatusOf(evt, "200")
	require.True(t, ok)
	assert.Equal(t, StatusYes, status)
}

func TestSetStatusUnknownEvent(t *testing.T) {
	engine := NewEngine(eventstore.NewMemStore())

	_, err := engine.SetStatus(context.Background(), 1, "missing", "200", StatusYes)
	assert.ErrorIs(t, err, eventstore.ErrNotFound)
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"Yes", StatusYes, true},
		{"yes", StatusYes, true},
		{"PARTLY", StatusPartly, true},
		{"maybe", StatusMaybe, true},
		{"no", StatusNo, true},
		{"perhaps", "", false},
	}

	for _, c := range cases {
		got, ok := ParseStatus(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestEmojiToStatusVariants(t *testing.T) {
	for _, s := range Statuses {
		got, ok := EmojiToStatus(s.Emoji())
		require.True(t, ok)
		assert.Equal(t, s, got)
	}

	// non-canonical glyphs fold into the same status
	got, ok := EmojiToStatus("😄")
	require.True(t, ok)
	assert.Equal(t, StatusYes, got)

	_, ok = EmojiToStatus("🎉")
	assert.False(t, ok)
}
