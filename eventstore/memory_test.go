package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testEvent(name string, ts time.Time) *Event {
	return &Event{
		Name:        name,
		Author:      "100",
		Time:        ts,
		Description: DefaultDescription,
		Statuses:    map[string][]string{},
		Metadata:    Metadata{Reminders: map[string]int{}},
	}
}

func TestMemStoreInsertGet(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	ts := time.Now().Add(time.Hour).Truncate(time.Second)

	id, err := store.Insert(ctx, 1, testEvent("scrims", ts))
	require.NoError(t, err)
	require.NotEqual(t, primitive.NilObjectID, id)

	got, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Equal(t, "scrims", got.Name)
	assert.True(t, ts.Equal(got.Time))
	assert.Equal(t, int64(1), got.Metadata.GuildID)

	byID, err := store.GetByID(ctx, 1, id)
	require.NoError(t, err)
	assert.Equal(t, got.Name, byID.Name)
}

func TestMemStoreNameUniquePerGuild(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	ts := time.Now().Add(time.Hour)

	_, err := store.Insert(ctx, 1, testEvent("scrims", ts))
	require.NoError(t, err)

	_, err = store.Insert(ctx, 1, testEvent("scrims", ts.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrDuplicateName)

	// same name in another guild is fine
	_, err = store.Insert(ctx, 2, testEvent("scrims", ts))
	assert.NoError(t, err)
}

func TestMemStoreTimeUniquePerGuild(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	ts := time.Now().Add(time.Hour)

	_, err := store.Insert(ctx, 1, testEvent("a", ts))
	require.NoError(t, err)

	_, err = store.Insert(ctx, 1, testEvent("b", ts))
	assert.ErrorIs(t, err, ErrTimeConflict, "a time collision is reported as such, not as a name clash")

	conflict, err := store.TimeConflict(ctx, 1, ts)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = store.TimeConflict(ctx, 1, ts.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestMemStoreUpdateField(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, 1, testEvent("scrims", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, store.UpdateField(ctx, 1, id, FieldDescription, "bring snacks"))
	require.NoError(t, store.UpdateField(ctx, 1, id, StatusField("Yes"), []string{"100", "200"}))
	require.NoError(t, store.UpdateField(ctx, 1, id, FieldReminders, map[string]int{"100": 30}))

	got, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Equal(t, "bring snacks", got.Description)
	assert.Equal(t, []string{"100", "200"}, got.Statuses["Yes"])
	assert.Equal(t, map[string]int{"100": 30}, got.Metadata.Reminders)

	// no upsert on unknown ids
	err = store.UpdateField(ctx, 1, primitive.NewObjectID(), FieldDescription, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreReminderEntryFields(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, 1, testEvent("scrims", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, store.UpdateField(ctx, 1, id, ReminderField("100"), 30))
	require.NoError(t, store.UpdateField(ctx, 1, id, ReminderField("200"), 15))
	require.NoError(t, store.UpdateField(ctx, 1, id, ReminderField("100"), 45))

	got, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"100": 45, "200": 15}, got.Metadata.Reminders)

	// removing one entry leaves the others alone
	require.NoError(t, store.UnsetField(ctx, 1, id, ReminderField("100")))

	got, err = store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"200": 15}, got.Metadata.Reminders)

	// unsetting an absent entry is not an error
	assert.NoError(t, store.UnsetField(ctx, 1, id, ReminderField("100")))

	// but an unknown event still is
	err = store.UnsetField(ctx, 1, primitive.NewObjectID(), ReminderField("200"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreDelete(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 1, testEvent("scrims", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, 1, "scrims"))

	_, err = store.Get(ctx, 1, "scrims")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 1, "scrims"), ErrNotFound)
}

func TestMemStoreListAllSortedByTime(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	base := time.Now().Add(time.Hour)

	_, err := store.Insert(ctx, 1, testEvent("later", base.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = store.Insert(ctx, 1, testEvent("sooner", base))
	require.NoError(t, err)

	events, err := store.ListAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "sooner", events[0].Name)
	assert.Equal(t, "later", events[1].Name)
}

func TestMemStoreListGuilds(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	ts := time.Now().Add(time.Hour)

	_, err := store.Insert(ctx, 2, testEvent("a", ts))
	require.NoError(t, err)
	_, err = store.Insert(ctx, 1, testEvent("b", ts))
	require.NoError(t, err)

	guilds, err := store.ListGuilds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, guilds)
}

func TestMemStoreReturnsCopies(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 1, testEvent("scrims", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	got, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	got.Description = "mutated"
	got.Statuses["Yes"] = append(got.Statuses["Yes"], "999")

	fresh, err := store.Get(ctx, 1, "scrims")
	require.NoError(t, err)
	assert.Equal(t, DefaultDescription, fresh.Description)
	assert.Empty(t, fresh.Statuses["Yes"])
}

func TestCommunityConfigDefaults(t *testing.T) {
	conf := &CommunityConfig{GuildID: 1}

	assert.Equal(t, DefaultAdminLevel, conf.EffectiveAdminLevel())
	assert.Equal(t, DefaultZone, conf.Location().String())

	conf.AdminLevel = 3
	conf.Timezone = "Europe/Berlin"
	assert.Equal(t, 3, conf.EffectiveAdminLevel())
	assert.Equal(t, "Europe/Berlin", conf.Location().String())

	// unloadable zones fall back to UTC instead of failing
	conf.Timezone = "Nowhere/Nonexistent"
	assert.Equal(t, time.UTC, conf.Location())
}

func TestMemConfigStore(t *testing.T) {
	store := NewMemConfigStore()
	ctx := context.Background()

	conf, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), conf.GuildID)
	assert.Empty(t, conf.Timezone)

	require.NoError(t, store.SetTimezone(ctx, 1, "Europe/Berlin"))
	require.NoError(t, store.SetAdminLevel(ctx, 1, 2))

	conf, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", conf.Timezone)
	assert.Equal(t, 2, conf.AdminLevel)
}
