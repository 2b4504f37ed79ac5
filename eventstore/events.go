package eventstore

import (
	"context"
	"strings"
	"time"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ErrNotFound      = errors.Sentinel("event not found")
	ErrDuplicateName = errors.Sentinel("an event with that name already exists")
	ErrTimeConflict  = errors.Sentinel("an event is already scheduled at that exact time")
)

const DefaultDescription = "No description."

// Event is one schedulable activity, stored as a single document in the
// owning guild's collection.
type Event struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Name        string              `bson:"name"`
	Author      string              `bson:"author"`
	Time        time.Time           `bson:"time"`
	Description string              `bson:"description"`
	Statuses    map[string][]string `bson:"statuses"`
	Metadata    Metadata            `bson:"metadata"`
}

// Metadata holds the non-displayed parts of an event document.
type Metadata struct {
	Reminders map[string]int `bson:"reminders"`
	GuildID   int64          `bson:"guild_id"`
	Link      string         `bson:"link,omitempty"`
}

// Field enumerates the single-field updates the store accepts. Updates to
// anything outside this set don't exist, which is what keeps reserved fields
// like the id out of reach of the edit path.
type Field string

const (
	FieldTime        Field = "time"
	FieldDescription Field = "description"
	FieldAuthor      Field = "author"
	FieldReminders   Field = "metadata.reminders"
	FieldLink        Field = "metadata.link"
)

// StatusField returns the field selector for a single status list
func StatusField(status string) Field {
	return Field("statuses." + status)
}

// ReminderField returns the field selector for a single user's reminder
// entry. Registration and sweep removal go through per-entry writes so a
// registration landing mid-sweep is never clobbered by a whole-map rewrite.
func ReminderField(userID string) Field {
	return Field("metadata.reminders." + userID)
}

func (f Field) isStatusList() (string, bool) {
	s := string(f)
	if strings.HasPrefix(s, "statuses.") {
		return strings.TrimPrefix(s, "statuses."), true
	}
	return "", false
}

func (f Field) isReminderEntry() (string, bool) {
	s := string(f)
	prefix := string(FieldReminders) + "."
	if strings.HasPrefix(s, prefix) {
		return strings.TrimPrefix(s, prefix), true
	}
	return "", false
}

// Store is the event collection abstraction, one logical collection per
// guild. All reads return fresh state, there is no caching layer in front.
type Store interface {
	Exists(ctx context.Context, guildID int64, name string) (bool, error)
	Get(ctx context.Context, guildID int64, name string) (*Event, error)
	GetByID(ctx context.Context, guildID int64, id primitive.ObjectID) (*Event, error)

	// Insert adds a new event, failing with ErrDuplicateName when the name is
	// taken in this guild
	Insert(ctx context.Context, guildID int64, evt *Event) (primitive.ObjectID, error)

	// UpdateField sets a single field on an existing event, it never creates
	// the event when the id is unknown (ErrNotFound instead)
	UpdateField(ctx context.Context, guildID int64, id primitive.ObjectID, field Field, value interface{}) error

	// UnsetField removes a single field from an existing event. Removing a
	// field that is already absent is not an error.
	UnsetField(ctx context.Context, guildID int64, id primitive.ObjectID, field Field) error

	Delete(ctx context.Context, guildID int64, name string) error
	ListAll(ctx context.Context, guildID int64) ([]*Event, error)

	// ListGuilds returns every guild with an event collection, used by the
	// reminder sweep
	ListGuilds(ctx context.Context) ([]int64, error)

	// TimeConflict reports whether any event in the guild starts at exactly ts
	TimeConflict(ctx context.Context, guildID int64, ts time.Time) (bool, error)
}
