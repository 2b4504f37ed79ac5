package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory Store with the same contract as the mongo one,
// used by tests. Reads hand out copies so callers always operate on a fresh
// snapshot, the same way a real store round trip would.
type MemStore struct {
	mu     sync.Mutex
	guilds map[int64]map[primitive.ObjectID]*Event
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		guilds: make(map[int64]map[primitive.ObjectID]*Event),
	}
}

func copyEvent(evt *Event) *Event {
	dup := *evt

	dup.Statuses = make(map[string][]string, len(evt.Statuses))
	for k, v := range evt.Statuses {
		dup.Statuses[k] = append([]string(nil), v...)
	}

	dup.Metadata.Reminders = make(map[string]int, len(evt.Metadata.Reminders))
	for k, v := range evt.Metadata.Reminders {
		dup.Metadata.Reminders[k] = v
	}

	return &dup
}

func (s *MemStore) findByName(guildID int64, name string) *Event {
	for _, evt := range s.guilds[guildID] {
		if evt.Name == name {
			return evt
		}
	}
	return nil
}

func (s *MemStore) Exists(ctx context.Context, guildID int64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByName(guildID, name) != nil, nil
}

func (s *MemStore) Get(ctx context.Context, guildID int64, name string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt := s.findByName(guildID, name)
	if evt == nil {
		return nil, ErrNotFound
	}
	return copyEvent(evt), nil
}

func (s *MemStore) GetByID(ctx context.Context, guildID int64, id primitive.ObjectID) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.guilds[guildID][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(evt), nil
}

func (s *MemStore) Insert(ctx context.Context, guildID int64, evt *Event) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByName(guildID, evt.Name) != nil {
		return primitive.NilObjectID, ErrDuplicateName
	}
	for _, existing := range s.guilds[guildID] {
		if existing.Time.Equal(evt.Time) {
			// same rejection the mongo unique time index produces
			return primitive.NilObjectID, ErrTimeConflict
		}
	}

	if s.guilds[guildID] == nil {
		s.guilds[guildID] = make(map[primitive.ObjectID]*Event)
	}

	evt.ID = primitive.NewObjectID()
	evt.Metadata.GuildID = guildID
	s.guilds[guildID][evt.ID] = copyEvent(evt)
	return evt.ID, nil
}

func (s *MemStore) UpdateField(ctx context.Context, guildID int64, id primitive.ObjectID, field Field, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.guilds[guildID][id]
	if !ok {
		return ErrNotFound
	}

	if status, ok := field.isStatusList(); ok {
		evt.Statuses[status] = append([]string(nil), value.([]string)...)
		return nil
	}

	if userID, ok := field.isReminderEntry(); ok {
		if evt.Metadata.Reminders == nil {
			evt.Metadata.Reminders = make(map[string]int)
		}
		evt.Metadata.Reminders[userID] = value.(int)
		return nil
	}

	switch field {
	case FieldTime:
		evt.Time = value.(time.Time)
	case FieldDescription:
		evt.Description = value.(string)
	case FieldAuthor:
		evt.Author = value.(string)
	case FieldLink:
		evt.Metadata.Link = value.(string)
	case FieldReminders:
		reminders := value.(map[string]int)
		evt.Metadata.Reminders = make(map[string]int, len(reminders))
		for k, v := range reminders {
			evt.Metadata.Reminders[k] = v
		}
	default:
		return ErrNotFound
	}

	return nil
}

func (s *MemStore) UnsetField(ctx context.Context, guildID int64, id primitive.ObjectID, field Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.guilds[guildID][id]
	if !ok {
		return ErrNotFound
	}

	if userID, ok := field.isReminderEntry(); ok {
		delete(evt.Metadata.Reminders, userID)
		return nil
	}

	switch field {
	case FieldLink:
		evt.Metadata.Link = ""
	case FieldReminders:
		evt.Metadata.Reminders = make(map[string]int)
	default:
		return ErrNotFound
	}

	return nil
}

func (s *MemStore) Delete(ctx context.Context, guildID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt := s.findByName(guildID, name)
	if evt == nil {
		return ErrNotFound
	}

	delete(s.guilds[guildID], evt.ID)
	return nil
}

func (s *MemStore) ListAll(ctx context.Context, guildID int64) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]*Event, 0, len(s.guilds[guildID]))
	for _, evt := range s.guilds[guildID] {
		results = append(results, copyEvent(evt))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Time.Before(results[j].Time)
	})
	return results, nil
}

func (s *MemStore) ListGuilds(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guilds := make([]int64, 0, len(s.guilds))
	for id, events := range s.guilds {
		if len(events) == 0 {
			continue
		}
		guilds = append(guilds, id)
	}

	sort.Slice(guilds, func(i, j int) bool { return guilds[i] < guilds[j] })
	return guilds, nil
}

func (s *MemStore) TimeConflict(ctx context.Context, guildID int64, ts time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, evt := range s.guilds[guildID] {
		if evt.Time.Equal(ts) {
			return true, nil
		}
	}
	return false, nil
}
