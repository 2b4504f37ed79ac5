package eventstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/meeow/eventbot/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const eventCollectionPrefix = "events_"

var logger = common.GetFixedPrefixLogger("eventstore")

// MongoStore implements Store on top of a mongo database, one collection per
// guild so name/time uniqueness is scoped the way it should be.
type MongoStore struct {
	db *mongo.Database

	indexedMU sync.Mutex
	indexed   map[int64]bool
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:      db,
		indexed: make(map[int64]bool),
	}
}

func (s *MongoStore) events(guildID int64) *mongo.Collection {
	return s.db.Collection(eventCollectionPrefix + strconv.FormatInt(guildID, 10))
}

// ensureIndexes creates the unique name/time indexes for a guild's
// collection, once per process lifetime
func (s *MongoStore) ensureIndexes(ctx context.Context, guildID int64) error {
	s.indexedMU.Lock()
	if s.indexed[guildID] {
		s.indexedMU.Unlock()
		return nil
	}
	s.indexedMU.Unlock()

	_, err := s.events(guildID).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "time", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return errors.WrapIf(err, "create event indexes")
	}

	s.indexedMU.Lock()
	s.indexed[guildID] = true
	s.indexedMU.Unlock()
	return nil
}

func (s *MongoStore) Exists(ctx context.Context, guildID int64, name string) (bool, error) {
	n, err := s.events(guildID).CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.WrapIf(err, "count events")
	}
	return n > 0, nil
}

func (s *MongoStore) Get(ctx context.Context, guildID int64, name string) (*Event, error) {
	evt := &Event{}
	err := s.events(guildID).FindOne(ctx, bson.M{"name": name}).Decode(evt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, errors.WrapIf(err, "find event")
	}
	return evt, nil
}

func (s *MongoStore) GetByID(ctx context.Context, guildID int64, id primitive.ObjectID) (*Event, error) {
	evt := &Event{}
	err := s.events(guildID).FindOne(ctx, bson.M{"_id": id}).Decode(evt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, errors.WrapIf(err, "find event by id")
	}
	return evt, nil
}

func (s *MongoStore) Insert(ctx context.Context, guildID int64, evt *Event) (primitive.ObjectID, error) {
	err := s.ensureIndexes(ctx, guildID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	evt.Metadata.GuildID = guildID

	res, err := s.events(guildID).InsertOne(ctx, evt)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// the violated index tells us which uniqueness rule fired
			if strings.Contains(err.Error(), "time_1") {
				return primitive.NilObjectID, ErrTimeConflict
			}
			return primitive.NilObjectID, ErrDuplicateName
		}
		return primitive.NilObjectID, errors.WrapIf(err, "insert event")
	}

	id := res.InsertedID.(primitive.ObjectID)
	evt.ID = id
	return id, nil
}

func (s *MongoStore) UpdateField(ctx context.Context, guildID int64, id primitive.ObjectID, field Field, value interface{}) error {
	res, err := s.events(guildID).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{string(field): value}})
	if err != nil {
		return errors.WrapIf(err, "update event field")
	}

	// explicitly no upsert, a missing event is reported, never created
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UnsetField(ctx context.Context, guildID int64, id primitive.ObjectID, field Field) error {
	res, err := s.events(guildID).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{string(field): ""}})
	if err != nil {
		return errors.WrapIf(err, "unset event field")
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, guildID int64, name string) error {
	res, err := s.events(guildID).DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return errors.WrapIf(err, "delete event")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListAll(ctx context.Context, guildID int64) ([]*Event, error) {
	cursor, err := s.events(guildID).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
	if err != nil {
		return nil, errors.WrapIf(err, "list events")
	}

	results := make([]*Event, 0)
	err = cursor.All(ctx, &results)
	if err != nil {
		return nil, errors.WrapIf(err, "decode events")
	}
	return results, nil
}

func (s *MongoStore) ListGuilds(ctx context.Context) ([]int64, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": bson.M{"$regex": "^" + eventCollectionPrefix}})
	if err != nil {
		return nil, errors.WrapIf(err, "list event collections")
	}

	guilds := make([]int64, 0, len(names))
	for _, name := range names {
		idStr := strings.TrimPrefix(name, eventCollectionPrefix)
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			logger.WithError(err).Error("skipping malformed event collection name: ", name)
			continue
		}
		guilds = append(guilds, id)
	}
	return guilds, nil
}

func (s *MongoStore) TimeConflict(ctx context.Context, guildID int64, ts time.Time) (bool, error) {
	n, err := s.events(guildID).CountDocuments(ctx, bson.M{"time": ts}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.WrapIf(err, "count time conflicts")
	}
	return n > 0, nil
}
