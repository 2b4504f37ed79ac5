package eventstore

import (
	"context"
	"sync"
	"time"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const configCollection = "guild_configs"

// Defaults applied when a guild has no stored config, overridable from the
// process config at startup.
var (
	DefaultZone       = "America/New_York"
	DefaultAdminLevel = 1
)

// CommunityConfig is the per-guild configuration document.
type CommunityConfig struct {
	GuildID int64 `bson:"_id"`

	// IANA zone name, empty means the bot default
	Timezone string `bson:"timezone,omitempty"`

	// number of top roles treated as admin, 0 means the bot default
	AdminLevel int `bson:"admin_level,omitempty"`
}

// Location resolves the configured zone, falling back to the default zone
// and finally UTC if even that fails to load
func (c *CommunityConfig) Location() *time.Location {
	zone := c.Timezone
	if zone == "" {
		zone = DefaultZone
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		logger.WithError(err).Error("failed loading guild timezone, falling back to UTC: ", zone)
		return time.UTC
	}
	return loc
}

func (c *CommunityConfig) EffectiveAdminLevel() int {
	if c.AdminLevel <= 0 {
		return DefaultAdminLevel
	}
	return c.AdminLevel
}

// ConfigStore is the per-guild config abstraction. Get never fails on a
// missing document, it returns a config carrying the defaults.
type ConfigStore interface {
	Get(ctx context.Context, guildID int64) (*CommunityConfig, error)
	SetTimezone(ctx context.Context, guildID int64, zone string) error
	SetAdminLevel(ctx context.Context, guildID int64, level int) error
}

type MongoConfigStore struct {
	db *mongo.Database
}

var _ ConfigStore = (*MongoConfigStore)(nil)

func NewMongoConfigStore(db *mongo.Database) *MongoConfigStore {
	return &MongoConfigStore{db: db}
}

func (s *MongoConfigStore) col() *mongo.Collection {
	return s.db.Collection(configCollection)
}

func (s *MongoConfigStore) Get(ctx context.Context, guildID int64) (*CommunityConfig, error) {
	conf := &CommunityConfig{}
	err := s.col().FindOne(ctx, bson.M{"_id": guildID}).Decode(conf)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &CommunityConfig{GuildID: guildID}, nil
		}
		return nil, errors.WrapIf(err, "find guild config")
	}
	return conf, nil
}

func (s *MongoConfigStore) set(ctx context.Context, guildID int64, field string, value interface{}) error {
	_, err := s.col().UpdateOne(ctx,
		bson.M{"_id": guildID},
		bson.M{"$set": bson.M{field: value}},
		options.Update().SetUpsert(true))
	return errors.WrapIf(err, "upsert guild config")
}

func (s *MongoConfigStore) SetTimezone(ctx context.Context, guildID int64, zone string) error {
	return s.set(ctx, guildID, "timezone", zone)
}

func (s *MongoConfigStore) SetAdminLevel(ctx context.Context, guildID int64, level int) error {
	return s.set(ctx, guildID, "admin_level", level)
}

// MemConfigStore is the in-memory ConfigStore used by tests.
type MemConfigStore struct {
	mu      sync.Mutex
	configs map[int64]*CommunityConfig
}

var _ ConfigStore = (*MemConfigStore)(nil)

func NewMemConfigStore() *MemConfigStore {
	return &MemConfigStore{configs: make(map[int64]*CommunityConfig)}
}

func (s *MemConfigStore) get(guildID int64) *CommunityConfig {
	if conf, ok := s.configs[guildID]; ok {
		return conf
	}
	conf := &CommunityConfig{GuildID: guildID}
	s.configs[guildID] = conf
	return conf
}

func (s *MemConfigStore) Get(ctx context.Context, guildID int64) (*CommunityConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := *s.get(guildID)
	return &dup, nil
}

func (s *MemConfigStore) SetTimezone(ctx context.Context, guildID int64, zone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.get(guildID).Timezone = zone
	return nil
}

func (s *MemConfigStore) SetAdminLevel(ctx context.Context, guildID int64, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.get(guildID).AdminLevel = level
	return nil
}
