// Package settings is the key/value option store the accounting credentials live in.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ledgersync/internal/models"
)

// Store reads and writes string options. GetOption returns def when the key is unset.
type Store interface {
	GetOption(ctx context.Context, key, def string) (string, error)
	UpdateOption(ctx context.Context, key, value string) error
}

// GormStore keeps options in the settings table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetOption(ctx context.Context, key, def string) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "option_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("failed to read option %s: %w", key, err)
	}
	if setting.Value == "" {
		return def, nil
	}
	return setting.Value, nil
}

func (s *GormStore) UpdateOption(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "option_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write option %s: %w", key, err)
	}
	return nil
}

// RedisStore keeps options as fields of a single hash.
type RedisStore struct {
	client *redis.Client
	hash   string
}

const DefaultRedisHash = "ledgersync:settings"

func NewRedisStore(client *redis.Client, hash string) *RedisStore {
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisStore{client: client, hash: hash}
}

// NewRedisStoreFromURL parses a redis:// URL and pings the server.
func NewRedisStoreFromURL(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) GetOption(ctx context.Context, key, def string) (string, error) {
	value, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("failed to read option %s: %w", key, err)
	}
	if value == "" {
		return def, nil
	}
	return value, nil
}

func (s *RedisStore) UpdateOption(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("failed to write option %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
