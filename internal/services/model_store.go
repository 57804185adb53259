package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoModelState means nothing has been persisted yet.
var ErrNoModelState = errors.New("no persisted model state")

// ModelStore persists the encoded learned state as a single blob.
type ModelStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

const modelStateFile = "model_state.json"

// FileModelStore keeps the state in <dir>/model_state.json, replacing it
// atomically through a temp file and rename.
type FileModelStore struct {
	dir string
}

func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

func (s *FileModelStore) Path() string {
	return filepath.Join(s.dir, modelStateFile)
}

func (s *FileModelStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoModelState
	}
	if err != nil {
		return nil, fmt.Errorf("read model state: %w", err)
	}
	return data, nil
}

func (s *FileModelStore) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, modelStateFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("replace model state: %w", err)
	}
	return nil
}

// RedisModelStore keeps the state under one key, with no expiry.
type RedisModelStore struct {
	client *redis.Client
	key    string
}

type RedisModelStoreConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisModelStore connects and pings the server before returning.
func NewRedisModelStore(cfg RedisModelStoreConfig) (*RedisModelStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "osassistant:model_state"
	}
	return &RedisModelStore{client: client, key: key}, nil
}

func (s *RedisModelStore) Load(ctx context.Context) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoModelState
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *RedisModelStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping is used by the health endpoint.
func (s *RedisModelStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisModelStore) Close() error {
	return s.client.Close()
}
