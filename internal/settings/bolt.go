package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"autolight-service/internal/types"
)

const (
	boltBucket      = "autolight"
	boltSettingsKey = "settings"
	boltModeKey     = "mode"
)

// BoltStore keeps the settings block in a bbolt file for units that run
// without Redis.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) get(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *BoltStore) put(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), value)
	})
}

func (b *BoltStore) Load(ctx context.Context) (Settings, error) {
	data, err := b.get(boltSettingsKey)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (b *BoltStore) Save(ctx context.Context, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := b.put(boltSettingsKey, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (b *BoltStore) LoadMode(ctx context.Context) (types.AutoLightMode, error) {
	data, err := b.get(boltModeKey)
	if err != nil {
		return types.ModeOff, err
	}
	return types.ParseAutoLightMode(string(data)), nil
}

func (b *BoltStore) SaveMode(ctx context.Context, m types.AutoLightMode) error {
	if err := b.put(boltModeKey, []byte(m)); err != nil {
		return fmt.Errorf("write mode: %w", err)
	}
	return nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
