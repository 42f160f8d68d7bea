package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
)

// Badger key layout: kind byte, NUL, logical key, NUL, member or field.
const (
	badgerSet  = 's'
	badgerHash = 'h'
)

// BadgerKV stores sets and hashes as flat badger keys.
type BadgerKV struct {
	db *badger.DB
}

// NewBadgerKV wraps an opened badger database.
func NewBadgerKV(db *badger.DB) *BadgerKV {
	return &BadgerKV{db: db}
}

// OpenBadger opens (or creates) the database directory.
func OpenBadger(cfg coreconfig.BadgerConfig) (*BadgerKV, error) {
	db, err := badger.Open(badger.DefaultOptions(cfg.Path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", cfg.Path, err)
	}
	logger.Store.Info("badger opened",
		slog.String("event", "store.connect"),
		slog.String("driver", coreconfig.StorageBadger),
		slog.String("path", cfg.Path),
	)
	return NewBadgerKV(db), nil
}

func badgerPrefix(kind byte, key string) []byte {
	b := make([]byte, 0, len(key)+3)
	b = append(b, kind, 0)
	b = append(b, key...)
	return append(b, 0)
}

func badgerKey(kind byte, key, sub string) []byte {
	return append(badgerPrefix(kind, key), sub...)
}

func (b *BadgerKV) SAdd(_ context.Context, key, member string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(badgerSet, key, member), nil)
	})
}

func (b *BadgerKV) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	err := b.scan(badgerSet, key, false, func(sub string, _ []byte) {
		out = append(out, sub)
	})
	return out, err
}

func (b *BadgerKV) HSet(_ context.Context, key string, fields map[string]string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for f, v := range fields {
			if err := txn.Set(badgerKey(badgerHash, key, f), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerKV) HGet(_ context.Context, key, field string) (string, bool, error) {
	var (
		val   []byte
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(badgerHash, key, field))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return string(val), found, nil
}

func (b *BadgerKV) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := make(map[string]string)
	err := b.scan(badgerHash, key, true, func(sub string, val []byte) {
		out[sub] = string(val)
	})
	return out, err
}

func (b *BadgerKV) scan(kind byte, key string, values bool, fn func(sub string, val []byte)) error {
	prefix := badgerPrefix(kind, key)
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = values
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			sub := string(item.Key()[len(prefix):])
			var val []byte
			if values {
				v, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				val = v
			}
			fn(sub, val)
		}
		return nil
	})
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}
