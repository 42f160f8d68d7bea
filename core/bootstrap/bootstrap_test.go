package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
)

type fakeStore struct{ driver string }

func (fakeStore) Close() error { return nil }

func TestRunOpensStoreAfterLogger(t *testing.T) {
	var order []string
	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{Driver: coreconfig.StorageMemory}}

	res, err := Run(context.Background(), Options[fakeStore]{
		Config: cfg,
		LoggerInit: func(*coreconfig.Config) error {
			order = append(order, "logger")
			return nil
		},
		OpenStore: func(_ context.Context, sc coreconfig.StorageConfig) (fakeStore, error) {
			order = append(order, "store")
			return fakeStore{driver: sc.Driver}, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"logger", "store"}, order)
	assert.Equal(t, coreconfig.StorageMemory, res.Store.driver)
}

func TestRunErrors(t *testing.T) {
	noLogger := func(*coreconfig.Config) error { return nil }

	_, err := Run(context.Background(), Options[fakeStore]{})
	assert.Error(t, err)

	_, err = Run(context.Background(), Options[fakeStore]{Config: &coreconfig.Config{}, LoggerInit: noLogger})
	assert.Error(t, err)

	boom := errors.New("dial tcp: refused")
	_, err = Run(context.Background(), Options[fakeStore]{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		OpenStore: func(context.Context, coreconfig.StorageConfig) (fakeStore, error) {
			return fakeStore{}, boom
		},
	})
	assert.ErrorIs(t, err, boom)
}
