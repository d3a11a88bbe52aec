package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/fruit-slice-platform/internal/game-service/repo"
)

type fakeStore struct {
	items []repo.ShopItem
	err   error
	calls int
}

func (f *fakeStore) ListActiveItems(context.Context) ([]repo.ShopItem, error) {
	f.calls++
	return f.items, f.err
}

func TestListActiveWithoutRedis(t *testing.T) {
	store := &fakeStore{items: []repo.ShopItem{{Key: "golden_blade", PriceCents: 500}}}
	c := New(nil, store)

	items, err := c.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "golden_blade", items[0].Key)

	// sem Redis toda leitura vai ao banco
	_, err = c.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestListActiveStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	c := New(nil, store)

	_, err := c.ListActive(context.Background())
	assert.Error(t, err)
}
