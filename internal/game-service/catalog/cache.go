package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/fruit-slice-platform/internal/game-service/repo"
)

const (
	cacheKey = "shop:items:active"
	cacheTTL = 60 * time.Second
)

// Store é a fonte autoritativa do catálogo
type Store interface {
	ListActiveItems(ctx context.Context) ([]repo.ShopItem, error)
}

// Catalog serve o catálogo ativo da loja com cache em Redis na frente
// do Postgres. Compras não passam por aqui; validam direto no banco.
type Catalog struct {
	rdb   *redis.Client
	store Store
}

func New(rdb *redis.Client, store Store) *Catalog {
	return &Catalog{rdb: rdb, store: store}
}

// ListActive retorna os itens ativos, do cache quando possível
// Falha de Redis degrada para leitura direta do banco
func (c *Catalog) ListActive(ctx context.Context) ([]repo.ShopItem, error) {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var items []repo.ShopItem
			if jerr := json.Unmarshal([]byte(raw), &items); jerr == nil {
				return items, nil
			}
		}
	}

	items, err := c.store.ListActiveItems(ctx)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if raw, err := json.Marshal(items); err == nil {
			c.rdb.Set(ctx, cacheKey, raw, cacheTTL)
		}
	}
	return items, nil
}
