package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"ledgerbot/internal/cache"
)

const codesKey = "codes"

// Cached wraps Client with a TTL cache of conversion tables and a
// singleflight group so concurrent report rows for the same base
// currency share one fetch.
type Cached struct {
	client *Client
	tables *cache.LRU[map[string]decimal.Decimal]
	codes  *cache.LRU[[]string]
	flight singleflight.Group
}

func NewCached(client *Client, ttl time.Duration) *Cached {
	return &Cached{
		client: client,
		tables: cache.NewLRU[map[string]decimal.Decimal](32, ttl),
		codes:  cache.NewLRU[[]string](1, ttl),
	}
}

func (c *Cached) Codes(ctx context.Context) ([]string, bool) {
	if codes, ok := c.codes.Get(codesKey); ok {
		return codes, true
	}
	v, err, _ := c.flight.Do(codesKey, func() (any, error) {
		codes, ok := c.client.Codes(ctx)
		if !ok {
			return nil, errUnavailable
		}
		c.codes.Set(codesKey, codes)
		return codes, nil
	})
	if err != nil {
		return nil, false
	}
	return v.([]string), true
}

func (c *Cached) Rate(ctx context.Context, base, target string) (decimal.Decimal, bool) {
	if base == target {
		return decimal.NewFromInt(1), true
	}
	table, ok := c.tableFor(ctx, base)
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := table[target]
	return rate, ok
}

func (c *Cached) tableFor(ctx context.Context, base string) (map[string]decimal.Decimal, bool) {
	if table, ok := c.tables.Get(base); ok {
		return table, true
	}
	v, err, _ := c.flight.Do("latest/"+base, func() (any, error) {
		table, ok := c.client.ratesFor(ctx, base)
		if !ok {
			return nil, errUnavailable
		}
		c.tables.Set(base, table)
		return table, nil
	})
	if err != nil {
		return nil, false
	}
	return v.(map[string]decimal.Decimal), true
}
