// Package scorecache keeps move scores of solved positions in Redis so a
// batch run can skip positions some earlier run already searched.
package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/solver"
)

const keyPrefix = "mnk"

// The key holds the whole position rather than its fingerprint, so two
// positions can never share an entry.
func scoresKey(g board.GameState) string {
	s := g.Shape()
	return fmt.Sprintf("%s:scores:%dx%dk%d:%x:%x",
		keyPrefix, s.Width, s.Height, s.K, g.Occupied(), g.CurrentStones())
}

type Cache struct {
	client *redis.Client
	cfg    Config
}

// New connects to Redis and checks that it answers.
func New(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Cache{client: client, cfg: cfg}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, cfg Config) *Cache {
	return &Cache{client: client, cfg: cfg}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the scores stored for g. ok is false if there are none.
func (c *Cache) Get(ctx context.Context, g board.GameState) ([]solver.MoveScore, bool, error) {
	data, err := c.client.Get(ctx, scoresKey(g)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var scores []solver.MoveScore
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, false, err
	}
	if len(scores) != g.Shape().Cells() {
		return nil, false, fmt.Errorf("cached scores for %s have %d cells", g.Shape(), len(scores))
	}
	return scores, true, nil
}

func (c *Cache) Put(ctx context.Context, g board.GameState, scores []solver.MoveScore) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scoresKey(g), data, c.cfg.TTL).Err()
}
