package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// wake list the API pushes to and the worker blocks on, so fresh jobs
// get picked up without waiting for the next poll tick
const wakeKey = "taskcal:worker:wake"

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  -1, // blocking reads manage their own deadline
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Wake signals the worker that a job was enqueued.
func (c *Client) Wake(ctx context.Context) error {
	return c.redisdb.LPush(ctx, wakeKey, "1").Err()
}

// WaitWake blocks until a wake signal arrives or timeout passes.
// Returns true when a signal was consumed.
func (c *Client) WaitWake(ctx context.Context, timeout time.Duration) (bool, error) {
	res, err := c.redisdb.BLPop(ctx, timeout, wakeKey).Result()

	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}

	return len(res) > 0, nil
}
