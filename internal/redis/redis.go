// Package redis opens the connection backing the redis account store.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

type Options struct {
	Addr     string
	Password string
	DB       int
}

type Client struct {
	*goredis.Client
}

// New connects and pings once so a bad address fails startup instead of
// the first login.
func New(ctx context.Context, opts Options) (*Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	return &Client{Client: client}, nil
}
