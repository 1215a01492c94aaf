// Package redis announces run completion over Redis.
//
// Every event is PUBLISHed to a channel for live subscribers. With a key
// prefix configured, the event is also stored as the project's latest
// run under <prefix>:<project>, in the same MULTI/EXEC transaction, so
// dashboards that were not subscribed can still read the last result.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/crucible/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "crucible:run_completed"

// DefaultTimeout is the default per-attempt timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// DefaultKeyTTL is how long a stored latest-run event lives.
const DefaultKeyTTL = 7 * 24 * time.Hour

// Config configures the Redis adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: crucible:run_completed).
	Channel string
	// KeyPrefix enables latest-run storage when non-empty.
	KeyPrefix string
	// KeyTTL is the expiry of the latest-run key (default 7 days).
	KeyTTL time.Duration
	// Timeout bounds each attempt (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
}

// Adapter announces run completion events over Redis.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New validates cfg and creates the adapter. No connection is made
// until the first Publish.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = DefaultKeyTTL
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// LatestKey returns the key holding the latest event for project, or ""
// when latest-run storage is disabled.
func (a *Adapter) LatestKey(project string) string {
	if a.config.KeyPrefix == "" {
		return ""
	}
	return a.config.KeyPrefix + ":" + project
}

// Publish announces the event, retrying connection failures.
func (a *Adapter) Publish(ctx context.Context, event *adapter.RunCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	key := a.LatestKey(event.Project)
	return adapter.Retry(ctx, "redis", a.config.Retries, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()

		if key == "" {
			return a.client.Publish(attemptCtx, a.config.Channel, body).Err()
		}
		_, err := a.client.TxPipelined(attemptCtx, func(pipe goredis.Pipeliner) error {
			pipe.Set(attemptCtx, key, body, a.config.KeyTTL)
			pipe.Publish(attemptCtx, a.config.Channel, body)
			return nil
		})
		return err
	})
}

// Close releases the connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
