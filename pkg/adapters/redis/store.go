package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.DocumentStore using Redis.
// Each presentation is a hash (one field per top-level document field), so HSET
// gives merge semantics. Changes are announced on a per-document pub/sub channel.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Store)

// WithTTL sets the expiration for documents. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger configures the logger used by watch loops.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "deckwright:presentation:",
		logger: logging.NewNop(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) channel(id string) string {
	return s.prefix + "updates:" + id
}

// Get reads every field of the document hash.
func (s *Store) Get(ctx context.Context, id string) (ports.Document, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	doc := make(ports.Document, len(fields))
	for k, v := range fields {
		doc[k] = json.RawMessage(v)
	}
	return doc, nil
}

// Merge writes the given fields and publishes a change notification.
func (s *Store) Merge(ctx context.Context, id string, doc ports.Document) error {
	if len(doc) == 0 {
		return nil
	}

	values := make(map[string]any, len(doc))
	for k, v := range doc {
		values[k] = string(v)
	}

	pipe := s.client.TxPipeline()

	// 1. Merge fields (HSET only touches the given fields)
	pipe.HSet(ctx, s.key(id), values)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(id), s.ttl)
	}

	// 2. Add to Index (ZSET), scored by last write
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: id,
	})

	// 3. Announce the change
	pipe.Publish(ctx, s.channel(id), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Watch subscribes to change notifications and emits the full document on each one.
func (s *Store) Watch(ctx context.Context, id string) (<-chan ports.Document, error) {
	pubsub := s.client.Subscribe(ctx, s.channel(id))

	// Wait for the subscription to be confirmed so no update is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", id, err)
	}

	out := make(chan ports.Document, 8)
	msgs := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				doc, err := s.Get(ctx, id)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						s.logger.Warn("Failed to read document after change notification",
							"presentation_id", id,
							"err", err,
						)
					}
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// List returns the ids of every stored presentation, most recently written last.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}
	return ids, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
