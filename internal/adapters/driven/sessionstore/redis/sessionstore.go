// Package redis persists chat sessions in Redis as JSON values with a
// server-side idle TTL. Each save refreshes the TTL, so Redis expires
// abandoned sessions on its own in addition to the janitor sweep.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

const sessionKeyPrefix = "rescout:session:"

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store is a Redis-backed session store.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. ttl bounds how
// long an untouched session survives; zero disables expiry.
func New(ctx context.Context, addr string, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

// Save stores or replaces a session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, session *domain.ChatSession) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}

	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", session.ID, err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	b, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var session domain.ChatSession
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("unmarshalling session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// ListIdle scans for sessions whose LastActive is before the cutoff.
// Sessions already expired by Redis simply do not appear.
func (s *Store) ListIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string

	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		b, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue // expired between scan and get
			}
			return nil, fmt.Errorf("loading session %s: %w", key, err)
		}

		var session domain.ChatSession
		if err := json.Unmarshal(b, &session); err != nil {
			return nil, fmt.Errorf("unmarshalling session %s: %w", key, err)
		}

		if session.LastActive.Before(cutoff) {
			ids = append(ids, strings.TrimPrefix(key, sessionKeyPrefix))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}

	return ids, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
