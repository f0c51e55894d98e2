package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/volund/internal/domain"
)

const (
	cartKeyPrefix     = "session:cart:"
	customerKeyPrefix = "session:customer:"
)

// RedisStore keeps session state in Redis as JSON snapshots with a sliding TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Cart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}

	return &cart, nil
}

func (s *RedisStore) SaveCart(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, data, TTL).Err(); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}

	return nil
}

func (s *RedisStore) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Customer(ctx context.Context, sessionID string) (*domain.CustomerInfo, error) {
	data, err := s.client.Get(ctx, customerKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to read customer: %w", err)
	}

	var customer domain.CustomerInfo
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}

	return &customer, nil
}

func (s *RedisStore) SaveCustomer(ctx context.Context, sessionID string, customer *domain.CustomerInfo) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}

	if err := s.client.Set(ctx, customerKeyPrefix+sessionID, data, TTL).Err(); err != nil {
		return fmt.Errorf("failed to write customer: %w", err)
	}

	return nil
}

func (s *RedisStore) ClearCustomer(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, customerKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear customer: %w", err)
	}
	return nil
}
