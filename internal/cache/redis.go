package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/gdsbooking/config"
	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/repository"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps each owner's latest offer set and priced offer
// under one key apiece. SET is atomic, so concurrent writers resolve to
// whichever lands last.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

// NewRedisSessionStore returns a store whose keys expire after ttl. Zero
// means no expiry.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) SaveOffers(ctx context.Context, set *domain.OfferSet) error {
	return s.put(ctx, offersKey(set.OwnerID), set)
}

func (s *RedisSessionStore) GetOffers(ctx context.Context, ownerID string) (*domain.OfferSet, error) {
	var set domain.OfferSet
	if err := s.get(ctx, offersKey(ownerID), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *RedisSessionStore) SavePriced(ctx context.Context, priced *domain.PricedOffer) error {
	return s.put(ctx, pricedKey(priced.OwnerID), priced)
}

func (s *RedisSessionStore) GetPriced(ctx context.Context, ownerID string) (*domain.PricedOffer, error) {
	var priced domain.PricedOffer
	if err := s.get(ctx, pricedKey(ownerID), &priced); err != nil {
		return nil, err
	}
	return &priced, nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) put(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, s.ttl).Err()
}

func (s *RedisSessionStore) get(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return repository.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func offersKey(ownerID string) string {
	return "session:offers:" + ownerID
}

func pricedKey(ownerID string) string {
	return "session:priced:" + ownerID
}

var (
	_ repository.OfferRepository       = (*RedisSessionStore)(nil)
	_ repository.PricedOfferRepository = (*RedisSessionStore)(nil)
)
