// Package caching provides the Redis-backed cache for computed dashboard
// statistics. Stats are expensive relative to how often they change, so they
// are cached per user with a short TTL and invalidated on every invoice or
// client mutation.
package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"invoicely/internal/analytics"
)

// ErrCacheMiss is returned when no cached entry exists for the user.
var ErrCacheMiss = errors.New("cache miss")

type CacheService interface {
	GetDashboard(ctx context.Context, userID uuid.UUID) (*analytics.DashboardStats, error)
	SetDashboard(ctx context.Context, userID uuid.UUID, stats *analytics.DashboardStats, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context, userID uuid.UUID) error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService connects to Redis. A failed ping is logged, not
// fatal: the dashboard degrades to recomputing on every request.
func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
		parsedAddr = hostPort
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", err, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func dashboardKey(userID uuid.UUID) string {
	return fmt.Sprintf("invoicely:dashboard:%s", userID.String())
}

func (r *redisCacheService) GetDashboard(ctx context.Context, userID uuid.UUID) (*analytics.DashboardStats, error) {
	data, err := r.client.Get(ctx, dashboardKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	stats := &analytics.DashboardStats{}
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *redisCacheService) SetDashboard(ctx context.Context, userID uuid.UUID, stats *analytics.DashboardStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, dashboardKey(userID), data, ttl).Err()
}

func (r *redisCacheService) InvalidateDashboard(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, dashboardKey(userID)).Err()
}
