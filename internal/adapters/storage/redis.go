package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisPrefix = "advice:"

// RedisCache implementa ports.AdviceCache sobre Redis. Pensado para varias
// réplicas del API compartiendo consejos ya generados.
type RedisCache struct {
	client *redis.Client
}

// RedisOptions configura la conexión.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache conecta y verifica con un PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("storage.NewRedisCache: ping %s: %w", opts.Addr, err)
	}
	return &RedisCache{client: rdb}, nil
}

// NewRedisCacheFromClient envuelve un cliente ya construido.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get devuelve los tips de la clave; redis.Nil es un miss.
func (r *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	val, err := r.client.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage.RedisCache.Get: %w", err)
	}
	var tips []string
	if err := json.Unmarshal([]byte(val), &tips); err != nil {
		return nil, false, fmt.Errorf("storage.RedisCache.Get: decode tips: %w", err)
	}
	return tips, true, nil
}

// Set guarda los tips como JSON con TTL.
func (r *RedisCache) Set(ctx context.Context, key string, tips []string, ttl time.Duration) error {
	if tips == nil {
		tips = []string{}
	}
	payload, err := json.Marshal(tips)
	if err != nil {
		return fmt.Errorf("storage.RedisCache.Set: encode tips: %w", err)
	}
	if err := r.client.Set(ctx, redisPrefix+key, string(payload), ttl).Err(); err != nil {
		return fmt.Errorf("storage.RedisCache.Set: %w", err)
	}
	return nil
}

// Close cierra el pool de conexiones.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
