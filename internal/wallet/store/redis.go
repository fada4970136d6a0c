package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda a tabela de saldos num único hash.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "chimpbot:wallets"
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]int64, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	out := make(map[string]int64, len(fields))
	for player, balStr := range fields {
		bal, err := strconv.ParseInt(balStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis wallet %s: malformed balance %q: %w", player, balStr, err)
		}
		out[player] = bal
	}
	return out, nil
}

// Save substitui o hash inteiro num pipeline transacional (DEL + HSET),
// para que a tabela nunca fique visível pela metade.
func (s *RedisStore) Save(ctx context.Context, balances map[string]int64) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(balances) == 0 {
			return nil
		}
		fields := make(map[string]interface{}, len(balances))
		for player, bal := range balances {
			fields[player] = strconv.FormatInt(bal, 10)
		}
		pipe.HSet(ctx, s.key, fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save wallets: %w", err)
	}
	return nil
}
