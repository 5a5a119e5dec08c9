package redisdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/construction-pm-api/internal/repository"
)

const resetCodeKeyFmt = "password_reset:%d"

// ResetCodeStore keeps password reset codes in redis with a TTL.
type ResetCodeStore struct {
	rdb *redis.Client
}

func NewResetCodeStore(rdb *redis.Client) repository.ResetCodeStore {
	return &ResetCodeStore{rdb: rdb}
}

func (s *ResetCodeStore) Save(ctx context.Context, userID uint64, codeHash string, ttl time.Duration) error {
	return s.rdb.Set(ctx, fmt.Sprintf(resetCodeKeyFmt, userID), codeHash, ttl).Err()
}

func (s *ResetCodeStore) Fetch(ctx context.Context, userID uint64) (string, error) {
	hash, err := s.rdb.Get(ctx, fmt.Sprintf(resetCodeKeyFmt, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrResetCodeNotFound
	}
	return hash, err
}

func (s *ResetCodeStore) Delete(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, fmt.Sprintf(resetCodeKeyFmt, userID)).Err()
}
