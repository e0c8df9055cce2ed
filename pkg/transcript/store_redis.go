package transcript

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
)

const defaultRedisPrefix = "chatlog:"

// redisStore keeps each transcript as one JSON array under <prefix><ppid>:<start>.
// Keys carry no TTL; sessions are never deleted.
type redisStore struct {
	client  *redis.Client
	prefix  string
	logger  loggerpkg.Logger
	verbose bool
}

func (s *redisStore) key(key SessionKey) string {
	return s.prefix + strings.Join(key.segments(), ":")
}

func (s *redisStore) Load(ctx context.Context, key SessionKey) (Transcript, error) {
	k := s.key(key)
	val, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return Transcript{}, nil
	}
	if err != nil {
		return nil, apperr.Storage("redis get "+k, err)
	}
	return decode(val, k)
}

func (s *redisStore) Append(ctx context.Context, key SessionKey, user, assistant Turn) error {
	k := s.key(key)
	turns := 0

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current := Transcript{}
		val, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return apperr.Storage("redis get "+k, err)
		default:
			current, err = decode(val, k)
			if err != nil {
				return err
			}
		}

		updated := append(current.Clone(), user, assistant)
		b, err := encode(updated)
		if err != nil {
			return err
		}
		turns = len(updated)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, 0)
			return nil
		})
		return err
	}, k)
	if err != nil {
		if apperr.IsStorage(err) {
			return err
		}
		return apperr.Storage("redis append "+k, err)
	}

	loggerpkg.Debug(s.verbose, s.logger, "transcript written", map[string]any{
		"key":   k,
		"turns": turns,
	})
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
