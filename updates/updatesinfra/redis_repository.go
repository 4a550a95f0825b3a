package updatesinfra

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/updates"
	"github.com/go-redis/redis/v8"
)

const updateKeyPrefix = "wagateway:updates:"

// RedisUpdateRepository guarda los acuses por sesión en una lista de
// Redis acotada por LTRIM. El elemento 0 es siempre el más reciente.
type RedisUpdateRepository struct {
	redis *redis.Client
}

func NewRedisUpdateRepository(redisClient *redis.Client) *RedisUpdateRepository {
	return &RedisUpdateRepository{redis: redisClient}
}

func updateKey(key kernel.SessionKey) string {
	return updateKeyPrefix + key.String()
}

// Append agrega el acuse al frente de la lista y recorta al máximo
func (r *RedisUpdateRepository) Append(ctx context.Context, key kernel.SessionKey, update updates.Update, max int) error {
	data, err := json.Marshal(update)
	if err != nil {
		return updates.ErrStoreFailed(err)
	}

	pipe := r.redis.TxPipeline()
	pipe.LPush(ctx, updateKey(key), data)
	if max > 0 {
		pipe.LTrim(ctx, updateKey(key), 0, int64(max-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return updates.ErrStoreFailed(err)
	}
	return nil
}

// List devuelve los acuses de la sesión, del más reciente al más viejo
func (r *RedisUpdateRepository) List(ctx context.Context, key kernel.SessionKey) ([]updates.Update, error) {
	raw, err := r.redis.LRange(ctx, updateKey(key), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, updates.ErrListFailed(err)
	}

	out := make([]updates.Update, 0, len(raw))
	for _, item := range raw {
		var u updates.Update
		if err := json.Unmarshal([]byte(item), &u); err != nil {
			// entradas corruptas se saltan, no tiran la lista entera
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// Prune elimina de todas las sesiones los acuses más viejos que maxAge.
// Recorre las listas con SCAN para no bloquear Redis.
func (r *RedisUpdateRepository) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, updateKeyPrefix+"*", 100).Result()
		if err != nil {
			return removed, updates.ErrPruneFailed(err)
		}
		for _, k := range keys {
			n, err := r.pruneList(ctx, k, cutoff)
			if err != nil {
				return removed, err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}

// pruneList reescribe una lista dejando solo los acuses vigentes
func (r *RedisUpdateRepository) pruneList(ctx context.Context, key string, cutoff time.Time) (int, error) {
	raw, err := r.redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, updates.ErrPruneFailed(err)
	}

	kept := make([]interface{}, 0, len(raw))
	removed := 0
	for _, item := range raw {
		var u updates.Update
		if err := json.Unmarshal([]byte(item), &u); err != nil {
			removed++
			continue
		}
		if u.ReceivedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		return 0, nil
	}

	pipe := r.redis.TxPipeline()
	pipe.Del(ctx, key)
	if len(kept) > 0 {
		// RPush conserva el orden original (más reciente primero)
		pipe.RPush(ctx, key, kept...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, updates.ErrPruneFailed(err)
	}
	return removed, nil
}

// SessionKeys lista las sesiones que tienen acuses almacenados
func (r *RedisUpdateRepository) SessionKeys(ctx context.Context) ([]kernel.SessionKey, error) {
	var out []kernel.SessionKey
	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, updateKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, updates.ErrListFailed(err)
		}
		for _, k := range keys {
			out = append(out, kernel.SessionKey(strings.TrimPrefix(k, updateKeyPrefix)))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}
