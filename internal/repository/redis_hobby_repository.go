package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/redis"
)

// maxWatchRetries bounds optimistic update retries on a contended hobby key.
const maxWatchRetries = 5

type redisHobby struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PassionLevel string `json:"passionLevel"`
	Year         int    `json:"year"`
	UserID       string `json:"userId"`
}

func (h redisHobby) toDomain() *domain.Hobby {
	return &domain.Hobby{
		ID:           h.ID,
		Name:         h.Name,
		PassionLevel: domain.PassionLevel(h.PassionLevel),
		Year:         h.Year,
		UserID:       h.UserID,
	}
}

func decodeRedisHobby(raw string) (*domain.Hobby, error) {
	var doc redisHobby
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hobby: %w", err)
	}
	return doc.toDomain(), nil
}

// RedisHobbyRepository implements domain.HobbyRepository using Redis
type RedisHobbyRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisHobbyRepository creates a new hobby repository
func NewRedisHobbyRepository(redisClient *redis.Client, logger *slog.Logger) *RedisHobbyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisHobbyRepository{redis: redisClient, logger: logger}
}

// List returns a page of hobbies in insertion order
func (r *RedisHobbyRepository) List(ctx context.Context, page domain.Page) ([]*domain.Hobby, error) {
	start, stop := zrangeBounds(page)
	ids, err := r.redis.ZRange(ctx, hobbiesKey, start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to list hobbies: %w", err)
	}
	return r.load(ctx, ids)
}

// GetByID retrieves a hobby by ID
func (r *RedisHobbyRepository) GetByID(ctx context.Context, id string) (*domain.Hobby, error) {
	raw, err := r.redis.Get(ctx, hobbyKey(id))
	if err != nil {
		if redis.IsNil(err) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get hobby: %w", err)
	}
	return decodeRedisHobby(raw)
}

// GetMany returns the hobbies matching ids
func (r *RedisHobbyRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Hobby, error) {
	hobbies, err := r.load(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get hobbies: %w", err)
	}
	return hobbies, nil
}

func (r *RedisHobbyRepository) load(ctx context.Context, ids []string) ([]*domain.Hobby, error) {
	if len(ids) == 0 {
		return []*domain.Hobby{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = hobbyKey(id)
	}

	values, err := r.redis.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	hobbies := make([]*domain.Hobby, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		hobby, err := decodeRedisHobby(raw)
		if err != nil {
			return nil, err
		}
		hobbies = append(hobbies, hobby)
	}
	return hobbies, nil
}

// Create stores the hobby document and indexes it in one transaction
func (r *RedisHobbyRepository) Create(ctx context.Context, hobby *domain.Hobby) error {
	id := uuid.NewString()
	data, err := json.Marshal(redisHobby{
		ID:           id,
		Name:         hobby.Name,
		PassionLevel: string(hobby.PassionLevel),
		Year:         hobby.Year,
		UserID:       hobby.UserID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal hobby: %w", err)
	}

	score, err := r.redis.Incr(ctx, seqKey)
	if err != nil {
		return fmt.Errorf("failed to allocate hobby sequence: %w", err)
	}

	_, err = r.redis.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, hobbyKey(id), data, 0)
		p.ZAdd(ctx, hobbiesKey, goredis.Z{Score: float64(score), Member: id})
		return nil
	})
	if err != nil {
		r.logger.Error("failed to create hobby",
			slog.String("user_id", hobby.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create hobby: %w", err)
	}

	hobby.ID = id
	return nil
}

// Update applies the patch under WATCH and returns the hobby after the update
func (r *RedisHobbyRepository) Update(ctx context.Context, id string, patch domain.UpdateHobbyInput) (*domain.Hobby, error) {
	key := hobbyKey(id)
	var updated *domain.Hobby

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		var doc redisHobby
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return fmt.Errorf("failed to unmarshal hobby: %w", err)
		}

		if patch.Name != nil {
			doc.Name = *patch.Name
		}
		if patch.PassionLevel != nil {
			doc.PassionLevel = string(*patch.PassionLevel)
		}
		if patch.Year != nil {
			doc.Year = *patch.Year
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal hobby: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = doc.toDomain()
		}
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := r.redis.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return updated, nil
		case redis.IsNil(err):
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		case errors.Is(err, goredis.TxFailedErr):
			r.logger.Debug("hobby update contended, retrying",
				slog.String("hobby_id", id),
				slog.Int("attempt", attempt+1),
			)
			continue
		default:
			return nil, fmt.Errorf("failed to update hobby: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to update hobby %s: too many concurrent writers", id)
}

// DeleteByID removes a hobby and returns the removed document
func (r *RedisHobbyRepository) DeleteByID(ctx context.Context, id string) (*domain.Hobby, error) {
	var getDel *goredis.StringCmd
	_, err := r.redis.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		getDel = p.GetDel(ctx, hobbyKey(id))
		p.ZRem(ctx, hobbiesKey, id)
		return nil
	})
	if err != nil && !redis.IsNil(err) {
		return nil, fmt.Errorf("failed to delete hobby: %w", err)
	}

	raw, err := getDel.Result()
	if err != nil {
		if redis.IsNil(err) {
			return nil, fmt.Errorf("hobby %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete hobby: %w", err)
	}
	return decodeRedisHobby(raw)
}

// DeleteMany removes every hobby in ids in one transaction
func (r *RedisHobbyRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = hobbyKey(id)
		members[i] = id
	}

	var del *goredis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		del = p.Del(ctx, keys...)
		p.ZRem(ctx, hobbiesKey, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete hobbies: %w", err)
	}
	return del.Val(), nil
}
