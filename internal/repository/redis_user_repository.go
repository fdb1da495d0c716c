package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/redis"
)

// Redis key layout. Every collection is a sorted set scored by a shared
// sequence so ZRANGE gives insertion order; a user's hobbies are a sorted set
// of hobby ids scored the same way.
const (
	keyPrefix     = "hobbyapi:"
	seqKey        = keyPrefix + "seq"
	usersKey      = keyPrefix + "users"
	userNamesKey  = keyPrefix + "user-names"
	hobbiesKey    = keyPrefix + "hobbies"
	userKeyPrefix = keyPrefix + "user:"
	hobbyKeyPfx   = keyPrefix + "hobby:"
)

func userKey(id string) string        { return userKeyPrefix + id }
func userHobbiesKey(id string) string { return userKeyPrefix + id + ":hobbies" }
func hobbyKey(id string) string       { return hobbyKeyPfx + id }

var createUserScript = goredis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[3])
redis.call('ZADD', KEYS[3], redis.call('INCR', KEYS[4]), ARGV[2])
return 1
`)

var renameUserScript = goredis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return -1
end
local doc = cjson.decode(raw)
if doc.name ~= ARGV[2] then
	if redis.call('HSETNX', KEYS[2], ARGV[2], ARGV[1]) == 0 then
		return -2
	end
	redis.call('HDEL', KEYS[2], doc.name)
	doc.name = ARGV[2]
	raw = cjson.encode(doc)
	redis.call('SET', KEYS[1], raw)
end
return raw
`)

var deleteUserScript = goredis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return false
end
local hobbies = redis.call('ZRANGE', KEYS[2], 0, -1)
local doc = cjson.decode(raw)
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('ZREM', KEYS[3], ARGV[1])
redis.call('HDEL', KEYS[4], doc.name)
table.insert(hobbies, 1, raw)
return hobbies
`)

var addHobbyScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if not redis.call('ZSCORE', KEYS[2], ARGV[1]) then
	redis.call('ZADD', KEYS[2], redis.call('INCR', KEYS[3]), ARGV[1])
end
return 1
`)

var removeHobbyScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

type redisUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RedisUserRepository implements domain.UserRepository using Redis
type RedisUserRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisUserRepository creates a new user repository
func NewRedisUserRepository(redisClient *redis.Client, logger *slog.Logger) *RedisUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisUserRepository{
		redis:  redisClient,
		logger: logger,
	}
}

// List returns a page of users in insertion order
func (r *RedisUserRepository) List(ctx context.Context, page domain.Page) ([]*domain.User, error) {
	start, stop := zrangeBounds(page)
	ids, err := r.redis.ZRange(ctx, usersKey, start, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return r.load(ctx, ids)
}

// GetByID retrieves a user by ID
func (r *RedisUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.load(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return users[0], nil
}

// GetMany returns the users matching ids
func (r *RedisUserRepository) GetMany(ctx context.Context, ids []string) ([]*domain.User, error) {
	users, err := r.load(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// load fetches documents and hobby sets for ids in one pipeline, skipping
// ids with no document.
func (r *RedisUserRepository) load(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	docs := make([]*goredis.StringCmd, len(ids))
	sets := make([]*goredis.StringSliceCmd, len(ids))
	_, err := r.redis.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, id := range ids {
			docs[i] = p.Get(ctx, userKey(id))
			sets[i] = p.ZRange(ctx, userHobbiesKey(id), 0, -1)
		}
		return nil
	})
	if err != nil && !redis.IsNil(err) {
		return nil, err
	}

	users := make([]*domain.User, 0, len(ids))
	for i := range ids {
		raw, err := docs[i].Result()
		if redis.IsNil(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var doc redisUser
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		hobbies, err := sets[i].Result()
		if err != nil {
			return nil, err
		}
		users = append(users, &domain.User{ID: doc.ID, Name: doc.Name, Hobbies: hobbies})
	}
	return users, nil
}

// Create stores a user, claiming its name in the name index first
func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	id := uuid.NewString()
	data, err := json.Marshal(redisUser{ID: id, Name: user.Name})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	res, err := r.redis.Eval(ctx, createUserScript,
		[]string{userNamesKey, userKey(id), usersKey, seqKey},
		user.Name, id, string(data),
	)
	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("name", user.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return fmt.Errorf("user name %q: %w", user.Name, domain.ErrConflict)
	}

	user.ID = id
	user.Hobbies = []string{}
	r.logger.Debug("user saved", slog.String("user_id", id))
	return nil
}

// Update renames the user and returns it after the update
func (r *RedisUserRepository) Update(ctx context.Context, id string, patch domain.UpdateUserInput) (*domain.User, error) {
	if patch.Name == nil {
		return r.GetByID(ctx, id)
	}

	res, err := r.redis.Eval(ctx, renameUserScript,
		[]string{userKey(id), userNamesKey},
		id, *patch.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	switch v := res.(type) {
	case int64:
		if v == -2 {
			return nil, fmt.Errorf("user name %q: %w", *patch.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	case string:
		return r.GetByID(ctx, id)
	default:
		return nil, fmt.Errorf("failed to update user: unexpected reply %T", res)
	}
}

// DeleteByID removes the user with its hobby set and returns what was removed
func (r *RedisUserRepository) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	res, err := r.redis.Eval(ctx, deleteUserScript,
		[]string{userKey(id), userHobbiesKey(id), usersKey, userNamesKey},
		id,
	)
	if err != nil {
		if redis.IsNil(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) == 0 {
		return nil, fmt.Errorf("failed to delete user: unexpected reply %T", res)
	}
	raw, _ := reply[0].(string)
	var doc redisUser
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	hobbies := make([]string, 0, len(reply)-1)
	for _, v := range reply[1:] {
		if s, ok := v.(string); ok {
			hobbies = append(hobbies, s)
		}
	}

	r.logger.Debug("user deleted", slog.String("user_id", id))
	return &domain.User{ID: doc.ID, Name: doc.Name, Hobbies: hobbies}, nil
}

// AddHobby adds hobbyID to the user's hobby set if absent
func (r *RedisUserRepository) AddHobby(ctx context.Context, userID, hobbyID string) error {
	return r.updateHobbies(ctx, addHobbyScript, userID, hobbyID)
}

// RemoveHobby removes hobbyID from the user's hobby set if present
func (r *RedisUserRepository) RemoveHobby(ctx context.Context, userID, hobbyID string) error {
	return r.updateHobbies(ctx, removeHobbyScript, userID, hobbyID)
}

func (r *RedisUserRepository) updateHobbies(ctx context.Context, script *goredis.Script, userID, hobbyID string) error {
	keys := []string{userKey(userID), userHobbiesKey(userID)}
	if script == addHobbyScript {
		keys = append(keys, seqKey)
	}

	res, err := r.redis.Eval(ctx, script, keys, hobbyID)
	if err != nil {
		return fmt.Errorf("failed to update user hobbies: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// zrangeBounds converts a page into inclusive ZRANGE ranks.
func zrangeBounds(page domain.Page) (start, stop int64) {
	start = int64(page.Offset)
	stop = -1
	if page.Limit > 0 {
		stop = start + int64(page.Limit) - 1
	}
	return start, stop
}
