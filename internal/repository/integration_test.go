package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/mongo"
	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/hobbyapi/pkg/database"
)

// The driver tests run against live servers and are skipped unless the
// matching environment variable points at one.

func TestMongoRepositories(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.NewClient(ctx, url, "hobbyapi_test", nil)
	require.NoError(t, err)
	defer client.Close(context.Background())

	require.NoError(t, client.EnsureIndexes(ctx))

	testUserRepository(t, NewMongoUserRepository(client.Collection(mongo.UsersCollection), nil))
	testHobbyRepository(t, NewMongoHobbyRepository(client.Collection(mongo.HobbiesCollection), nil))
}

func TestPostgresRepositories(t *testing.T) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		t.Skip("POSTGRES_HOST not set")
	}

	port, _ := strconv.Atoi(os.Getenv("POSTGRES_PORT"))
	if port == 0 {
		port = 5432
	}
	cfg := &database.Config{
		Host:     host,
		Port:     port,
		User:     envOr("POSTGRES_USER", "postgres"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: envOr("POSTGRES_DB", "hobbyapi_test"),
		SSLMode:  envOr("POSTGRES_SSLMODE", "disable"),
	}

	ctx := context.Background()
	pool, err := database.NewConnectionPool(ctx, cfg, nil)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, pool.Migrate(ctx))

	testUserRepository(t, NewPostgresUserRepository(pool.GetDB(), nil))
	testHobbyRepository(t, NewPostgresHobbyRepository(pool.GetDB(), nil))
}

func TestRedisRepositories(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	client, err := redis.NewClient(url)
	require.NoError(t, err)
	defer client.Close()

	testUserRepository(t, NewRedisUserRepository(client, nil))
	testHobbyRepository(t, NewRedisHobbyRepository(client, nil))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
