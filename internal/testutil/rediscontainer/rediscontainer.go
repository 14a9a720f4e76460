// Package rediscontainer starts the Redis server used by cache integration tests.
package rediscontainer

import (
	"context"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adeilh/go-places/internal/testutil/dockertest"
)

const hostPort = 6390

var (
	once     sync.Once
	setupErr error
)

var container = dockertest.Container{
	Dockerfile:    "Dockerfile.redis.test",
	Image:         "go-places-cache-redis-test",
	Name:          "go-places-cache-redis-test",
	HostPort:      strconv.Itoa(hostPort),
	ContainerPort: "6379",
	Ready:         ping,
	Timeout:       5 * time.Second,
}

func Host() string { return "127.0.0.1" }
func Port() int    { return hostPort }

// Addr exposes the Redis host:port combination used by integration tests.
func Addr() string { return Host() + ":" + strconv.Itoa(hostPort) }

// Setup builds the Redis test image, runs the container, and waits until it
// answers PING.
func Setup() error {
	once.Do(func() {
		setupErr = container.Start()
	})
	return setupErr
}

// Teardown stops the Redis container if it is running.
func Teardown() error {
	if setupErr != nil {
		return setupErr
	}
	if err := container.Stop(); err != nil {
		return err
	}
	once = sync.Once{}
	return nil
}

func ping() error {
	client := goredis.NewClient(&goredis.Options{Addr: Addr(), DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return client.Ping(ctx).Err()
}
