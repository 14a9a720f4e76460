// Package postgrescontainer starts the Postgres server used by document store
// integration tests.
package postgrescontainer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/adeilh/go-places/internal/testutil/dockertest"
)

const (
	hostPort = "55432"
	user     = "places"
	password = "secret"
	dbName   = "places_test"
)

var (
	once     sync.Once
	setupErr error
)

var container = dockertest.Container{
	Dockerfile:    "Dockerfile.postgres.test",
	Image:         "go-places-postgres-test",
	Name:          "go-places-postgres-test",
	HostPort:      hostPort,
	ContainerPort: "5432",
	Ready:         ping,
	Timeout:       15 * time.Second,
}

// Addr returns host:port for connecting to the test Postgres instance.
func Addr() string { return "127.0.0.1:" + hostPort }

// DSN returns a lib/pq formatted connection string.
func DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, Addr(), dbName)
}

// Setup builds and launches the Postgres container if it isn't already running.
func Setup() error {
	once.Do(func() {
		setupErr = container.Start()
	})
	return setupErr
}

// Teardown stops the container launched by Setup.
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
	db, err := sql.Open("postgres", DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return db.PingContext(ctx)
}
