package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mindprep/mindprep/internal/kv"
)

func TestPostgresStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := pgcontainer.Run(ctx, "postgres:16-alpine",
		pgcontainer.WithDatabase("mindprep"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminating container: %v", err)
		}
	}()

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := kv.NewPostgresPool(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("NewPostgresPool() error = %v", err)
	}
	defer pool.Close()

	store, err := kv.NewPostgresStore(ctx, pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	if _, err := store.Get(ctx, kv.KeyAttempts); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get() on empty table error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, kv.KeyAttempts, `[]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Upsert must overwrite in place.
	if err := store.Set(ctx, kv.KeyAttempts, `[{"id":"quiz-1"}]`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := store.Get(ctx, kv.KeyAttempts)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != `[{"id":"quiz-1"}]` {
		t.Errorf("Get() = %q, want overwritten value", got)
	}

	if err := store.Delete(ctx, kv.KeyAttempts); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, kv.KeyAttempts); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}
