// Package test provides store fixtures shared by package tests.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/slotwise/internal/profile"
	"github.com/hrygo/slotwise/store"
	"github.com/hrygo/slotwise/store/db"
)

// NewTestingStore opens a migrated store. It uses SQLite in a temp dir unless
// DRIVER=postgres and POSTGRES_TEST_DSN are set.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:        "dev",
		Driver:      driver,
		InstanceURL: "http://localhost:8081",
		Timezone:    "UTC",
	}
	switch driver {
	case "postgres":
		p.DSN = os.Getenv("POSTGRES_TEST_DSN")
		if p.DSN == "" {
			t.Skip("POSTGRES_TEST_DSN not set")
		}
	default:
		p.DSN = filepath.Join(t.TempDir(), "slotwise_test.db")
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
