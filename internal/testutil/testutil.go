// Package testutil opens throwaway sqlite databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/database"
)

// DatabaseConfig points at a private in-memory sqlite database.
func DatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		URL:                fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxConnections:     1,
		MaxIdleConnections: 1,
	}
}

// DB returns a migrated database that is closed when the test ends.
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := database.Connect(DatabaseConfig())
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	if err := conn.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn.DB()
}

func Ptr[T any](v T) *T {
	return &v
}
