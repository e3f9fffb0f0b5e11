package store

import (
	"context"
	"fmt"

	mydb "github.com/fouedh91760/a-level-saver-sub001/internal/db"
)

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "file", "postgres"
func NewStore(ctx context.Context, storeType, dir, dbDSN string) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		if dir == "" {
			return nil, fmt.Errorf("file store requires a catalog directory")
		}
		return NewFileStore(dir), nil
	case "postgres":
		pool, err := mydb.NewPool(ctx, dbDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
