package system

import (
	"context"
	"fmt"

	"github.com/flowstate/flowstate/internal/cli"
)

// versioned is implemented by stores that track a schema version.
type versioned interface {
	SchemaVersion(ctx context.Context) (current, latest int, err error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	defer ctx.Close()

	ctx.Snapshot(bg, store)
	if err := store.Init(bg); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if v, ok := store.(versioned); ok {
		current, latest, err := v.SchemaVersion(bg)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		ctx.Printf("✓ Schema is at version %d (latest %d)\n", current, latest)
		return nil
	}
	ctx.Println("✓ Store initialized")
	return nil
}
