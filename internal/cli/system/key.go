package system

import (
	"errors"
	"fmt"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/keyring"
)

// KeySetCmd stores the data-store service key in the OS keyring
type KeySetCmd struct {
	Key string `arg:"" help:"Service key (database password) to store."`
}

func (cmd *KeySetCmd) Run(ctx *cli.Context) error {
	if err := keyring.SetServiceKey(cmd.Key); err != nil {
		return err
	}
	ctx.Println("✓ Service key stored in OS keyring")
	return nil
}

// KeyDeleteCmd removes the service key from the OS keyring
type KeyDeleteCmd struct{}

func (cmd *KeyDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteServiceKey(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no service key found in keyring")
		}
		return err
	}
	ctx.Println("✓ Service key deleted from OS keyring")
	return nil
}

// KeyStatusCmd reports whether a key is stored, without printing it
type KeyStatusCmd struct{}

func (cmd *KeyStatusCmd) Run(ctx *cli.Context) error {
	_, err := keyring.GetServiceKey()
	switch {
	case err == nil:
		ctx.Println("✓ Service key is stored in keyring")
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Println("ℹ No service key stored in keyring")
	default:
		ctx.Println("❌ OS keyring is not available on this system")
		return fmt.Errorf("keyring unavailable: %w", err)
	}
	return nil
}
