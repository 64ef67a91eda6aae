package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/server"
	"github.com/flowstate/flowstate/internal/storage"
)

type ServeCmd struct {
	Addr string `help:"Listen address (overrides FLOWSTATE_ADDR)."`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	addr := cmd.Addr
	if addr == "" {
		addr = ctx.Config.ListenAddr
	}

	srv, err := newServer(ctx)
	if err != nil {
		return err
	}
	defer ctx.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Serving demo", "addr", addr, "timezone", ctx.Location.String(), "store", ctx.Config.Redacted())
	return srv.ListenAndServe(sigCtx, addr)
}

// newServer builds the demo server. A misconfigured store fails here; an
// unreachable one is connected on the first request that needs it, so the
// demo comes up on the mock dataset and recovers once the store does.
func newServer(ctx *cli.Context) (*server.Server, error) {
	var store storage.Provider
	if ctx.Config.StoreURL == "" {
		logger.Warn("No store configured; using the mock dataset", "env", constants.EnvStoreURL)
	} else {
		s, err := ctx.Store()
		if err != nil {
			return nil, err
		}
		store = s
	}

	loader := ctx.Loader(store)
	if store != nil {
		loader.Connect = store.Load
	}
	return server.New(loader, ctx.Scheduler, server.Options{
		AllowedOrigins:  ctx.Config.AllowedOrigins,
		InteractivePath: ctx.Config.InteractivePath,
	})
}
