// Package commands implements the mapframe CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mapframe-labs/mapframe/internal/config"
	"github.com/mapframe-labs/mapframe/internal/pgapi"
	"github.com/mapframe-labs/mapframe/pkg/dataset"
)

// Runtime carries the per-invocation configuration and logger, stored in the
// command context by the root command.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
}

type runtimeKey struct{}

// WithRuntime stores the runtime in a context.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

func getRuntime(cmd *cobra.Command) (*Runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime)
	if !ok || rt == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return rt, nil
}

// connect validates the configuration and opens a service connection. The
// caller closes the client.
func connect(cmd *cobra.Command) (*pgapi.Client, *Runtime, error) {
	rt, err := getRuntime(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := rt.Config.Validate(); err != nil {
		return nil, nil, err
	}

	client := pgapi.New(rt.Logger)
	if err := client.Connect(cmd.Context(), rt.Config.PG()); err != nil {
		return nil, nil, err
	}
	return client, rt, nil
}

// openDataset connects and wraps data in a dataset bound to the connection.
func openDataset(cmd *cobra.Command, data any) (*dataset.Dataset, *pgapi.Client, *Runtime, error) {
	client, rt, err := connect(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	ds, err := dataset.New(data,
		dataset.WithClient(client),
		dataset.WithSchema(rt.Config.Schema),
		dataset.WithLogger(rt.Logger),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}
	return ds, client, rt, nil
}
