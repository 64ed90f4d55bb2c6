package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/voyager/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve trip-planning turns as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		return mcp.New(a.runner, a.catalog,
			mcp.WithArchive(a.archive),
			mcp.WithVersion(version),
		).ServeStdio(ctx)
	},
}
