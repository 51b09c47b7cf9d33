package main

import (
	"os"

	"github.com/spf13/cobra"

	"gridbot/internal/logger"
	"gridbot/internal/mcpserver"
)

func newMCPCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dialogue as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(*envFile, os.Stderr)
			if err != nil {
				return err
			}
			return mcpserver.New(a.dispatcher, version, logger.Component(a.log, "mcp")).Run(cmd.Context())
		},
	}
}
