package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/photocat/internal/agent"
	config "github.com/mwantia/photocat/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the catalog agent",
		Long: `Start the catalog agent. The agent keeps running until interrupted and
reconciles every recorded location on the configured interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(cmd.Context())
		},
	}

	return cmd
}
