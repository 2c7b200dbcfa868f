package serve

import "github.com/spf13/cobra"

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bot and HTTP server commands",
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
