package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	servecmd "github.com/Alijeyrad/surveybot/cmd/serve"
	systemcmd "github.com/Alijeyrad/surveybot/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "surveybot",
	Short: "Surveybot runs scored questionnaires over Telegram.",
	Long: `Surveybot is a Telegram bot that walks registered users through scored
multiple-choice tests, shows the matching interpretation and exports each
result to the configured sinks. An admin HTTP API manages the test content.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(servecmd.NewServeCommand())
}
