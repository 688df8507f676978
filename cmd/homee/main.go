package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "homee",
	Short: "homee hub CLI",
	Long:  `A command line interface for reading and controlling a homee home automation hub.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv(settings.envFile)
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
