package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memscope",
	Short: "Observe a simulated device's memory with rules and logs.",
	Long: "memscope attaches watch columns and assertions to a simulated " +
		"device's memory, replays a write trace against them, and logs " +
		"timestamped rows to file, SQLite, or a live monitor.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env with MEMSCOPE_* defaults. Absence is fine.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
