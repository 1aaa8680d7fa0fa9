package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Creative studio gateway: chat, vision, image synthesis, and speech",
	Long: `atelier routes generation requests between the vendor cloud and your
local engines, and normalizes every outcome into one result shape.

Run "atelier serve" to start the daemon, then use the client commands
(ask, observe, imagine, speak) against it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// A .env next to the binary is a convenience for development; absence
	// is not an error.
	godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(observeCmd)
	rootCmd.AddCommand(imagineCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the atelier version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("atelier version %s\n", version)
	},
}
