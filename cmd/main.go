package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"speech-translation-service/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "speech-translation-service",
	Short: "Arabic speech transcription and translation backend",
	Long: `Transcribes recorded Arabic speech chunks and translates text to English,
suppressing the boilerplate and degenerate output speech and translation
models produce on silence or noise.

Run without a subcommand to start the service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return config.LoadDotEnv(envFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file (ignored when missing)")
	rootCmd.AddCommand(serveCmd, checkCmd, historyCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
