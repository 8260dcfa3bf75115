package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "pharmalist",
	Short: "Conversational query service for the pharma list management database",
	Long:  `pharmalist serves a conversational NL-to-SQL front-end and the list management API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
