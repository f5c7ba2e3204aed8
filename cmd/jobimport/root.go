package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shivambatholiya/knovator-job-import/internal/logger"
)

// cli carries state shared by every command.
type cli struct {
	debug bool
	log   logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "jobimport",
		Short:         "Import job feeds into a deduplicated job store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine: the environment may be set directly.
			_ = godotenv.Load()

			level := os.Getenv("LOG_LEVEL")
			if c.debug {
				level = "debug"
			}
			log, err := logger.New(logger.Config{Level: level, Development: c.debug})
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			c.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		c.serveCmd(),
		c.workerCmd(),
		c.fetchCmd(),
		c.statsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "jobimport version %s\n", version)
			},
		},
	)
	return root
}
