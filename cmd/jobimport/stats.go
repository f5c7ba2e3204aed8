package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shivambatholiya/knovator-job-import/internal/config"
	"github.com/shivambatholiya/knovator-job-import/internal/db"
	"github.com/shivambatholiya/knovator-job-import/internal/store"
)

func (c *cli) statsCmd() *cobra.Command {
	var jobs, logs int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print record counts and the latest import logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			conn, err := db.Open(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer conn.Close()

			return printStats(cmd.Context(), cmd.OutOrStdout(),
				store.NewJobRepository(conn), store.NewImportLogRepository(conn), jobs, logs)
		},
	}
	cmd.Flags().IntVar(&jobs, "jobs", 5, "number of recent jobs to show")
	cmd.Flags().IntVar(&logs, "logs", 3, "number of recent import logs to show")
	return cmd
}

func printStats(ctx context.Context, out io.Writer, jobs *store.JobRepository, logs *store.ImportLogRepository, nJobs, nLogs int) error {
	jobCount, err := jobs.Count(ctx, store.JobFilter{})
	if err != nil {
		return err
	}
	logCount, err := logs.Count(ctx, store.LogFilter{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "jobs: %d\nimport logs: %d\n\n", jobCount, logCount)

	recentJobs, err := jobs.List(ctx, store.JobFilter{Limit: nJobs})
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Recent jobs")
	t.AppendHeader(table.Row{"ID", "Title", "Company", "Created"})
	for _, j := range recentJobs {
		t.AppendRow(table.Row{j.ID, j.Title, j.Company, j.CreatedAt.Format(time.RFC3339)})
	}
	t.Render()

	recentLogs, err := logs.List(ctx, store.LogFilter{Limit: nLogs})
	if err != nil {
		return err
	}
	t = table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Recent import logs")
	t.AppendHeader(table.Row{"ID", "Feed", "Status", "Fetched", "New", "Updated", "Failed"})
	for _, l := range recentLogs {
		t.AppendRow(table.Row{l.ID, l.FeedURL, l.Status(), l.TotalFetched, l.NewJobsCount, l.UpdatedJobsCount, l.FailedJobsCount})
	}
	t.Render()
	return nil
}
