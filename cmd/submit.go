package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitazok/exercise-analyzer-backend/internal/client"
)

func newSubmitCmd() *cobra.Command {
	var (
		url      string
		file     string
		wait     bool
		interval time.Duration
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Upload a file to a running analyzer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c := client.New(url, timeout)

			sub, err := c.SubmitFile(ctx, file)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if !wait {
				return enc.Encode(sub)
			}

			st, err := c.Wait(ctx, sub.JobID, interval)
			if encErr := enc.Encode(st); encErr != nil && err == nil {
				err = encErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8000", "analyzer base URL")
	cmd.Flags().StringVarP(&file, "file", "f", "", "video or landmark JSONL to upload")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the job finishes and print its status")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval with --wait")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "per-request timeout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
