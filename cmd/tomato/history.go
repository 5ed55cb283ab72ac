package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/tomato/pkg/export"
)

func NewHistoryCommand() *cobra.Command {
	var r rangeFlags
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "List focus history",
		GroupID: gData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, &r)
		},
	}
	r.register(cmd)

	cmd.AddCommand(
		newHistoryListCommand(),
		newHistoryRemarkCommand(),
		newHistoryExportCommand(),
	)
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var r rangeFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List focus history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, &r)
		},
	}
	r.register(cmd)
	return cmd
}

func runHistoryList(cmd *cobra.Command, r *rangeFlags) error {
	days, err := apiClient.GetHistory(r.dateRange())
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(days) == 0 {
		cmd.Println("No history in this range.")
		return nil
	}
	for _, day := range days {
		cmd.Println(bold("%s", day.Date))
		for i, rec := range day.Records {
			end := rec.EndTime
			if end == "" {
				end = export.DeriveEndTime(rec.StartTime, rec.Duration)
			}
			line := fmt.Sprintf("  [%d] %s-%s %3d min  %-10s %s", i, rec.StartTime, end, rec.Duration, rec.Tag, rec.Phase.DisplayName())
			if rec.Remark != "" {
				line += "  " + rec.Remark
			}
			cmd.Println(line)
		}
	}
	return nil
}

func newHistoryRemarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remark <date> <index> <remark>",
		Short: "Set the remark of a history record",
		Long: `Set the remark of a history record.

The index is the number shown in brackets by 'tomato history list'. An empty
remark clears it.`,
		Example: `  tomato history remark 2024-05-01 0 "wrote the outline"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index: %v", err)
			}
			if _, err := apiClient.SetRemark(args[0], index, args[2]); err != nil {
				return fmt.Errorf("failed to set remark: %w", err)
			}
			logrus.Infof("successfully set remark of %s #%d", args[0], index)
			return nil
		},
	}
}

func newHistoryExportCommand() *cobra.Command {
	var (
		r      rangeFlags
		format string
		fields string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export focus history as CSV, JSON or YAML",
		Example: `  tomato history export --format csv --fields date,startTime,tag
  tomato history export --format json --from 2024-05-01 --to 2024-05-31 -o may.json
  tomato history export -o -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			fs, err := export.ParseFields(fields)
			if err != nil {
				return err
			}
			dr := r.dateRange()
			body, err := apiClient.ExportHistory(dr, f, fs)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write([]byte(body))
				return err
			}
			if output == "" {
				output = export.FileName(dr, f)
			}
			if err := os.WriteFile(output, []byte(body), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			logrus.Infof("exported history to %s", output)
			return nil
		},
	}
	r.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv, json, yaml)")
	cmd.Flags().StringVar(&fields, "fields", "", "comma separated CSV columns (date, startTime, endTime, duration, tag, phase, remark)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, '-' for stdout (default tomato-history-<from>-<to>.<ext>)")
	return cmd
}
