package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// WeeksCmd creates the weeks command
func WeeksCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weeks [count]",
		Short: "List upcoming camp session start dates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 10
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("count must be a positive integer, got: %s", args[0])
				}
				count = n
			}

			from := time.Now()
			if fromStr, _ := cmd.Flags().GetString("from"); fromStr != "" {
				parsed, err := time.Parse("2006-01-02", fromStr)
				if err != nil {
					return fmt.Errorf("--from must be a date (YYYY-MM-DD): %w", err)
				}
				from = parsed
			}

			weeks, err := app.Cfg.SessionWeeks(from, count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(weeks) == 0 {
				fmt.Fprintln(out, "No sessions scheduled.")
				return nil
			}

			fmt.Fprintf(out, "\nSession start dates (%s):\n", app.Cfg.SessionRRule)
			for i, w := range weeks {
				fmt.Fprintf(out, "  %2d. %s\n", i+1, w.Format("2006-01-02 (Monday)"))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().String("from", "", "First date to consider (YYYY-MM-DD, default today)")

	return cmd
}
