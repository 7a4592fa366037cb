package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/report"
	"github.com/jakechorley/camp-scheduler/pkg/core/services"
	"github.com/jakechorley/camp-scheduler/pkg/input"
	"github.com/jakechorley/camp-scheduler/pkg/metrics"
)

// GenerateCmd creates the generate command
func GenerateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <roster_file>...",
		Short: "Generate weekly schedules from one or more roster files",
		Long: `Generate a schedule for each roster file. Rosters are independent weeks and are
scheduled concurrently (up to maxConcurrentRuns at a time).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _ := cmd.Flags().GetBool("store")
			metricsFile, _ := cmd.Flags().GetString("metrics-file")
			weekLabel, _ := cmd.Flags().GetString("week")
			quiet, _ := cmd.Flags().GetBool("quiet")

			if weekLabel != "" && len(args) > 1 {
				return fmt.Errorf("--week can only be used with a single roster file")
			}

			weeks := make([]services.Week, 0, len(args))
			sources := make(map[string]string, len(args))
			for _, path := range args {
				roster, err := input.LoadRoster(path)
				if err != nil {
					return err
				}
				label := weekName(weekLabel, roster.Week, path)
				if prev, ok := sources[label]; ok {
					return fmt.Errorf("rosters %s and %s are both week %q", prev, path, label)
				}
				sources[label] = path
				weeks = append(weeks, services.Week{
					Label:  label,
					Troops: roster.Troops(),
				})
			}

			app.Logger.Debug("generate command",
				zap.Int("rosters", len(weeks)),
				zap.Bool("store", store),
				zap.String("metrics_file", metricsFile))

			var writer services.RunWriter
			if store {
				database, err := app.Database()
				if err != nil {
					return err
				}
				writer = database
			}

			results, err := services.GenerateWeeks(app.Ctx, writer, app.Cfg, app.Catalog, app.Logger, weeks)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			reports := make(map[string]*report.Report, len(results))
			for _, res := range results {
				if !quiet {
					printSchedule(out, res.Schedule)
				}
				printReport(out, res.Run.Week, res.Report)
				if store {
					fmt.Fprintf(out, "  Stored as run:     %s\n", res.Run.ID)
				}
				reports[res.Run.Week] = res.Report
			}
			fmt.Fprintln(out)

			if metricsFile != "" {
				if err := metrics.WriteTextfile(metricsFile, reports); err != nil {
					return err
				}
				app.Logger.Info("Metrics written", zap.String("file", metricsFile))
			}

			return nil
		},
	}

	cmd.Flags().Bool("store", false, "Store the runs in the database")
	cmd.Flags().String("metrics-file", "", "Write report gauges to this Prometheus textfile")
	cmd.Flags().String("week", "", "Label for the week (single roster only)")
	cmd.Flags().BoolP("quiet", "q", false, "Print the summaries without the schedule grids")

	return cmd
}

// weekName picks the flag label, then the roster's own label, then the file name
func weekName(flag, roster, path string) string {
	if flag != "" {
		return flag
	}
	if roster != "" {
		return roster
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
