package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/services"
)

// RunsCmd creates the runs command
func RunsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run_id]",
		Short: "List stored runs, or show the schedule of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, _ := cmd.Flags().GetString("week")

			database, err := app.Database()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				app.Logger.Debug("runs command", zap.String("run_id", args[0]))
				byTroop, troops, err := services.RunEntries(app.Ctx, database, app.Logger, args[0])
				if err != nil {
					return err
				}
				printStoredEntries(out, byTroop, troops)
				return nil
			}

			app.Logger.Debug("runs command", zap.String("week", week))
			runs, err := services.ListRuns(app.Ctx, database, app.Logger, week)
			if err != nil {
				return err
			}
			printRuns(out, runs)
			return nil
		},
	}

	cmd.Flags().String("week", "", "Only list runs for this week")

	return cmd
}
