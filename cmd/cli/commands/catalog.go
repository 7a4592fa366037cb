package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/camp-scheduler/pkg/input"
)

// CatalogCmd creates the catalog command
func CatalogCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective activity catalog and rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			data, err := yaml.Marshal(input.ExportCatalog(app.Catalog))
			if err != nil {
				return fmt.Errorf("failed to encode catalog: %w", err)
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write catalog: %w", err)
			}
			app.Logger.Info("Catalog written", zap.String("file", output), zap.Int("activities", len(app.Catalog.Activities())))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the catalog to this file instead of stdout")

	return cmd
}
