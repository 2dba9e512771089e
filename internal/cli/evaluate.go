package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one alert evaluation pass over all devices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		sum, err := a.services.EvaluateAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "devices: %d  logged: %d  failed: %d  took: %s\n",
			sum.Devices, sum.Logged, sum.Failed, sum.Took)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
