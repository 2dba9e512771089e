package cli

import (
	"incubator_monitor/internal/config"
	"incubator_monitor/internal/logger"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "incubator-monitor",
	Short: "Incubator monitoring dashboard backend",
	Long: `Serves the incubator dashboard API: device status, charts, daily averages,
the alert log and incubation cycles. Without a subcommand the server is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Get(cfg.Log.Level, cfg.Log.Format), nil
}
