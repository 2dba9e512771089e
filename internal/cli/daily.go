package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/service"

	"github.com/spf13/cobra"
)

var (
	dailyCycleID string
	dailyDays    int
	dailyXLSX    string
)

var dailyCmd = &cobra.Command{
	Use:   "daily <device-id>",
	Short: "Print or export the daily averages of a cycle",
	Long: `Prints per-day temperature and humidity means of the selected cycle
(the running one by default). With --xlsx the table is written to a spreadsheet.`,
	Args: cobra.ExactArgs(1),
	RunE: runDaily,
}

func init() {
	dailyCmd.Flags().StringVar(&dailyCycleID, "cycle", "", "cycle id (default: running cycle)")
	dailyCmd.Flags().IntVar(&dailyDays, "days", 0, "limit to the last 7, 21 or 28 days")
	dailyCmd.Flags().StringVar(&dailyXLSX, "xlsx", "", "write an xlsx file instead of printing")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	deviceID := args[0]
	q := service.DailyQuery{CycleID: dailyCycleID, Days: dailyDays}

	if dailyXLSX != "" {
		raw, err := a.services.DailyWorkbook(cmd.Context(), deviceID, q)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dailyXLSX, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dailyXLSX, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dailyXLSX)
		return nil
	}

	report, err := a.services.Daily(cmd.Context(), deviceID, q)
	if errors.Is(err, monitor.ErrNoCycleSelected) {
		fmt.Fprintln(cmd.OutOrStdout(), "No cycle selected.")
		return nil
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "cycle %s (%s)\n", report.Cycle.ID, report.Cycle.AnimalType)
	fmt.Fprintln(w, "DAY\tTEMP AVG\tHUM AVG")
	for _, r := range report.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Day, formatReading(r.TempAvg, "°C"), formatReading(r.HumAvg, "%"))
	}
	return nil
}
