package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/monitor"
	"incubator_monitor/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show the status pill of every device",
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

		states, err := a.repos.States.ListAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("load device states: %w", err)
		}
		if len(states) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No devices reported yet.")
			return nil
		}
		printStatus(cmd.OutOrStdout(), states, time.Now().UTC())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printStatus(out io.Writer, states []models.DeviceState, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "DEVICE\tANIMAL\tTEMP\tHUM\tUPDATED\tSTATUS")
	for i := range states {
		st := &states[i]
		card := service.BuildCard(models.Device{DeviceID: st.DeviceID}, st, now)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			st.DeviceID,
			animalOf(st),
			formatReading(st.Temperature, "°C"),
			formatReading(st.Humidity, "%"),
			formatUpdated(st.LastUpdated),
			pillColor(card.Pill.Level).Sprint(card.Pill.Text),
		)
	}
}

func pillColor(level string) *color.Color {
	switch level {
	case monitor.PillOK:
		return color.New(color.FgGreen)
	case monitor.PillWarn:
		return color.New(color.FgYellow)
	case monitor.PillAlert:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}

func animalOf(st *models.DeviceState) string {
	switch {
	case st.AnimalLabel != nil:
		return *st.AnimalLabel
	case st.AnimalType != nil:
		return *st.AnimalType
	default:
		return "-"
	}
}

func formatReading(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%s", *v, unit)
}

func formatUpdated(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}
