package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/monitoring"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect analysis run history",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		company, _ := cmd.Flags().GetString("company")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:  model.RunStatus(status),
			Company: company,
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run quality over a time window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		hours := int(since.Hours())
		if hours < 1 {
			hours = 1
		}

		snap, err := monitoring.NewCollector(st).Collect(cmd.Context(), hours)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		formatRunStats(os.Stdout, snap, monitoring.NewAlerter(cfg.Monitoring).Evaluate(snap))
		return nil
	},
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	ctx := cmd.Context()
	if err := cfg.Validate("migrate"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (queued, running, complete, failed)")
	runsListCmd.Flags().String("company", "", "filter by filing company")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsCmd.AddCommand(runsListCmd)
	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 72h, 168h)")

	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tFILING\tSTATUS\tINDUSTRY\tRATIOS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t------\t--------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		company := r.Filing.Company
		if len(company) > 30 {
			company = company[:27] + "..."
		}

		industry, ratios := "", ""
		if r.Summary != nil {
			industry = r.Summary.Industry
			ratios = fmt.Sprintf("%d/%d", r.Summary.RatiosValid, r.Summary.RatiosTotal)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			company,
			r.Filing.FilingID,
			r.Status,
			industry,
			ratios,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes a snapshot and any breached thresholds to w.
func formatRunStats(out io.Writer, s *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", s.LookbackHours)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "In flight:\t%d\n", s.Queued+s.Running)
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", s.FailRate*100)
	if s.Summarized > 0 {
		_, _ = fmt.Fprintf(w, "Ratio coverage:\t%.1f%%\n", s.RatioCoverage*100)
		_, _ = fmt.Fprintf(w, "Identity failures:\t%.1f%% of runs\n", s.IdentityFailureRate*100)
		_, _ = fmt.Fprintf(w, "Promotions:\t%d\n", s.Promotions)
	}
	_ = w.Flush()

	for _, a := range alerts {
		_, _ = fmt.Fprintf(out, "ALERT [%s] %s\n", a.Severity, a.Message)
	}
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
