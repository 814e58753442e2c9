package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/pipeline"
)

var (
	batchSkipUnchanged bool
	batchDryRun        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <filing-dir>...",
	Short: "Analyze many filing directories in parallel",
	Long:  "Analyzes each directory with bounded concurrency and records every analysis as a run. Use --dry-run to analyze without writing to the store.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "batch", !batchDryRun)
		if err != nil {
			return err
		}
		defer env.Close()

		fn := pipeline.AnalyzeOnly(env.Analyzer)
		if !batchDryRun {
			rec := env.Recorder()
			rec.SkipUnchanged = batchSkipUnchanged
			fn = rec.Record
		}

		rep, err := pipeline.Batch(ctx, args, cfg.Batch.MaxConcurrentFilings, fn)
		if rep != nil {
			formatBatchReport(os.Stdout, rep)
		}
		if err != nil {
			return err
		}
		if rep.Failed > 0 {
			return eris.Errorf("%d of %d filings failed", rep.Failed, len(args))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchSkipUnchanged, "skip-unchanged", false, "reuse the latest run of a filing whose contents have not changed")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "analyze without recording runs")
	rootCmd.AddCommand(batchCmd)
}

// formatBatchReport writes one line per filing followed by totals.
func formatBatchReport(out io.Writer, rep *pipeline.BatchReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DIR\tSTATUS\tRUN\tINDUSTRY\tRATIOS\tDETAIL")
	_, _ = fmt.Fprintln(w, "---\t------\t---\t--------\t------\t------")

	for _, o := range rep.Outcomes {
		status, detail := "complete", ""
		switch {
		case o.Err != nil:
			status, detail = "failed", o.Err.Error()
		case o.Skipped:
			status = "skipped"
		}

		runID := ""
		if o.Run != nil {
			runID = truncateID(o.Run.ID)
		}
		industry, ratios := "", ""
		if o.Result != nil {
			industry = o.Result.Industry.Industry
			ratios = fmt.Sprintf("%d/%d", o.Result.ValidRatios(), len(o.Result.Ratios))
		}
		if len(detail) > 60 {
			detail = detail[:57] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.Dir, status, runID, industry, ratios, detail)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d succeeded, %d failed, %d skipped\n", rep.Succeeded, rep.Failed, rep.Skipped)
}
