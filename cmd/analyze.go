package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/pipeline"
)

var analyzePersist bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <filing-dir>",
	Short: "Analyze one filing directory and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "analyze", analyzePersist)
		if err != nil {
			return err
		}
		defer env.Close()

		var res *pipeline.AnalysisResult
		if analyzePersist {
			out, err := env.Recorder().Record(ctx, args[0])
			if err != nil {
				return err
			}
			if out.Err != nil {
				return out.Err
			}
			res = out.Result
			zap.L().Info("run recorded", zap.String("run_id", out.Run.ID))
		} else {
			res, err = env.Analyzer.Analyze(ctx, args[0])
			if err != nil {
				return err
			}
		}

		return writeResult(os.Stdout, res)
	},
}

func writeResult(w io.Writer, res *pipeline.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "encode result")
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzePersist, "persist", false, "record the analysis as a run in the store")
	rootCmd.AddCommand(analyzeCmd)
}
