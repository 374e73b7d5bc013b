package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/resetpoint/internal/adapters/notify"
	"github.com/alejandrodnm/resetpoint/internal/ports"
)

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON   bool
		withTips bool
		compact  bool
		examples int
	)
	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Analyze a trade export and print the bias report",
		Example: `  resetpoint analyze trades.csv
  resetpoint analyze trades.csv --advice
  resetpoint analyze trades.csv --json > result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			// stdout queda para el reporte
			setupLogger(cfg.Log, os.Stderr)

			ctx := cmd.Context()
			svc, cleanup, err := buildService(ctx, cfg, withTips)
			if err != nil {
				return err
			}
			defer cleanup()

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			defer f.Close()

			resp := svc.Analyze(ctx, filepath.Base(path), f)

			var reporter ports.Reporter = notify.NewConsoleWriter(cmd.OutOrStdout(), !compact, examples)
			if asJSON {
				reporter = notify.NewJSON(cmd.OutOrStdout(), true)
			}
			if err := reporter.Report(ctx, resp.AnalysisResult, resp.AIAdvice); err != nil {
				return err
			}
			if resp.Err != nil {
				return fmt.Errorf("analyze %s: %w", path, resp.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON response instead of the console report")
	cmd.Flags().BoolVar(&withTips, "advice", false, "ask the configured advice provider for tips")
	cmd.Flags().BoolVar(&compact, "compact", false, "one line per detected bias instead of the full table")
	cmd.Flags().IntVar(&examples, "examples", 3, "evidence items shown per detected bias")
	return cmd
}
