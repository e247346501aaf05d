package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/pipeline"
)

var (
	inputDir  string
	outputDir string
	dirTopN   int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every collection file in the input directory",
	Long: `Process every *.json, *.yaml and *.yml collection file in the input directory.
Each collection lists its documents, a persona and a job to be done; the result
is written to <output>/<name>_output.json. A failing collection is skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := dirConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(os.Stderr, cfg, false)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b := &pipeline.Batch{
			Analyzer:  pipeline.NewAnalyzer(cfg, log),
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Log:       log,
		}
		sum, err := b.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d collections, skipped %d\n", sum.Processed, sum.Skipped)
		return nil
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Process every document in the input directory with a detected persona",
	Long: `Treat every supported document in the input directory as its own collection.
The persona and job to be done are detected from the document text; the result
is written to <output>/<name>_output.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := dirConfig(cmd)
		if err != nil {
			return err
		}
		// Auto mode has no other source for a persona.
		cfg.AutoDetectPersona = true
		log := newLogger(os.Stderr, cfg, false)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := &pipeline.Auto{
			Analyzer:  pipeline.NewAnalyzer(cfg, log),
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Log:       log,
		}
		sum, err := a.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d documents, skipped %d\n", sum.Processed, sum.Skipped)
		return nil
	},
}

// dirConfig loads configuration and applies the directory flags shared by
// batch and auto.
func dirConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = inputDir
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("top-n") {
		cfg.TopN = dirTopN
	}
	return cfg, cfg.Validate()
}

func init() {
	for _, c := range []*cobra.Command{batchCmd, autoCmd} {
		c.Flags().StringVarP(&inputDir, "input", "i", "", "Input directory (default INPUT_DIR or ./input)")
		c.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default OUTPUT_DIR or ./output)")
		c.Flags().IntVarP(&dirTopN, "top-n", "n", 0, "Sections to report per collection (default TOP_N or 5)")
		rootCmd.AddCommand(c)
	}
}
