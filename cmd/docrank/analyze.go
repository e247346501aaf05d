package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/persona"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/report"
)

var (
	role        string
	description string
	task        string
	topN        int
	summary     bool
	outFile     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Rank the sections of the given documents",
	Long: `Analyze the given documents as one collection and print the JSON result.
A missing --role or --task is detected from the document text unless
AUTO_DETECT_PERSONA is false.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("top-n") {
			cfg.TopN = topN
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log := newLogger(os.Stderr, cfg, false)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		docs := make([]pipeline.Document, len(args))
		for i, path := range args {
			docs[i] = pipeline.Document{Name: filepath.Base(path), Path: path}
		}
		out, err := pipeline.NewAnalyzer(cfg, log).Analyze(ctx, pipeline.Request{
			Documents: docs,
			Persona:   persona.Persona{Role: role, Description: description},
			Job:       persona.Job{Task: task},
		})
		if err != nil {
			return err
		}

		if outFile != "" {
			if err := report.WriteFile(outFile, out.Result); err != nil {
				return err
			}
			log.Info("wrote result", "output", outFile, "sections", out.Sections)
		}
		if summary {
			report.Render(cmd.OutOrStdout(), out.Result)
			return nil
		}
		if outFile != "" {
			return nil
		}
		data, err := report.Marshal(out.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&role, "role", "", "Persona role, e.g. \"PhD Researcher\"")
	analyzeCmd.Flags().StringVar(&description, "description", "", "Persona description")
	analyzeCmd.Flags().StringVar(&task, "task", "", "Job to be done")
	analyzeCmd.Flags().IntVarP(&topN, "top-n", "n", 0, "Sections to report (default TOP_N or 5)")
	analyzeCmd.Flags().BoolVar(&summary, "summary", false, "Print a terminal summary instead of JSON")
	analyzeCmd.Flags().StringVarP(&outFile, "output", "o", "", "Also write the JSON result to this file")
	rootCmd.AddCommand(analyzeCmd)
}
