package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lawdesk/internal/chunker"
	"github.com/dgallion1/lawdesk/internal/index"
	"github.com/dgallion1/lawdesk/internal/library"
	"github.com/dgallion1/lawdesk/internal/parser"
	"github.com/dgallion1/lawdesk/internal/pipeline"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Load a library directory and check every chunk",
	Long: `Builds an index from a library directory exactly as the server does at
startup, then reports per-file results, invalid chunks, untitled articles and
duplicate titles. Exits non-zero when any chunk is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(validateCmd)
}

type validateOutput struct {
	Job        pipeline.JobSnapshot   `json:"job"`
	Validation index.ValidationReport `json:"validation"`
	Untitled   index.UntitledStats    `json:"untitled"`
	Duplicates []index.DuplicateTitle `json:"duplicates,omitempty"`
}

// loadLibrary indexes dir once, the way the server's startup reload does.
func loadLibrary(ctx context.Context, dir string, log *slog.Logger) (*index.Index, pipeline.JobSnapshot, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, pipeline.JobSnapshot{}, fmt.Errorf("library dir: %w", err)
	}
	ix := index.New()
	reloader := pipeline.NewReloader(library.New(dir, nil), ix, pipeline.Config{
		Concurrency: 4,
		PageMarkers: chunkMarkers,
		Parser:      parser.Options{PDFFallbackPdftotext: true},
		Chunker:     chunker.DefaultConfig(),
	}, log)
	job, err := reloader.Reload(ctx, pipeline.TriggerManual)
	if err != nil {
		return nil, job, err
	}
	return ix, job, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ix, job, err := loadLibrary(cmd.Context(), args[0], newLogger(cmd))
	if err != nil {
		return err
	}
	snap := ix.Load()
	report := validateOutput{
		Job:        job,
		Validation: snap.ValidateAll(),
		Untitled:   snap.UntitledStats(),
		Duplicates: snap.DuplicateTitles(),
	}

	if validateJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printReport(cmd, report)
	}

	if report.Validation.Invalid > 0 {
		return fmt.Errorf("%d of %d chunks are invalid", report.Validation.Invalid, report.Validation.Total)
	}
	return nil
}

func printReport(cmd *cobra.Command, r validateOutput) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Reload %s: %d files, %d chunks, %d rejected (%d ms)\n",
		r.Job.Status, r.Job.Progress.FilesProcessed, r.Job.Progress.ChunksEmitted,
		r.Job.Progress.ChunksRejected, r.Job.DurationMs)
	for _, f := range r.Job.Files {
		if f.Error != "" {
			fmt.Fprintf(out, "  %-40s error: %s\n", f.Path, f.Error)
			continue
		}
		fmt.Fprintf(out, "  %-40s %3d chunks %3d rejected\n", f.Path, f.Chunks, f.Rejected)
	}

	fmt.Fprintf(out, "\nValidation: %d valid, %d invalid\n", r.Validation.Valid, r.Validation.Invalid)
	for _, e := range r.Validation.Errors {
		fmt.Fprintf(out, "  [%s] %s: %v\n", e.ID, e.FileName, e.Problems)
	}

	fmt.Fprintf(out, "\nUntitled: %d of %d\n", r.Untitled.WithoutTitle, r.Untitled.Total)
	for _, d := range r.Untitled.Details {
		fmt.Fprintf(out, "  [%s] %s %s\n", d.ID, d.LawName, d.ArticleNumber)
	}

	if len(r.Duplicates) > 0 {
		fmt.Fprintln(out, "\nDuplicate titles:")
		for _, d := range r.Duplicates {
			fmt.Fprintf(out, "  %s / %s: %v\n", d.Category, d.Title, d.IDs)
		}
	}
}
