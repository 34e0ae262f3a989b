package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"marketbridge/internal/logger"
	"marketbridge/internal/models"
)

type ItemRunner interface {
	RunForBrand(ctx context.Context, brand, itemID string) models.PipelineResult
}

// ImportChecker answers whether an item was already imported.
type ImportChecker interface {
	HasSucceeded(ctx context.Context, itemID string) (bool, error)
}

type BatchOptions struct {
	Pause        time.Duration
	ResultsDir   string
	SkipImported bool
}

// Batch runs the pipeline over many items strictly one after another.
type Batch struct {
	runner  ItemRunner
	checker ImportChecker
	opts    BatchOptions
	out     io.Writer
	logger  *logger.Logger
	now     func() time.Time
}

// NewBatch creates a batch runner. checker may be nil; out receives the
// human-readable progress tally.
func NewBatch(runner ItemRunner, checker ImportChecker, opts BatchOptions, out io.Writer, logger *logger.Logger) *Batch {
	if out == nil {
		out = io.Discard
	}
	return &Batch{
		runner:  runner,
		checker: checker,
		opts:    opts,
		out:     out,
		logger:  logger,
		now:     time.Now,
	}
}

// Run imports ids for brand, pausing between items, and writes the report
// to the results directory. Cancelling ctx stops before the next item; the
// report of what ran so far is still written.
func (b *Batch) Run(ctx context.Context, brand string, ids []string) (*models.BatchReport, string, error) {
	started := b.now()
	report := &models.BatchReport{
		RunID:     uuid.New().String(),
		Brand:     brand,
		StartedAt: started.UTC(),
		Results:   []models.PipelineResult{},
	}

	ids = b.pending(ctx, ids)
	b.logger.Info("Batch %s: %d items for brand %s", report.RunID, len(ids), brand)

	for i, id := range ids {
		if ctx.Err() != nil {
			b.logger.Warn("Batch interrupted before item %d/%d", i+1, len(ids))
			break
		}

		res := b.runner.RunForBrand(ctx, brand, id)
		report.Results = append(report.Results, res)
		if res.Success {
			report.Succeeded++
			fmt.Fprintf(b.out, "[%d/%d] OK   %s -> %s (%.1fs)\n", i+1, len(ids), id, res.ProductURL, res.Duration)
		} else {
			report.Failed++
			fmt.Fprintf(b.out, "[%d/%d] FAIL %s: %s (%.1fs)\n", i+1, len(ids), id, res.Error, res.Duration)
		}
		fmt.Fprintf(b.out, "        tally: %d ok, %d failed\n", report.Succeeded, report.Failed)

		if i < len(ids)-1 && b.opts.Pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(b.opts.Pause):
			}
		}
	}

	report.TotalSeconds = b.now().Sub(started).Seconds()
	fmt.Fprintf(b.out, "Done: %d succeeded, %d failed in %.0fs\n", report.Succeeded, report.Failed, report.TotalSeconds)
	b.printSummary(report)

	path, err := b.writeReport(report, started)
	if err != nil {
		return report, "", err
	}
	return report, path, nil
}

func (b *Batch) printSummary(report *models.BatchReport) {
	if report.Succeeded > 0 {
		fmt.Fprintln(b.out, "Succeeded:")
		for _, r := range report.Results {
			if r.Success {
				fmt.Fprintf(b.out, "  %s -> product %d %s\n", r.ItemID, r.ProductID, r.ProductURL)
			}
		}
	}
	if report.Failed > 0 {
		fmt.Fprintln(b.out, "Failed:")
		for _, r := range report.Results {
			if !r.Success {
				fmt.Fprintf(b.out, "  %s: %s\n", r.ItemID, r.Error)
			}
		}
	}
}

func (b *Batch) pending(ctx context.Context, ids []string) []string {
	if !b.opts.SkipImported || b.checker == nil {
		return ids
	}
	var out []string
	for _, id := range ids {
		done, err := b.checker.HasSucceeded(ctx, id)
		if err != nil {
			b.logger.Warn("Could not check history for %s, importing anyway: %v", id, err)
		}
		if done {
			fmt.Fprintf(b.out, "skip %s (already imported)\n", id)
			continue
		}
		out = append(out, id)
	}
	return out
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// ReportFilename is import_<brand>_<YYYYMMDD_HHMMSS>.json.
func ReportFilename(brand string, at time.Time) string {
	safe := unsafeFileChars.ReplaceAllString(brand, "_")
	return fmt.Sprintf("import_%s_%s.json", safe, at.Format("20060102_150405"))
}

func (b *Batch) writeReport(report *models.BatchReport, started time.Time) (string, error) {
	dir := b.opts.ResultsDir
	if dir == "" {
		dir = "results"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	path := filepath.Join(dir, ReportFilename(report.Brand, started))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	b.logger.Info("Results written to %s", path)
	return path, nil
}
