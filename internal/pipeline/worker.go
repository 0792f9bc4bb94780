package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docstruct/internal/analysis"
	"github.com/dgallion1/docstruct/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	jobs       *JobStore
	stats      *LatencyStats
	log        *slog.Logger
	parserOpts parser.Options
}

func NewWorker(jobs *JobStore, stats *LatencyStats, log *slog.Logger, parserOpts parser.Options) *Worker {
	return &Worker{
		jobs:       jobs,
		stats:      stats,
		log:        log,
		parserOpts: parserOpts,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	timer := w.stats.StartPhase("parsing")
	p, err := parser.New(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	timer.Stop()
	if job.Title != "" {
		doc.Title = job.Title
	}

	job.SetContentHash(ContentHashHex([]byte(doc.Text)))
	log = log.With("doc_id", job.DocID)

	// Phase 1.5: Dedup check, same text and same options
	if !job.Force() {
		if prev := w.jobs.FindDuplicate(job.ContentHash, job.OptionsKey(), job.ID); prev != nil {
			log.Info("duplicate document, skipping", "duplicate_of", prev.ID)
			job.MarkDuplicate(prev.ID)
			return
		}
	}

	// Phase 2: Analyze
	opts := job.Options()
	opts.Progress = func(ph analysis.Phase) {
		timer.Next(string(ph))
		job.SetStatus(JobStatus(ph), string(ph))
	}
	start := time.Now()
	res, err := analysis.AnalyzeDocument(ctx, doc, opts)
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(fmt.Sprintf("analyze: %s", err))
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}
	timer.Stop()
	elapsed := time.Since(start)
	w.stats.Record(elapsed)

	for _, gw := range res.Warnings {
		log.Warn("table group not merged", "table", gw.TableNumber, "fragments", gw.Fragments, "reason", gw.Reason)
		job.AddError(fmt.Sprintf("table %s: %s", gw.TableNumber, gw.Reason))
	}
	if len(res.Chunks) == 0 {
		log.Warn("no chunks produced")
	}

	job.SetResult(res)
	log.Info("analysis complete",
		"paper_type", res.PaperType,
		"sections", len(res.Sections),
		"chunks", len(res.Chunks),
		"captions", len(res.Captions),
		"tables", len(res.Tables),
		"pages", res.Pages,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	job.SetStatus(StatusCompleted, "done")
}
