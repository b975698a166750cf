package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/lawdesk/internal/chunker"
	"github.com/dgallion1/lawdesk/internal/index"
	"github.com/dgallion1/lawdesk/internal/library"
	"github.com/dgallion1/lawdesk/internal/parser"
	"github.com/dgallion1/lawdesk/internal/textnorm"
)

// Config tunes a reload pass.
type Config struct {
	Concurrency  int      // concurrent file extractions
	PageMarkers  []string // header/footer markers for the normalizer
	Parser       parser.Options
	Chunker      chunker.Config
	MaxFileBytes int64
	JobTTL       time.Duration
}

// Reloader rebuilds the index from the library. Reloads are serialized; each
// one builds a fresh snapshot and swaps it in, so readers keep the previous
// generation until the new one is complete.
type Reloader struct {
	mu sync.Mutex

	lib     *library.Library
	ix      *index.Index
	norm    *textnorm.Normalizer
	chunker *chunker.Chunker
	jobs    *JobStore
	cfg     Config
	log     *slog.Logger
}

func NewReloader(lib *library.Library, ix *index.Index, cfg Config, log *slog.Logger) *Reloader {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 100 << 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}
	return &Reloader{
		lib:     lib,
		ix:      ix,
		norm:    textnorm.New(cfg.PageMarkers...),
		chunker: chunker.New(cfg.Chunker, log),
		jobs:    NewJobStore(cfg.JobTTL),
		cfg:     cfg,
		log:     log,
	}
}

// Jobs returns the history of reload jobs.
func (r *Reloader) Jobs() *JobStore { return r.jobs }

// extracted is the normalized text of one document, or why there is none.
type extracted struct {
	doc  library.Document
	text string
	hash string
	err  error
}

// Reload walks the whole library and publishes a new snapshot. It fails only
// when the library itself cannot be walked; unreadable files are reported on
// the job and contribute no chunks.
func (r *Reloader) Reload(ctx context.Context, trigger string) (JobSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := NewJob(uuid.NewString(), trigger)
	r.jobs.Put(job)
	log := r.log.With("job_id", job.ID, "trigger", trigger)

	job.SetStatus(StatusScanning, "scanning")
	docs, err := r.lib.Documents(parser.IsSupportedExtension)
	if err != nil {
		log.Error("library walk failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "scanning")
		return job.Snapshot(), fmt.Errorf("reload: %w", err)
	}
	job.SetFilesTotal(len(docs))
	if len(docs) == 0 {
		log.Warn("no documents found", "root", r.lib.Root())
	}

	job.SetStatus(StatusExtracting, "extracting")
	texts := make([]extracted, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			texts[i] = r.extract(doc)
			job.IncrFilesProcessed()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("reload cancelled", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return job.Snapshot(), fmt.Errorf("extract documents: %w", err)
	}

	// Identifiers follow walk order, so chunking stays sequential.
	job.SetStatus(StatusChunking, "chunking")
	ids := NewIDAssigner()
	b := index.NewBuilder()
	hadErrors := false
	for _, t := range texts {
		report := FileReport{Path: t.doc.Path, Category: t.doc.Category, ContentHash: t.hash}
		if rel, err := filepath.Rel(r.lib.Root(), t.doc.Path); err == nil {
			report.Path = filepath.ToSlash(rel)
		}
		if t.err != nil {
			log.Error("extract failed", "file", report.Path, "error", t.err)
			report.Error = t.err.Error()
			job.AddError(fmt.Sprintf("%s: %s", report.Path, t.err))
			job.AddFile(report)
			hadErrors = true
			continue
		}

		res := r.chunker.Analyze(t.text, t.doc.Name, t.doc.Category)
		for _, c := range res.Chunks {
			b.Add(c.WithID(ids.Next(c.Category)))
		}
		report.Chunks = len(res.Chunks)
		report.Rejected = len(res.Rejected)
		job.AddFile(report)
		log.Info("document chunked",
			"file", report.Path,
			"category", t.doc.Category,
			"articles", res.ArticleStarts,
			"references", res.References,
			"chunks", len(res.Chunks),
			"rejected", len(res.Rejected))
	}

	job.SetStatus(StatusPublishing, "publishing")
	snap := r.ix.Publish(b)
	job.SetGeneration(snap.Generation())
	r.audit(log, snap)

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	out := job.Snapshot()
	log.Info("reload complete",
		"generation", snap.Generation(),
		"files", len(docs),
		"chunks", snap.Len(),
		"duration_ms", out.DurationMs)
	return out, nil
}

// ReloadCategory rebuilds the index after a change confined to one category.
// The index is always rebuilt whole; a missing category directory is logged and
// simply contributes no documents.
func (r *Reloader) ReloadCategory(ctx context.Context, category, trigger string) (JobSnapshot, error) {
	dir, err := r.lib.Dir(category)
	if err != nil {
		r.log.Warn("reload of invalid category", "category", category, "error", err)
	} else if _, err := os.Stat(dir); err != nil {
		r.log.Warn("category directory missing", "category", category, "dir", dir)
	}
	return r.Reload(ctx, trigger)
}

func (r *Reloader) extract(doc library.Document) (out extracted) {
	out.doc = doc
	// Third-party parsers panic on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			out.err = fmt.Errorf("parser panic: %v", rec)
		}
	}()

	f, err := os.Open(doc.Path)
	if err != nil {
		out.err = err
		return out
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, r.cfg.MaxFileBytes+1))
	if err != nil {
		out.err = fmt.Errorf("read: %w", err)
		return out
	}
	if int64(len(data)) > r.cfg.MaxFileBytes {
		out.err = fmt.Errorf("file exceeds %d bytes", r.cfg.MaxFileBytes)
		return out
	}
	out.hash = ContentHashHex(data)

	raw, err := parser.ExtractText(bytes.NewReader(data), doc.Name, r.cfg.Parser)
	if err != nil {
		out.err = fmt.Errorf("parse: %w", err)
		return out
	}
	out.text = r.norm.Normalize(raw)
	return out
}

// audit logs the consistency checks over a freshly published snapshot.
func (r *Reloader) audit(log *slog.Logger, snap *index.Snapshot) {
	untitled := snap.UntitledStats()
	log.Info("article title check",
		"total", untitled.Total,
		"with_title", untitled.WithTitle,
		"without_title", untitled.WithoutTitle)

	report := snap.ValidateAll()
	if report.Invalid > 0 {
		log.Warn("index validation found problems", "valid", report.Valid, "invalid", report.Invalid)
		for _, e := range report.Errors {
			log.Warn("invalid chunk", "chunk_id", e.ID, "file", e.FileName, "problems", e.Problems)
		}
	} else {
		log.Info("index validation passed", "total", report.Total)
	}

	// Stage 1 sees only the first chunk of a duplicated title.
	for _, d := range snap.DuplicateTitles() {
		log.Warn("duplicate article title", "category", d.Category, "title", d.Title, "chunk_ids", d.IDs)
	}
}
