package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docufield/passport-extract/constants"
	"github.com/docufield/passport-extract/internal/common"
	"github.com/docufield/passport-extract/internal/entity"
	"github.com/docufield/passport-extract/internal/extract"
	"github.com/docufield/passport-extract/internal/repository"
)

// Extractor is the single-image operation the batch driver loops over.
type Extractor interface {
	Extract(ctx context.Context, imagePath string) *extract.Result
}

// FileResult is the per-image batch outcome.
type FileResult struct {
	Path      string
	JobID     uuid.UUID
	Success   bool
	IssueDate *string
	Err       string
}

// BatchStats summarizes a directory run. Matched files split into
// Succeeded, NoMRZ and Failed.
type BatchStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	NoMRZ     uint32
	Failed    uint32
}

// Batch walks a directory of passport scans, runs the extractor on each
// image and records one job row per file. Files are processed on a small
// worker pool; results come back sorted by path.
type Batch struct {
	extractor   Extractor
	jobs        repository.JobRepository
	mode        string
	workers     int
	fileTimeout time.Duration
	logger      *slog.Logger
}

type Option func(*Batch)

// WithWorkers sets how many files extract concurrently.
func WithWorkers(n int) Option {
	return func(b *Batch) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithFileTimeout bounds how long a single file may take end to end.
func WithFileTimeout(d time.Duration) Option {
	return func(b *Batch) {
		if d > 0 {
			b.fileTimeout = d
		}
	}
}

func NewBatch(extractor Extractor, jobs repository.JobRepository, mode string, logger *slog.Logger, opts ...Option) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Batch{extractor: extractor, jobs: jobs, mode: mode, workers: 1, logger: logger}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Run walks root, skips hidden entries if requested, and processes every
// file whose extension names a supported image. Returns per-file results
// plus aggregate stats.
func (b *Batch) Run(ctx context.Context, root string, skipHidden bool) ([]FileResult, BatchStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, BatchStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats BatchStats
	var matched []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		// The root itself is exempt so hidden working directories walk fine.
		if path != root && skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.IsImageExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		matched = append(matched, path)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	pool := &filePool{process: b.processWithTimeout, logger: b.logger, workers: b.workers}
	for _, r := range pool.run(ctx, matched) {
		results = append(results, r)
		switch {
		case r.Err != "":
			stats.Failed++
		case r.Success:
			stats.Succeeded++
		default:
			stats.NoMRZ++
		}
	}
	slices.SortFunc(results, func(a, c FileResult) int {
		return strings.Compare(a.Path, c.Path)
	})

	b.logger.Info("batch complete", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "no_mrz", stats.NoMRZ, "failed", stats.Failed)
	return results, stats, nil
}

func (b *Batch) processWithTimeout(ctx context.Context, path string) FileResult {
	if b.fileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.fileTimeout)
		defer cancel()
	}
	return b.processFile(ctx, path)
}

func (b *Batch) processFile(ctx context.Context, path string) FileResult {
	out := FileResult{Path: path}

	job, err := b.jobs.Start(ctx, path, b.mode)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	out.JobID = job.ID
	ctx = common.WithJobID(ctx, job.ID.String())

	b.logger.Info("processing file", "job_id", job.ID, "path", path)
	res := b.extractor.Extract(ctx, path)

	doc, err := res.JSON()
	if err != nil {
		b.logger.Error("result marshal failed", "job_id", job.ID, "error", err)
		doc = nil
	}
	if doc != nil {
		if err := extract.ValidateResultJSON(doc); err != nil {
			b.logger.Warn("result schema validation failed", "job_id", job.ID, "error", err)
		}
	}

	if res.Error != "" {
		if err := b.jobs.FinishFailure(ctx, job.ID, res.Error); err != nil {
			out.Err = err.Error()
			return out
		}
		out.Err = res.Error
		return out
	}

	if err := b.jobs.FinishSuccess(ctx, job.ID, summarize(res, doc)); err != nil {
		out.Err = err.Error()
		return out
	}
	out.Success = res.Success
	out.IssueDate = res.IssueDate
	return out
}

// summarize flattens a result into the row payload job history keeps.
func summarize(res *extract.Result, doc []byte) entity.JobResult {
	return entity.JobResult{
		Success:        res.Success,
		MRZValid:       res.Valid,
		Confidence:     res.Confidence,
		PassportNumber: res.ExtractedData.PassportNumber,
		Surname:        res.ExtractedData.Surname,
		GivenNames:     res.ExtractedData.GivenNames,
		Nationality:    res.ExtractedData.Nationality,
		DateOfBirth:    res.ExtractedData.DateOfBirth,
		ExpiryDate:     res.ExtractedData.ExpiryDate,
		IssueDate:      res.IssueDate,
		ResultJSON:     doc,
	}
}

// isHidden reports whether the path's base name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
