// Package importer turns OULAD-style CSV extracts into normalized,
// deduplicated rows and loads them through the store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nonsonwune/lmsconnector/config"
	"github.com/nonsonwune/lmsconnector/models"
	"github.com/nonsonwune/lmsconnector/store"
)

// State is a step of the import run lifecycle.
type State string

const (
	StateStaged      State = "staged"
	StateNormalizing State = "normalizing"
	StateLoading     State = "loading"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Options are the core import settings.
type Options struct {
	BatchSize   int
	MaxFileSize int64
	StagingDir  string
	RejectDir   string // empty disables the rejection report
}

// OptionsFromConfig picks the import settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BatchSize:   cfg.BatchSize,
		MaxFileSize: cfg.MaxFileSize,
		StagingDir:  cfg.StagingDir,
		RejectDir:   cfg.RejectDir,
	}
}

// SessionProvider is the part of the store an import run needs.
type SessionProvider interface {
	Acquire(ctx context.Context) (store.Session, error)
}

// Importer runs imports against one store. It holds no per-run state and is
// safe for concurrent use.
type Importer struct {
	store SessionProvider
	opts  Options
}

func New(s SessionProvider, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.DefaultBatchSize
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = config.DefaultMaxFileSize
	}
	return &Importer{store: s, opts: opts}
}

// Run is one file imported into one entity table in one pass.
type Run struct {
	ID         uuid.UUID
	Entity     models.Entity
	Table      string
	Strategy   models.Strategy
	Source     string
	State      State
	Stats      Stats
	RejectFile string
	Started    time.Time
	Finished   time.Time
	Err        error

	schema  models.Schema
	mapping entityMapping
	staging *os.File
	rejects *rejectLog
}

// Duration is how long the run took, or has taken so far.
func (r *Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}

func (r *Run) logf(format string, args ...any) {
	log.Printf("run %s [%s]: %s", r.ID, r.Entity, fmt.Sprintf(format, args...))
}

func (r *Run) transition(s State) {
	if r.State == "" {
		r.logf("%s", s)
	} else {
		r.logf("%s -> %s", r.State, s)
	}
	r.State = s
}

// Import runs the whole pipeline for one file. It always returns the Run;
// on failure the error is an *ImportError carrying the partial stats.
func (im *Importer) Import(ctx context.Context, entity models.Entity, path string) (*Run, error) {
	run := &Run{ID: uuid.New(), Entity: entity, Source: path, Started: time.Now()}
	defer run.cleanup()

	if err := im.stage(run); err != nil {
		return run, run.fail(ctx, err)
	}

	session, err := im.store.Acquire(ctx)
	if err != nil {
		return run, run.fail(ctx, newError(CodeStoreUnavailable, "acquiring store session", err))
	}
	defer session.Release()

	if err := im.execute(ctx, run, session); err != nil {
		return run, run.fail(ctx, err)
	}

	run.Finished = time.Now()
	run.transition(StateCompleted)
	run.Stats.LogSummary(fmt.Sprintf("run %s [%s]", run.ID, run.Entity))
	return run, nil
}

// stage resolves the entity, checks the source, and creates the run's
// scratch files.
func (im *Importer) stage(run *Run) error {
	schema, ok := models.Lookup(run.Entity)
	if !ok {
		return newError(CodeUnknownEntity, fmt.Sprintf("unknown entity type %q", run.Entity), nil)
	}
	mapping, ok := mappings[run.Entity]
	if !ok {
		return newError(CodeUnknownEntity, fmt.Sprintf("no normalizer for entity %q", run.Entity), nil)
	}
	run.schema = schema
	run.mapping = mapping
	run.Table = schema.Table
	run.Strategy = schema.Strategy

	info, err := os.Stat(run.Source)
	if err != nil {
		return newError(CodeSourceRead, "reading source file", err)
	}
	if info.IsDir() {
		return newError(CodeSourceRead, fmt.Sprintf("%s is a directory", run.Source), nil)
	}
	if info.Size() > im.opts.MaxFileSize {
		return newError(CodeFileTooLarge,
			fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), im.opts.MaxFileSize), nil)
	}

	if run.Strategy == models.StrategyBulk {
		f, err := createStagingFile(im.opts.StagingDir, run.Entity, run.ID)
		if err != nil {
			return newError(CodeStagingFailed, "staging source", err)
		}
		run.staging = f
	}

	run.transition(StateStaged)
	run.logf("%s (%d bytes) -> %s via %s", run.Source, info.Size(), run.Table, run.Strategy)
	return nil
}

func (im *Importer) execute(ctx context.Context, run *Run, session store.Session) error {
	reader, err := OpenCSV(run.Source)
	if err != nil {
		return newError(CodeSourceRead, "opening source file", err)
	}
	defer reader.Close()

	columns, err := mapHeaders(reader.Headers(), run.mapping.required, run.mapping.optional)
	if err != nil {
		return err
	}

	if im.opts.RejectDir != "" {
		rl, err := openRejectLog(im.opts.RejectDir, run.Entity, run.ID)
		if err != nil {
			return newError(CodeStagingFailed, "opening rejection report", err)
		}
		run.rejects = rl
		run.RejectFile = rl.path
	}

	src := &normalizedSource{
		run:     run,
		reader:  reader,
		columns: columns,
		dedup:   NewDeduper(),
	}

	run.transition(StateNormalizing)
	switch run.Strategy {
	case models.StrategyBatch:
		return im.loadBatches(ctx, run, session, src)
	case models.StrategyBulk:
		return im.loadBulk(ctx, run, session, src)
	}
	return newError(CodeUnknownEntity, fmt.Sprintf("unknown load strategy %q", run.Strategy), nil)
}

// loadBatches interleaves normalization with loading: each full batch is
// written as soon as the normalizer has produced it.
func (im *Importer) loadBatches(ctx context.Context, run *Run, session store.Session, src *normalizedSource) error {
	loader := NewBatchLoader(session, run.schema, im.opts.BatchSize)
	run.transition(StateLoading)
	run.logf("loading in batches of %d", loader.Size())

	res, err := loader.Load(ctx, src)
	run.Stats.Batches = res.Batches
	run.Stats.Inserted = res.Inserted
	run.Stats.Skipped = res.Skipped()
	return err
}

// loadBulk normalizes the whole input into the staging file, then streams the
// staging file through one COPY.
func (im *Importer) loadBulk(ctx context.Context, run *Run, session store.Session, src *normalizedSource) error {
	loader := NewBulkLoader(session, run.schema)

	staged, err := loader.Stage(ctx, src, run.staging)
	if err != nil {
		return err
	}
	if _, err := run.staging.Seek(0, io.SeekStart); err != nil {
		return newError(CodeStagingFailed, "rewinding staging file", err)
	}
	run.logf("staged %d rows in %s", staged, run.staging.Name())

	if err := ctx.Err(); err != nil {
		return newError(CodeCanceled, "import canceled", err)
	}

	run.transition(StateLoading)
	n, err := loader.Load(ctx, run.staging)
	if err != nil {
		return err
	}
	run.Stats.Batches = 1
	run.Stats.Inserted = n
	run.Stats.Skipped = int64(staged) - n
	return nil
}

func (r *Run) fail(ctx context.Context, err error) error {
	var ie *ImportError
	if !errors.As(err, &ie) {
		ie = newError(CodeLoadFailed, "import failed", err)
	}
	if ctx.Err() != nil && ie.Code != CodeCanceled {
		ie.Code = CodeCanceled
		ie.Message = "import canceled: " + ie.Message
	}
	if ie.Table == "" {
		ie.Table = r.Table
	}
	ie.Stats = r.Stats.clone()

	r.Err = ie
	r.Finished = time.Now()
	r.transition(StateFailed)
	r.logf("%v", ie)
	return ie
}

// cleanup runs on every exit path.
func (r *Run) cleanup() {
	if r.rejects != nil {
		if err := r.rejects.Close(); err != nil {
			r.logf("closing rejection report: %v", err)
		}
		if r.rejects.count == 0 {
			removeFile(r.rejects.path)
			r.RejectFile = ""
		} else {
			r.logf("%d rejections written to %s", r.rejects.count, r.rejects.path)
		}
		r.rejects = nil
	}
	if r.staging != nil {
		name := r.staging.Name()
		r.staging.Close()
		removeFile(name)
		r.staging = nil
	}
}

// normalizedSource is the reader -> normalizer -> dedup stage of a run.
type normalizedSource struct {
	run     *Run
	reader  *CSVReader
	columns columnMapping
	dedup   *Deduper
}

func (s *normalizedSource) Next(ctx context.Context) (models.Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, newError(CodeCanceled, "import canceled", ctx.Err())
		default:
		}

		row, err := s.reader.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, newError(CodeSourceRead, "reading source file", err)
		}
		s.run.Stats.Read++

		rec, rej := s.run.mapping.normalize(s.columns.apply(row))
		if rej != nil {
			if err := s.reject(*rej); err != nil {
				return nil, err
			}
			continue
		}
		if !s.dedup.Accept(rec) {
			if err := s.reject(Rejection{Reason: ReasonDuplicate, Row: row}); err != nil {
				return nil, err
			}
			continue
		}
		s.run.Stats.Accepted++
		return rec, nil
	}
}

func (s *normalizedSource) reject(r Rejection) error {
	r.Line = s.reader.Line()
	if r.Raw == "" {
		r.Raw = s.reader.Raw()
	}
	s.run.Stats.addRejection(r.Reason)
	if s.run.rejects == nil {
		return nil
	}
	if err := s.run.rejects.Write(r); err != nil {
		return newError(CodeStagingFailed, "writing rejection report", err)
	}
	return nil
}
