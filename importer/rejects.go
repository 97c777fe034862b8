package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"

	"github.com/nonsonwune/lmsconnector/models"
)

// rejectLog records every rejected row of a run as line,reason,field,raw.
type rejectLog struct {
	path   string
	file   *os.File
	writer *csv.Writer
	enc    *csvutil.Encoder
	count  int
}

// RejectPath is where a run's reject report is written.
func RejectPath(dir string, entity models.Entity, runID uuid.UUID) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s-rejects.csv", entity, runID))
}

func openRejectLog(dir string, entity models.Entity, runID uuid.UUID) (*rejectLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating reject directory: %w", err)
	}
	path := RejectPath(dir, entity, runID)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating reject report: %w", err)
	}
	w := csv.NewWriter(f)
	return &rejectLog{
		path:   path,
		file:   f,
		writer: w,
		enc:    csvutil.NewEncoder(w),
	}, nil
}

func (l *rejectLog) Write(r Rejection) error {
	if err := l.enc.Encode(r); err != nil {
		return fmt.Errorf("writing reject report: %w", err)
	}
	l.count++
	return nil
}

func (l *rejectLog) Close() error {
	l.writer.Flush()
	werr := l.writer.Error()
	cerr := l.file.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
