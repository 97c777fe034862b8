package importer

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/nonsonwune/lmsconnector/models"
)

// createStagingFile makes the run's private scratch file in dir (the system
// temp dir when empty).
func createStagingFile(dir string, entity models.Entity, runID uuid.UUID) (*os.File, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating staging directory: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, fmt.Sprintf("lms-%s-%s-*.csv", entity, runID))
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}
	return f, nil
}

func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not remove %s: %v", path, err)
	}
}
