package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/nonsonwune/lmsconnector/config"
	"github.com/nonsonwune/lmsconnector/models"
)

// Job names one file to import.
type Job struct {
	Entity models.Entity
	Path   string
}

// Outcome is the result of one Job.
type Outcome struct {
	Job Job
	Run *Run
	Err error
}

// ImportAll runs jobs as independent import runs on at most workers
// goroutines. Outcomes come back in job order; one failed run does not stop
// the others.
func (im *Importer) ImportAll(ctx context.Context, jobs []Job, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = config.DefaultWorkerCount
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	outcomes := make([]Outcome, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			run, err := im.Import(ctx, job.Entity, job.Path)
			outcomes[i] = Outcome{Job: job, Run: run, Err: err}
		})
		if err != nil {
			wg.Done()
			outcomes[i] = Outcome{Job: job, Err: fmt.Errorf("submitting %s: %w", job.Path, err)}
		}
	}
	wg.Wait()
	return outcomes, nil
}
