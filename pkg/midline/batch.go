package midline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Atlas directory contents read by the subject variant.
const (
	AtlasMiddleMask = "middle.mask.nii.gz"
	AtlasLandmarks  = "lm.txt"
)

// SubjectParams fills the subject-variant paths of a copy of base. The atlas
// directory must hold middle.mask.nii.gz and lm.txt.
func SubjectParams(base Params, brain, tissue, csf, atlasDir, outputDir string) *Params {
	p := base
	p.Variant = VariantSubject
	p.BrainMask = brain
	p.TissueMask = tissue
	p.CSFMask = csf
	p.MiddleMask = filepath.Join(atlasDir, AtlasMiddleMask)
	p.LandmarkFile = filepath.Join(atlasDir, AtlasLandmarks)
	p.OutputDir = outputDir
	return &p
}

// ReadJobList parses a batch file. Each non-blank line that does not start
// with '#' lists: brain tissue csf atlas_dir output.
func ReadJobList(path string, base Params) ([]*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening job list: %w", err)
	}
	defer f.Close()

	var jobs []*Params
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%s:%d: expected 5 fields (brain tissue csf atlas_dir output), got %d", path, line, len(fields))
		}
		jobs = append(jobs, SubjectParams(base, fields[0], fields[1], fields[2], fields[3], fields[4]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading job list: %w", err)
	}
	return jobs, nil
}

// RunBatch processes independent subjects concurrently, at most workers at
// a time. A failing subject does not stop the others; all failures are
// joined into the returned error. Jobs not yet started when ctx is cancelled
// are skipped.
func RunBatch(ctx context.Context, jobs []*Params, store MaskStore, log logrus.FieldLogger, workers int) error {
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	var mu sync.Mutex
	var errs []error
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(fmt.Errorf("%s: %w", job.OutputDir, err))
				return nil
			}

			jobLog := log.WithFields(logrus.Fields{
				"run":    uuid.NewString(),
				"output": job.OutputDir,
			})
			if err := NewPipeline(job, store, jobLog).Process(); err != nil {
				jobLog.WithError(err).Error("subject failed")
				record(fmt.Errorf("%s: %w", job.OutputDir, err))
			}
			return nil
		})
	}

	g.Wait()
	return errors.Join(errs...)
}
