// Package midline measures the lateral midline shift of a brain mask and the
// left/right tissue volume asymmetry.
//
// The analysis runs in four stages:
// 1. Select the midline candidate region (csf intersected with a midline band)
// 2. Reduce the region to component centroids
// 3. Measure the shift of the first centroid against the landmark frame
// 4. Split tissue into hemispheres and compare their volumes
package midline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"spanmidline/internal/models"
	"spanmidline/pkg/centroid"
	"spanmidline/pkg/mask"
	"spanmidline/pkg/output"
	"spanmidline/pkg/points"
	"spanmidline/pkg/visualization"
)

// Output file names.
const (
	CentroidFile  = "centroid.txt"
	LandmarkFile  = "landmarks.txt"
	HemisMaskFile = "hemis.mask.nii.gz"
)

// MaskStore loads and saves label masks.
type MaskStore interface {
	Read(path string) (*mask.Mask, error)
	Write(path string, m *mask.Mask) error
}

// Params holds the inputs and settings of one run.
type Params struct {
	Variant Variant

	// Mask paths. TissueMask is only used by the subject variant.
	BrainMask  string
	TissueMask string
	CSFMask    string
	MiddleMask string

	// LandmarkFile is read by the subject variant; the atlas variant uses Frame.
	LandmarkFile string
	Frame        models.LandmarkFrame

	// OutputDir is replaced atomically at the end of the run.
	OutputDir string

	ThresholdDivisor   float64
	HullRadius         int
	MinComponentVoxels int

	SaveSnapshot bool
}

// Inputs are the loaded masks and landmark frame of a run.
type Inputs struct {
	Brain  *mask.Mask
	Tissue *mask.Mask
	CSF    *mask.Mask
	Middle *mask.Mask
	Frame  models.LandmarkFrame
}

// Result is everything a run computes.
type Result struct {
	Centroids models.CentroidSet
	Shift     *Shift

	// Hemispheres is nil for the atlas variant
	Hemispheres *Hemispheres

	Table *models.MetricTable
}

// Pipeline runs one subject from files to an output directory.
type Pipeline struct {
	params *Params
	store  MaskStore
	log    logrus.FieldLogger
	now    func() time.Time

	result *Result
}

// NewPipeline creates a pipeline for params. Masks are read and written
// through store.
func NewPipeline(params *Params, store MaskStore, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		params: params,
		store:  store,
		log:    log,
		now:    time.Now,
	}
}

// Result returns the outcome of the last successful Process call.
func (p *Pipeline) Result() *Result {
	return p.result
}

func (p *Pipeline) requiredInputs() []string {
	if p.params.Variant == VariantAtlas {
		return []string{p.params.BrainMask, p.params.CSFMask, p.params.MiddleMask}
	}
	return []string{p.params.BrainMask, p.params.TissueMask, p.params.CSFMask, p.params.MiddleMask, p.params.LandmarkFile}
}

// Process runs the complete pipeline. Fatal errors leave any previous
// output directory untouched.
func (p *Pipeline) Process() error {
	p.log.Info("started")

	for _, input := range []struct{ name, path string }{
		{"brain", p.params.BrainMask},
		{"tissue", p.params.TissueMask},
		{"csf", p.params.CSFMask},
		{"middle", p.params.MiddleMask},
		{"output", p.params.OutputDir},
	} {
		if input.path != "" {
			p.log.WithField(input.name, input.path).Info("using input")
		}
	}

	// Step 1: all inputs must exist before anything is computed
	if err := CheckInputs(p.requiredInputs()...); err != nil {
		return err
	}

	// Step 2: load masks and landmarks
	p.log.Info("reading input")
	in, err := p.loadInputs()
	if err != nil {
		return err
	}

	// Step 3: run the analysis in memory
	res, err := Analyze(in, p.params, p.log)
	if err != nil {
		return err
	}

	// Step 4: write to a temp directory, then swap it into place
	if err := p.emit(in, res); err != nil {
		return err
	}

	p.result = res
	p.log.Info("finished")
	return nil
}

func (p *Pipeline) loadInputs() (*Inputs, error) {
	in := &Inputs{Frame: p.params.Frame}

	read := func(path string) (*mask.Mask, error) {
		m, err := p.store.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read mask: %w", err)
		}
		return m, nil
	}

	var err error
	if in.Brain, err = read(p.params.BrainMask); err != nil {
		return nil, err
	}
	if in.CSF, err = read(p.params.CSFMask); err != nil {
		return nil, err
	}
	if in.Middle, err = read(p.params.MiddleMask); err != nil {
		return nil, err
	}

	if p.params.Variant == VariantSubject {
		if in.Tissue, err = read(p.params.TissueMask); err != nil {
			return nil, err
		}

		p.log.Info("loading landmarks")
		if in.Frame, err = ReadLandmarkFrame(p.params.LandmarkFile); err != nil {
			return nil, err
		}
	}

	return in, nil
}

// Analyze computes centroids, shift metrics and, for the subject variant,
// the hemisphere partition. It does no file I/O.
func Analyze(in *Inputs, params *Params, log logrus.FieldLogger) (*Result, error) {
	res := &Result{}

	switch params.Variant {
	case VariantSubject:
		divisor := params.ThresholdDivisor
		if divisor <= 0 {
			divisor = DefaultThresholdDivisor
		}
		region, err := SelectRegion(in.CSF, in.Middle, RegionParams{
			ApplyThreshold: true,
			Threshold:      RegionThreshold(in.Frame, divisor),
			ApplyHull:      true,
			HullRadius:     params.HullRadius,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to select midline region: %w", err)
		}
		res.Centroids = centroid.Extract(region, centroid.Options{})

	case VariantAtlas:
		minVoxels := params.MinComponentVoxels
		if minVoxels <= 0 {
			minVoxels = centroid.DefaultMinVoxels
		}
		cs, err := centroid.ExtractPair(in.CSF, in.Middle, true, minVoxels)
		if err != nil {
			return nil, fmt.Errorf("failed to extract centroids: %w", err)
		}
		res.Centroids = cs

	default:
		return nil, fmt.Errorf("unsupported variant %v", params.Variant)
	}

	res.Shift = ComputeShift(res.Centroids, in.Frame, in.Brain)

	if !res.Shift.Found() {
		log.Info("no centroid found, saving NA values")
	} else {
		c := res.Centroids[0]
		log.WithFields(logrus.Fields{
			"x": c.X, "y": c.Y, "z": c.Z,
			"components": len(res.Centroids),
		}).Info("centroid")
		log.WithFields(logrus.Fields{
			"iMin": res.Shift.IMin,
			"iMax": res.Shift.IMax,
		}).Info("boundary scan")

		if res.Shift.DegenerateBoundary() {
			log.Warn("no brain voxels along the shift line, width-based metrics are degenerate")
		}
	}

	if params.Variant == VariantSubject {
		hemis, err := Partition(in.Tissue, res.Shift, log)
		if err != nil {
			return nil, err
		}
		res.Hemispheres = hemis
	}

	res.Table = BuildTable(params.Variant, res.Shift, res.Hemispheres)
	return res, nil
}

func (p *Pipeline) emit(in *Inputs, res *Result) error {
	stamp := p.now().Unix()

	tmp, err := output.TempDir(p.params.OutputDir, stamp)
	if err != nil {
		return err
	}
	p.log.WithField("tmp", tmp).Debug("using temp directory")

	if err := p.writeResults(tmp, in, res); err != nil {
		os.RemoveAll(tmp)
		return err
	}

	if _, err := output.Swap(tmp, p.params.OutputDir, stamp, p.log); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) writeResults(dir string, in *Inputs, res *Result) error {
	if err := output.WriteTable(filepath.Join(dir, output.TableFile), res.Table); err != nil {
		return err
	}
	if err := points.Write(filepath.Join(dir, CentroidFile), res.Centroids); err != nil {
		return err
	}
	if err := points.Write(filepath.Join(dir, LandmarkFile), res.Shift.Landmarks.Points()); err != nil {
		return err
	}

	snapshotMask := in.Brain
	if res.Hemispheres != nil {
		if err := p.store.Write(filepath.Join(dir, HemisMaskFile), res.Hemispheres.Mask); err != nil {
			return fmt.Errorf("failed to write hemisphere mask: %w", err)
		}
		if res.Hemispheres.Computed {
			snapshotMask = res.Hemispheres.Mask
		}
	}

	if p.params.SaveSnapshot {
		path := filepath.Join(dir, visualization.SnapshotFile)
		if err := visualization.SaveSnapshot(path, snapshotMask, res.Shift.Landmarks); err != nil {
			p.log.WithError(err).Warn("failed to save snapshot")
		}
	}
	return nil
}
