package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"spanmidline/pkg/config"
	"spanmidline/pkg/midline"
	"spanmidline/pkg/nifti"
)

const usage = `usage:
  spanmidline subject [flags] <brain> <tissue> <csf> <atlas_dir> <output>
  spanmidline atlas   [flags] <brain> <csf> <output>
  spanmidline batch   [flags] -list <subjects.txt>
`

// options are the flags shared by every subcommand
type options struct {
	configPath string
	snapshot   bool
	workers    int
	hullRadius int
	verbose    bool
	debug      bool
	dataDir    string
	listPath   string
	initConfig bool
}

func newFlagSet(name string, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "spanmidline.yaml", "YAML configuration file (defaults are used when missing)")
	fs.BoolVar(&opts.snapshot, "snapshot", false, "Save a QC snapshot.png next to the results")
	fs.IntVar(&opts.workers, "workers", 0, "Number of subjects processed at once in batch mode (default: config)")
	fs.IntVar(&opts.hullRadius, "hull-radius", -1, "Closing passes applied to the midline region (default: config)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log progress information")
	fs.BoolVar(&opts.debug, "debug", false, "Log debug information")
	fs.BoolVar(&opts.initConfig, "init-config", false, "Write the default configuration to -config and exit")
	switch name {
	case "atlas":
		fs.StringVar(&opts.dataDir, "data", ".", "Directory holding "+midline.AtlasMiddleMask)
	case "batch":
		fs.StringVar(&opts.listPath, "list", "", "Job list: one 'brain tissue csf atlas_dir output' line per subject")
	}
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	return fs
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd != "batch" {
		if _, err := midline.ParseVariant(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n%s", err, usage)
			os.Exit(1)
		}
	}

	opts := &options{}
	fs := newFlagSet(cmd, opts)
	fs.Parse(os.Args[2:])

	if opts.initConfig {
		if err := config.CreateDefaultConfigFile(opts.configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.WithField("config", opts.configPath).Info("default configuration written")
		return
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch {
	case opts.debug:
		log.SetLevel(log.DebugLevel)
	case opts.verbose || cfg.Output.Verbose:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}

	base := baseParams(cfg, opts)
	store := nifti.Store{}
	args := fs.Args()
	startTime := time.Now()

	switch cmd {
	case "subject":
		if len(args) != 5 {
			fs.Usage()
			os.Exit(1)
		}
		params := midline.SubjectParams(base, args[0], args[1], args[2], args[3], args[4])
		err = runOne(params, store)

	case "atlas":
		if len(args) != 3 {
			fs.Usage()
			os.Exit(1)
		}
		params := base
		params.Variant = midline.VariantAtlas
		params.BrainMask = args[0]
		params.CSFMask = args[1]
		params.MiddleMask = filepath.Join(opts.dataDir, midline.AtlasMiddleMask)
		params.OutputDir = args[2]
		err = runOne(&params, store)

	case "batch":
		if opts.listPath == "" {
			fs.Usage()
			os.Exit(1)
		}
		err = runBatch(cfg, opts, base, store)
	}

	if err != nil {
		log.Fatalf("Midline analysis failed: %v", err)
	}
	log.WithField("seconds", fmt.Sprintf("%.2f", time.Since(startTime).Seconds())).Info("done")
}

// baseParams applies flag overrides on top of the loaded configuration
func baseParams(cfg *config.Config, opts *options) midline.Params {
	p := midline.Params{
		Frame:              cfg.Atlas,
		ThresholdDivisor:   cfg.Region.ThresholdDivisor,
		HullRadius:         cfg.Region.HullRadius,
		MinComponentVoxels: cfg.Region.MinComponentVoxels,
		SaveSnapshot:       cfg.Output.SaveSnapshot || opts.snapshot,
	}
	if opts.hullRadius >= 0 {
		p.HullRadius = opts.hullRadius
	}
	return p
}

func runOne(params *midline.Params, store nifti.Store) error {
	logger := log.WithField("run", uuid.NewString())
	return midline.NewPipeline(params, store, logger).Process()
}

func runBatch(cfg *config.Config, opts *options, base midline.Params, store nifti.Store) error {
	jobs, err := midline.ReadJobList(opts.listPath, base)
	if err != nil {
		return err
	}

	workers := cfg.Processing.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"subjects": len(jobs),
		"workers":  workers,
	}).Info("starting batch")
	return midline.RunBatch(ctx, jobs, store, log.StandardLogger(), workers)
}
