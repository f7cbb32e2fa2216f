// PlateNest: build plate auto-arrangement for 3D printing
//
// Reads a list of object footprints (a saved job, CSV, Excel or DXF file),
// arranges them on a build plate and prints where each object goes.
//
// Build:
//   go build -o platenest ./cmd/platenest
//
// Example:
//   platenest -profile "Prusa MK4" -margin 4 -pdf plate.pdf parts.csv
//   platenest -width 300 -depth 300 -save-profile "Voron 300" parts.csv
//   platenest -import-profile voron.json

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/piwi3910/PlateNest/internal/engine"
	"github.com/piwi3910/PlateNest/internal/export"
	"github.com/piwi3910/PlateNest/internal/importer"
	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/piwi3910/PlateNest/internal/project"
)

const recentJobsLimit = 10

type options struct {
	profile    string
	width      float64
	depth      float64
	margin     float64
	scale      float64
	step       int
	algorithm  string
	exhaustive bool
	compare    bool
	chart      string
	out        string
	pdf        string
	labels     string
	xlsx       string
	config     string
	verbose    bool

	saveProfile   string
	importProfile string
	exportProfile string

	set map[string]bool
	src string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("platenest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: platenest [flags] <job.json|objects.csv|objects.xlsx|drawing.dxf>")
		fmt.Fprintln(stderr, "       platenest [-import-profile file] [-export-profile file]")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.profile, "profile", "", "plate profile name ("+strings.Join(model.GetPlateProfileNames(), ", ")+")")
	fs.Float64Var(&o.width, "width", 0, "plate width in mm (overrides the profile)")
	fs.Float64Var(&o.depth, "depth", 0, "plate depth in mm (overrides the profile)")
	fs.Float64Var(&o.margin, "margin", 0, "clearance around each object in mm")
	fs.Float64Var(&o.scale, "scale", 0, "grid cells per mm")
	fs.IntVar(&o.step, "step", 0, "test every Nth candidate cell")
	fs.StringVar(&o.algorithm, "algorithm", "", "arrangement algorithm (greedy, genetic)")
	fs.BoolVar(&o.exhaustive, "exhaustive", false, "search every priority for every object")
	fs.BoolVar(&o.compare, "compare", false, "compare alternative settings")
	fs.StringVar(&o.chart, "chart", "", "write the comparison as an HTML chart to this path (implies -compare)")
	fs.StringVar(&o.out, "out", "", "write the result as JSON to this path")
	fs.StringVar(&o.pdf, "pdf", "", "write a PDF layout report to this path")
	fs.StringVar(&o.labels, "labels", "", "write QR object labels as PDF to this path")
	fs.StringVar(&o.xlsx, "xlsx", "", "write the placements as an Excel workbook to this path")
	fs.StringVar(&o.config, "config", project.DefaultConfigPath(), "config file path")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.StringVar(&o.saveProfile, "save-profile", "", "save the resolved plate as a custom profile with this name")
	fs.StringVar(&o.importProfile, "import-profile", "", "add the plate profile in this JSON file to the custom profiles")
	fs.StringVar(&o.exportProfile, "export-profile", "", "write the selected plate profile as JSON to this path")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	profileOnly := fs.NArg() == 0 && (o.importProfile != "" || o.exportProfile != "")
	if fs.NArg() > 1 || (fs.NArg() == 0 && !profileOnly) {
		fs.Usage()
		return o, errors.New("expected exactly one input file")
	}
	if profileOnly && o.saveProfile != "" {
		fs.Usage()
		return o, errors.New("-save-profile needs an input file")
	}
	o.src = fs.Arg(0)
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := project.LoadAppConfig(opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	env, err := project.LoadEnv()
	if err != nil {
		fmt.Fprintf(stderr, "read environment: %v\n", err)
		return 1
	}
	env.Apply(&cfg)

	level := project.ParseLogLevel(cfg.LogLevel)
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	profilesPath := filepath.Join(filepath.Dir(opts.config), "plates.json")
	custom, err := project.LoadCustomProfiles(profilesPath)
	if err != nil {
		if opts.saveProfile != "" || opts.importProfile != "" {
			logger.Error("load custom plate profiles", "path", profilesPath, "error", err)
			return 1
		}
		logger.Warn("load custom plate profiles", "path", profilesPath, "error", err)
	}
	model.CustomProfiles = custom

	if err := manageProfiles(opts, cfg, profilesPath, stdout); err != nil {
		logger.Error("plate profile", "error", err)
		return 1
	}
	if opts.src == "" {
		return 0
	}

	job, err := loadInput(opts.src, logger)
	if err != nil {
		logger.Error("load input", "path", opts.src, "error", err)
		return 1
	}
	if !strings.HasSuffix(strings.ToLower(opts.src), ".json") {
		job.Plate = model.GetPlateProfile(cfg.DefaultPlateProfile).Plate()
		cfg.ApplyToSettings(&job.Settings)
	}
	applyFlags(opts, &job)
	if opts.saveProfile != "" {
		p := model.PlateProfile{
			Name:             opts.saveProfile,
			Description:      "Saved from " + filepath.Base(opts.src),
			Width:            job.Plate.Width,
			Depth:            job.Plate.Depth,
			DisallowedMargin: job.Plate.DisallowedMargin,
		}
		if err := storeProfile(profilesPath, p); err != nil {
			logger.Error("save plate profile", "name", p.Name, "error", err)
			return 1
		}
		job.Plate.Name = p.Name
		fmt.Fprintf(stdout, "saved plate profile %q\n", p.Name)
	}
	job.Objects = model.ExpandQuantities(job.Objects)

	arr := engine.New(job.Settings, engine.WithLogger(logger))
	result, err := arr.Arrange(ctx, job.Plate, job.Objects, job.Fixed)
	if err != nil {
		logger.Error("arrange", "error", err)
		return 1
	}

	printResult(stdout, job.Plate, result)
	for _, w := range engine.FormatConflictWarnings(engine.CheckConflicts(job.Plate, result, arr.Settings), arr.Settings.Scale) {
		fmt.Fprintf(stdout, "WARNING: %s\n", w)
	}

	if opts.compare || opts.chart != "" {
		scenarios := engine.BuildDefaultScenarios(arr.Settings)
		comparison := engine.CompareScenarios(ctx, scenarios, job.Plate, job.Objects, job.Fixed, logger)
		printComparison(stdout, comparison)
		if opts.chart != "" {
			if err := export.ExportComparisonChart(opts.chart, comparison); err != nil {
				logger.Error("write comparison chart", "error", err)
				return 1
			}
		}
	}

	if err := writeOutputs(opts, job, result); err != nil {
		logger.Error("write output", "error", err)
		return 1
	}

	if abs, err := filepath.Abs(opts.src); err == nil {
		cfg.AddRecentJob(abs, recentJobsLimit)
		if err := project.SaveAppConfig(opts.config, cfg); err != nil {
			logger.Warn("save config", "path", opts.config, "error", err)
		}
	}

	if !result.AllFit() || len(result.Unconverted) > 0 {
		return 3
	}
	return 0
}

// manageProfiles handles -import-profile and -export-profile. An import is
// stored before the export runs, so both can name the same profile.
func manageProfiles(o options, cfg model.AppConfig, profilesPath string, stdout io.Writer) error {
	if o.importProfile != "" {
		p, err := project.ImportProfile(o.importProfile)
		if err != nil {
			return fmt.Errorf("import %s: %w", o.importProfile, err)
		}
		if err := storeProfile(profilesPath, p); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "imported plate profile %q\n", p.Name)
	}

	if o.exportProfile != "" {
		name := cfg.DefaultPlateProfile
		if o.set["profile"] {
			name = o.profile
		}
		p, ok := lookupProfile(name)
		if !ok {
			return fmt.Errorf("unknown plate profile %q", name)
		}
		if err := project.ExportProfile(o.exportProfile, p); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		fmt.Fprintf(stdout, "exported plate profile %q to %s\n", p.Name, o.exportProfile)
	}
	return nil
}

// storeProfile adds or replaces p in the custom profile file and the
// in-memory profile list.
func storeProfile(path string, p model.PlateProfile) error {
	updated, err := project.UpsertProfile(model.CustomProfiles, p)
	if err != nil {
		return err
	}
	if err := project.SaveCustomProfiles(path, updated); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	model.CustomProfiles = updated
	return nil
}

func lookupProfile(name string) (model.PlateProfile, bool) {
	for _, p := range model.AllPlateProfiles() {
		if p.Name == name {
			return p, true
		}
	}
	return model.PlateProfile{}, false
}

// loadInput turns the input file into a job. Tabular and DXF imports carry
// no plate or settings; the caller fills those in.
func loadInput(path string, logger *slog.Logger) (model.Job, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return project.LoadJob(path)
	}

	var imported importer.ImportResult
	switch ext {
	case ".csv", ".txt", ".tsv":
		imported = importer.ImportCSV(path)
	case ".xlsx", ".xlsm":
		imported = importer.ImportExcel(path)
	case ".dxf":
		imported = importer.ImportDXF(path)
	default:
		return model.Job{}, fmt.Errorf("unsupported input file type %q", ext)
	}

	for _, w := range imported.Warnings {
		logger.Debug("import", "warning", w)
	}
	for _, e := range imported.Errors {
		logger.Warn("import", "error", e)
	}
	if len(imported.Objects) == 0 {
		return model.Job{}, fmt.Errorf("no objects imported from %s", path)
	}

	movable, fixed := imported.Split()
	job := model.NewJob()
	job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	job.Objects = movable
	if fixed != nil {
		job.Fixed = fixed
	}
	return job, nil
}

// applyFlags lets explicitly set flags win over the job and the config.
func applyFlags(o options, job *model.Job) {
	if o.set["profile"] {
		job.Plate = model.GetPlateProfile(o.profile).Plate()
	}
	if o.set["width"] {
		job.Plate.Width = o.width
		job.Plate.Name = ""
	}
	if o.set["depth"] {
		job.Plate.Depth = o.depth
		job.Plate.Name = ""
	}
	s := &job.Settings
	if o.set["margin"] {
		s.Margin = o.margin
	}
	if o.set["scale"] {
		s.Scale = o.scale
	}
	if o.set["step"] {
		s.Step = o.step
	}
	if o.set["algorithm"] {
		s.Algorithm = model.Algorithm(o.algorithm)
	}
	if o.exhaustive {
		s.ReusePriority = false
	}
}

func writeOutputs(o options, job model.Job, result model.ArrangeResult) error {
	if o.out != "" {
		if err := project.WriteResult(o.out, job.Plate, job.Settings, result); err != nil {
			return err
		}
	}
	if o.pdf != "" {
		if err := export.ExportPDF(o.pdf, job.Plate, result, job.Settings); err != nil {
			return fmt.Errorf("pdf report: %w", err)
		}
	}
	if o.labels != "" {
		if err := export.ExportLabels(o.labels, job.Plate, result); err != nil {
			return fmt.Errorf("labels: %w", err)
		}
	}
	if o.xlsx != "" {
		if err := export.ExportExcel(o.xlsx, job.Plate, result); err != nil {
			return fmt.Errorf("excel export: %w", err)
		}
	}
	return nil
}

func printResult(w io.Writer, plate model.Plate, result model.ArrangeResult) {
	name := plate.Name
	if name == "" {
		name = "custom plate"
	}
	fmt.Fprintf(w, "%s (%.0f x %.0f mm): %d placed, %d not fitting, %d not converted, %.1f%% covered\n",
		name, plate.Width, plate.Depth, len(result.Placed()), len(result.NotFit()), len(result.Unconverted), result.Utilization(plate))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tX\tY\tPRIORITY\tSTATUS")
	for _, p := range result.Placements {
		status := "placed"
		if !p.Fits {
			status = "NOT FITTING"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%d\t%s\n", p.Object.ID, p.Object.Label, p.X, p.Y, p.Priority, status)
	}
	for _, o := range result.Unconverted {
		fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\tNOT CONVERTED\n", o.ID, o.Label)
	}
	tw.Flush()
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tPLACED\tNOT FITTING\tCOVERAGE")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", r.Scenario.Name, r.PlacedCount, r.NotFitCount, r.Utilization)
	}
	tw.Flush()
}
