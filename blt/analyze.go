package blt

import (
	"context"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/blt/demux"
	"github.com/grailbio/blt/encoding/fastq"
	"github.com/grailbio/blt/extract"
	"github.com/grailbio/blt/sample"
)

// Config holds every AnalyzeExperiment parameter, mirroring the CLI flags
// of the blt-analyze command (§6).
type Config struct {
	InputPaths                []string // gzipped FASTQ sources, concatenated in order
	ManifestPath              string
	OutputDir                 string
	MaxMismatches             int
	MinDistance               int
	MinMeanQuality            float64
	MinUncutReads             int
	MinIdenticalFraction      float64
	UseCutSamplesInValidation bool
	FixedGuideLength          int // 0 means unset
	Threads                   int
	Plot                      PlotConfig
}

// progressInterval is how often the extraction stage logs a progress line
// (§4.6: "reports progress every ~2.5M reads processed").
const progressInterval = 2_500_000

// Validate checks Config's cross-field invariants (§4.6). It does not
// touch the filesystem beyond checking that input paths are readable and
// the output directory is writable.
func (c *Config) Validate(m *sample.Manifest) error {
	if len(c.InputPaths) == 0 {
		return errors.New("blt: no input FASTQ paths given")
	}
	for _, p := range c.InputPaths {
		f, err := os.Open(p)
		if err != nil {
			return errors.Wrapf(err, "blt: input FASTQ %q is not readable", p)
		}
		f.Close()
	}
	if err := checkWritableDir(c.OutputDir); err != nil {
		return err
	}
	if c.MaxMismatches < 0 {
		return errors.New("blt: max-mismatches must be >= 0")
	}
	if c.MinDistance < 0 {
		return errors.New("blt: min-distance must be >= 0")
	}
	if c.MinUncutReads < 1 {
		return errors.New("blt: min-uncut-reads must be >= 1")
	}
	if c.MinIdenticalFraction < 0 || c.MinIdenticalFraction > 1 {
		return errors.New("blt: min-identical-fraction must be in [0, 1]")
	}
	if c.Threads < 1 {
		return errors.New("blt: threads must be >= 1")
	}
	if c.FixedGuideLength > 0 {
		for _, s := range m.Samples {
			if c.FixedGuideLength < len(s.Guide) {
				return errors.Errorf("blt: fixed-guide-length %d is shorter than sample %q's guide (%d)", c.FixedGuideLength, s.Name, len(s.Guide))
			}
		}
	}
	return nil
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "blt: output directory %q is not writable", dir)
	}
	probe := dir + "/.blt-write-probe"
	f, err := os.Create(probe)
	if err != nil {
		return errors.Wrapf(err, "blt: output directory %q is not writable", dir)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

// AnalyzeExperiment runs the full BLT pipeline: it parses the manifest and
// off-target files, streams every input FASTQ through the Cas9 extractor,
// deduplicates and validates the resulting reads, generates per-sample
// metrics, writes every output file, and invokes plotting (§4.6).
func AnalyzeExperiment(ctx context.Context, cfg Config) error {
	manifestFile, err := os.Open(cfg.ManifestPath)
	if err != nil {
		return errors.Wrapf(err, "blt: opening manifest %q", cfg.ManifestPath)
	}
	m, err := sample.ParseManifest(manifestFile)
	manifestFile.Close()
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(m); err != nil {
		return err
	}
	if err := m.LoadAllOffTargets(ctx); err != nil {
		return err
	}

	d := demux.New(m, cfg.MaxMismatches, cfg.MinDistance)
	extractor := extract.New(m, d, cfg.MinMeanQuality, cfg.FixedGuideLength)

	reads, stats, err := extractReads(cfg.InputPaths, extractor)
	if err != nil {
		return err
	}
	log.Printf("blt: extraction complete: %d landmark failures, %d assignment failures", stats.FailedLandmarks, stats.FailedAssign)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return errors.Wrapf(err, "blt: creating output directory %q", cfg.OutputDir)
	}
	if err := writeFile(ctx, cfg.OutputDir+"/demultiplexing.summary.txt", func(w *tsv.Writer) error {
		return WriteDemultiplexingSummary(w, stats)
	}); err != nil {
		return err
	}
	if err := writeFile(ctx, cfg.OutputDir+"/demultiplexing.details.txt", func(w *tsv.Writer) error {
		return WriteDemultiplexingDetails(w, m, stats)
	}); err != nil {
		return err
	}

	observations := Dedup(reads)
	log.Printf("blt: deduplicated %d reads into %d observations, fingerprint=%016x", len(reads), len(observations), Fingerprint(observations))
	infos, validationMetrics := ValidateTargets(observations, cfg.MinUncutReads, cfg.MinIdenticalFraction, cfg.UseCutSamplesInValidation)
	log.Printf("blt: validated %d of %d observed (UMI, guide, PAM) pairings", len(infos), len(validationMetrics))

	if err := writeGzipFile(ctx, cfg.OutputDir+"/target_validation.txt.gz", func(w *tsv.Writer) error {
		return WriteTargetValidation(w, validationMetrics)
	}); err != nil {
		return err
	}

	results, err := GenerateSampleMetrics(m, infos, DefaultSpecificityUpperBound, cfg.Threads)
	if err != nil {
		return err
	}

	for _, r := range results {
		sampleDir := cfg.OutputDir + "/" + r.Sample.Name
		if err := os.MkdirAll(sampleDir, 0755); err != nil {
			return errors.Wrapf(err, "blt: creating sample directory %q", sampleDir)
		}
		if err := writeGzipFile(ctx, sampleDir+"/"+r.Sample.Name+".umis.txt.gz", func(w *tsv.Writer) error {
			return WriteSampleUMIs(w, r.UMIMetrics)
		}); err != nil {
			return err
		}
		if err := writeGzipFile(ctx, sampleDir+"/"+r.Sample.Name+".targets.txt.gz", func(w *tsv.Writer) error {
			return WriteSampleTargets(w, r.TargetMetrics)
		}); err != nil {
			return err
		}
		if err := writeFile(ctx, sampleDir+"/"+r.Sample.Name+".summary.txt", func(w *tsv.Writer) error {
			return WriteSampleSummary(w, r.SampleMetrics)
		}); err != nil {
			return err
		}
	}

	if err := writeFile(ctx, cfg.OutputDir+"/summary.txt", func(w *tsv.Writer) error {
		return WriteSummary(w, results)
	}); err != nil {
		return err
	}

	if cfg.Plot.Interpreter != "" && cfg.Plot.SummaryScript != "" && cfg.Plot.PerSampleScript != "" {
		if err := RunPlots(cfg.Plot, cfg.OutputDir, results); err != nil {
			log.Printf("blt: plotting failed: %v", err)
		}
	}

	return nil
}

// extractReads streams every input FASTQ path through extractor in order,
// materializing every successfully extracted read into a single buffer
// (§4.6/§5: extraction is single-producer single-consumer).
func extractReads(paths []string, extractor *extract.Extractor) ([]extract.Read, extract.Stats, error) {
	var reads []extract.Read
	nProcessed := 0
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, extract.Stats{}, errors.Wrapf(err, "blt: opening %q", path)
		}
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, extract.Stats{}, errors.Wrapf(err, "blt: ungzipping %q", path)
		}
		sc := fastq.NewScanner(gz, fastq.Seq|fastq.Qual)
		var rec fastq.Read
		for sc.Scan(&rec) {
			r, reason := extractor.Extract(rec.Seq, rec.Qual)
			nProcessed++
			if nProcessed%progressInterval == 0 {
				log.Printf("blt: processed %d reads", nProcessed)
			}
			if reason == extract.OK {
				reads = append(reads, r)
			}
		}
		err = sc.Err()
		gz.Close()
		f.Close()
		if err != nil {
			return nil, extract.Stats{}, errors.Wrapf(err, "blt: reading %q", path)
		}
	}
	log.Printf("blt: processed %d reads total", nProcessed)
	return reads, extractor.Stats(), nil
}

// writeFile creates path and runs fn over a tsv.Writer wrapping it.
func writeFile(ctx context.Context, path string, fn func(*tsv.Writer) error) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "blt: creating %q", path)
	}
	defer file.CloseAndReport(ctx, f, &err)
	return fn(tsv.NewWriter(f.Writer(ctx)))
}

// writeGzipFile creates path and runs fn over a tsv.Writer wrapping a gzip
// writer over it.
func writeGzipFile(ctx context.Context, path string, fn func(*tsv.Writer) error) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "blt: creating %q", path)
	}
	defer file.CloseAndReport(ctx, f, &err)

	gz := gzip.NewWriter(f.Writer(ctx))
	once := errors.Once{}
	once.Set(fn(tsv.NewWriter(gz)))
	once.Set(gz.Close())
	return once.Err()
}
