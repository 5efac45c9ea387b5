package main

//
// blt-analyze
//
// Measures the specificity of a CRISPR/Cas9 guide RNA across a pool of
// barcoded library targets (BLT). Given a demultiplexing manifest and one
// or more gzipped FASTQ files, it extracts, deduplicates, and validates
// every observed target, computes per-UMI/per-target/per-sample cut-rate
// metrics and a specificity score, and writes the results plus summary
// plots to an output directory.
//
// Example:
//
//    blt-analyze -i reads.fastq.gz -s manifest.txt -o out/
//

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/blt"
)

type cliFlags struct {
	input                string
	manifest             string
	output               string
	maxMismatches        int
	minDistance          int
	minQuality           float64
	minUncutReads        int
	minIdenticalFraction float64
	useCutSamples        bool
	fixedGuideLength     int
	threads              int
	rInterpreter         string
	summaryPlotScript    string
	perSamplePlotScript  string
}

func usage() {
	fmt.Fprintln(os.Stderr, `
blt-analyze measures CRISPR/Cas9 guide specificity from a pooled,
barcoded sequencing run.

Usage:
  blt-analyze -i reads1.fastq.gz,reads2.fastq.gz -s manifest.txt -o out/

Flags:`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage

	f := cliFlags{}
	flag.StringVar(&f.input, "i", "", "comma-separated list of gzipped input FASTQ files")
	flag.StringVar(&f.manifest, "s", "", "sample manifest path")
	flag.StringVar(&f.output, "o", "", "output directory")
	flag.IntVar(&f.maxMismatches, "m", 2, "max mismatches allowed when demultiplexing a sample barcode")
	flag.IntVar(&f.minDistance, "d", 2, "minimum margin between the best and second-best sample barcode match")
	flag.Float64Var(&f.minQuality, "q", 20, "minimum mean PHRED quality across the barcode/target/UMI regions")
	flag.IntVar(&f.minUncutReads, "u", 3, "minimum eligible uncut read count required to validate a target")
	flag.Float64Var(&f.minIdenticalFraction, "f", 0.9, "minimum fraction of eligible uncut reads that must agree on the consensus target")
	flag.BoolVar(&f.useCutSamples, "c", false, "allow cut samples' uncut reads to contribute to target validation")
	flag.IntVar(&f.fixedGuideLength, "l", 0, "fixed guide length, if guides are padded to a common length (0 = unset)")
	flag.IntVar(&f.threads, "t", 4, "worker pool size for per-sample metric generation")
	flag.StringVar(&f.rInterpreter, "r-interpreter", "Rscript", "R interpreter binary used to render plots")
	flag.StringVar(&f.summaryPlotScript, "summary-plot-script", "", "path to the experiment-wide cut-rate-by-mismatches R script")
	flag.StringVar(&f.perSamplePlotScript, "per-sample-plot-script", "", "path to the per-sample target R script")

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if f.input == "" || f.manifest == "" || f.output == "" {
		usage()
		os.Exit(2)
	}

	cfg := blt.Config{
		InputPaths:                strings.Split(f.input, ","),
		ManifestPath:              f.manifest,
		OutputDir:                 f.output,
		MaxMismatches:             f.maxMismatches,
		MinDistance:               f.minDistance,
		MinMeanQuality:            f.minQuality,
		MinUncutReads:             f.minUncutReads,
		MinIdenticalFraction:      f.minIdenticalFraction,
		UseCutSamplesInValidation: f.useCutSamples,
		FixedGuideLength:          f.fixedGuideLength,
		Threads:                   f.threads,
		Plot: blt.PlotConfig{
			Interpreter:     f.rInterpreter,
			SummaryScript:   f.summaryPlotScript,
			PerSampleScript: f.perSamplePlotScript,
		},
	}

	if err := blt.AnalyzeExperiment(ctx, cfg); err != nil {
		log.Printf("blt-analyze: %v", err)
		os.Exit(1)
	}
	log.Printf("blt-analyze: done")
}
