package blt

import (
	"os/exec"

	"github.com/grailbio/base/log"
)

// PlotConfig names the external R interpreter and the two packaged
// plotting scripts invoked once metric generation completes (§6). Summary
// renders cut_rate_by_mismatches.pdf from every cut sample's summary
// file; PerSample renders one <sample>.pdf from a single sample's
// targets file.
type PlotConfig struct {
	Interpreter   string // e.g. "Rscript"
	SummaryScript string // receives: <outputPDF> <summaryFile>...
	PerSampleScript string // receives: <targetsFile> <outputPDF>
}

const emptyDataWarningBanner = `
################################################################
# WARNING: no cut sample produced any validated target.
# Skipping cut_rate_by_mismatches.pdf and all per-sample plots.
################################################################
`

// RunPlots invokes the configured plotting scripts over results. It skips
// plotting and logs a warning banner when no cut sample produced any
// usable data (§4.5.5/§6).
func RunPlots(cfg PlotConfig, outputDir string, results []SampleResult) error {
	var cutSummaryFiles []string
	for _, r := range results {
		if r.Sample.Cut && sampleHasData(r) {
			cutSummaryFiles = append(cutSummaryFiles, sampleSummaryPath(outputDir, r.Sample.Name))
		}
	}
	if len(cutSummaryFiles) == 0 {
		log.Printf("%s", emptyDataWarningBanner)
		return nil
	}

	summaryPDF := outputDir + "/cut_rate_by_mismatches.pdf"
	args := append([]string{cfg.SummaryScript, summaryPDF}, cutSummaryFiles...)
	if err := runScript(cfg.Interpreter, args); err != nil {
		return err
	}

	for _, r := range results {
		if !r.Sample.Cut || !sampleHasData(r) {
			continue
		}
		targetsFile := sampleTargetsPath(outputDir, r.Sample.Name)
		pdf := outputDir + "/" + r.Sample.Name + "/" + r.Sample.Name + ".pdf"
		args := []string{cfg.PerSampleScript, targetsFile, pdf}
		if err := runScript(cfg.Interpreter, args); err != nil {
			return err
		}
	}
	return nil
}

func sampleHasData(r SampleResult) bool {
	return len(r.TargetMetrics) > 0
}

func sampleSummaryPath(outputDir, sampleName string) string {
	return outputDir + "/" + sampleName + "/" + sampleName + ".summary.txt"
}

func sampleTargetsPath(outputDir, sampleName string) string {
	return outputDir + "/" + sampleName + "/" + sampleName + ".targets.txt.gz"
}

func runScript(interpreter string, args []string) error {
	cmd := exec.Command(interpreter, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("plot script failed: %v\n%s", err, out)
		return err
	}
	return nil
}
