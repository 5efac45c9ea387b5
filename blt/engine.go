package blt

import (
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/unsafe"

	"github.com/grailbio/blt/sample"
)

// SampleResult bundles one sample's full metric output: its per-UMI rows,
// per-target rollup, per-mismatch rollup, and specificity score.
type SampleResult struct {
	Sample        *sample.Sample
	UMIMetrics    []UMIMetric
	TargetMetrics []TargetMetric
	SampleMetrics []SampleMetric
	BltMetric     BltMetric
}

const numResultShards = 64

// resultMap is a sharded, thread-safe map from sample name to SampleResult,
// used to collect each worker's output without synchronizing on a single
// lock (mirrors the mate-pairing map in bam record processing: each worker
// only ever touches the shard its own sample name hashes to).
type resultMap struct {
	shards [numResultShards]struct {
		mu sync.Mutex
		m  map[string]*SampleResult
	}
}

func newResultMap() *resultMap {
	rm := &resultMap{}
	for i := range rm.shards {
		rm.shards[i].m = map[string]*SampleResult{}
	}
	return rm
}

func (rm *resultMap) put(name string, r *SampleResult) {
	h := seahash.Sum64(unsafe.StringToBytes(name))
	shard := &rm.shards[h%numResultShards]
	shard.mu.Lock()
	shard.m[name] = r
	shard.mu.Unlock()
}

func (rm *resultMap) get(name string) *SampleResult {
	h := seahash.Sum64(unsafe.StringToBytes(name))
	shard := &rm.shards[h%numResultShards]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.m[name]
}

// GenerateSampleMetrics computes every sample's metrics independently,
// partitioning the work across a worker pool bounded to threads (§4.6/§5
// -- metric generation is the one stage of the pipeline that parallelizes,
// by sample). The manifest and target infos are read-only and shared
// across workers; each worker writes only to its own sample's shard of the
// result map, then results are gathered back in manifest order.
func GenerateSampleMetrics(m *sample.Manifest, infos []TargetInfo, specificityUpperBound, threads int) ([]SampleResult, error) {
	rm := newResultMap()
	err := traverse.T{Limit: threads}.Each(len(m.Samples), func(i int) error {
		s := m.Samples[i]
		umiRows := umiMetricsForSample(s, infos)
		normalizeUMIRows(umiRows)
		targetRows := targetMetricsForSample(s, umiRows)
		sampleRows := sampleMetricsForSample(s, targetRows)
		rm.put(s.Name, &SampleResult{
			Sample:        s,
			UMIMetrics:    umiRows,
			TargetMetrics: targetRows,
			SampleMetrics: sampleRows,
			BltMetric:     bltMetricForSample(s, sampleRows, specificityUpperBound),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	results := make([]SampleResult, len(m.Samples))
	for i, s := range m.Samples {
		results[i] = *rm.get(s.Name)
	}
	return results, nil
}
