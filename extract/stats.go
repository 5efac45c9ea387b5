package extract

// SampleStats holds per-sample extraction counters.
type SampleStats struct {
	FailedExtract int
	FailedQuality int
	Extracted     int
}

// Add adds o's counters into s.
func (s *SampleStats) Add(o SampleStats) {
	s.FailedExtract += o.FailedExtract
	s.FailedQuality += o.FailedQuality
	s.Extracted += o.Extracted
}

// Stats accumulates the extractor's per-read classification counts: the
// experiment-wide demultiplexing summary (FailedLandmarks, FailedAssign)
// and one SampleStats per successfully-demultiplexed sample (see §4.3).
type Stats struct {
	FailedLandmarks int
	FailedAssign    int
	PerSample       map[string]*SampleStats
}

// forSample returns the SampleStats for name, creating it if necessary.
func (s *Stats) forSample(name string) *SampleStats {
	if s.PerSample == nil {
		s.PerSample = map[string]*SampleStats{}
	}
	ss, ok := s.PerSample[name]
	if !ok {
		ss = &SampleStats{}
		s.PerSample[name] = ss
	}
	return ss
}

// Merge adds o's counters into s and returns s.
func (s *Stats) Merge(o Stats) *Stats {
	s.FailedLandmarks += o.FailedLandmarks
	s.FailedAssign += o.FailedAssign
	for name, ss := range o.PerSample {
		s.forSample(name).Add(*ss)
	}
	return s
}
