package blt

import (
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/blt/extract"
	"github.com/grailbio/blt/sample"
)

func testSample(name string, cut bool) *sample.Sample {
	return &sample.Sample{Name: name, Guide: "GGCCTCCCCAAAGCCTGGCCA", PAM: "GGGAGT", Enzyme: sample.Cas9, Cut: cut}
}

func TestDedupCollapsesDuplicateReads(t *testing.T) {
	s := testSample("s1", true)
	reads := []extract.Read{
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
		{Sample: s, UMI: "CCCCCCCCCCC", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
	}
	obs := Dedup(reads)
	expect.EQ(t, len(obs), 2)
	for _, o := range obs {
		if o.UMI == "AAAAAAAAAAA" {
			expect.EQ(t, len(o.TargetSequences), 2)
		}
	}
}

func TestDedupIsIdempotent(t *testing.T) {
	s := testSample("s1", true)
	reads := []extract.Read{
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
	}
	once := Dedup(reads)

	var rereads []extract.Read
	for _, o := range once {
		for _, target := range o.TargetSequences {
			rereads = append(rereads, extract.Read{
				Sample: o.Sample, UMI: o.UMI, Stagger: o.Stagger,
				RandomBarcode: o.RandomBarcode, Cut: o.Cut, Target: target,
			})
		}
	}
	twice := Dedup(rereads)
	expect.EQ(t, len(once), len(twice))
	expect.EQ(t, once[0].TargetSequences[0], twice[0].TargetSequences[0])
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	s := testSample("s1", true)
	reads := []extract.Read{
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
		{Sample: s, UMI: "CCCCCCCCCCC", Stagger: 2, RandomBarcode: "GATTAC", Cut: false, Target: "CC"},
	}
	forward := Dedup(reads)
	reversed := Dedup([]extract.Read{reads[1], reads[0]})
	expect.EQ(t, Fingerprint(forward), Fingerprint(reversed))
}

// Cut is part of the dedup key, so reads sharing every other field but
// disagreeing on cut status fall into separate groups rather than
// triggering the mixed-status panic.
func TestDedupKeepsCutAndUncutReadsSeparate(t *testing.T) {
	s := testSample("s1", true)
	reads := []extract.Read{
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: true, Target: "GG"},
		{Sample: s, UMI: "AAAAAAAAAAA", Stagger: 1, RandomBarcode: "GATTAC", Cut: false, Target: "GG"},
	}
	obs := Dedup(reads)
	expect.EQ(t, len(obs), 2)
	expect.True(t, obs[0].Cut != obs[1].Cut)
}
